package main

import (
	"haidetect.com/hai/logger"
	"errors"
	"github.com/spf13/cobra"
)

func newSuperviseCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "supervise [--] <executable> [args...]",
		Short:              "Run a child process and turn its panic output into one JSON log record.",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			args = childArgs(args)
			if len(args) == 0 {
				return errors.New("supervise needs an executable")
			}
			logger.WrapProcess(args[0], args[1:]...)
			return nil
		},
	}
}

func childArgs(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}
