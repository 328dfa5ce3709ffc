package main

import (
	"haidetect.com/hai/logger"
	"fmt"
	"github.com/spf13/cobra"
	"os"
)

var version = "dev"

var options RootOptions

var rootCmd = &cobra.Command{
	Use:           "hai [command]",
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "hai detects hospital-acquired infection mentions in clinical notes.",
	Long: `hai finds surgical site infection, urinary tract infection and pneumonia
mentions in clinical reports and classifies them by assertion and temporality.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return options.resolve()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&options.ConfigPath, "config", "", "directory with schema YAML files (env HAI_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&options.SchemaName, "schema", "", "schema configuration name (env HAI_SCHEMA)")
	rootCmd.PersistentFlags().StringVar(&options.LexiconPath, "lexicon", "", "directory with targets.tsv and modifiers.tsv (env HAI_LEXICON_PATH)")

	rootCmd.AddCommand(newAnnotateCmd(), newServeCmd(), newWorkerCmd(), newSuperviseCmd(), newVersionCmd())
}

func main() {
	logger.SetupLogging()
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		mainLogger := logger.NewLogger("Main")
		mainLogger.Error().Err(err).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hai version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "hai %s\n", version)
			return err
		},
	}
}
