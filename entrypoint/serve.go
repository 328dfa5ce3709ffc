package main

import (
	"haidetect.com/hai/api"
	"fmt"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the annotation REST API with prometheus metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = options.env.RestAPIPort
			}
			collector, err := options.newCollector()
			if err != nil {
				return err
			}
			ppln, err := loadPipeline(options.pipelineParams(collector))
			if err != nil {
				return err
			}
			return api.NewServer(ppln, collector.Handler()).Run(fmt.Sprintf(":%s", port))
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "REST API port (env HAI_REST_API_PORT)")
	return cmd
}
