package main

import (
	"haidetect.com/hai/api"
	"haidetect.com/hai/logger"
	"haidetect.com/hai/worker"
	"context"
	"fmt"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const workerRestartDelay = 5 * time.Second

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume HAI tasks from RabbitMQ and store results in S3.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWorker(ctx)
		},
	}
}

func runWorker(ctx context.Context) error {
	mainLogger := logger.NewLogger("Main")
	collector, err := options.newCollector()
	if err != nil {
		return err
	}
	ppln, err := loadPipeline(options.pipelineParams(collector))
	if err != nil {
		return err
	}

	if options.env.RestAPIActive {
		go func() {
			addr := fmt.Sprintf(":%s", options.env.RestAPIPort)
			err := api.NewServer(ppln, collector.Handler()).Run(addr)
			mainLogger.Error().Err(err).Msg("REST API stopped with error")
		}()
	}

	mainLogger.Info().Msg("Start HAI worker")
	for {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			return fmt.Errorf("could not initialize RMQ worker: %w", err)
		}
		err = rmqWorker.StartWorker(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			mainLogger.Err(err).Msgf("Worker returned with error. Launching new in %s", workerRestartDelay)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(workerRestartDelay):
		}
	}
}
