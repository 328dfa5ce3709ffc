package main

import (
	"haidetect.com/hai/logger"
	"haidetect.com/hai/metrics"
	"haidetect.com/hai/pipeline"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"time"
)

type Config struct {
	ConfigPath       string `envconfig:"HAI_CONFIG_PATH" default:"resources/configs"`
	SchemaName       string `envconfig:"HAI_SCHEMA" default:"hai_detect"`
	LexiconPath      string `envconfig:"HAI_LEXICON_PATH" default:""`
	RestAPIActive    bool   `envconfig:"HAI_REST_API_ACTIVE" default:"false"`
	RestAPIPort      string `envconfig:"HAI_REST_API_PORT" default:"10000"`
	MetricsNamespace string `envconfig:"HAI_METRICS_NAMESPACE" default:"hai"`
}

// RootOptions holds the persistent flags. Flags win over the environment.
type RootOptions struct {
	ConfigPath  string
	SchemaName  string
	LexiconPath string

	env Config
}

const (
	pipelineStartMaxRetries = 5
	pipelineRetryDelay      = 5 * time.Second
)

func (o *RootOptions) resolve() error {
	if err := envconfig.Process("", &o.env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if o.ConfigPath == "" {
		o.ConfigPath = o.env.ConfigPath
	}
	if o.SchemaName == "" {
		o.SchemaName = o.env.SchemaName
	}
	if o.LexiconPath == "" {
		o.LexiconPath = o.env.LexiconPath
	}
	return nil
}

func (o *RootOptions) pipelineParams(observer pipeline.Observer) pipeline.HAIParams {
	params := pipeline.GetHAIParams(o.ConfigPath, o.SchemaName, o.LexiconPath)
	params.Observer = observer
	return params
}

func (o *RootOptions) newCollector() (*metrics.Collector, error) {
	return metrics.NewCollector(metrics.Config{
		Namespace:            o.env.MetricsNamespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	})
}

// loadPipeline retries HAIDetect a few times before giving up.
func loadPipeline(params pipeline.HAIParams) (pipeline.Pipeline, error) {
	mainLogger := logger.NewLogger("Main")
	var lastErr error
	for retry := 0; retry < pipelineStartMaxRetries; retry++ {
		ppln, err := pipeline.HAIDetect(params)
		if err == nil {
			mainLogger.Info().Str("schema", params.SchemaName).Msg("Pipeline loaded")
			return ppln, nil
		}
		lastErr = err
		mainLogger.Err(err).Msgf("Failed to start HAI detect pipeline. Retrying in %s", pipelineRetryDelay)
		time.Sleep(pipelineRetryDelay)
	}
	return nil, fmt.Errorf("could not start pipeline after %d retries: %w", pipelineStartMaxRetries, lastErr)
}
