package worker

import (
	"haidetect.com/hai/logger"
	"haidetect.com/hai/pipeline"
	"haidetect.com/hai/rmq"
	"haidetect.com/hai/s3client"
	"haidetect.com/hai/tasks"
	"context"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"time"
)

type Config struct {
	TaskMaxRetries int `envconfig:"HAI_RETRY_TASK_COUNT_MAX" default:"3"`
}

type Worker struct {
	config    Config
	redis     redisTransactions
	s3        s3Transactions
	rmq       rmqTransactions
	haiLogger *zerolog.Logger
	ppln      pipeline.Pipeline
	now       func() time.Time
}

func New(ppln pipeline.Pipeline) (*Worker, error) {
	haiLogger := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		haiLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := Worker{
		config:    config,
		haiLogger: &haiLogger,
		ppln:      ppln,
		now:       time.Now,
	}
	if err := worker.refreshRMQClient(); err != nil {
		haiLogger.Error().Err(err).Msg("Could not create RMQ client")
		return nil, err
	}
	if err := worker.refreshS3Client(); err != nil {
		haiLogger.Error().Err(err).Msg("Could not create S3 client")
		worker.rmq.close()
		return nil, err
	}
	if err := worker.refreshRedisClients(); err != nil {
		haiLogger.Error().Err(err).Msg("Could not create Redis client")
		worker.rmq.close()
		worker.s3.close()
		return nil, err
	}
	return &worker, nil
}

// StartWorker consumes deliveries until ctx is done or the RMQ client cannot
// be refreshed.
func (worker *Worker) StartWorker(ctx context.Context) error {
	defer worker.Close()
	for {
		var err error
		select {
		case <-ctx.Done():
			worker.haiLogger.Info().Msg("Stopping worker")
			return nil
		case delivery, ok := <-worker.rmq.getDeliveriesCh():
			if ok {
				go worker.processMessage(&delivery)
				continue
			}
			err = worker.recoverRMQ("deliveries channel closed", nil)
		case rmqErr := <-worker.rmq.getRespChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			err = worker.recoverRMQ("response connection received error", rmqErr)
		case rmqErr := <-worker.rmq.getReqChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			err = worker.recoverRMQ("request connection received error", rmqErr)
		}
		if err != nil {
			return err
		}
	}
}

func (worker *Worker) recoverRMQ(event string, rmqErr *amqp.Error) error {
	logEvent := worker.haiLogger.Error()
	if rmqErr != nil {
		logEvent = logEvent.Err(rmqErr)
	}
	logEvent.Msgf("RMQ %s, trying to refresh RMQ client", event)
	if err := worker.refreshRMQClient(); err != nil {
		return fmt.Errorf("rmq %s and refresh failed with: %w", event, err)
	}
	return nil
}

func (worker *Worker) Close() {
	worker.redis.close()
	worker.s3.close()
	worker.rmq.close()
}

func (worker *Worker) refreshRedisClients() error {
	worker.haiLogger.Info().Msg("Refreshing Redis client")
	if oldClient := worker.redis; oldClient != nil {
		defer oldClient.close()
	}
	tasksClient, err := tasks.NewClient()
	if err != nil {
		worker.haiLogger.Err(err).Msg("Failed to refresh Redis client")
		return err
	}
	worker.redis = &redisClientWrapper{tasksClient: &tasksClient, now: worker.now}
	worker.haiLogger.Info().Msg("Refreshed Redis client")
	return nil
}

func (worker *Worker) refreshRMQClient() error {
	worker.haiLogger.Info().Msg("Refreshing RMQ client")
	if oldClient := worker.rmq; oldClient != nil {
		defer oldClient.close()
	}
	rmqClient, err := rmq.NewClient()
	if err != nil {
		worker.haiLogger.Err(err).Msg("Failed to refresh RMQ client")
		return err
	}
	worker.rmq = &rmqClientWrapper{rmqClient}
	worker.haiLogger.Info().Msg("Refreshed RMQ client")
	return nil
}

func (worker *Worker) refreshS3Client() error {
	worker.haiLogger.Info().Msg("Refreshing S3 client")
	if oldClient := worker.s3; oldClient != nil {
		defer oldClient.close()
	}
	s3Client, err := s3client.New()
	if err != nil {
		worker.haiLogger.Err(err).Msg("Failed to refresh S3 client")
		return err
	}
	worker.s3 = &s3ClientWrapper{s3Client: s3Client, now: worker.now}
	worker.haiLogger.Info().Msg("Refreshed S3 client")
	return nil
}
