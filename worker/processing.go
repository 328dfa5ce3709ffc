package worker

import (
	"haidetect.com/hai/pipeline"
	"haidetect.com/hai/tasks"
	"haidetect.com/hai/utils"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

const (
	WorkTypeHAI = "hai"
	senderName  = "hai"
)

var ErrEmptyPipelineResult = errors.New("pipeline channel was closed before returning anything")

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery   *amqp.Delivery
	reportTask *tasks.ReportTask
	message    *Message
	redisKey   string
	result     *pipeline.Result
	haiLogger  *zerolog.Logger
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	task, err := worker.createTask(delivery)
	rejectLogger := worker.haiLogger.With().Str("message_id", delivery.MessageId).Logger()
	if err != nil {
		worker.haiLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("body", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.pingSequencer(task, *task.message); err != nil {
		task.haiLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.haiLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.haiLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	reportTask, err := worker.redis.getReportTask(message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query report task for message, got error %w", err)
	}
	taskLogger := worker.haiLogger.With().Str("tid", message.RedisKey).Logger()
	return &Task{
		delivery:   delivery,
		reportTask: reportTask,
		redisKey:   message.RedisKey,
		message:    &message,
		haiLogger:  &taskLogger,
	}, nil
}

func (worker *Worker) processTask(task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.haiLogger.Err(err).Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(task); err != nil {
		task.haiLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update task info: %w", err)
	}
	if err = worker.runPipeline(task); err != nil {
		task.haiLogger.Err(err).Msg("Got error while running pipeline")
		return worker.redis.onTaskFailedWithError(task, err)
	}
	task.haiLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(task); err != nil {
		task.haiLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.haiLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.reportTask.TaskStatuses.HAI.Attempts)
	data, err := worker.s3.getReportText(task)
	if err != nil {
		task.haiLogger.Err(err).Caller().Msg("Could not fetch report text from s3")
		return fmt.Errorf("failed fetch data from s3: %w", err)
	}
	request := pipeline.Request{
		Tid:  task.redisKey,
		Text: string(data),
	}
	result, ok := <-worker.ppln(request)
	if !ok {
		task.haiLogger.Error().Msg("Pipeline channel was closed before returning anything")
		return ErrEmptyPipelineResult
	}
	task.result = &result
	task.haiLogger.Info().
		Int("annotations", len(result.Document.Annotations)).
		Int("failures", len(result.Failures)).
		Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResults(task, result); err != nil {
		task.haiLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldPerformTask(task *Task) (bool, error) {
	taskInfo := task.reportTask.TaskStatuses.HAI
	taskLogger := task.haiLogger

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	job, err := worker.redis.getJobTask(task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for report task")
		return false, err
	}
	if job.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		return false, worker.redis.onTaskCancelled(task)
	}
	if job.StopCorpusOnFailure {
		corpus, err := worker.redis.getCorpusTask(task)
		if err != nil {
			return false, err
		}
		if corpus == nil {
			return false, errors.New("corpus task not found")
		}
		if len(corpus.FailedTasks) > 0 {
			failedTask := corpus.FailedTasks[0]
			taskLogger.Info().Msgf("Task is not required because \"%s\" already completed with failure "+
				"and the corpus won't be processed successfully. Sending back to Sequencer.", failedTask)
			return false, worker.redis.onTaskCancelled(
				task,
				fmt.Sprintf(
					"Task was marked as \"%s\" because the corpus has failed in the \"%s\" worker.",
					tasks.TaskStatusCanceled,
					failedTask,
				),
			)
		}
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("HAI task has exceeded retries. Sending back to Sequencer.")
		return false, worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
	}
	return true, nil
}
