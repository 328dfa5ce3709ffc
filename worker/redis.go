package worker

import (
	"haidetect.com/hai/tasks"
	"context"
	"fmt"
	"time"
)

type redisTransactions interface {
	getReportTask(redisKey string) (*tasks.ReportTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	getCorpusTask(task *Task) (*tasks.CorpusTaskCached, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
	now         func() time.Time
}

var redisCtx = context.Background()

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	return wrapper.tasksClient.Reports.Update(redisCtx, task.redisKey, func(report *tasks.ReportTask) {
		info := &report.TaskStatuses.HAI
		info.Status = tasks.TaskStatusStarted
		info.Attempts++
		info.StartedAt = formatTime(wrapper.now())
		info.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	return wrapper.tasksClient.Reports.Update(redisCtx, task.redisKey, func(report *tasks.ReportTask) {
		info := &report.TaskStatuses.HAI
		info.Status = tasks.TaskStatusCanceled
		info.StartedAt = formatTime(wrapper.now())
		info.CompletedAt = formatTime(wrapper.now())
		info.Attempts++
		info.ErrorMessages = append(info.ErrorMessages, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	err := wrapper.tasksClient.Corpora.Update(redisCtx, task.reportTask.CorpusID, func(corpus *tasks.CorpusTask) {
		corpus.FailedTasks = append(corpus.FailedTasks, WorkTypeHAI)
		corpus.FailedReports[task.redisKey] = append(corpus.FailedReports[task.redisKey], WorkTypeHAI)
	})
	if err != nil {
		return err
	}
	return wrapper.tasksClient.Reports.Update(redisCtx, task.redisKey, func(report *tasks.ReportTask) {
		info := &report.TaskStatuses.HAI
		info.Status = tasks.TaskStatusCompletedFailure
		info.StartedAt = formatTime(wrapper.now())
		info.CompletedAt = formatTime(wrapper.now())
		info.Attempts++
		info.ErrorMessages = append(
			info.ErrorMessages,
			fmt.Sprintf("Task has exceeded retries. (Attempts: %d, max retries: %d)", info.Attempts, maxRetries),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Reports.Update(redisCtx, task.redisKey, func(report *tasks.ReportTask) {
		info := &report.TaskStatuses.HAI
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = formatTime(wrapper.now())
		info.ErrorMessages = append(info.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Reports.Update(redisCtx, task.redisKey, func(report *tasks.ReportTask) {
		info := &report.TaskStatuses.HAI
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = formatTime(wrapper.now())
		info.ResultsFileKey = getResultsFileKey(task)
		info.KnowtatorFileKey = getKnowtatorFileKey(task)
		if task.result != nil {
			info.AnnotationCount = len(task.result.Document.Annotations)
			info.FailureCount = len(task.result.Failures)
		}
	})
}

func (wrapper *redisClientWrapper) getReportTask(redisKey string) (*tasks.ReportTask, error) {
	return wrapper.tasksClient.Reports.Get(redisCtx, redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(redisCtx, task.reportTask.JobID)
}

func (wrapper *redisClientWrapper) getCorpusTask(task *Task) (*tasks.CorpusTaskCached, error) {
	return wrapper.tasksClient.Corpora.GetCached(redisCtx, task.reportTask.CorpusID)
}
