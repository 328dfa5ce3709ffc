package tasks

import (
	"haidetect.com/hai/redis"
	"context"
)

const ReportsDB redis.DB = 2

type TaskStatus string

const (
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

// ReportTask is the per-note record the sequencer creates before queueing
// the note for annotation.
type ReportTask struct {
	ReportID     string             `json:"report_id"`
	CorpusID     string             `json:"corpus_id"`
	JobID        string             `json:"job_id"`
	TextFileKey  string             `json:"text_file_key"`
	TaskStatuses ReportTaskStatuses `json:"task_statuses"`
}

type ReportTaskStatuses struct {
	HAI ReportTaskInfo `json:"hai"`
}

type ReportTaskInfo struct {
	ResultsFileKey   string     `json:"results_file_key"`
	KnowtatorFileKey string     `json:"knowtator_file_key"`
	StartedAt        *string    `json:"started_at"`
	CompletedAt      *string    `json:"completed_at"`
	Attempts         int        `json:"attempts"`
	Status           TaskStatus `json:"status"`
	AnnotationCount  int        `json:"annotation_count"`
	FailureCount     int        `json:"failure_count"`
	ErrorMessages    []string   `json:"error_messages"`
}

type ReportTasks struct {
	client redis.Client
}

func (tasks ReportTasks) Get(ctx context.Context, redisKey string) (*ReportTask, error) {
	var task ReportTask
	if err := tasks.client.GetPartialDocument(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks ReportTasks) Update(ctx context.Context, redisKey string, updateFunc func(task *ReportTask)) error {
	var task ReportTask
	return tasks.client.UpdatePartialDocument(ctx, redisKey, &task, func() {
		updateFunc(&task)
	})
}
