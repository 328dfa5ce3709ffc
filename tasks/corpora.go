package tasks

import (
	"haidetect.com/hai/redis"
	"context"
)

const CorporaDB redis.DB = 0

// CorpusTask groups the reports of one submitted corpus.
type CorpusTask struct {
	FailedTasks   []string            `json:"failed_tasks"`
	FailedReports map[string][]string `json:"failed_reports"`
}

// CorpusTaskCached is the light copy kept under the cached-properties key.
type CorpusTaskCached struct {
	FailedTasks []string `json:"failed_tasks"`
	JobID       string   `json:"job_id"`
	WorkType    string   `json:"work_type"`
}

type CorpusTasks struct {
	client redis.Client
}

func (tasks CorpusTasks) Get(ctx context.Context, redisKey string) (*CorpusTask, error) {
	var task CorpusTask
	if err := tasks.client.GetPartialDocument(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks CorpusTasks) GetCached(ctx context.Context, redisKey string) (*CorpusTaskCached, error) {
	var task CorpusTaskCached
	if err := tasks.client.GetPartialDocument(ctx, cachedPropertiesKey(redisKey), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies updateFunc to the corpus and mirrors the failed task list
// into the cached copy. Both writes happen under the corpus lock.
func (tasks CorpusTasks) Update(ctx context.Context, redisKey string, updateFunc func(task *CorpusTask)) (err error) {
	releaseLock, err := tasks.client.Lock(ctx, redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()

	var task CorpusTask
	err = tasks.client.UpdatePartialDocumentUnlocked(ctx, redisKey, &task, func() {
		if task.FailedReports == nil {
			task.FailedReports = map[string][]string{}
		}
		updateFunc(&task)
	})
	if err != nil {
		return err
	}
	var cached CorpusTaskCached
	return tasks.client.UpdatePartialDocumentUnlocked(ctx, cachedPropertiesKey(redisKey), &cached, func() {
		cached.FailedTasks = task.FailedTasks
	})
}
