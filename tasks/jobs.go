package tasks

import (
	"haidetect.com/hai/redis"
	"context"
)

const JobsDB redis.DB = 1

type JobTask struct {
	UserCanceled        bool `json:"user_canceled"`
	StopCorpusOnFailure bool `json:"stop_corpus_on_failure"`
}

type JobTasks struct {
	client redis.Client
}

func (tasks JobTasks) GetCached(ctx context.Context, redisKey string) (*JobTask, error) {
	var task JobTask
	if err := tasks.client.GetPartialDocument(ctx, cachedPropertiesKey(redisKey), &task); err != nil {
		return nil, err
	}
	return &task, nil
}
