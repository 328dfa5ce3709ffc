package tasks

import (
	"haidetect.com/hai/redis"
	"fmt"
)

type Client struct {
	Corpora CorpusTasks
	Reports ReportTasks
	Jobs    JobTasks
}

// NewClient opens one Redis connection per task database.
func NewClient() (Client, error) {
	cfg, err := redis.ReadConfig()
	if err != nil {
		return Client{}, err
	}
	return Client{
		Corpora: CorpusTasks{client: redis.NewClientFromConfig(cfg, CorporaDB)},
		Jobs:    JobTasks{client: redis.NewClientFromConfig(cfg, JobsDB)},
		Reports: ReportTasks{client: redis.NewClientFromConfig(cfg, ReportsDB)},
	}, nil
}

func (client *Client) Close() {
	_ = client.Reports.client.Close()
	_ = client.Corpora.client.Close()
	_ = client.Jobs.client.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
