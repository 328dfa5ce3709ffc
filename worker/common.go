package worker

import (
	"haidetect.com/hai/knowtator"
	"fmt"
	"path"
	"time"
)

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func reportPrefix(task *Task) string {
	return path.Join(
		"processed",
		"corpora",
		task.reportTask.CorpusID,
		"reports",
		task.redisKey,
	)
}

func getResultsFileKey(task *Task) string {
	return path.Join(reportPrefix(task), fmt.Sprintf("%s.hai_results.json", task.redisKey))
}

func getKnowtatorFileKey(task *Task) string {
	return path.Join(reportPrefix(task), knowtator.FileName(reportID(task)))
}

// reportID names the report inside knowtator output. Older tasks carry no
// report id, those fall back to the redis key.
func reportID(task *Task) string {
	if task.reportTask.ReportID != "" {
		return task.reportTask.ReportID
	}
	return task.redisKey
}

func formatTime(t time.Time) *string {
	formatted := t.UTC().Format(RFC3339Micro)
	return &formatted
}
