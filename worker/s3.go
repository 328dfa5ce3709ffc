package worker

import (
	"haidetect.com/hai/knowtator"
	"haidetect.com/hai/pipeline"
	"haidetect.com/hai/s3client"
	"bytes"
	"time"
)

const (
	contentTypeJSON = "application/json"
	contentTypeXML  = "application/xml"
)

type s3Transactions interface {
	saveResults(task *Task, result pipeline.Result) error
	getReportText(task *Task) ([]byte, error)
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
	now      func() time.Time
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

// saveResults uploads the JSON response and the knowtator XML next to it.
func (wrapper *s3ClientWrapper) saveResults(task *Task, result pipeline.Result) error {
	resultsJSON, err := result.JSON()
	if err != nil {
		return err
	}
	if err = wrapper.s3Client.Upload(resultsJSON, getResultsFileKey(task), contentTypeJSON); err != nil {
		return err
	}
	var xmlBuf bytes.Buffer
	if err = knowtator.Write(&xmlBuf, result.Document, reportID(task), wrapper.now()); err != nil {
		return err
	}
	return wrapper.s3Client.Upload(xmlBuf.Bytes(), getKnowtatorFileKey(task), contentTypeXML)
}

func (wrapper *s3ClientWrapper) getReportText(task *Task) ([]byte, error) {
	return wrapper.s3Client.Download(task.reportTask.TextFileKey)
}
