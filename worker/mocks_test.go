package worker

import (
	"haidetect.com/hai/pipeline"
	"haidetect.com/hai/tasks"
	"haidetect.com/hai/types"
	"errors"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type pipelineMock struct {
	ppln   pipeline.Pipeline
	config pipelineMockConfig
	calls  pipelineCall
}

type pipelineMockConfig struct {
	fail   bool
	panics bool
}

type pipelineCall struct {
	pipeline bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
	task   *Task
}

type redisMockConfig struct {
	getReportTask         withValue
	getJobTask            withValue
	getCorpusTask         withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getReportTask         bool
	getJobTask            bool
	getCorpusTask         bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config rmqMockConfig
	calls  rmqMockCalls
}

type rmqMockConfig struct {
	pingSequencer       failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	pingSequencer       bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
	saved  *pipeline.Result
}

type s3MockConfig struct {
	getReportText withValue
	saveResults   failingMethod
}

type s3MockCalls struct {
	getReportText bool
	saveResults   bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func getPipelineMock(config pipelineMockConfig) *pipelineMock {
	mock := pipelineMock{config: config}
	mock.ppln = func(request pipeline.Request) <-chan pipeline.Result {
		mock.calls.pipeline = true
		if mock.config.panics {
			panic("tagger exploded")
		}
		ch := make(chan pipeline.Result, 1)
		if !mock.config.fail {
			ch <- pipeline.Result{
				Tid:    request.Tid,
				Schema: "hai_detect",
				Document: types.Document{
					ID:   request.Tid,
					Text: request.Text,
					Annotations: []types.Annotation{
						{ID: "hai_detect_Instance_0", Classification: "Positive Evidence of Pneumonia"},
					},
				},
			}
		}
		close(ch)
		return ch
	}
	return &mock
}

func (mock *redisMock) getReportTask(redisKey string) (*tasks.ReportTask, error) {
	mock.calls.getReportTask = true
	if mock.config.getReportTask.fail {
		return nil, errors.New("failed to get report task")
	}
	if task, ok := mock.config.getReportTask.returnedValue.(tasks.ReportTask); ok {
		return &task, nil
	}
	return &tasks.ReportTask{ReportID: "rpt-1", CorpusID: "corpus-1", JobID: "job-1"}, nil
}

func (mock *redisMock) getJobTask(task *Task) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	if job, ok := mock.config.getJobTask.returnedValue.(tasks.JobTask); ok {
		return &job, nil
	}
	return &tasks.JobTask{}, nil
}

func (mock *redisMock) getCorpusTask(task *Task) (*tasks.CorpusTaskCached, error) {
	mock.calls.getCorpusTask = true
	if mock.config.getCorpusTask.fail {
		return nil, errors.New("failed to get corpus task")
	}
	if corpus, ok := mock.config.getCorpusTask.returnedValue.(tasks.CorpusTaskCached); ok {
		return &corpus, nil
	}
	return &tasks.CorpusTaskCached{}, nil
}

func (mock *redisMock) onTaskStarted(task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update report task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update report task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update report task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update report task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(task *Task) error {
	mock.calls.onTaskComplete = true
	mock.task = task
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update report task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, haiLogger *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return nil
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) pingSequencer(task *Task, message Message) error {
	mock.calls.pingSequencer = true
	if mock.config.pingSequencer.fail {
		return errors.New("failed to ping sequencer")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) getReportText(task *Task) ([]byte, error) {
	mock.calls.getReportText = true
	if mock.config.getReportText.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	if text, ok := mock.config.getReportText.returnedValue.([]byte); ok {
		return text, nil
	}
	return []byte("Patient has pneumonia."), nil
}

func (mock *s3Mock) saveResults(task *Task, result pipeline.Result) error {
	mock.calls.saveResults = true
	mock.saved = &result
	if mock.config.saveResults.fail {
		return errors.New("failed to upload results")
	}
	return nil
}
