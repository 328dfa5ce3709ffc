package pipeline

type Request struct {
	Text string `json:"text"`
	Tid  string `json:"tid"`
}

type Pipeline func(request Request) <-chan Result
