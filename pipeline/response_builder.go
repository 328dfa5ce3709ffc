package pipeline

import (
	"haidetect.com/hai/annotator"
	"haidetect.com/hai/types"
	"encoding/json"
)

type Result struct {
	Tid      string
	Schema   string
	Document types.Document
	Failures []annotator.MentionFailure
}

type AnnotationSection struct {
	Id             string           `json:"id"`
	AnnotationType string           `json:"annotation_type"`
	Classification string           `json:"classification"`
	Attributes     types.Attributes `json:"attributes"`
	Anatomy        []string         `json:"anatomy"`
	SentenceIndex  int              `json:"sentence_index"`
	// [sentence text, begin, end]
	Text []interface{} `json:"text"`
}

type FailureSection struct {
	SentenceIndex  int    `json:"sentence_index"`
	TargetCategory string `json:"target_category"`
	Error          string `json:"error"`
}

type HAIResponse struct {
	DocId         string              `json:"doc_id"`
	Schema        string              `json:"schema"`
	SentenceCount int                 `json:"sentence_count"`
	Content       []AnnotationSection `json:"content"`
	Failures      []FailureSection    `json:"failures"`
}

func NewHAIResponse(res Result) HAIResponse {
	response := HAIResponse{
		DocId:         res.Tid,
		Schema:        res.Schema,
		SentenceCount: res.Document.SentenceCount(),
		Content:       make([]AnnotationSection, len(res.Document.Annotations)),
		Failures:      make([]FailureSection, len(res.Failures)),
	}

	for i, ann := range res.Document.Annotations {
		anatomy := ann.Anatomy
		if anatomy == nil {
			anatomy = []string{}
		}
		response.Content[i] = AnnotationSection{
			Id:             ann.ID,
			AnnotationType: string(ann.Type),
			Classification: ann.Classification,
			Attributes:     ann.Attributes,
			Anatomy:        anatomy,
			SentenceIndex:  ann.SentenceIndex,
			Text: []interface{}{
				ann.Text,
				ann.SpanInDocument.Begin,
				ann.SpanInDocument.End,
			},
		}
	}

	for i, failure := range res.Failures {
		response.Failures[i] = FailureSection{
			SentenceIndex:  failure.SentenceIndex,
			TargetCategory: failure.TargetCategory,
			Error:          failure.Err.Error(),
		}
	}
	return response
}

func (res Result) JSON() ([]byte, error) {
	return json.Marshal(NewHAIResponse(res))
}
