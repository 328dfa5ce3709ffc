package types

import "strings"

type Document struct {
	ID          string       `json:"id"`
	Text        string       `json:"-"`
	Sentences   []Sentence   `json:"sentences"`
	Annotations []Annotation `json:"annotations"`
	// sentence index -> indices into Annotations
	SentenceAnnotations map[int][]int `json:"sentence_annotations"`
}

func (doc Document) GetAnnotations() []Annotation {
	return doc.Annotations
}

func (doc Document) SentenceCount() int {
	return len(doc.Sentences)
}

func (doc Document) AnnotationsInSentence(sentenceIndex int) []Annotation {
	indices := doc.SentenceAnnotations[sentenceIndex]
	res := make([]Annotation, 0, len(indices))
	for _, i := range indices {
		res = append(res, doc.Annotations[i])
	}
	return res
}

func (doc Document) String() string {
	var sb strings.Builder
	sb.WriteString("Report: ")
	sb.WriteString(doc.ID)
	sb.WriteString("\n")
	for _, sent := range doc.Sentences {
		sb.WriteString(sent.Text)
		sb.WriteString(" ")
		for _, ann := range doc.AnnotationsInSentence(sent.Index) {
			sb.WriteString(ann.ShortString())
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
