package types

import (
	"fmt"
	"strings"
)

type AnnotationType string

const (
	AnnotationTypeNone  AnnotationType = ""
	EvidenceOfSSI       AnnotationType = "Evidence of SSI"
	EvidenceOfUTI       AnnotationType = "Evidence of UTI"
	EvidenceOfPneumonia AnnotationType = "Evidence of Pneumonia"
)

func (t AnnotationType) IsNone() bool {
	return t == AnnotationTypeNone
}

type Assertion string

const (
	AssertionPresent    Assertion = "present"
	AssertionProbable   Assertion = "probable"
	AssertionNegated    Assertion = "negated"
	AssertionIndication Assertion = "indication"
)

func (a Assertion) IsValid() bool {
	switch a {
	case AssertionPresent, AssertionProbable, AssertionNegated, AssertionIndication:
		return true
	}
	return false
}

type Temporality string

const (
	TemporalityCurrent    Temporality = "current"
	TemporalityHistorical Temporality = "historical"
	TemporalityFuture     Temporality = "future/hypothetical"
)

// Label capitalizes every word of the temporality, e.g. "Future/Hypothetical".
func (t Temporality) Label() string {
	var sb strings.Builder
	upperNext := true
	for _, r := range string(t) {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		switch {
		case isLetter && upperNext:
			sb.WriteString(strings.ToUpper(string(r)))
			upperNext = false
		case isLetter:
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
			upperNext = true
		}
	}
	return sb.String()
}

type SSIClass string

const (
	SSISuperficial SSIClass = "superficial"
	SSIDeep        SSIClass = "deep"
	SSIOrganSpace  SSIClass = "organ-space"
)

func (c SSIClass) IsValid() bool {
	switch c {
	case SSISuperficial, SSIDeep, SSIOrganSpace:
		return true
	}
	return false
}

// SSIAttributes is only present on Evidence of SSI annotations.
type SSIAttributes struct {
	Class SSIClass `json:"ssi_class"`
}

type Attributes struct {
	Assertion   Assertion      `json:"assertion"`
	Temporality Temporality    `json:"temporality"`
	SSI         *SSIAttributes `json:"ssi,omitempty"`
}

func DefaultAttributes() Attributes {
	return Attributes{
		Assertion:   AssertionPresent,
		Temporality: TemporalityCurrent,
	}
}

type Annotation struct {
	ID                 string         `json:"id"`
	Annotator          string         `json:"annotator"`
	Type               AnnotationType `json:"annotation_type"`
	TargetCategory     string         `json:"target_category"`
	ModifierCategories []string       `json:"modifier_categories"`
	Anatomy            []string       `json:"anatomy,omitempty"`
	Attributes         Attributes     `json:"attributes"`
	Classification     string         `json:"classification"`
	SpanInSentence     Span           `json:"span_in_sentence"`
	SpanInDocument     Span           `json:"span_in_document"`
	SentenceIndex      int            `json:"sentence_index"`
	Text               string         `json:"text"`
}

// IsClassified reports whether the annotation resolved to a known classification.
// Unclassified annotations are never kept in a document.
func (ann Annotation) IsClassified() bool {
	return ann.Classification != ""
}

func (ann Annotation) SSIClass() (SSIClass, bool) {
	if ann.Attributes.SSI == nil {
		return "", false
	}
	return ann.Attributes.SSI.Class, true
}

func (ann Annotation) ShortString() string {
	return fmt.Sprintf(`<annotation annotator=%s text="%s" classification=%s></annotation>`,
		ann.Annotator, strings.ToUpper(ann.Text), ann.Classification)
}

func (ann Annotation) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Annotation by: %s\nText: %s\nSpan: (%d, %d)\n",
		ann.Annotator, ann.Text, ann.SpanInDocument.Begin, ann.SpanInDocument.End))
	sb.WriteString(fmt.Sprintf("Attributes:\n    Assertion: %s\n    Temporality: %s\n",
		ann.Attributes.Assertion, ann.Attributes.Temporality))
	if class, ok := ann.SSIClass(); ok {
		sb.WriteString(fmt.Sprintf("    Infection type: %s\n", class))
	}
	sb.WriteString(fmt.Sprintf("Classification: %s", ann.Classification))
	return sb.String()
}
