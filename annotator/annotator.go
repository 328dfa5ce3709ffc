package annotator

import (
	"haidetect.com/hai/classifier"
	"haidetect.com/hai/markup"
	"haidetect.com/hai/types"
	"fmt"
	"strings"
)

// MentionFailure is a target that could not be classified. It never aborts the sentence.
type MentionFailure struct {
	SentenceIndex  int    `json:"sentence_index"`
	TargetCategory string `json:"target_category"`
	Err            error  `json:"-"`
}

func (f MentionFailure) Error() string {
	return fmt.Sprintf("sentence %d: %v", f.SentenceIndex, f.Err)
}

func (f MentionFailure) Unwrap() error {
	return f.Err
}

// SentenceAnnotator classifies every target of a sentence and keeps one annotation per classification.
type SentenceAnnotator func(sentence types.Sentence, m markup.Markup) ([]types.Annotation, []MentionFailure)

func isAnatomyCategory(category string) bool {
	return category == classifier.CategoryAnatomy || category == classifier.CategorySurgicalSite
}

// NewMention collects the categories and anatomy literals of the modifiers attached to target.
func NewMention(target markup.Target, modifiers []markup.Modifier) classifier.Mention {
	category := strings.ToLower(markup.FirstCategory(target))
	mention := classifier.Mention{
		TargetCategory:     category,
		ModifierCategories: make([]string, 0, len(modifiers)),
	}
	if isAnatomyCategory(category) {
		mention.AnatomyLiterals = append(mention.AnatomyLiterals, target.Literal())
	}
	for _, mod := range modifiers {
		modCategory := strings.ToLower(markup.FirstCategory(mod))
		mention.ModifierCategories = append(mention.ModifierCategories, modCategory)
		if isAnatomyCategory(modCategory) {
			mention.AnatomyLiterals = append(mention.AnatomyLiterals, mod.Literal())
		}
	}
	return mention
}

func NewSentenceAnnotator(classify classifier.Classifier, exclusions []string) SentenceAnnotator {
	excluded := make(map[string]bool, len(exclusions))
	for _, e := range exclusions {
		excluded[strings.ToLower(e)] = true
	}

	return func(sentence types.Sentence, m markup.Markup) ([]types.Annotation, []MentionFailure) {
		var kept []types.Annotation
		var failures []MentionFailure
		seen := make(map[string]bool)

		for _, target := range m.MarkedTargets() {
			modifiers := m.Modifiers(target)
			mention := NewMention(target, modifiers)

			ann, err := classify(mention)
			if err != nil {
				failures = append(failures, MentionFailure{
					SentenceIndex:  sentence.Index,
					TargetCategory: mention.TargetCategory,
					Err:            err,
				})
				continue
			}
			if ann.Type.IsNone() || excluded[strings.ToLower(string(ann.Type))] || !ann.IsClassified() {
				continue
			}
			// same classification twice in one sentence is one finding
			if seen[ann.Classification] {
				continue
			}
			seen[ann.Classification] = true

			span := target.Span()
			for _, mod := range modifiers {
				span = span.Union(mod.Span())
			}
			ann.SpanInSentence = span
			ann.SpanInDocument = sentence.Span
			ann.SentenceIndex = sentence.Index
			ann.Text = sentence.Text
			kept = append(kept, ann)
		}
		return kept, failures
	}
}

// DocumentAnnotator marks up and annotates the sentences of doc in order.
type DocumentAnnotator func(doc types.Document) (types.Document, []MentionFailure)

func NewDocumentAnnotator(tagger markup.Tagger, annotateSentence SentenceAnnotator) DocumentAnnotator {
	return func(doc types.Document) (types.Document, []MentionFailure) {
		res := types.Document{
			ID:                  doc.ID,
			Text:                doc.Text,
			Sentences:           doc.Sentences,
			Annotations:         make([]types.Annotation, 0),
			SentenceAnnotations: make(map[int][]int),
		}
		var failures []MentionFailure

		for _, sentence := range doc.Sentences {
			kept, sentFailures := annotateSentence(sentence, tagger(sentence.Text))
			failures = append(failures, sentFailures...)
			for _, ann := range kept {
				idx := len(res.Annotations)
				ann.ID = fmt.Sprintf("%s_Instance_%d", ann.Annotator, idx)
				res.Annotations = append(res.Annotations, ann)
				res.SentenceAnnotations[sentence.Index] = append(res.SentenceAnnotations[sentence.Index], idx)
			}
		}
		return res, failures
	}
}
