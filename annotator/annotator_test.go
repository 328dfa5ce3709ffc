package annotator

import (
	"errors"
	"haidetect.com/hai/classifier"
	"haidetect.com/hai/markup"
	"haidetect.com/hai/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func node(category, literal string, begin, end int) *markup.Node {
	return markup.NewNode(category, literal, types.NewSpan(begin, end))
}

func newSentenceAnnotator() SentenceAnnotator {
	return NewSentenceAnnotator(classifier.NewClassifier(classifier.DefaultSchema()), []string{"infection", "discharge"})
}

func TestSentenceAnnotatorCollapsesDuplicates(t *testing.T) {
	g := markup.NewGraph()
	first := node("pneumonia", "pneumonia", 10, 19)
	second := node("pneumonia", "pna", 30, 33)
	g.AddTarget(first)
	g.AddTarget(second)
	g.AddModifier(first, node("probable_existence", "possible", 0, 8))

	sentence := types.Sentence{Span: types.NewSpan(100, 140), Index: 4, Text: "possible pneumonia, consistent with pna."}
	kept, failures := newSentenceAnnotator()(sentence, g)
	require.Empty(t, failures)
	require.Len(t, kept, 1)

	ann := kept[0]
	assert.Equal(t, "Positive Evidence of Pneumonia", ann.Classification)
	assert.Equal(t, types.AssertionProbable, ann.Attributes.Assertion)
	assert.Equal(t, types.NewSpan(0, 19), ann.SpanInSentence)
	assert.Equal(t, sentence.Span, ann.SpanInDocument)
	assert.Equal(t, 4, ann.SentenceIndex)
	assert.Equal(t, sentence.Text, ann.Text)
}

func TestSentenceAnnotatorKeepsDistinctClassifications(t *testing.T) {
	g := markup.NewGraph()
	uti := node("urinary tract infection", "uti", 0, 3)
	pna := node("pneumonia", "pneumonia", 10, 19)
	negated := node("pneumonia", "pna", 30, 33)
	g.AddTarget(uti)
	g.AddTarget(pna)
	g.AddTarget(negated)
	g.AddModifier(negated, node("definite_negated_existence", "no", 27, 29))

	kept, _ := newSentenceAnnotator()(types.Sentence{Text: "uti"}, g)
	require.Len(t, kept, 3)
	assert.Equal(t, "Positive Evidence of UTI", kept[0].Classification)
	assert.Equal(t, "Positive Evidence of Pneumonia", kept[1].Classification)
	assert.Equal(t, "Negated Evidence of Pneumonia", kept[2].Classification)
}

func TestSentenceAnnotatorExclusions(t *testing.T) {
	g := markup.NewGraph()
	g.AddTarget(node("infection", "infection", 0, 9))
	g.AddTarget(node("discharge", "discharge", 10, 19))
	g.AddTarget(node("anatomy", "abdomen", 20, 27))
	g.AddTarget(node("fever", "fever", 28, 33))
	procedure := node("procedure", "surgery", 40, 47)
	g.AddTarget(procedure)
	g.AddModifier(procedure, node("deep surgical site infection", "abscess", 50, 57))

	kept, failures := newSentenceAnnotator()(types.Sentence{}, g)
	assert.Empty(t, kept)
	assert.Empty(t, failures)
}

func TestSentenceAnnotatorPartialFailure(t *testing.T) {
	g := markup.NewGraph()
	g.AddTarget(node("explicit surgical site infection", "ssi", 0, 3))
	g.AddTarget(node("urinary tract infection", "uti", 10, 13))

	kept, failures := newSentenceAnnotator()(types.Sentence{Index: 2}, g)
	require.Len(t, kept, 1)
	assert.Equal(t, "Positive Evidence of UTI", kept[0].Classification)

	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].SentenceIndex)
	assert.Equal(t, "explicit surgical site infection", failures[0].TargetCategory)
	var classErr *classifier.ClassificationError
	assert.True(t, errors.As(failures[0], &classErr))
}

func TestNewMentionAnatomy(t *testing.T) {
	target := node("Surgical Site", "incision", 4, 12)
	mods := []markup.Modifier{
		node("superficial surgical site infection", "erythema", 20, 28),
		node("anatomy", "abdomen", 35, 42),
	}
	mention := NewMention(target, mods)
	assert.Equal(t, "surgical site", mention.TargetCategory)
	assert.Equal(t, []string{"superficial surgical site infection", "anatomy"}, mention.ModifierCategories)
	assert.Equal(t, []string{"incision", "abdomen"}, mention.AnatomyLiterals)

	mention = NewMention(node("pneumonia", "pneumonia", 0, 9), nil)
	assert.Empty(t, mention.AnatomyLiterals)
}

func TestDocumentAnnotator(t *testing.T) {
	markups := map[string]markup.Markup{}

	g := markup.NewGraph()
	g.AddTarget(node("pneumonia", "pneumonia", 0, 9))
	g.AddModifier(g.MarkedTargets()[0], node("historical", "history of", 10, 20))
	markups["first"] = g

	markups["second"] = markup.NewGraph()

	g = markup.NewGraph()
	wound := node("anatomy", "wound", 0, 5)
	g.AddTarget(wound)
	g.AddModifier(wound, node("dehiscence", "opened", 6, 12))
	uti := node("urinary tract infection", "uti", 20, 23)
	g.AddTarget(uti)
	markups["third"] = g

	tagger := func(sentence string) markup.Markup {
		return markups[sentence]
	}

	doc := types.Document{
		ID: "rpt_1",
		Sentences: []types.Sentence{
			{Span: types.NewSpan(0, 5), Index: 0, Text: "first"},
			{Span: types.NewSpan(6, 12), Index: 1, Text: "second"},
			{Span: types.NewSpan(13, 18), Index: 2, Text: "third"},
		},
	}
	res, failures := NewDocumentAnnotator(tagger, newSentenceAnnotator())(doc)
	require.Empty(t, failures)
	assert.Equal(t, "rpt_1", res.ID)
	assert.Equal(t, 3, res.SentenceCount())

	var classifications []string
	for _, ann := range res.GetAnnotations() {
		classifications = append(classifications, ann.Classification)
	}
	assert.Equal(t, []string{
		"Positive Evidence of Pneumonia - Historical",
		"Positive Evidence of SSI",
		"Positive Evidence of UTI",
	}, classifications)
	assert.Equal(t, map[int][]int{0: {0}, 2: {1, 2}}, res.SentenceAnnotations)
	assert.Equal(t, "hai_detect_Instance_1", res.Annotations[1].ID)
	assert.Equal(t, []string{"wound"}, res.Annotations[1].Anatomy)
	assert.Len(t, res.AnnotationsInSentence(2), 2)
	assert.Empty(t, res.AnnotationsInSentence(1))
}
