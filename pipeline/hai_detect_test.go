package pipeline

import (
	"haidetect.com/hai/classifier"
	"haidetect.com/hai/markup"
	"haidetect.com/hai/nlp"
	"haidetect.com/hai/types"
	"encoding/json"
	"errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
	"time"
)

const (
	testConfigPath = "../resources/configs"
	testNote       = "History of pneumonia. The wound is clean, dry and intact. " +
		"No evidence of urinary tract infection. " +
		"Risk of surgical site infection after surgery was discussed. Patient has an infection."
)

type observerMock struct {
	docs     []types.Document
	failures int
}

func (o *observerMock) ObserveDocument(doc types.Document, failures int, _ time.Duration) {
	o.docs = append(o.docs, doc)
	o.failures += failures
}

func classifications(doc types.Document) []string {
	res := make([]string, 0, len(doc.Annotations))
	for _, ann := range doc.Annotations {
		res = append(res, ann.Classification)
	}
	return res
}

func TestHAIDetect(t *testing.T) {
	observer := &observerMock{}
	params := GetHAIParams(testConfigPath, "", "")
	params.Observer = observer
	ppln, err := HAIDetect(params)
	require.NoError(t, err)

	res, ok := <-ppln(Request{Text: testNote, Tid: "rpt_42"})
	require.True(t, ok)
	assert.Equal(t, "rpt_42", res.Tid)
	assert.Equal(t, types.DefaultConfigurationName, res.Schema)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 5, res.Document.SentenceCount())

	expected := []string{
		"Positive Evidence of Pneumonia - Historical",
		"Negated Evidence of SSI",
		"Negated Evidence of UTI",
		"Positive Evidence of SSI - Future/Hypothetical",
	}
	if diff := cmp.Diff(expected, classifications(res.Document)); diff != "" {
		t.Errorf("unexpected classifications (-expected +got):\n%s", diff)
	}

	wound := res.Document.Annotations[1]
	assert.Equal(t, types.SSISuperficial, wound.Attributes.SSI.Class)
	assert.Equal(t, []string{"wound"}, wound.Anatomy)
	assert.Equal(t, "The wound is clean, dry and intact.", wound.SpanInDocument.Slice(testNote))
	assert.Equal(t, "the wound is clean, dry and intact.", wound.Text)

	require.Len(t, observer.docs, 1)
	assert.Equal(t, 4, len(observer.docs[0].Annotations))
}

func TestHAIDetectProbableBucket(t *testing.T) {
	ppln, err := HAIDetect(GetHAIParams(testConfigPath, "probable_bucket", ""))
	require.NoError(t, err)

	res := <-ppln(Request{Text: "Possible pneumonia. " + testNote, Tid: "rpt_43"})
	assert.Equal(t, "probable_bucket", res.Schema)
	expected := []string{
		"Probable Evidence of Pneumonia",
		"Positive Evidence of Pneumonia - Historical",
		"Negated Evidence of SSI",
		"Negated Evidence of UTI",
		"Positive Evidence of SSI - Future/Hypothetical - No Anatomy",
	}
	if diff := cmp.Diff(expected, classifications(res.Document)); diff != "" {
		t.Errorf("unexpected classifications (-expected +got):\n%s", diff)
	}
}

func TestHAIDetectNegatedErythema(t *testing.T) {
	ppln, err := HAIDetect(GetHAIParams(testConfigPath, "", ""))
	require.NoError(t, err)

	for _, text := range []string{"The incision shows no erythema.", "The incision is without erythema."} {
		res := <-ppln(Request{Text: text, Tid: "rpt_43"})
		assert.Equal(t, []string{"Negated Evidence of SSI"}, classifications(res.Document), text)
	}
}

func TestHAIDetectUnknownSchema(t *testing.T) {
	_, err := HAIDetect(GetHAIParams(testConfigPath, "missing", ""))
	assert.True(t, errors.Is(err, ErrSchemaNotFound))
}

func TestHAIDetectLexiconOverride(t *testing.T) {
	params := GetHAIParams("", "", filepath.Join("..", "resources", "lexicon"))
	ppln, err := HAIDetect(params)
	require.NoError(t, err)

	res := <-ppln(Request{Text: "Denies UTI symptoms.", Tid: "rpt_44"})
	assert.Equal(t, []string{"Negated Evidence of UTI"}, classifications(res.Document))

	_, err = HAIDetect(GetHAIParams("", "", ""))
	assert.Error(t, err)
}

func TestPipelineResponse(t *testing.T) {
	g := func(sentence string) markup.Markup {
		graph := markup.NewGraph()
		graph.AddTarget(markup.NewNode("explicit surgical site infection", "ssi", types.NewSpan(0, 3)))
		graph.AddTarget(markup.NewNode("pneumonia", "pna", types.NewSpan(4, 7)))
		return graph
	}
	ppln := NewPipeline("custom", nlp.DefaultDetectorConfig(), g, classifier.DefaultSchema(), nil)

	res := <-ppln(Request{Text: "SSI PNA", Tid: "rpt_45"})
	require.Len(t, res.Failures, 1)

	buf, err := res.JSON()
	require.NoError(t, err)

	var response HAIResponse
	require.NoError(t, json.Unmarshal(buf, &response))
	assert.Equal(t, "rpt_45", response.DocId)
	assert.Equal(t, "custom", response.Schema)
	assert.Equal(t, 1, response.SentenceCount)
	require.Len(t, response.Content, 1)

	section := response.Content[0]
	assert.Equal(t, "hai_detect_Instance_0", section.Id)
	assert.Equal(t, "Evidence of Pneumonia", section.AnnotationType)
	assert.Equal(t, "Positive Evidence of Pneumonia", section.Classification)
	assert.Equal(t, []interface{}{"ssi pna", float64(0), float64(7)}, section.Text)
	assert.Equal(t, []string{}, section.Anatomy)

	require.Len(t, response.Failures, 1)
	assert.Equal(t, "explicit surgical site infection", response.Failures[0].TargetCategory)
	assert.Contains(t, response.Failures[0].Error, "no severity word")
}

func TestPipelinePanicClosesChannel(t *testing.T) {
	g := func(sentence string) markup.Markup {
		panic("broken tagger")
	}
	ppln := NewPipeline("custom", nlp.DefaultDetectorConfig(), g, classifier.DefaultSchema(), nil)

	res, ok := <-ppln(Request{Text: "Patient has pneumonia.", Tid: "rpt_46"})
	assert.False(t, ok)
	assert.Equal(t, Result{}, res)
}
