package metrics

import (
	"haidetect.com/hai/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// gather returns metric name (plus classification label) -> counter value or histogram sample count.
func gather(t *testing.T, c *Collector) map[string]float64 {
	families, err := c.Registry().Gather()
	require.NoError(t, err)

	res := make(map[string]float64)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			name := family.GetName()
			for _, label := range m.GetLabel() {
				name += "/" + label.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				res[name] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				res[name] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return res
}

func TestNewCollectorEmptyNamespace(t *testing.T) {
	_, err := NewCollector(Config{})
	assert.ErrorIs(t, err, ErrEmptyNamespace)
}

func TestObserveDocument(t *testing.T) {
	c, err := NewCollector(Config{Namespace: "test"})
	require.NoError(t, err)

	doc := types.Document{
		Sentences: make([]types.Sentence, 3),
		Annotations: []types.Annotation{
			{Classification: "Positive Evidence of UTI"},
			{Classification: "Negated Evidence of SSI"},
			{Classification: "Positive Evidence of UTI"},
		},
	}
	c.ObserveDocument(doc, 2, 15*time.Millisecond)
	c.ObserveDocument(types.Document{}, 0, time.Millisecond)

	values := gather(t, c)
	assert.Equal(t, float64(2), values["test_documents_total"])
	assert.Equal(t, float64(3), values["test_sentences_total"])
	assert.Equal(t, float64(2), values["test_annotations_total/Positive Evidence of UTI"])
	assert.Equal(t, float64(1), values["test_annotations_total/Negated Evidence of SSI"])
	assert.Equal(t, float64(2), values["test_classification_failures_total"])
	assert.Equal(t, float64(2), values["test_document_duration_seconds"])
}

func TestHandler(t *testing.T) {
	c, err := NewCollector(Config{Namespace: "test"})
	require.NoError(t, err)
	c.ObserveDocument(types.Document{Annotations: []types.Annotation{{Classification: "Indication of SSI"}}}, 0, time.Millisecond)

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_annotations_total{classification="Indication of SSI"} 1`)
	assert.Contains(t, w.Body.String(), "test_document_duration_seconds_count 1")
}
