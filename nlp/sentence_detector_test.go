package nlp

import (
	"haidetect.com/hai/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestSentenceDetector(t *testing.T) {
	text := "The patient shows symptoms of Pneumonia.  The wound is CDI;\nSeen by Dr. Smith today"
	sentences := NewSentenceDetector(DefaultDetectorConfig()).SplitDocument(text)
	require.Len(t, sentences, 3)

	assert.Equal(t, "the patient shows symptoms of pneumonia.", sentences[0].Text)
	assert.Equal(t, types.NewSpan(0, 40), sentences[0].Span)
	assert.Equal(t, 0, sentences[0].Index)

	assert.Equal(t, "the wound is cdi;", sentences[1].Text)
	assert.Equal(t, "The wound is CDI;", sentences[1].Span.Slice(text))
	assert.Equal(t, 1, sentences[1].Index)

	// "dr." does not end the sentence, the trailing tokens form the last one
	assert.Equal(t, "seen by dr. smith today", sentences[2].Text)
	assert.Equal(t, "Seen by Dr. Smith today", sentences[2].Span.Slice(text))
	assert.Len(t, sentences[2].Words, 5)
}

func TestSentenceDetectorTerminationWord(t *testing.T) {
	sentences := NewSentenceDetector(DefaultDetectorConfig()).SplitDocument("History of UTI A/P: continue antibiotics")
	require.Len(t, sentences, 2)
	assert.Equal(t, "history of uti a/p:", sentences[0].Text)
	assert.Equal(t, "continue antibiotics", sentences[1].Text)
}

func TestSentenceDetectorRuneSpans(t *testing.T) {
	text := "Café visit. Fièvre noted"
	sentences := NewSentenceDetector(DefaultDetectorConfig()).SplitDocument(text)
	require.Len(t, sentences, 2)
	assert.Equal(t, types.NewSpan(0, 11), sentences[0].Span)
	assert.Equal(t, types.NewSpan(12, 24), sentences[1].Span)
	assert.Equal(t, "Fièvre noted", sentences[1].Span.Slice(text))
}

func TestSentenceDetectorStream(t *testing.T) {
	in := make(chan string, 3)
	in <- "One. Two."
	in <- "   "
	in <- "Three"
	close(in)

	var texts []string
	for sent := range NewSentenceDetector(DefaultDetectorConfig())(in) {
		texts = append(texts, sent.Text)
	}
	assert.Equal(t, []string{"one.", "two.", "three"}, texts)
}
