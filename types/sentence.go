package types

// Sentence is one detected sentence of a document. Span is the position of the
// sentence in the original document text; Text is the preprocessed sentence.
type Sentence struct {
	Span
	Index int    `json:"index"`
	Text  string `json:"text"`
	Words []Span `json:"-"`
}
