package nlp

import (
	"haidetect.com/hai/types"
	"strings"
	"unicode"
	"unicode/utf8"
)

type SentenceDetector func(in <-chan string) <-chan types.Sentence

type DetectorConfig struct {
	// a token ending with one of these closes the sentence
	TerminationPoints string
	// tokens that always close the sentence
	TerminationWords []string
	// abbreviations that never close it
	ExceptionWords []string
}

func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		TerminationPoints: ".!?;",
		TerminationWords:  []string{"a/p:"},
		ExceptionWords:    []string{"dr.", "m.d", "mr.", "ms.", "mrs."},
	}
}

type token struct {
	text string
	span types.Span
}

// NewSentenceDetector splits lower-cased documents on whitespace tokens. Sentence text is the
// tokens joined by single spaces; the sentence span points into the original document in runes.
func NewSentenceDetector(cfg DetectorConfig) SentenceDetector {
	terminationWords := toSet(cfg.TerminationWords)
	exceptionWords := toSet(cfg.ExceptionWords)

	isBoundary := func(word string) bool {
		if terminationWords[word] {
			return true
		}
		last, _ := utf8.DecodeLastRuneInString(word)
		return strings.ContainsRune(cfg.TerminationPoints, last) && !exceptionWords[word]
	}

	return func(in <-chan string) <-chan types.Sentence {
		out := make(chan types.Sentence)

		go func() {
			defer close(out)
			for text := range in {
				for _, sent := range splitSentences(text, isBoundary) {
					out <- sent
				}
			}
		}()

		return out
	}
}

// SplitDocument runs the detector over a single text.
func (detector SentenceDetector) SplitDocument(text string) []types.Sentence {
	in := make(chan string, 1)
	in <- text
	close(in)

	var sentences []types.Sentence
	for sent := range detector(in) {
		sentences = append(sentences, sent)
	}
	return sentences
}

func splitSentences(text string, isBoundary func(string) bool) []types.Sentence {
	var sentences []types.Sentence
	var current []token

	flush := func() {
		if len(current) == 0 {
			return
		}
		words := make([]string, len(current))
		spans := make([]types.Span, len(current))
		for i, tok := range current {
			words[i] = tok.text
			spans[i] = tok.span
		}
		sentences = append(sentences, types.Sentence{
			Span:  types.Span{Begin: current[0].span.Begin, End: current[len(current)-1].span.End},
			Index: len(sentences),
			Text:  strings.Join(words, " "),
			Words: spans,
		})
		current = nil
	}

	for _, tok := range tokenize(text) {
		current = append(current, tok)
		if isBoundary(tok.text) {
			flush()
		}
	}
	flush()
	return sentences
}

// tokenize returns lower-cased whitespace tokens with rune spans.
func tokenize(text string) []token {
	var tokens []token
	var runeIdx int32
	offset := 0
	for offset < len(text) {
		begin, end := getNextToken(text, offset)
		if begin == end {
			break
		}
		runeIdx += int32(utf8.RuneCountInString(text[offset:begin]))
		length := int32(utf8.RuneCountInString(text[begin:end]))
		tokens = append(tokens, token{
			text: strings.ToLower(text[begin:end]),
			span: types.Span{Begin: runeIdx, End: runeIdx + length},
		})
		runeIdx += length
		offset = end
	}
	return tokens
}

func getNextToken(text string, offset int) (int, int) {
	startOffset := offset
	// find next non whitespace char index
	for startOffset < len(text) {
		ch, chSize := utf8.DecodeRuneInString(text[startOffset:])
		if !unicode.IsSpace(ch) {
			break
		}
		startOffset += chSize
	}

	endOffset := startOffset
	for endOffset < len(text) {
		ch, chSize := utf8.DecodeRuneInString(text[endOffset:])
		if unicode.IsSpace(ch) {
			break
		}
		endOffset += chSize
	}
	return startOffset, endOffset
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}
