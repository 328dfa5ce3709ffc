package markup

import (
	"haidetect.com/hai/utils"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

type Direction string

const (
	DirectionForward       Direction = "forward"
	DirectionBackward      Direction = "backward"
	DirectionBidirectional Direction = "bidirectional"
	DirectionTerminate     Direction = "terminate"

	CategoryConj      = "conj"
	CategoryTerminate = "terminate"
	pseudoPrefix      = "pseudo"
)

var ErrEmptyLexicon = errors.New("lexicon has no items")

type LexItem struct {
	Literal   string
	Category  string
	Direction Direction
	Regex     *regexp.Regexp
}

// NewLexItem compiles pattern, or a word bounded literal when pattern is empty.
func NewLexItem(literal string, category string, pattern string, direction string) (LexItem, error) {
	item := LexItem{
		Literal:   strings.ToLower(strings.TrimSpace(literal)),
		Category:  strings.ToLower(strings.TrimSpace(category)),
		Direction: parseDirection(direction),
	}
	if item.Literal == "" || item.Category == "" {
		return item, fmt.Errorf("lexicon item %q/%q: literal and category are required", literal, category)
	}

	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		pattern = literalPattern(item.Literal)
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return item, fmt.Errorf("lexicon item %q: %w", literal, err)
	}
	item.Regex = re
	return item, nil
}

func parseDirection(direction string) Direction {
	switch d := Direction(strings.ToLower(strings.TrimSpace(direction))); d {
	case DirectionForward, DirectionBackward, DirectionTerminate:
		return d
	}
	return DirectionBidirectional
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func literalPattern(literal string) string {
	runes := []rune(literal)
	pattern := regexp.QuoteMeta(literal)
	// \b only makes sense next to word characters
	if isWordRune(runes[0]) {
		pattern = `\b` + pattern
	}
	if isWordRune(runes[len(runes)-1]) {
		pattern += `\b`
	}
	return pattern
}

func (item LexItem) IsPseudo() bool {
	return strings.HasPrefix(item.Category, pseudoPrefix)
}

func (item LexItem) IsTerminator() bool {
	return item.Direction == DirectionTerminate || item.Category == CategoryConj || item.Category == CategoryTerminate
}

type Lexicon []LexItem

// LoadLexicon reads a Lex/Type/Regex/Direction TSV file with a header row.
func LoadLexicon(path string) (Lexicon, error) {
	rows, err := utils.NewTSVReader(path, true, func(columns []string) uint64 {
		// duplicates by literal and category
		if len(columns) < 2 {
			return utils.HashColumns(columns)
		}
		return utils.HashColumns(columns[:2])
	})
	if err != nil {
		return nil, err
	}

	var lexicon Lexicon
	var loadErr error
	for columns := range rows {
		if loadErr != nil {
			// drain the reader
			continue
		}
		for len(columns) < 4 {
			columns = append(columns, "")
		}
		item, err := NewLexItem(columns[0], columns[1], columns[2], columns[3])
		if err != nil {
			loadErr = fmt.Errorf("%s: %w", path, err)
			continue
		}
		lexicon = append(lexicon, item)
	}
	if loadErr != nil {
		return nil, loadErr
	}
	if len(lexicon) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyLexicon)
	}
	return lexicon, nil
}
