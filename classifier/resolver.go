package classifier

import (
	"haidetect.com/hai/types"
	"strings"
)

// Modifier categories understood by the resolver.
const (
	ModifierDefiniteNegatedExistence = "definite_negated_existence"
	ModifierProbableNegatedExistence = "probable_negated_existence"
	ModifierProbableExistence        = "probable_existence"
	ModifierFuture                   = "future"
	ModifierHypothetical             = "hypothetical"
	ModifierHistorical               = "historical"
)

type categorySet map[string]bool

func newCategorySet(categories []string) categorySet {
	set := make(categorySet, len(categories))
	for _, c := range categories {
		set[strings.ToLower(strings.TrimSpace(c))] = true
	}
	return set
}

func (set categorySet) hasAny(categories ...string) bool {
	for _, c := range categories {
		if set[c] {
			return true
		}
	}
	return false
}

func (set categorySet) assertion() types.Assertion {
	switch {
	case set.hasAny(ModifierDefiniteNegatedExistence, ModifierProbableNegatedExistence):
		return types.AssertionNegated
	case set.hasAny(ModifierProbableExistence):
		return types.AssertionProbable
	}
	return types.AssertionPresent
}

func (set categorySet) temporality() types.Temporality {
	switch {
	case set.hasAny(ModifierFuture, ModifierHypothetical):
		return types.TemporalityFuture
	case set.hasAny(ModifierHistorical):
		return types.TemporalityHistorical
	}
	return types.TemporalityCurrent
}

// ResolveAssertion: negation cues win over probability cues, present otherwise.
func ResolveAssertion(modifierCategories []string) types.Assertion {
	return newCategorySet(modifierCategories).assertion()
}

// ResolveTemporality: future/hypothetical cues win over historical cues, current otherwise.
func ResolveTemporality(modifierCategories []string) types.Temporality {
	return newCategorySet(modifierCategories).temporality()
}
