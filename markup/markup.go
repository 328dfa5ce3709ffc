package markup

import (
	"haidetect.com/hai/types"
	"sort"
)

// Tag is anything the markup layer detected in a sentence.
type Tag interface {
	// Category returns the lexicon categories of the tag; the first one is authoritative.
	Category() []string
	Span() types.Span
	Literal() string
}

type Target interface {
	Tag
}

type Modifier interface {
	Tag
}

// Markup exposes the targets of one sentence and the modifiers in scope of each of them.
type Markup interface {
	MarkedTargets() []Target
	Modifiers(target Target) []Modifier
}

// Node is a detected lexicon item.
type Node struct {
	category  string
	literal   string
	span      types.Span
	direction Direction
	item      LexItem
}

func NewNode(category string, literal string, span types.Span) *Node {
	return &Node{category: category, literal: literal, span: span, direction: DirectionBidirectional}
}

func (n *Node) Category() []string {
	return []string{n.category}
}

func (n *Node) Span() types.Span {
	return n.span
}

func (n *Node) Literal() string {
	return n.literal
}

// Graph is a Markup built tag by tag.
type Graph struct {
	targets   []Target
	modifiers map[Target][]Modifier
}

func NewGraph() *Graph {
	return &Graph{modifiers: make(map[Target][]Modifier)}
}

func (g *Graph) AddTarget(target Target) {
	g.targets = append(g.targets, target)
}

func (g *Graph) AddModifier(target Target, modifier Modifier) {
	g.modifiers[target] = append(g.modifiers[target], modifier)
}

// MarkedTargets returns targets in sentence order.
func (g *Graph) MarkedTargets() []Target {
	res := append([]Target(nil), g.targets...)
	sort.SliceStable(res, func(i, j int) bool {
		spanI, spanJ := res[i].Span(), res[j].Span()
		return types.SpanSortFunction(&spanI, &spanJ)
	})
	return res
}

func (g *Graph) Modifiers(target Target) []Modifier {
	return g.modifiers[target]
}

// FirstCategory returns the authoritative category of a tag.
func FirstCategory(tag Tag) string {
	categories := tag.Category()
	if len(categories) == 0 {
		return ""
	}
	return categories[0]
}
