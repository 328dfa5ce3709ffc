package markup

import (
	"haidetect.com/hai/types"
	"sort"
	"unicode/utf8"
)

// Tagger marks up one sentence.
type Tagger func(sentence string) Markup

func NewTagger(targets Lexicon, modifiers Lexicon) Tagger {
	return func(sentence string) Markup {
		offsets := runeOffsets(sentence)

		targetNodes := pruneOverlaps(findNodes(sentence, offsets, targets))

		modifierNodes := findNodes(sentence, offsets, modifiers)
		var pseudo, terminators, active []*Node
		for _, node := range modifierNodes {
			switch {
			case node.item.IsPseudo():
				pseudo = append(pseudo, node)
			case node.item.IsTerminator():
				terminators = append(terminators, node)
			default:
				active = append(active, node)
			}
		}
		active = pruneOverlaps(dropCovered(active, pseudo))

		graph := NewGraph()
		for _, target := range targetNodes {
			graph.AddTarget(target)
			for _, modifier := range active {
				if inScope(modifier, target, terminators) {
					graph.AddModifier(target, modifier)
				}
			}
		}
		return graph
	}
}

// runeOffsets maps byte offsets onto rune offsets.
func runeOffsets(s string) []int32 {
	offsets := make([]int32, len(s)+1)
	var runeIdx int32
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		for k := 0; k < size; k++ {
			offsets[i+k] = runeIdx
		}
		i += size
		runeIdx++
	}
	offsets[len(s)] = runeIdx
	return offsets
}

func findNodes(sentence string, offsets []int32, lexicon Lexicon) []*Node {
	var nodes []*Node
	for _, item := range lexicon {
		for _, loc := range item.Regex.FindAllStringIndex(sentence, -1) {
			if loc[0] == loc[1] {
				continue
			}
			nodes = append(nodes, &Node{
				category:  item.Category,
				literal:   sentence[loc[0]:loc[1]],
				span:      types.Span{Begin: offsets[loc[0]], End: offsets[loc[1]]},
				direction: item.Direction,
				item:      item,
			})
		}
	}
	return nodes
}

// pruneOverlaps keeps the longest of overlapping nodes, earlier first on ties.
func pruneOverlaps(nodes []*Node) []*Node {
	sorted := append([]*Node(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].span.Len() != sorted[j].span.Len() {
			return sorted[i].span.Len() > sorted[j].span.Len()
		}
		return sorted[i].span.Begin < sorted[j].span.Begin
	})

	var kept []*Node
	for _, node := range sorted {
		overlapping := false
		for _, k := range kept {
			if k.span.Overlaps(node.span) {
				overlapping = true
				break
			}
		}
		if !overlapping {
			kept = append(kept, node)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return types.SpanSortFunction(&kept[i].span, &kept[j].span)
	})
	return kept
}

func dropCovered(nodes []*Node, covering []*Node) []*Node {
	var res []*Node
	for _, node := range nodes {
		covered := false
		for _, c := range covering {
			if c.span.Overlaps(node.span) {
				covered = true
				break
			}
		}
		if !covered {
			res = append(res, node)
		}
	}
	return res
}

func inScope(modifier *Node, target *Node, terminators []*Node) bool {
	if modifier.span.Overlaps(target.span) {
		return false
	}

	before := modifier.span.End <= target.span.Begin
	switch modifier.direction {
	case DirectionForward:
		if !before {
			return false
		}
	case DirectionBackward:
		if before {
			return false
		}
	}

	gap := types.Span{Begin: modifier.span.End, End: target.span.Begin}
	if !before {
		gap = types.Span{Begin: target.span.End, End: modifier.span.Begin}
	}
	for _, term := range terminators {
		if types.CheckSpansOverlap(term.span, gap) {
			return false
		}
	}
	return true
}
