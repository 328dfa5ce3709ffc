package types

// Span is a half-open [Begin, End) character interval.
type Span struct {
	Begin int32 `json:"begin"`
	End   int32 `json:"end"`
}

func NewSpan(begin int, end int) Span {
	return Span{Begin: int32(begin), End: int32(end)}
}

func (span Span) Len() int32 {
	return span.End - span.Begin
}

func (span Span) IsEmpty() bool {
	return span.End <= span.Begin
}

// Union returns the smallest span covering both spans.
func (span Span) Union(other Span) Span {
	if span.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return span
	}
	res := span
	if other.Begin < res.Begin {
		res.Begin = other.Begin
	}
	if other.End > res.End {
		res.End = other.End
	}
	return res
}

func (span Span) Overlaps(other Span) bool {
	return span.Begin < other.End && other.Begin < span.End
}

func CheckSpansOverlap(covered Span, covering Span) bool {
	return covering.Begin <= covered.Begin && covering.End >= covered.End
}

// Slice returns the runes of text covered by the span, clamped to text bounds.
func (span Span) Slice(text string) string {
	runes := []rune(text)
	begin, end := int(span.Begin), int(span.End)
	if begin < 0 {
		begin = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if begin >= end {
		return ""
	}
	return string(runes[begin:end])
}

func SpanSortFunction(spanA *Span, spanB *Span) bool {
	if spanA.Begin == spanB.Begin {
		return spanA.End < spanB.End
	}
	return spanA.Begin < spanB.Begin
}
