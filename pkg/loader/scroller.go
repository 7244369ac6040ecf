package loader

import "math"

// DefaultScrollBuffer is the number of extra rows kept on each side of the
// viewport.
const DefaultScrollBuffer = 5

// Scroller turns a scroll offset into the visible-range signal consumed by
// ShouldLoadMore, for lists of fixed-height rows.
type Scroller struct {
	ItemHeight     float64
	ViewportHeight float64
	Buffer         int
	offset         float64
}

// NewScroller creates a scroller at offset zero.
func NewScroller(itemHeight, viewportHeight float64) *Scroller {
	return &Scroller{
		ItemHeight:     itemHeight,
		ViewportHeight: viewportHeight,
		Buffer:         DefaultScrollBuffer,
	}
}

// ScrollTo moves the viewport; negative offsets clamp to zero.
func (s *Scroller) ScrollTo(offset float64) {
	s.offset = math.Max(offset, 0)
}

// Offset returns the current scroll offset.
func (s *Scroller) Offset() float64 {
	return s.offset
}

// VisibleRange returns the buffered range of rows to render out of total.
func (s *Scroller) VisibleRange(total int) Range {
	if s.ItemHeight <= 0 || total <= 0 {
		return Range{}
	}
	first := int(s.offset / s.ItemHeight)
	visible := int(math.Ceil(s.ViewportHeight / s.ItemHeight))

	return Range{
		First: min(max(first-s.Buffer, 0), total),
		Last:  min(first+visible+s.Buffer, total),
	}
}

// ContentHeight returns the full scrollable height for total rows.
func (s *Scroller) ContentHeight(total int) float64 {
	return float64(total) * s.ItemHeight
}
