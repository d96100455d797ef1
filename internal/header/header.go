// Package header derives the collapsible results header's metrics from the
// list scroll offset.
//
// The scroll offset is written by the rendering loop every frame, so every
// read and write here is lock-free and Derive is a pure function with no
// allocations. A Lock freezes the displayed height while results are shown
// without discarding the scroll-derived state underneath it.
package header

import (
	"math"
	"sync/atomic"
)

// Phase is the scroll-derived state of the header.
type Phase int

const (
	Expanded Phase = iota
	Collapsing
	Collapsed
)

func (p Phase) String() string {
	switch p {
	case Expanded:
		return "expanded"
	case Collapsing:
		return "collapsing"
	case Collapsed:
		return "collapsed"
	default:
		return "unknown"
	}
}

// Params are the header's fixed dimensions.
type Params struct {
	NaturalHeight float64 // fully expanded height
	CompactHeight float64 // height once collapsed for results
}

// CollapseDistance is the scroll offset at which the header reaches its
// compact height.
func (p Params) CollapseDistance() float64 {
	d := p.NaturalHeight - p.CompactHeight
	if d < 0 {
		return 0
	}
	return d
}

// Lock freezes the displayed header height.
type Lock struct {
	Locked          bool
	CollapsedHeight float64
}

// Metrics is a snapshot of the header as the presentation surface should
// draw it.
type Metrics struct {
	ScrollOffset    float64
	Height          float64 // displayed height
	CollapsedHeight float64
	Locked          bool
	Phase           Phase // scroll-derived, unaffected by Locked
}

// Derive computes header metrics for a scroll offset under lock.
func Derive(p Params, scroll float64, l Lock) Metrics {
	h := unlockedHeight(p, scroll)
	m := Metrics{
		ScrollOffset:    scroll,
		Height:          h,
		CollapsedHeight: l.CollapsedHeight,
		Locked:          l.Locked,
		Phase:           phaseFor(p, h),
	}
	if l.Locked {
		m.Height = l.CollapsedHeight
	}
	return m
}

func unlockedHeight(p Params, scroll float64) float64 {
	if math.IsNaN(scroll) {
		scroll = 0
	}
	h := p.NaturalHeight - scroll
	if h < 0 {
		return 0
	}
	if h > p.NaturalHeight {
		return p.NaturalHeight
	}
	return h
}

func phaseFor(p Params, h float64) Phase {
	switch {
	case h >= p.NaturalHeight:
		return Expanded
	case h <= p.CompactHeight:
		return Collapsed
	default:
		return Collapsing
	}
}

// Coordinator holds the live scroll signal and the current lock.
// The zero value is not usable; create one with New.
type Coordinator struct {
	params Params
	scroll atomic.Uint64 // math.Float64bits of the offset
	lock   atomic.Pointer[Lock]
}

// New creates a coordinator, unlocked, at scroll offset zero.
func New(p Params) *Coordinator {
	if p.CompactHeight > p.NaturalHeight {
		p.CompactHeight = p.NaturalHeight
	}
	c := &Coordinator{params: p}
	c.lock.Store(&Lock{})
	return c
}

// Params returns the coordinator's dimensions.
func (c *Coordinator) Params() Params {
	return c.params
}

// SetScrollOffset records the list scroll offset reported by the renderer.
func (c *Coordinator) SetScrollOffset(offset float64) {
	c.scroll.Store(math.Float64bits(offset))
}

// ScrollOffset returns the last recorded scroll offset.
func (c *Coordinator) ScrollOffset() float64 {
	return math.Float64frombits(c.scroll.Load())
}

// SnapTo forces the list to offset, as if the user had scrolled there.
func (c *Coordinator) SnapTo(offset float64) {
	c.SetScrollOffset(offset)
}

// CollapseDistance is the offset SnapTo needs to settle the header at its
// compact height.
func (c *Coordinator) CollapseDistance() float64 {
	return c.params.CollapseDistance()
}

// Engage locks the header at its current height. Engaging an already locked
// header returns the existing lock unchanged.
func (c *Coordinator) Engage() Lock {
	for {
		cur := c.lock.Load()
		if cur.Locked {
			return *cur
		}
		next := &Lock{
			Locked:          true,
			CollapsedHeight: unlockedHeight(c.params, c.ScrollOffset()),
		}
		if c.lock.CompareAndSwap(cur, next) {
			return *next
		}
	}
}

// Release unlocks the header. Height follows the scroll offset again from
// wherever it currently is.
func (c *Coordinator) Release() {
	c.lock.Store(&Lock{})
}

// Current returns the current lock.
func (c *Coordinator) Current() Lock {
	return *c.lock.Load()
}

// Metrics derives metrics from the live scroll offset and current lock.
func (c *Coordinator) Metrics() Metrics {
	return Derive(c.params, c.ScrollOffset(), *c.lock.Load())
}

// OffsetFor returns the displayed header height for the live scroll offset
// under l. Callers pass the lock carried by the session snapshot they are
// rendering so the height always agrees with the state on screen.
func (c *Coordinator) OffsetFor(l Lock) float64 {
	return Derive(c.params, c.ScrollOffset(), l).Height
}
