package course

import "errors"

var ErrInvalidIndex = errors.New("part index out of range")

// Navigator tracks the current part index over a fixed-size ordered part
// list. Advance and Retreat clamp at the edges instead of erroring; JumpTo
// rejects out-of-range targets.
type Navigator struct {
	index int
	count int
}

func NewNavigator(partCount int) *Navigator {
	if partCount < 0 {
		partCount = 0
	}
	return &Navigator{count: partCount}
}

func (n *Navigator) Index() int { return n.index }

func (n *Navigator) Count() int { return n.count }

func (n *Navigator) AtEnd() bool { return n.count == 0 || n.index == n.count-1 }

// Advance moves to the next part. No-op at the last part, never wraps.
func (n *Navigator) Advance() {
	if n.index < n.count-1 {
		n.index++
	}
}

// Retreat moves to the previous part. No-op at part 0.
func (n *Navigator) Retreat() {
	if n.index > 0 {
		n.index--
	}
}

func (n *Navigator) JumpTo(i int) error {
	if i < 0 || i >= n.count {
		return ErrInvalidIndex
	}
	n.index = i
	return nil
}
