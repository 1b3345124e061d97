package history

import (
	"errors"
	"fmt"
)

var ErrOutOfRangeJump = errors.New("jump out of range")

type OutOfRangeJumpError struct {
	Requested int
	Min       int
	Max       int
}

func (e *OutOfRangeJumpError) Error() string {
	return fmt.Sprintf("%v: %d not in [%d, %d]", ErrOutOfRangeJump, e.Requested, e.Min, e.Max)
}

func (e *OutOfRangeJumpError) Is(target error) bool {
	return target == ErrOutOfRangeJump
}

// Start is the cursor index of the position before the first move.
const Start = -1

// Cursor is the displayed ply of a game of n plies, in [Start, n-1].
// Position index is always ply+1.
type Cursor struct {
	current int
	n       int
}

func NewCursor(n int) *Cursor {
	c := &Cursor{}
	c.Reset(n)
	return c
}

// Reset attaches a game of n plies and goes back to Start.
func (c *Cursor) Reset(n int) {
	if n < 0 {
		n = 0
	}
	c.n = n
	c.current = Start
}

func (c *Cursor) Index() int    { return c.current }
func (c *Cursor) Len() int      { return c.n }
func (c *Cursor) Max() int      { return c.n - 1 }
func (c *Cursor) AtStart() bool { return c.current == Start }
func (c *Cursor) AtEnd() bool   { return c.current == c.n-1 }

// Position is the index into the replayed positions.
func (c *Cursor) Position() int {
	return c.current + 1
}

// moves report whether the index changed
func (c *Cursor) First() bool {
	return c.set(Start)
}

func (c *Cursor) Last() bool {
	return c.set(c.n - 1)
}

func (c *Cursor) Prev() bool {
	return c.set(max(Start, c.current-1))
}

func (c *Cursor) Next() bool {
	return c.set(min(c.n-1, c.current+1))
}

// Jump moves to ply k or fails without moving.
func (c *Cursor) Jump(k int) (bool, error) {
	if k < Start || k > c.n-1 {
		return false, &OutOfRangeJumpError{Requested: k, Min: Start, Max: c.n - 1}
	}
	return c.set(k), nil
}

func (c *Cursor) set(k int) bool {
	if k == c.current {
		return false
	}
	c.current = k
	return true
}
