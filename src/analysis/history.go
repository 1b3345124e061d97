package analysis

import (
	"chessreview/src/engine"
	"fmt"
)

type State uint8

const (
	Pending State = iota
	Resolved
)

func (s State) String() string {
	if s == Resolved {
		return "resolved"
	}
	return "pending"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*s = Pending
	case "resolved":
		*s = Resolved
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}

// Entry is the evaluation slot of one position. A failed evaluation stays
// pending and keeps the last error.
type Entry struct {
	State State
	Eval  engine.Evaluation
	Err   error
}

func (e Entry) IsResolved() bool {
	return e.State == Resolved
}

// History holds one entry per replayed position: the start position at
// index 0 and the position after ply i at index i+1. It is not safe for
// concurrent use; the owner serializes access.
type History struct {
	entries []Entry
}

// NewHistory creates an all-pending history for the given number of positions.
func NewHistory(positions int) *History {
	if positions < 0 {
		positions = 0
	}
	return &History{entries: make([]Entry, positions)}
}

func (h *History) Len() int {
	return len(h.entries)
}

// Plies is the number of moves the history covers.
func (h *History) Plies() int {
	if len(h.entries) == 0 {
		return 0
	}
	return len(h.entries) - 1
}

func (h *History) check(i int) error {
	if i < 0 || i >= len(h.entries) {
		return fmt.Errorf("position index %d out of range [0, %d)", i, len(h.entries))
	}
	return nil
}

// Resolve stores the evaluation of position i.
func (h *History) Resolve(i int, ev engine.Evaluation) error {
	if err := h.check(i); err != nil {
		return err
	}
	h.entries[i] = Entry{State: Resolved, Eval: ev}
	return nil
}

// Fail records an oracle error for position i. A resolved entry is kept.
func (h *History) Fail(i int, err error) error {
	if cerr := h.check(i); cerr != nil {
		return cerr
	}
	if h.entries[i].State == Resolved {
		return nil
	}
	h.entries[i].Err = err
	return nil
}

func (h *History) At(i int) (Entry, bool) {
	if h.check(i) != nil {
		return Entry{}, false
	}
	return h.entries[i], true
}

// Before is the evaluation of the position ply was played from.
func (h *History) Before(ply int) (engine.Evaluation, bool) {
	e, ok := h.At(ply)
	return e.Eval, ok && e.IsResolved()
}

// After is the evaluation of the position ply produced.
func (h *History) After(ply int) (engine.Evaluation, bool) {
	e, ok := h.At(ply + 1)
	return e.Eval, ok && e.IsResolved()
}

func (h *History) Resolved() int {
	n := 0
	for _, e := range h.entries {
		if e.IsResolved() {
			n++
		}
	}
	return n
}

func (h *History) Failed() int {
	n := 0
	for _, e := range h.entries {
		if !e.IsResolved() && e.Err != nil {
			n++
		}
	}
	return n
}

func (h *History) Complete() bool {
	return h.Resolved() == len(h.entries)
}

func (h *History) Clone() *History {
	c := &History{entries: make([]Entry, len(h.entries))}
	copy(c.entries, h.entries)
	return c
}
