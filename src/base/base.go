package base

import (
	"fmt"
	"strconv"
	"strings"
)

// Forsyth–Edwards Notation
const FEN_START_GAME string = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// MoveToken is one move of the game record as written in its notation (SAN or UCI).
type MoveToken string

// PositionID is the canonical FEN of a position.
type PositionID string

type Side uint8

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	switch s {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "invalid"
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "white":
		*s = White
	case "black":
		*s = Black
	default:
		return fmt.Errorf("unknown side %q", text)
	}
	return nil
}

func (s Side) Other() Side {
	if s == White {
		return Black
	}
	return White
}

// SideToMove reads the active color field of a FEN.
func (p PositionID) SideToMove() (Side, error) {
	parts := strings.Fields(string(p))
	if len(parts) < 2 {
		return White, fmt.Errorf("must be >= 2 FEN parts, but there are %d", len(parts))
	}
	switch parts[1] {
	case "w":
		return White, nil
	case "b":
		return Black, nil
	default:
		return White, fmt.Errorf("invalid side to move %q", parts[1])
	}
}

// Placement returns the piece placement field of the FEN.
func (p PositionID) Placement() string {
	parts := strings.Fields(string(p))
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// MoveNumber is the fullmove counter of the FEN, 1 when it is missing or invalid.
func (p PositionID) MoveNumber() int {
	parts := strings.Fields(string(p))
	if len(parts) < 6 {
		return 1
	}
	n, err := strconv.Atoi(parts[5])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// WithoutClocks drops the halfmove and fullmove counters.
func (p PositionID) WithoutClocks() PositionID {
	parts := strings.Fields(string(p))
	if len(parts) > 4 {
		parts = parts[:4]
	}
	return PositionID(strings.Join(parts, " "))
}

// Score is an evaluation from White's point of view in centipawns.
// Mate != 0 marks a forced mate |Mate| moves away: positive when White mates.
type Score struct {
	CP   int `json:"cp" yaml:"cp"`
	Mate int `json:"mate,omitempty" yaml:"mate,omitempty"`
}

func CP(cp int) Score { return Score{CP: cp} }

func MateIn(n int) Score { return Score{Mate: n} }

func (s Score) IsMate() bool { return s.Mate != 0 }

// POV returns the score from the given side's point of view.
func (s Score) POV(side Side) Score {
	if side == Black {
		return Score{CP: -s.CP, Mate: -s.Mate}
	}
	return s
}

// Compare orders scores for the side whose point of view they are in:
// own mates above every finite score (shorter first), finite scores by value,
// mates against below every finite score (longer first).
func (s Score) Compare(o Score) int {
	sb, sk := s.rank()
	ob, ok := o.rank()
	if sb != ob {
		return cmpInt(sb, ob)
	}
	return cmpInt(sk, ok)
}

func (s Score) rank() (int, int) {
	switch {
	case s.Mate > 0:
		return 2, -s.Mate
	case s.Mate < 0:
		return 0, -s.Mate
	default:
		return 1, s.CP
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Clamp saturates the score into [-bound, bound]; mates map to the bound.
// Only for display, never for comparisons.
func (s Score) Clamp(bound int) int {
	switch {
	case s.Mate > 0:
		return bound
	case s.Mate < 0:
		return -bound
	case s.CP > bound:
		return bound
	case s.CP < -bound:
		return -bound
	default:
		return s.CP
	}
}

// Pawns is the centipawn value in pawns; mates are reported as ±100.
func (s Score) Pawns() float64 {
	return float64(s.Clamp(100_00)) / 100
}

// "+0.35", "-1.20", "0.00", "#3", "#-2"
func (s Score) String() string {
	if s.Mate != 0 {
		return "#" + strconv.Itoa(s.Mate)
	}
	str := fmt.Sprintf("%+.2f", float64(s.CP)/100)
	if str == "+0.00" || str == "-0.00" {
		return "0.00"
	}
	return str
}
