package engine

import (
	"chessreview/src/base"
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrOracle = errors.New("oracle error")

// OracleError is a failed evaluation of a single position.
type OracleError struct {
	Position base.PositionID
	Cause    error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrOracle, e.Position, e.Cause)
}

func (e *OracleError) Is(target error) bool {
	return target == ErrOracle
}

func (e *OracleError) Unwrap() error {
	return e.Cause
}

// SacrificeSignal is a material sacrifice hint reported by the oracle.
type SacrificeSignal uint8

const (
	SacrificeUnknown SacrificeSignal = iota
	SacrificeNo
	SacrificeYes
)

func (s SacrificeSignal) String() string {
	switch s {
	case SacrificeNo:
		return "no"
	case SacrificeYes:
		return "yes"
	default:
		return "unknown"
	}
}

func (s SacrificeSignal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SacrificeSignal) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "unknown":
		*s = SacrificeUnknown
	case "no", "false":
		*s = SacrificeNo
	case "yes", "true":
		*s = SacrificeYes
	default:
		return fmt.Errorf("invalid sacrifice signal %q", text)
	}
	return nil
}

// Evaluation of one position. Score is always from White's point of view.
type Evaluation struct {
	Score     base.Score      `json:"score" yaml:"score"`
	BestMove  string          `json:"best_move,omitempty" yaml:"best_move,omitempty"` // uci
	PV        []string        `json:"pv,omitempty" yaml:"pv,omitempty"`
	Depth     int             `json:"depth,omitempty" yaml:"depth,omitempty"`
	Sacrifice SacrificeSignal `json:"sacrifice" yaml:"sacrifice"`
}

// Oracle evaluates positions. Implementations must be safe for concurrent use.
type Oracle interface {
	Evaluate(ctx context.Context, pos base.PositionID) (Evaluation, error)
}

type OracleFunc func(ctx context.Context, pos base.PositionID) (Evaluation, error)

func (f OracleFunc) Evaluate(ctx context.Context, pos base.PositionID) (Evaluation, error) {
	return f(ctx, pos)
}

type SearchParams struct {
	MaxDepth  int   // 0 = unlimited (but bounded by MaxTimeMs)
	MaxTimeMs int64 // 0 = no time limits
	Infinite  bool
}

type LevelAnalyze int

const (
	LevelOne LevelAnalyze = iota
	LevelTwo
	LevelThree
	LevelFour
	LevelFive
	LevelSix
	LevelSeven
	LevelEight
	LevelNine
	LevelTen
	LevelLast
	LevelInvalid
)

const (
	UCIHandshakeTimeout = 2 * time.Second  // uci / isready
	UCIBestMoveTimeout  = 30 * time.Second // go ...
	StopAnalyzeTimeout  = 5 * time.Second
)

// ConvIntToLevel maps 1..10 onto a level; anything else is LevelInvalid.
func ConvIntToLevel(n int) LevelAnalyze {
	if n < 1 || n > int(LevelTen)+1 {
		return LevelInvalid
	}
	return LevelAnalyze(n - 1)
}

// LevelToParams returns the search limits of a level. Review never runs
// infinite searches, so unknown levels fall back to the strongest bounded one.
func LevelToParams(lvl LevelAnalyze) SearchParams {
	switch lvl {
	case LevelOne:
		return SearchParams{MaxDepth: 1, MaxTimeMs: 500}
	case LevelTwo:
		return SearchParams{MaxDepth: 2, MaxTimeMs: 800}
	case LevelThree:
		return SearchParams{MaxDepth: 3, MaxTimeMs: 1000}
	case LevelFour:
		return SearchParams{MaxDepth: 5, MaxTimeMs: 1500}
	case LevelFive:
		return SearchParams{MaxDepth: 7, MaxTimeMs: 2500}
	case LevelSix:
		return SearchParams{MaxDepth: 9, MaxTimeMs: 4000}
	case LevelSeven:
		return SearchParams{MaxDepth: 11, MaxTimeMs: 6000}
	case LevelEight:
		return SearchParams{MaxDepth: 13, MaxTimeMs: 8000}
	case LevelNine:
		return SearchParams{MaxDepth: 16, MaxTimeMs: 10000}
	default:
		return SearchParams{MaxDepth: 18, MaxTimeMs: 15000}
	}
}

// Timeout is how long a single evaluation may take at these limits.
func (p SearchParams) Timeout() time.Duration {
	if p.Infinite || p.MaxTimeMs <= 0 {
		return UCIBestMoveTimeout
	}
	return time.Duration(p.MaxTimeMs)*time.Millisecond + UCIHandshakeTimeout
}
