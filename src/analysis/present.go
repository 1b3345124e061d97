package analysis

import (
	"chessreview/src/base"
	"chessreview/src/logic/replay"
	"math"
)

// TurnMove is one ply inside a Turn. Move is nil while the ply is pending.
type TurnMove struct {
	Ply  int           `json:"ply" yaml:"ply"`
	SAN  string        `json:"san" yaml:"san"`
	Side base.Side     `json:"side" yaml:"side"`
	Move *AnalyzedMove `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// Turn is one move number: First is White's ply, Second is Black's. A game
// set up with Black to move opens with a turn that has no First, and Second
// is nil when the game stops after White's ply.
type Turn struct {
	Number int       `json:"number" yaml:"number"`
	First  *TurnMove `json:"first,omitempty" yaml:"first,omitempty"`
	Second *TurnMove `json:"second,omitempty" yaml:"second,omitempty"`
}

// Turns groups every ply of line by the side that played it, numbering from
// the move counter of the start position, and attaches the analyzed move
// where one exists.
func Turns(line *replay.Line, moves []AnalyzedMove) []Turn {
	if line == nil {
		return nil
	}
	byPly := make(map[int]*AnalyzedMove, len(moves))
	for i := range moves {
		byPly[moves[i].Ply] = &moves[i]
	}

	number := line.Start.MoveNumber()
	out := make([]Turn, 0, line.Len()/2+1)
	for _, p := range line.Plies {
		tm := &TurnMove{Ply: p.Index, SAN: p.SAN, Side: p.Side, Move: byPly[p.Index]}
		if p.Side == base.White {
			out = append(out, Turn{Number: number, First: tm})
			continue
		}
		if len(out) == 0 || out[len(out)-1].Second != nil {
			out = append(out, Turn{Number: number})
		}
		out[len(out)-1].Second = tm
		number++
	}
	return out
}

// WinPercent is the expected score for White in [0, 100], using the
// winning-chances curve lichess applies to engine output.
func WinPercent(s base.Score) float64 {
	return 50 + 50*winningChances(s)
}

func rawWinningChances(cp float64) float64 {
	return 2/(1+math.Exp(-0.004*cp)) - 1
}

func winningChances(s base.Score) float64 {
	if s.Mate != 0 {
		cp := (21 - math.Min(10, math.Abs(float64(s.Mate)))) * 100
		if s.Mate < 0 {
			cp = -cp
		}
		return rawWinningChances(cp)
	}
	return rawWinningChances(math.Min(math.Max(-1000, float64(s.CP)), 1000))
}

type Band uint8

const (
	BandLow Band = iota
	BandFair
	BandGood
	BandExcellent
)

func (b Band) String() string {
	switch b {
	case BandExcellent:
		return "excellent"
	case BandGood:
		return "good"
	case BandFair:
		return "fair"
	default:
		return "low"
	}
}

// AccuracyBand buckets an accuracy for display.
func AccuracyBand(acc float64) Band {
	switch {
	case acc >= 90:
		return BandExcellent
	case acc >= 80:
		return BandGood
	case acc >= 70:
		return BandFair
	default:
		return BandLow
	}
}
