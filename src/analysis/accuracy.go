package analysis

import (
	"chessreview/src/base"
	"math"
)

// AccuracyScale is the average weighted loss, in centipawns, at which
// accuracy drops to 100/e.
const AccuracyScale = 300.0

// Weights applied to a move's loss by its tier. Heavier tiers weigh more so
// a blunder always costs more than an inaccuracy of similar size.
var tierWeight = map[base.Classification]float64{
	base.Mistake: 1.25,
	base.Blunder: 1.5,
}

func weight(c base.Classification) float64 {
	if w, ok := tierWeight[c]; ok {
		return w
	}
	return 1
}

// TierCounts tallies moves per classification. Every tier is present.
type TierCounts map[base.Classification]int

func NewTierCounts() TierCounts {
	tc := make(TierCounts, len(base.Classifications))
	for _, c := range base.Classifications {
		tc[c] = 0
	}
	return tc
}

func (tc TierCounts) Total() int {
	n := 0
	for _, v := range tc {
		n += v
	}
	return n
}

// SideStats summarizes the analyzed moves of one side. A side without
// analyzed moves has accuracy 100.
type SideStats struct {
	Accuracy float64    `json:"accuracy" yaml:"accuracy"`
	AvgLoss  float64    `json:"avg_loss" yaml:"avg_loss"`
	Moves    int        `json:"moves" yaml:"moves"`
	Counts   TierCounts `json:"counts" yaml:"counts"`
}

// Summary is derived from the analyzed moves and never edited. Complete is
// false while any ply is still pending, in which case the figures cover only
// the Analyzed moves.
type Summary struct {
	White    SideStats  `json:"white" yaml:"white"`
	Black    SideStats  `json:"black" yaml:"black"`
	Counts   TierCounts `json:"counts" yaml:"counts"`
	Analyzed int        `json:"analyzed" yaml:"analyzed"`
	Total    int        `json:"total" yaml:"total"`
	Complete bool       `json:"complete" yaml:"complete"`
	Opening  string     `json:"opening,omitempty" yaml:"opening,omitempty"`
}

func (s Summary) Side(side base.Side) SideStats {
	if side == base.Black {
		return s.Black
	}
	return s.White
}

// Accuracy maps the weighted mean loss onto (0, 100]: 100 * exp(-mean/scale).
// Each loss is weighted by its tier and the sum is divided by the number of
// moves, so raising any single loss strictly lowers the result.
func Accuracy(moves []AnalyzedMove) float64 {
	if len(moves) == 0 {
		return 100
	}
	return 100 * math.Exp(-weightedMean(moves)/AccuracyScale)
}

func weightedMean(moves []AnalyzedMove) float64 {
	if len(moves) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range moves {
		sum += weight(m.Classification) * float64(m.Loss)
	}
	return sum / float64(len(moves))
}

func sideStats(moves []AnalyzedMove) SideStats {
	st := SideStats{Accuracy: Accuracy(moves), Moves: len(moves), Counts: NewTierCounts()}
	loss := 0
	for _, m := range moves {
		st.Counts[m.Classification]++
		loss += m.Loss
	}
	if len(moves) > 0 {
		st.AvgLoss = float64(loss) / float64(len(moves))
	}
	return st
}

// Aggregate summarizes moves of a game of total plies. It is a pure function
// of its input.
func Aggregate(moves []AnalyzedMove, total int) Summary {
	var white, black []AnalyzedMove
	for _, m := range moves {
		if m.Side == base.Black {
			black = append(black, m)
		} else {
			white = append(white, m)
		}
	}

	s := Summary{
		White:    sideStats(white),
		Black:    sideStats(black),
		Counts:   NewTierCounts(),
		Analyzed: len(moves),
		Total:    total,
		Complete: len(moves) == total,
	}
	for _, m := range moves {
		s.Counts[m.Classification]++
	}
	return s
}
