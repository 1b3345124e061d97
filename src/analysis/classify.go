package analysis

import (
	"chessreview/src/base"
	"chessreview/src/engine"
)

// Upper bounds of evaluation loss in centipawns, inclusive, from the
// mover's point of view. Anything above MistakeMaxLoss is a blunder.
const (
	PerfectMaxLoss    = 10
	ExcellentMaxLoss  = 20
	GoodMaxLoss       = 50
	InaccuracyMaxLoss = 100
	MistakeMaxLoss    = 250

	// MateLoss is the centipawn value of a forced mate when a move gives one up.
	MateLoss = 10_000
)

// Verdict is the classification of one move.
type Verdict struct {
	Loss           int                 `json:"loss" yaml:"loss"`
	Classification base.Classification `json:"classification" yaml:"classification"`
}

// Loss is the advantage given up between before and after, both already from
// the mover's point of view. Gains are zero.
//
// Keeping a forced mate, or staying in a lost mate, costs nothing. Giving a
// forced mate up costs MateLoss minus what is left; walking into a mate
// costs MateLoss on top of what was held; swapping a won mate for a lost one
// costs both.
func Loss(before, after base.Score) int {
	switch {
	case before.Mate > 0:
		switch {
		case after.Mate > 0:
			return 0
		case after.Mate < 0:
			return 2 * MateLoss
		default:
			return max(0, MateLoss-after.CP)
		}
	case before.Mate < 0:
		return 0
	default:
		switch {
		case after.Mate > 0:
			return 0
		case after.Mate < 0:
			return max(0, before.CP+MateLoss)
		default:
			return max(0, before.CP-after.CP)
		}
	}
}

// TierForLoss maps a loss onto the threshold ladder. Perfect needs the
// engine's best move to have been played.
func TierForLoss(loss int, playedBest bool) base.Classification {
	switch {
	case loss <= PerfectMaxLoss && playedBest:
		return base.Perfect
	case loss <= ExcellentMaxLoss:
		return base.Excellent
	case loss <= GoodMaxLoss:
		return base.Good
	case loss <= InaccuracyMaxLoss:
		return base.Inaccuracy
	case loss <= MistakeMaxLoss:
		return base.Mistake
	default:
		return base.Blunder
	}
}

// Classify grades the move played by mover. before and after are White
// point-of-view scores of the positions around the move, best is the
// oracle's move in the before position (uci, may be empty). A move is
// brilliant only if the oracle flagged it as a sacrifice, it differs from
// best, and it holds the evaluation best promised.
func Classify(before, after base.Score, mover base.Side, played, best string, sacrifice engine.SacrificeSignal) Verdict {
	b := before.POV(mover)
	a := after.POV(mover)
	loss := Loss(b, a)

	if sacrifice == engine.SacrificeYes && best != "" && played != best && a.Compare(b) >= 0 {
		return Verdict{Loss: loss, Classification: base.Brilliant}
	}
	return Verdict{Loss: loss, Classification: TierForLoss(loss, best != "" && played == best)}
}
