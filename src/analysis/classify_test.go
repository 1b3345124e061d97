package analysis

import (
	"testing"

	"chessreview/src/base"
	"chessreview/src/engine"

	"github.com/stretchr/testify/assert"
)

func TestTierForLoss(t *testing.T) {
	tests := []struct {
		loss       int
		playedBest bool
		want       base.Classification
	}{
		{0, true, base.Perfect},
		{10, true, base.Perfect},
		{0, false, base.Excellent},
		{11, true, base.Excellent},
		{20, false, base.Excellent},
		{21, false, base.Good},
		{50, false, base.Good},
		{51, false, base.Inaccuracy},
		{100, false, base.Inaccuracy},
		{101, false, base.Mistake},
		{250, false, base.Mistake},
		{251, false, base.Blunder},
		{20_000, true, base.Blunder},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForLoss(tt.loss, tt.playedBest), "loss %d best %v", tt.loss, tt.playedBest)
	}
}

func TestTierForLossIsMonotonic(t *testing.T) {
	for _, best := range []bool{false, true} {
		prev := TierForLoss(0, best)
		for loss := 1; loss <= 1000; loss++ {
			got := TierForLoss(loss, best)
			assert.GreaterOrEqual(t, got, prev, "loss %d", loss)
			if got == base.Blunder {
				assert.Greater(t, loss, MistakeMaxLoss)
			}
			prev = got
		}
	}
}

func TestLoss(t *testing.T) {
	tests := []struct {
		name          string
		before, after base.Score
		want          int
	}{
		{"drop", base.CP(120), base.CP(20), 100},
		{"gain clamps to zero", base.CP(-50), base.CP(80), 0},
		{"keeps own mate", base.MateIn(3), base.MateIn(5), 0},
		{"finds mate", base.CP(300), base.MateIn(4), 0},
		{"lost stays lost", base.MateIn(-2), base.MateIn(-1), 0},
		{"escapes mate", base.MateIn(-2), base.CP(-400), 0},
		{"gives up mate", base.MateIn(2), base.CP(600), MateLoss - 600},
		{"gives up mate into worse", base.MateIn(2), base.CP(-300), MateLoss + 300},
		{"walks into mate", base.CP(50), base.MateIn(-3), MateLoss + 50},
		{"walks into mate from lost", base.CP(-20_000), base.MateIn(-3), 0},
		{"mate flips side", base.MateIn(1), base.MateIn(-1), 2 * MateLoss},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Loss(tt.before, tt.after)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}

func TestClassifyNormalizesToMover(t *testing.T) {
	// White-perspective +1.00 -> -1.50 is a 250 loss for White...
	v := Classify(base.CP(100), base.CP(-150), base.White, "e2e4", "d2d4", engine.SacrificeUnknown)
	assert.Equal(t, 250, v.Loss)
	assert.Equal(t, base.Mistake, v.Classification)

	// ...and a gain for Black.
	v = Classify(base.CP(100), base.CP(-150), base.Black, "e7e5", "d7d5", engine.SacrificeUnknown)
	assert.Equal(t, 0, v.Loss)
	assert.Equal(t, base.Excellent, v.Classification)

	v = Classify(base.CP(-100), base.CP(300), base.Black, "e7e5", "e7e5", engine.SacrificeUnknown)
	assert.Equal(t, 400, v.Loss)
	assert.Equal(t, base.Blunder, v.Classification)

	v = Classify(base.CP(30), base.CP(25), base.White, "g1f3", "g1f3", engine.SacrificeUnknown)
	assert.Equal(t, base.Perfect, v.Classification)
}

func TestClassifyMateIsNeverClamped(t *testing.T) {
	// a huge finite score is still below any mate for the mover
	v := Classify(base.MateIn(1), base.CP(5_000), base.White, "a1a2", "h5f7", engine.SacrificeUnknown)
	assert.Equal(t, MateLoss-5_000, v.Loss)
	assert.Equal(t, base.Blunder, v.Classification)

	v = Classify(base.MateIn(-1), base.MateIn(-1), base.Black, "h4e1", "h4e1", engine.SacrificeUnknown)
	assert.Equal(t, 0, v.Loss)
	assert.Equal(t, base.Perfect, v.Classification)
}

func TestClassifyBrilliant(t *testing.T) {
	tests := []struct {
		name      string
		before    base.Score
		after     base.Score
		played    string
		best      string
		sacrifice engine.SacrificeSignal
		want      base.Classification
	}{
		{"sacrifice holding the evaluation", base.CP(150), base.CP(180), "c4f7", "e1g1", engine.SacrificeYes, base.Brilliant},
		{"sacrifice reaching mate", base.CP(150), base.MateIn(3), "c4f7", "e1g1", engine.SacrificeYes, base.Brilliant},
		{"sacrifice losing ground", base.CP(150), base.CP(60), "c4f7", "e1g1", engine.SacrificeYes, base.Inaccuracy},
		{"best move is not brilliant", base.CP(150), base.CP(150), "c4f7", "c4f7", engine.SacrificeYes, base.Perfect},
		{"unknown signal fails closed", base.CP(150), base.CP(180), "c4f7", "e1g1", engine.SacrificeUnknown, base.Excellent},
		{"no sacrifice", base.CP(150), base.CP(180), "c4f7", "e1g1", engine.SacrificeNo, base.Excellent},
		{"no best move known", base.CP(150), base.CP(180), "c4f7", "", engine.SacrificeYes, base.Excellent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.before, tt.after, base.White, tt.played, tt.best, tt.sacrifice)
			assert.Equal(t, tt.want, v.Classification)
		})
	}
}

func TestClassifyMoverNormalizedSequence(t *testing.T) {
	// mover-normalized evaluations in pawns, each move starting from equality
	seq := []float64{0.2, 0.1, -3.0, -0.1}
	got := make([]base.Classification, len(seq))
	for i, p := range seq {
		got[i] = Classify(base.CP(0), base.CP(int(p*100)), base.White, "", "", engine.SacrificeUnknown).Classification
	}
	assert.Equal(t, base.Blunder, got[2])
	for _, i := range []int{0, 1, 3} {
		assert.LessOrEqual(t, got[i], base.Good, "ply %d", i)
	}
}
