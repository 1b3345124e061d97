package analysis

import (
	"testing"

	"chessreview/src/base"
	"chessreview/src/logic/replay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurns(t *testing.T) {
	line, err := replay.ReplayStandard([]base.MoveToken{"e4", "e5", "Nf3"})
	require.NoError(t, err)
	moves := []AnalyzedMove{{Ply: 1, Classification: base.Good}}

	turns := Turns(line, moves)
	require.Len(t, turns, 2)

	assert.Equal(t, 1, turns[0].Number)
	require.NotNil(t, turns[0].First)
	assert.Equal(t, "e4", turns[0].First.SAN)
	assert.Nil(t, turns[0].First.Move)
	require.NotNil(t, turns[0].Second)
	assert.Equal(t, "e5", turns[0].Second.SAN)
	require.NotNil(t, turns[0].Second.Move)
	assert.Equal(t, base.Good, turns[0].Second.Move.Classification)

	assert.Equal(t, 2, turns[1].Number)
	require.NotNil(t, turns[1].First)
	assert.Equal(t, 2, turns[1].First.Ply)
	assert.Nil(t, turns[1].Second)

	// every ply in exactly one turn
	seen := map[int]bool{}
	for _, tr := range turns {
		if tr.First != nil {
			seen[tr.First.Ply] = true
		}
		if tr.Second != nil {
			seen[tr.Second.Ply] = true
		}
	}
	assert.Len(t, seen, line.Len())

	empty, err := replay.ReplayStandard(nil)
	require.NoError(t, err)
	assert.Empty(t, Turns(empty, nil))
	assert.Nil(t, Turns(nil, nil))
}

func TestTurnsBlackToMoveStart(t *testing.T) {
	start := base.PositionID("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	line, err := replay.Replay(start, []base.MoveToken{"e5", "Nf3", "Nc6"})
	require.NoError(t, err)

	turns := Turns(line, nil)
	require.Len(t, turns, 2)

	assert.Equal(t, 1, turns[0].Number)
	assert.Nil(t, turns[0].First)
	require.NotNil(t, turns[0].Second)
	assert.Equal(t, "e5", turns[0].Second.SAN)
	assert.Equal(t, base.Black, turns[0].Second.Side)
	assert.Equal(t, 0, turns[0].Second.Ply)

	assert.Equal(t, 2, turns[1].Number)
	require.NotNil(t, turns[1].First)
	assert.Equal(t, "Nf3", turns[1].First.SAN)
	assert.Equal(t, base.White, turns[1].First.Side)
	require.NotNil(t, turns[1].Second)
	assert.Equal(t, "Nc6", turns[1].Second.SAN)
}

func TestTurnsNumberFromMoveCounter(t *testing.T) {
	start := base.PositionID("r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	line, err := replay.Replay(start, []base.MoveToken{"Bb5", "a6", "Ba4"})
	require.NoError(t, err)

	turns := Turns(line, nil)
	require.Len(t, turns, 2)
	assert.Equal(t, 3, turns[0].Number)
	assert.Equal(t, "a6", turns[0].Second.SAN)
	assert.Equal(t, 4, turns[1].Number)
	assert.Nil(t, turns[1].Second)
}

func TestWinPercent(t *testing.T) {
	assert.InDelta(t, 50.0, WinPercent(base.CP(0)), 1e-9)
	assert.Greater(t, WinPercent(base.CP(100)), 50.0)
	assert.Less(t, WinPercent(base.CP(-100)), 50.0)
	assert.InDelta(t, 100-WinPercent(base.CP(300)), WinPercent(base.CP(-300)), 1e-9)

	// clamped at ±1000 cp
	assert.Equal(t, WinPercent(base.CP(1000)), WinPercent(base.CP(5000)))
	// mates sit above every finite score, shorter mates higher
	assert.Greater(t, WinPercent(base.MateIn(5)), WinPercent(base.CP(5000)))
	assert.Greater(t, WinPercent(base.MateIn(1)), WinPercent(base.MateIn(5)))
	assert.Less(t, WinPercent(base.MateIn(-1)), WinPercent(base.CP(-5000)))
}

func TestAccuracyBand(t *testing.T) {
	assert.Equal(t, BandExcellent, AccuracyBand(100))
	assert.Equal(t, BandExcellent, AccuracyBand(90))
	assert.Equal(t, BandGood, AccuracyBand(89.9))
	assert.Equal(t, BandFair, AccuracyBand(70))
	assert.Equal(t, BandLow, AccuracyBand(12))
	assert.Equal(t, "good", BandGood.String())
}
