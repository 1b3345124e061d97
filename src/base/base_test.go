package base

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCompare(t *testing.T) {
	ordered := []Score{
		MateIn(-1),
		MateIn(-6),
		CP(-900),
		CP(0),
		CP(35),
		CP(90_000),
		MateIn(7),
		MateIn(1),
	}
	for i := range ordered {
		for j := range ordered {
			want := cmpInt(i, j)
			assert.Equal(t, want, ordered[i].Compare(ordered[j]), "%v vs %v", ordered[i], ordered[j])
		}
	}
}

func TestScorePOV(t *testing.T) {
	assert.Equal(t, CP(-120), CP(120).POV(Black))
	assert.Equal(t, CP(120), CP(120).POV(White))
	assert.Equal(t, MateIn(-3), MateIn(3).POV(Black))
}

func TestScoreClampAndString(t *testing.T) {
	assert.Equal(t, 500, MateIn(2).Clamp(500))
	assert.Equal(t, -500, MateIn(-2).Clamp(500))
	assert.Equal(t, -500, CP(-731).Clamp(500))
	assert.Equal(t, 42, CP(42).Clamp(500))

	assert.Equal(t, "+0.35", CP(35).String())
	assert.Equal(t, "-1.20", CP(-120).String())
	assert.Equal(t, "0.00", CP(0).String())
	assert.Equal(t, "#3", MateIn(3).String())
	assert.Equal(t, "#-2", MateIn(-2).String())
}

func TestPositionID(t *testing.T) {
	start := PositionID(FEN_START_GAME)
	side, err := start.SideToMove()
	require.NoError(t, err)
	assert.Equal(t, White, side)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR", start.Placement())
	assert.Equal(t, PositionID("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"), start.WithoutClocks())

	_, err = PositionID("8/8/8/8/8/8/8/8").SideToMove()
	assert.Error(t, err)

	assert.Equal(t, 1, start.MoveNumber())
	assert.Equal(t, 12, PositionID("8/8/8/4k3/8/8/8/4K3 b - - 3 12").MoveNumber())
	assert.Equal(t, 1, PositionID("8/8/8/4k3/8/8/8/4K3 b - -").MoveNumber())
}

func TestClassificationText(t *testing.T) {
	for _, c := range Classifications {
		raw, err := json.Marshal(c)
		require.NoError(t, err)
		var back Classification
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, c, back)
	}
	_, err := ParseClassification("genius")
	assert.Error(t, err)
	assert.Equal(t, "??", Blunder.Glyph())
	assert.Equal(t, "$6", Inaccuracy.NAG())
	assert.Empty(t, Good.NAG())
}

func TestSideText(t *testing.T) {
	var doc struct{ S Side }
	require.NoError(t, json.Unmarshal([]byte(`{"S":"black"}`), &doc))
	assert.Equal(t, Black, doc.S)

	for _, s := range []Side{White, Black} {
		raw, err := json.Marshal(s)
		require.NoError(t, err)
		var back Side
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, s, back)
	}
	assert.Error(t, json.Unmarshal([]byte(`"red"`), new(Side)))
}
