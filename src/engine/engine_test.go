package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"chessreview/src/base"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOracleError(t *testing.T) {
	cause := errors.New("engine crashed")
	err := error(&OracleError{Position: base.PositionID(base.FEN_START_GAME), Cause: cause})

	assert.True(t, errors.Is(err, ErrOracle))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "engine crashed")
}

func TestSacrificeSignalText(t *testing.T) {
	for _, s := range []SacrificeSignal{SacrificeUnknown, SacrificeNo, SacrificeYes} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var back SacrificeSignal
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, s, back)
	}
	var s SacrificeSignal
	require.NoError(t, s.UnmarshalText([]byte("true")))
	assert.Equal(t, SacrificeYes, s)
	assert.Error(t, s.UnmarshalText([]byte("maybe")))
}

func TestOracleFunc(t *testing.T) {
	var o Oracle = OracleFunc(func(ctx context.Context, pos base.PositionID) (Evaluation, error) {
		return Evaluation{Score: base.CP(25), BestMove: "e2e4"}, nil
	})
	ev, err := o.Evaluate(context.Background(), base.PositionID(base.FEN_START_GAME))
	require.NoError(t, err)
	assert.Equal(t, 25, ev.Score.CP)
}

func TestLevels(t *testing.T) {
	assert.Equal(t, LevelOne, ConvIntToLevel(1))
	assert.Equal(t, LevelTen, ConvIntToLevel(10))
	assert.Equal(t, LevelInvalid, ConvIntToLevel(0))
	assert.Equal(t, LevelInvalid, ConvIntToLevel(11))

	prev := SearchParams{}
	for lvl := LevelOne; lvl < LevelLast; lvl++ {
		p := LevelToParams(lvl)
		assert.False(t, p.Infinite)
		assert.Greater(t, p.MaxDepth, prev.MaxDepth)
		assert.Greater(t, p.MaxTimeMs, prev.MaxTimeMs)
		prev = p
	}
	assert.Equal(t, LevelToParams(LevelTen), LevelToParams(LevelInvalid))
	assert.Equal(t, 500*time.Millisecond+UCIHandshakeTimeout, LevelToParams(LevelOne).Timeout())
	assert.Equal(t, UCIBestMoveTimeout, SearchParams{Infinite: true}.Timeout())
}
