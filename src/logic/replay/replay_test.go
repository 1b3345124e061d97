package replay

import (
	"chessreview/src/base"
	"errors"
	"testing"

	"github.com/corentings/chess/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toks(ss ...string) []base.MoveToken {
	out := make([]base.MoveToken, len(ss))
	for i, s := range ss {
		out[i] = base.MoveToken(s)
	}
	return out
}

func TestReplayStandard(t *testing.T) {
	line, err := ReplayStandard(toks("e4", "e5", "Nf3", "Nc6"))
	require.NoError(t, err)
	require.Equal(t, 4, line.Len())

	pos := line.Positions()
	require.Len(t, pos, 5)
	assert.Equal(t, base.PositionID(base.FEN_START_GAME).Placement(), pos[0].Placement())
	assert.Equal(t, base.PositionID("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1").Placement(), pos[1].Placement())
	assert.Equal(t, "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R", string(pos[4].Placement()))

	first := line.Plies[0]
	assert.Equal(t, "e4", first.SAN)
	assert.Equal(t, "e2e4", first.UCI)
	assert.Equal(t, "e2", first.From)
	assert.Equal(t, "e4", first.To)
	assert.Equal(t, base.White, first.Side)
	assert.Equal(t, base.Black, line.Plies[1].Side)
	assert.Equal(t, pos[1], first.After)
	assert.Equal(t, pos[1], line.Plies[1].Before)
	assert.Len(t, line.Moves(), 4)
	assert.Equal(t, "*", line.Outcome)
}

func TestReplayEmpty(t *testing.T) {
	line, err := ReplayStandard(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, line.Len())
	require.Len(t, line.Positions(), 1)
	assert.Equal(t, base.PositionID(base.FEN_START_GAME).Placement(), line.Positions()[0].Placement())
}

func TestReplayAcceptsUCIAndDecoratedSAN(t *testing.T) {
	line, err := ReplayStandard(toks("e2e4", "e7e5", "Bc4", "Nc6", "Qh5", "Nf6", "Qxf7#"))
	require.NoError(t, err)
	assert.Equal(t, "e4", line.Plies[0].SAN)
	assert.Equal(t, "Qxf7#", line.Plies[6].SAN)
	assert.Equal(t, "1-0", line.Outcome)

	line, err = ReplayStandard(toks("e4", "e5", "Qh5", "Nc6", "Bc4", "Nf6", "Qxf7"))
	require.NoError(t, err)
	assert.Equal(t, "Qxf7#", line.Plies[6].SAN)
}

func TestReplayIllegalMove(t *testing.T) {
	line, err := ReplayStandard(toks("e4", "e5", "Ke3"))
	require.Error(t, err)
	assert.Nil(t, line)
	assert.True(t, errors.Is(err, ErrIllegalMove))

	var ime *IllegalMoveError
	require.True(t, errors.As(err, &ime))
	assert.Equal(t, 2, ime.Index)
	assert.Equal(t, base.MoveToken("Ke3"), ime.Token)
}

func TestReplayWrongSideToMove(t *testing.T) {
	_, err := ReplayStandard(toks("e5"))
	var ime *IllegalMoveError
	require.True(t, errors.As(err, &ime))
	assert.Equal(t, 0, ime.Index)
}

func TestReplayFromFEN(t *testing.T) {
	start := base.PositionID("4k3/8/8/8/8/8/4P3/4K3 b - - 0 1")
	line, err := Replay(start, toks("Kd7", "e4"))
	require.NoError(t, err)
	assert.Equal(t, base.Black, line.Plies[0].Side)
	assert.Equal(t, "e2e4", line.Plies[1].UCI)

	_, err = Replay("not a fen", nil)
	assert.True(t, errors.Is(err, ErrInvalidPosition))
}

func TestPositionHelpers(t *testing.T) {
	side, err := SideToMove(base.PositionID(base.FEN_START_GAME))
	require.NoError(t, err)
	assert.Equal(t, base.White, side)

	moves, err := LegalMoves(base.PositionID(base.FEN_START_GAME))
	require.NoError(t, err)
	assert.Len(t, moves, 20)
	assert.Contains(t, moves, "g1f3")

	san, err := UCIToSAN(base.PositionID(base.FEN_START_GAME), "g1f3")
	require.NoError(t, err)
	assert.Equal(t, "Nf3", san)

	_, err = UCIToSAN(base.PositionID(base.FEN_START_GAME), "e2e5")
	assert.Error(t, err)
}

func TestMailboxOf(t *testing.T) {
	mb, err := MailboxOf(base.PositionID(base.FEN_START_GAME))
	require.NoError(t, err)
	assert.Equal(t, chess.WhiteKing, mb[4])
	assert.Equal(t, chess.BlackKing, mb[60])
	assert.Equal(t, chess.WhitePawn, mb[12])
	assert.Equal(t, chess.NoPiece, mb[28])

	line, err := ReplayStandard([]base.MoveToken{"e4"})
	require.NoError(t, err)
	mb, err = MailboxOf(line.Plies[0].After)
	require.NoError(t, err)
	assert.Equal(t, chess.WhitePawn, mb[28])
	assert.Equal(t, chess.NoPiece, mb[12])

	_, err = MailboxOf("not a fen")
	assert.ErrorIs(t, err, ErrInvalidPosition)
}
