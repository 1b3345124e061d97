// Package replay applies a recorded move list to a start position with full
// legality checking and yields every position reached.
package replay

import (
	"chessreview/src/base"
	"errors"
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidPosition = errors.New("invalid position")
)

// IllegalMoveError is returned for the first token that cannot be played.
// Index is the 0-based ply of the token.
type IllegalMoveError struct {
	Index int
	Token base.MoveToken
	Cause error
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("%v: ply %d %q: %v", ErrIllegalMove, e.Index, e.Token, e.Cause)
}

func (e *IllegalMoveError) Is(target error) bool {
	return target == ErrIllegalMove
}

func (e *IllegalMoveError) Unwrap() error {
	return e.Cause
}

// Ply is one applied move.
type Ply struct {
	Index  int
	Token  base.MoveToken
	SAN    string
	UCI    string
	From   string
	To     string
	Side   base.Side
	Before base.PositionID
	After  base.PositionID
}

// Line is the result of a successful replay.
type Line struct {
	Start   base.PositionID
	Plies   []Ply
	Outcome string

	moves []*chess.Move
}

func (l *Line) Len() int {
	return len(l.Plies)
}

// Positions returns the start position followed by the position after each ply.
func (l *Line) Positions() []base.PositionID {
	out := make([]base.PositionID, 0, len(l.Plies)+1)
	out = append(out, l.Start)
	for _, p := range l.Plies {
		out = append(out, p.After)
	}
	return out
}

// Tokens returns the tokens as they were given.
func (l *Line) Tokens() []base.MoveToken {
	out := make([]base.MoveToken, len(l.Plies))
	for i, p := range l.Plies {
		out[i] = p.Token
	}
	return out
}

// SANs returns the canonical SAN of every ply.
func (l *Line) SANs() []base.MoveToken {
	out := make([]base.MoveToken, len(l.Plies))
	for i, p := range l.Plies {
		out[i] = base.MoveToken(p.SAN)
	}
	return out
}

// Moves exposes the underlying rules-engine moves, e.g. for opening lookup.
func (l *Line) Moves() []*chess.Move {
	out := make([]*chess.Move, len(l.moves))
	copy(out, l.moves)
	return out
}

// ReplayStandard replays from the standard initial position.
func ReplayStandard(tokens []base.MoveToken) (*Line, error) {
	return Replay(base.PositionID(base.FEN_START_GAME), tokens)
}

// Replay applies tokens strictly in order. On failure no Line is returned.
func Replay(start base.PositionID, tokens []base.MoveToken) (*Line, error) {
	game, err := newGame(start)
	if err != nil {
		return nil, err
	}

	line := &Line{
		Start: base.PositionID(game.Position().String()),
		Plies: make([]Ply, 0, len(tokens)),
		moves: make([]*chess.Move, 0, len(tokens)),
	}
	for i, tok := range tokens {
		before := game.Position()
		mv, err := decode(before, tok)
		if err != nil {
			return nil, &IllegalMoveError{Index: i, Token: tok, Cause: err}
		}
		san := chess.AlgebraicNotation{}.Encode(before, mv)
		uci := chess.UCINotation{}.Encode(before, mv)
		if err := game.Move(mv, nil); err != nil {
			return nil, &IllegalMoveError{Index: i, Token: tok, Cause: err}
		}
		line.Plies = append(line.Plies, Ply{
			Index:  i,
			Token:  tok,
			SAN:    san,
			UCI:    uci,
			From:   mv.S1().String(),
			To:     mv.S2().String(),
			Side:   convColor(before.Turn()),
			Before: base.PositionID(before.String()),
			After:  base.PositionID(game.Position().String()),
		})
		line.moves = append(line.moves, mv)
	}
	line.Outcome = game.Outcome().String()
	return line, nil
}

// decode accepts SAN first and UCI coordinates second.
func decode(pos *chess.Position, tok base.MoveToken) (*chess.Move, error) {
	s := strings.TrimSpace(string(tok))
	if s == "" {
		return nil, errors.New("empty move")
	}
	mv, sanErr := chess.AlgebraicNotation{}.Decode(pos, s)
	if sanErr == nil {
		return mv, nil
	}
	if mv, err := (chess.UCINotation{}).Decode(pos, strings.ToLower(s)); err == nil {
		if isValid(pos, mv) {
			return mv, nil
		}
	}
	// check and mate suffixes are optional in recorded games
	bare := strings.TrimRight(s, "+#")
	valid := pos.ValidMoves()
	for i := range valid {
		san := chess.AlgebraicNotation{}.Encode(pos, &valid[i])
		if strings.TrimRight(san, "+#") == bare {
			return &valid[i], nil
		}
	}
	return nil, sanErr
}

func isValid(pos *chess.Position, mv *chess.Move) bool {
	for _, v := range pos.ValidMoves() {
		if v.S1() == mv.S1() && v.S2() == mv.S2() && v.Promo() == mv.Promo() {
			return true
		}
	}
	return false
}

func newGame(start base.PositionID) (*chess.Game, error) {
	opt, err := chess.FEN(string(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return chess.NewGame(opt), nil
}

func position(pos base.PositionID) (*chess.Position, error) {
	g, err := newGame(pos)
	if err != nil {
		return nil, err
	}
	return g.Position(), nil
}

func convColor(c chess.Color) base.Side {
	if c == chess.Black {
		return base.Black
	}
	return base.White
}

// SideToMove reports whose turn it is in pos.
func SideToMove(pos base.PositionID) (base.Side, error) {
	p, err := position(pos)
	if err != nil {
		return base.White, err
	}
	return convColor(p.Turn()), nil
}

// LegalMoves enumerates the legal moves of pos in UCI notation.
func LegalMoves(pos base.PositionID) ([]string, error) {
	p, err := position(pos)
	if err != nil {
		return nil, err
	}
	valid := p.ValidMoves()
	out := make([]string, 0, len(valid))
	for i := range valid {
		out = append(out, chess.UCINotation{}.Encode(p, &valid[i]))
	}
	return out, nil
}

// UCIToSAN converts an engine move of pos into SAN.
func UCIToSAN(pos base.PositionID, uci string) (string, error) {
	p, err := position(pos)
	if err != nil {
		return "", err
	}
	mv, err := chess.UCINotation{}.Decode(p, uci)
	if err != nil {
		return "", err
	}
	if !isValid(p, mv) {
		return "", fmt.Errorf("%w: %s in %s", ErrIllegalMove, uci, pos)
	}
	return chess.AlgebraicNotation{}.Encode(p, mv), nil
}

// Mailbox is a board indexed rank*8+file from a1.
type Mailbox [64]chess.Piece

// MailboxOf reads the piece placement of pos.
func MailboxOf(pos base.PositionID) (Mailbox, error) {
	var mb Mailbox
	p, err := position(pos)
	if err != nil {
		return mb, err
	}
	for sq, pc := range p.Board().SquareMap() {
		mb[int(sq)] = pc
	}
	return mb, nil
}
