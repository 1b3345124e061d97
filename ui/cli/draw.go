package cli

import (
	"chessreview/src"
	"chessreview/src/analysis"
	"chessreview/src/base"
	"chessreview/src/logic/replay"
	"fmt"
	"io"
	"strings"

	"github.com/corentings/chess/v2"
)

// ANSI-code
const (
	reset   = "\033[0m"
	lightBg = "\033[47m"
	darkBg  = "\033[100m"
	whiteF  = "\033[97m"
	blackF  = "\033[30m"
	dimF    = "\033[90m"
)

var pieceGlyphs = map[chess.Piece]string{
	chess.WhiteKing:   "♔",
	chess.WhiteQueen:  "♕",
	chess.WhiteRook:   "♖",
	chess.WhiteBishop: "♗",
	chess.WhiteKnight: "♘",
	chess.WhitePawn:   "♙",
	chess.BlackKing:   "♚",
	chess.BlackQueen:  "♛",
	chess.BlackRook:   "♜",
	chess.BlackBishop: "♝",
	chess.BlackKnight: "♞",
	chess.BlackPawn:   "♟",
	chess.NoPiece:     " ",
}

func pieceGlyph(p chess.Piece) string {
	if g, ok := pieceGlyphs[p]; ok {
		return g
	}
	return "?"
}

// PrintBoard draws pos with White at the bottom unless flipped.
func PrintBoard(w io.Writer, pos base.PositionID, flipped bool) error {
	mb, err := replay.MailboxOf(pos)
	if err != nil {
		return err
	}

	files := "   a  b  c  d  e  f  g  h"
	if flipped {
		files = "   h  g  f  e  d  c  b  a"
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, files)
	for row := 0; row < 8; row++ {
		rank := 7 - row
		if flipped {
			rank = row
		}
		fmt.Fprintf(w, "%d ", rank+1)
		for col := 0; col < 8; col++ {
			file := col
			if flipped {
				file = 7 - col
			}
			p := mb[rank*8+file]
			g := pieceGlyph(p)

			var bg, fg string
			if (rank+file)%2 == 1 {
				bg = lightBg
				if p == chess.NoPiece {
					fg = dimF
				} else {
					fg = blackF
				}
			} else {
				bg = darkBg
				switch {
				case p == chess.NoPiece:
					fg = dimF
				case p.Color() == chess.White:
					fg = whiteF
				default:
					fg = blackF
				}
			}
			fmt.Fprintf(w, "%s%s %s %s", bg, fg, g, reset)
		}
		fmt.Fprintf(w, " %d\n", rank+1)
	}
	fmt.Fprintln(w, files)
	return nil
}

// EvalBar renders White's expected score as a bar of width cells.
func EvalBar(s base.Score, width int) string {
	if width <= 0 {
		return ""
	}
	white := int(analysis.WinPercent(s)/100*float64(width) + 0.5)
	if white > width {
		white = width
	}
	return "[" + strings.Repeat("█", white) + strings.Repeat("░", width-white) + "]"
}

// moveNumber is "12." for White and "12..." for Black, counted from the
// position the move was played in.
func moveNumber(p replay.Ply) string {
	n := p.Before.MoveNumber()
	if p.Side == base.White {
		return fmt.Sprintf("%d.", n)
	}
	return fmt.Sprintf("%d...", n)
}

// PrintView draws the board and the status of the cursor.
func PrintView(w io.Writer, v src.View) error {
	return printView(w, v, newPalette(w))
}

func printView(w io.Writer, v src.View, pal palette) error {
	if err := PrintBoard(w, v.Position, v.Flipped); err != nil {
		return err
	}

	switch {
	case v.Move == nil:
		fmt.Fprintf(w, "Start position (%d plies)\n", v.MaxPly+1)
	case v.Analysis != nil:
		a := v.Analysis
		fmt.Fprintf(w, "Ply %d/%d  %s %s%s  %s  loss %d\n",
			v.Ply+1, v.MaxPly+1, moveNumber(*v.Move), a.SAN,
			a.Classification.Glyph(), pal.tier(a.Classification), a.Loss)
		if a.BestSAN != "" && a.BestMove != a.UCI {
			fmt.Fprintf(w, "Best: %s\n", a.BestSAN)
		}
	default:
		fmt.Fprintf(w, "Ply %d/%d  %s %s  %s\n", v.Ply+1, v.MaxPly+1, moveNumber(*v.Move), v.Move.SAN, pal.muted.Render("pending"))
	}
	if v.Eval != nil {
		fmt.Fprintf(w, "Eval: %s %s\n", v.Eval.Score, EvalBar(v.Eval.Score, 20))
	}
	fmt.Fprintf(w, "Analysis: %d/%d positions\n", v.Resolved, v.Positions)
	return nil
}
