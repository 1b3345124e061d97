// Package analysis turns a replayed game and its evaluation history into
// classified moves, an evaluation curve and per-side accuracy.
package analysis

import (
	"chessreview/src/base"
	"chessreview/src/logic/replay"
)

// AnalyzedMove is a ply whose before and after positions are both evaluated.
// Scores are from White's point of view.
type AnalyzedMove struct {
	Ply            int                 `json:"ply" yaml:"ply"`
	Side           base.Side           `json:"side" yaml:"side"`
	Token          base.MoveToken      `json:"token" yaml:"token"`
	SAN            string              `json:"san" yaml:"san"`
	UCI            string              `json:"uci" yaml:"uci"`
	From           string              `json:"from" yaml:"from"`
	To             string              `json:"to" yaml:"to"`
	Before         base.PositionID     `json:"before" yaml:"before"`
	After          base.PositionID     `json:"after" yaml:"after"`
	EvalBefore     base.Score          `json:"eval_before" yaml:"eval_before"`
	EvalAfter      base.Score          `json:"eval_after" yaml:"eval_after"`
	Loss           int                 `json:"loss" yaml:"loss"`
	BestMove       string              `json:"best_move,omitempty" yaml:"best_move,omitempty"`
	BestSAN        string              `json:"best_san,omitempty" yaml:"best_san,omitempty"`
	Classification base.Classification `json:"classification" yaml:"classification"`
}

// Analyze classifies every ply of line whose two evaluations are resolved,
// in ply order. Plies with a pending side are skipped.
func Analyze(line *replay.Line, h *History) []AnalyzedMove {
	if line == nil || h == nil {
		return nil
	}
	out := make([]AnalyzedMove, 0, line.Len())
	for _, p := range line.Plies {
		before, ok := h.Before(p.Index)
		if !ok {
			continue
		}
		after, ok := h.After(p.Index)
		if !ok {
			continue
		}
		v := Classify(before.Score, after.Score, p.Side, p.UCI, before.BestMove, after.Sacrifice)
		m := AnalyzedMove{
			Ply: p.Index, Side: p.Side, Token: p.Token,
			SAN: p.SAN, UCI: p.UCI, From: p.From, To: p.To,
			Before: p.Before, After: p.After,
			EvalBefore: before.Score, EvalAfter: after.Score,
			Loss: v.Loss, BestMove: before.BestMove,
			Classification: v.Classification,
		}
		if m.BestMove != "" {
			if san, err := replay.UCIToSAN(p.Before, m.BestMove); err == nil {
				m.BestSAN = san
			}
		}
		out = append(out, m)
	}
	return out
}

// EvaluationPoint is one sample of the evaluation curve.
type EvaluationPoint struct {
	Ply            int                 `json:"ply" yaml:"ply"`
	Score          base.Score          `json:"score" yaml:"score"`
	Classification base.Classification `json:"classification" yaml:"classification"`
}

// Points is the evaluation curve: the analyzed moves forming an unbroken
// prefix of the game. It has one point per ply once analysis completes.
func Points(moves []AnalyzedMove) []EvaluationPoint {
	out := make([]EvaluationPoint, 0, len(moves))
	for i, m := range moves {
		if m.Ply != i {
			break
		}
		out = append(out, EvaluationPoint{Ply: m.Ply, Score: m.EvalAfter, Classification: m.Classification})
	}
	return out
}
