// Package table is an oracle over precomputed evaluations, e.g. exported
// from an earlier engine run or hand-annotated.
package table

import (
	"chessreview/src/base"
	"chessreview/src/engine"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrUnknownPosition = errors.New("position not in table")

// Entry is one row of the table file. Scores are from White's point of view.
type Entry struct {
	FEN       string                 `yaml:"fen"`
	CP        int                    `yaml:"cp,omitempty"`
	Mate      int                    `yaml:"mate,omitempty"`
	Best      string                 `yaml:"best,omitempty"`
	PV        []string               `yaml:"pv,omitempty"`
	Depth     int                    `yaml:"depth,omitempty"`
	Sacrifice engine.SacrificeSignal `yaml:"sacrifice,omitempty"`
	Error     string                 `yaml:"error,omitempty"`
}

type File struct {
	Positions []Entry `yaml:"positions"`
}

// Oracle looks positions up by full FEN first and without move clocks second.
type Oracle struct {
	mu      sync.RWMutex
	entries map[base.PositionID]Entry
}

func New() *Oracle {
	return &Oracle{entries: make(map[base.PositionID]Entry)}
}

func Load(path string) (*Oracle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) (*Oracle, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode evaluation table: %w", err)
	}
	o := New()
	for i, e := range file.Positions {
		if strings.TrimSpace(e.FEN) == "" {
			return nil, fmt.Errorf("evaluation table entry %d: empty fen", i)
		}
		o.Put(e)
	}
	return o, nil
}

func (o *Oracle) Put(e Entry) {
	e.FEN = strings.Join(strings.Fields(e.FEN), " ")
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries[base.PositionID(e.FEN)] = e
	o.entries[base.PositionID(e.FEN).WithoutClocks()] = e
}

func (o *Oracle) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	n := 0
	for k, e := range o.entries {
		if string(k) == e.FEN {
			n++
		}
	}
	return n
}

func (o *Oracle) Evaluate(ctx context.Context, pos base.PositionID) (engine.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return engine.Evaluation{}, err
	}
	key := base.PositionID(strings.Join(strings.Fields(string(pos)), " "))

	o.mu.RLock()
	e, ok := o.entries[key]
	if !ok {
		e, ok = o.entries[key.WithoutClocks()]
	}
	o.mu.RUnlock()

	if !ok {
		return engine.Evaluation{}, &engine.OracleError{Position: pos, Cause: ErrUnknownPosition}
	}
	if e.Error != "" {
		return engine.Evaluation{}, &engine.OracleError{Position: pos, Cause: errors.New(e.Error)}
	}
	ev := engine.Evaluation{
		Score:     base.Score{CP: e.CP, Mate: e.Mate},
		BestMove:  e.Best,
		PV:        e.PV,
		Depth:     e.Depth,
		Sacrifice: e.Sacrifice,
	}
	if ev.BestMove == "" && len(ev.PV) > 0 {
		ev.BestMove = ev.PV[0]
	}
	return ev, nil
}

// Write exports evaluations in the format Read accepts.
func Write(w io.Writer, fens []base.PositionID, evals []engine.Evaluation) error {
	if len(fens) != len(evals) {
		return fmt.Errorf("positions (%d) and evaluations (%d) differ", len(fens), len(evals))
	}
	file := File{Positions: make([]Entry, 0, len(fens))}
	for i, ev := range evals {
		file.Positions = append(file.Positions, Entry{
			FEN: string(fens[i]), CP: ev.Score.CP, Mate: ev.Score.Mate,
			Best: ev.BestMove, PV: ev.PV, Depth: ev.Depth, Sacrifice: ev.Sacrifice,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return err
	}
	return enc.Close()
}
