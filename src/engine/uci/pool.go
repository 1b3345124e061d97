package uci

import (
	"chessreview/src/base"
	"chessreview/src/engine"
	"chessreview/src/logx"
	"context"
	"errors"
	"sync"
)

// Pool is an engine.Oracle backed by several engine processes. Each
// evaluation leases one idle executor.
type Pool struct {
	logx   logx.Logger
	path   string
	args   []string
	params engine.SearchParams

	idle chan *Executor

	mu     sync.Mutex
	all    []*Executor
	closed bool
}

// NewPool starts size engine processes. If any of them fails to start the
// ones already running are closed.
func NewPool(logx logx.Logger, size int, params engine.SearchParams, enginePath string, engineArgs ...string) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		logx: logx, path: enginePath, args: engineArgs, params: params,
		idle: make(chan *Executor, size),
	}
	for i := 0; i < size; i++ {
		ex := NewExecutor(logx.With("engine", i), params, enginePath, engineArgs...)
		if err := ex.Init(); err != nil {
			p.Close()
			return nil, err
		}
		p.all = append(p.all, ex)
		p.idle <- ex
	}
	return p, nil
}

func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.all)
}

func (p *Pool) Evaluate(ctx context.Context, pos base.PositionID) (engine.Evaluation, error) {
	var ex *Executor
	select {
	case ex = <-p.idle:
	case <-ctx.Done():
		return engine.Evaluation{}, ctx.Err()
	}

	ev, err := ex.Evaluate(ctx, pos)
	if err != nil && (errors.Is(err, ErrEngineExited) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrNotStarted)) {
		ex = p.restart(ex)
	}
	p.release(ex)

	if err != nil {
		if ctx.Err() != nil {
			return engine.Evaluation{}, ctx.Err()
		}
		return engine.Evaluation{}, &engine.OracleError{Position: pos, Cause: err}
	}
	return ev, nil
}

// restart replaces a broken executor. The old one is returned if the new
// process cannot start, so the pool never shrinks.
func (p *Pool) restart(old *Executor) *Executor {
	p.logx.Warnf("restart engine %s", p.path)
	old.Close()
	ex := NewExecutor(p.logx, p.params, p.path, p.args...)
	if err := ex.Init(); err != nil {
		p.logx.Errorf("restart engine: %v", err)
		return old
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.all {
		if p.all[i] == old {
			p.all[i] = ex
		}
	}
	return ex
}

func (p *Pool) release(ex *Executor) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		ex.Close()
		return
	}
	p.idle <- ex
}

func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	all := p.all
	p.mu.Unlock()

	for _, ex := range all {
		ex.Close()
	}
	p.logx.Infof("engine pool closed (%d)", len(all))
}
