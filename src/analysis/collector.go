package analysis

import (
	"chessreview/src/base"
	"chessreview/src/engine"
	"chessreview/src/logx"
	"chessreview/src/metrics"
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Result is the outcome of evaluating positions[Index]. Exactly one of
// Eval and Err is meaningful.
type Result struct {
	Index int
	Eval  engine.Evaluation
	Err   error
}

type CollectorOption func(*Collector)

// WithWorkers bounds the number of concurrent oracle calls.
func WithWorkers(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithRate paces oracle calls. A zero limit disables pacing.
func WithRate(limit rate.Limit, burst int) CollectorOption {
	return func(c *Collector) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithTimeout bounds a single evaluation.
func WithTimeout(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.timeout = d
	}
}

func WithLogger(l logx.Logger) CollectorOption {
	return func(c *Collector) {
		c.logx = l
	}
}

// Collector fans evaluation requests out to an oracle.
type Collector struct {
	oracle  engine.Oracle
	workers int
	limiter *rate.Limiter
	timeout time.Duration
	logx    logx.Logger
}

func NewCollector(oracle engine.Oracle, opts ...CollectorOption) *Collector {
	c := &Collector{oracle: oracle, workers: 1, logx: logx.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collector) Workers() int {
	return c.workers
}

// Collect evaluates every position and hands each result to commit as soon
// as it arrives, in completion order. commit is called from several
// goroutines and must synchronize itself. Requests are issued in position
// order. A failed position is reported through commit and never stops the
// others. Once ctx is done no further results are committed and ctx's
// error is returned.
func (c *Collector) Collect(ctx context.Context, positions []base.PositionID, commit func(Result)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, pos := range positions {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return c.evaluate(gctx, i, pos, commit)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (c *Collector) evaluate(ctx context.Context, i int, pos base.PositionID, commit func(Result)) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			commit(Result{Index: i, Err: &engine.OracleError{Position: pos, Cause: err}})
			return nil
		}
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	ev, err := c.oracle.Evaluate(callCtx, pos)
	metrics.OracleDuration.Observe(time.Since(start).Seconds())

	if ctx.Err() != nil {
		metrics.OracleRequests.WithLabelValues(metrics.ResultCanceled).Inc()
		return ctx.Err()
	}
	if err != nil {
		metrics.OracleRequests.WithLabelValues(metrics.ResultError).Inc()
		if !errors.Is(err, engine.ErrOracle) {
			err = &engine.OracleError{Position: pos, Cause: err}
		}
		c.logx.Warnf("evaluate position %d: %v", i, err)
		commit(Result{Index: i, Err: err})
		return nil
	}

	metrics.OracleRequests.WithLabelValues(metrics.ResultOK).Inc()
	commit(Result{Index: i, Eval: ev})
	return nil
}
