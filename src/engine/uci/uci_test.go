package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"chessreview/src/base"
	"chessreview/src/engine"
	"chessreview/src/logx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const fakeEngineEnv = "CHESSREVIEW_FAKE_UCI"

// The test binary doubles as a scripted engine when re-executed with
// fakeEngineEnv set.
func TestMain(m *testing.M) {
	if os.Getenv(fakeEngineEnv) == "1" {
		fakeEngine(os.Stdin, os.Stdout)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// fakeEngine answers by the placement field of the position:
// "mate" reports a mate in 2 for the side to move, "slow" searches until
// stopped, "crash" exits, "silent" never sends a score, anything else
// reports +30 for the side to move.
func fakeEngine(r io.Reader, w io.Writer) {
	fmt.Fprintln(w, "Fake engine by chessreview")
	scr := bufio.NewScanner(r)
	fen := ""
	searching := false
	for scr.Scan() {
		line := strings.TrimSpace(scr.Text())
		switch {
		case line == "uci":
			fmt.Fprintln(w, "id name Fake 1.0")
			fmt.Fprintln(w, "option name Hash type spin default 16 min 1 max 1024")
			fmt.Fprintln(w, "uciok")
		case line == "isready":
			fmt.Fprintln(w, "readyok")
		case strings.HasPrefix(line, "position fen "):
			fen = strings.TrimPrefix(line, "position fen ")
		case strings.HasPrefix(line, "go"):
			switch strings.Fields(fen)[0] {
			case "mate":
				fmt.Fprintln(w, "info depth 4 seldepth 4 score mate 2 nodes 100 pv h5f7 e8e7 f7e7")
				fmt.Fprintln(w, "bestmove h5f7")
			case "slow":
				fmt.Fprintln(w, "info depth 1 score cp 5 pv a2a3")
				searching = true
			case "crash":
				os.Exit(3)
			case "silent":
				fmt.Fprintln(w, "bestmove (none)")
			default:
				fmt.Fprintln(w, "info depth 1 score cp 10 pv a2a3")
				fmt.Fprintln(w, "info depth 2 score cp 40 lowerbound pv a2a4")
				fmt.Fprintln(w, "info depth 3 multipv 2 score cp -80 pv h2h3")
				fmt.Fprintln(w, "info depth 3 multipv 1 score cp 30 nodes 900 pv e2e4 e7e5")
				fmt.Fprintln(w, "bestmove e2e4 ponder e7e5")
			}
		case line == "stop":
			if searching {
				searching = false
				fmt.Fprintln(w, "bestmove a2a3")
			}
		case line == "quit":
			return
		}
	}
}

func newTestExecutor(t *testing.T, params engine.SearchParams) *Executor {
	t.Setenv(fakeEngineEnv, "1")
	ex := NewExecutor(logx.Wrap(zaptest.NewLogger(t).Sugar()), params, os.Args[0])
	require.NoError(t, ex.Init())
	t.Cleanup(ex.Close)
	return ex
}

func TestExecutorHandshake(t *testing.T) {
	ex := newTestExecutor(t, engine.LevelToParams(engine.LevelOne))
	assert.Equal(t, "Fake 1.0", ex.Name())
}

func TestExecutorEvaluate(t *testing.T) {
	ex := newTestExecutor(t, engine.LevelToParams(engine.LevelOne))
	ctx := context.Background()

	ev, err := ex.Evaluate(ctx, "normal w - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, base.CP(30), ev.Score)
	assert.Equal(t, "e2e4", ev.BestMove)
	assert.Equal(t, []string{"e2e4", "e7e5"}, ev.PV)
	assert.Equal(t, 3, ev.Depth)
	assert.Equal(t, engine.SacrificeUnknown, ev.Sacrifice)

	// black to move: the engine's +30 is -30 for White
	ev, err = ex.Evaluate(ctx, "normal b - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, base.CP(-30), ev.Score)

	ev, err = ex.Evaluate(ctx, "mate b - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, base.MateIn(-2), ev.Score)
	assert.Equal(t, "h5f7", ev.BestMove)
}

func TestExecutorCancel(t *testing.T) {
	ex := newTestExecutor(t, engine.SearchParams{MaxTimeMs: 60_000})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := ex.Evaluate(ctx, "slow w - - 0 1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// the stopped search must not leak into the next request
	ev, err := ex.Evaluate(context.Background(), "normal w - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, "e2e4", ev.BestMove)
}

func TestExecutorErrors(t *testing.T) {
	ex := newTestExecutor(t, engine.LevelToParams(engine.LevelOne))

	_, err := ex.Evaluate(context.Background(), "nofields")
	assert.Error(t, err)

	_, err = ex.Evaluate(context.Background(), "silent w - - 0 1")
	assert.ErrorIs(t, err, ErrNoScore)

	_, err = ex.Evaluate(context.Background(), "crash w - - 0 1")
	assert.ErrorIs(t, err, ErrEngineExited)

	assert.ErrorIs(t, NewExecutor(logx.NewNop(), engine.SearchParams{}, "").Init(), ErrNoEngine)
	_, err = NewExecutor(logx.NewNop(), engine.SearchParams{}, "x").Evaluate(context.Background(), "a w")
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestParseInfo(t *testing.T) {
	ev, ok := parseInfo("info depth 12 seldepth 18 multipv 1 score cp -45 nodes 1 nps 2 time 3 pv d7d5 c2c4")
	require.True(t, ok)
	assert.Equal(t, 12, ev.Depth)
	assert.Equal(t, base.CP(-45), ev.Score)
	assert.Equal(t, "d7d5", ev.BestMove)

	ev, ok = parseInfo("info depth 0 score mate 0")
	require.True(t, ok)
	assert.Equal(t, base.MateIn(-1), ev.Score)

	_, ok = parseInfo("info depth 5 currmove e2e4 currmovenumber 1")
	assert.False(t, ok)
	_, ok = parseInfo("info depth 5 score cp 10 upperbound")
	assert.False(t, ok)
	_, ok = parseInfo("info string NNUE evaluation enabled")
	assert.False(t, ok)
}

func TestGoCommand(t *testing.T) {
	assert.Equal(t, "go depth 5 movetime 1500", goCommand(engine.LevelToParams(engine.LevelFour)))
	assert.Equal(t, "go depth 3", goCommand(engine.SearchParams{MaxDepth: 3}))
	assert.Equal(t, "go movetime 15000", goCommand(engine.SearchParams{}))
}

func TestPool(t *testing.T) {
	t.Setenv(fakeEngineEnv, "1")
	p, err := NewPool(logx.Wrap(zaptest.NewLogger(t).Sugar()), 3, engine.LevelToParams(engine.LevelOne), os.Args[0])
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 3, p.Size())

	var wg sync.WaitGroup
	errs := make(chan error, 12)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pos := base.PositionID("normal w - - 0 1")
			if i%2 == 1 {
				pos = "normal b - - 0 1"
			}
			ev, err := p.Evaluate(context.Background(), pos)
			if err == nil && ev.Score.CP != 30 && ev.Score.CP != -30 {
				err = fmt.Errorf("unexpected score %v", ev.Score)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	// a crashed engine is reported as an oracle error and replaced
	_, err = p.Evaluate(context.Background(), "crash w - - 0 1")
	assert.True(t, errors.Is(err, engine.ErrOracle))
	assert.True(t, errors.Is(err, ErrEngineExited))
	assert.Equal(t, 3, p.Size())

	for i := 0; i < 3; i++ {
		_, err = p.Evaluate(context.Background(), "normal w - - 0 1")
		require.NoError(t, err)
	}
}

func TestPoolStartFailure(t *testing.T) {
	_, err := NewPool(logx.NewNop(), 2, engine.SearchParams{}, "")
	assert.ErrorIs(t, err, ErrNoEngine)
}
