package uci

import (
	"bufio"
	"chessreview/src/base"
	"chessreview/src/engine"
	"chessreview/src/logx"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	ErrNoEngine     = errors.New("engine path is empty")
	ErrNotStarted   = errors.New("no running uci-process")
	ErrEngineExited = errors.New("uci-process exited")
	ErrTimeout      = errors.New("timeout waiting for bestmove")
	ErrNoScore      = errors.New("engine reported no score")
)

// Executor drives one engine process. Evaluations are serialized.
type Executor struct {
	// init
	path   string
	args   []string
	params engine.SearchParams

	// process
	cmd  *exec.Cmd
	in   io.WriteCloser
	out  io.ReadCloser
	name string

	// read stdout
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	lines  chan string

	mu   sync.Mutex
	logx logx.Logger
}

// to open a process, need to call Init()
func NewExecutor(logx logx.Logger, params engine.SearchParams, enginePath string, engineArgs ...string) *Executor {
	return &Executor{path: enginePath, args: engineArgs, params: params, logx: logx}
}

// Init starts the process and performs the uci/isready handshake.
func (e *Executor) Init() error {
	if e.path == "" {
		return ErrNoEngine
	}

	cmd := exec.Command(e.path, e.args...)
	in, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("error connect to stdin of engine %s: %w", e.path, err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("error connect to stdout of engine %s: %w", e.path, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error open %s engine: %w", e.path, err)
	}

	e.cmd = cmd
	e.in = in
	e.out = out
	e.lines = make(chan string, 256)

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.wg.Add(1)
	go e.stdoutLoop(e.ctx)

	if err := e.checkUCI(); err != nil {
		e.Close()
		return err
	}
	if err := e.checkReady(); err != nil {
		e.Close()
		return err
	}
	e.logx.Infof("open engine: %s (pid %d)", e.name, cmd.Process.Pid)
	return nil
}

// Name is the engine's "id name", known after Init.
func (e *Executor) Name() string {
	return e.name
}

// command executable
func (e *Executor) Exec(cmd string) error {
	if e.in == nil {
		return errors.New("stdin not available")
	}
	e.logx.Debugf("GUI: %s", cmd)
	_, err := io.WriteString(e.in, cmd+"\n")
	return err
}

// Evaluate searches pos with the executor's limits and returns the last
// reported score converted to White's point of view.
func (e *Executor) Evaluate(ctx context.Context, pos base.PositionID) (engine.Evaluation, error) {
	side, err := pos.SideToMove()
	if err != nil {
		return engine.Evaluation{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd == nil {
		return engine.Evaluation{}, ErrNotStarted
	}

	e.drain()
	if err := e.Exec("position fen " + string(pos)); err != nil {
		return engine.Evaluation{}, err
	}
	if err := e.checkReady(); err != nil {
		return engine.Evaluation{}, err
	}
	if err := e.Exec(goCommand(e.params)); err != nil {
		return engine.Evaluation{}, err
	}

	timer := time.NewTimer(e.params.Timeout())
	defer timer.Stop()

	var (
		ev  engine.Evaluation
		got bool
	)
	for {
		select {
		case line, ok := <-e.lines:
			if !ok {
				return engine.Evaluation{}, ErrEngineExited
			}
			switch {
			case strings.HasPrefix(line, "info "):
				if info, ok := parseInfo(line); ok {
					ev, got = info, true
				}
			case strings.HasPrefix(line, "bestmove"):
				if f := strings.Fields(line); len(f) >= 2 && f[1] != "(none)" {
					ev.BestMove = f[1]
				}
				if !got {
					return engine.Evaluation{}, ErrNoScore
				}
				if ev.BestMove == "" && len(ev.PV) > 0 {
					ev.BestMove = ev.PV[0]
				}
				ev.Score = ev.Score.POV(side)
				return ev, nil
			}
		case <-timer.C:
			e.stop()
			return engine.Evaluation{}, ErrTimeout
		case <-ctx.Done():
			e.stop()
			return engine.Evaluation{}, ctx.Err()
		}
	}
}

func goCommand(prm engine.SearchParams) string {
	var b strings.Builder
	b.WriteString("go")
	if prm.MaxDepth > 0 {
		b.WriteString(" depth " + strconv.Itoa(prm.MaxDepth))
	}
	if prm.MaxTimeMs > 0 {
		b.WriteString(" movetime " + strconv.FormatInt(prm.MaxTimeMs, 10))
	}
	if prm.MaxDepth <= 0 && prm.MaxTimeMs <= 0 {
		b.WriteString(" movetime " + strconv.FormatInt(engine.UCIBestMoveTimeout.Milliseconds()/2, 10))
	}
	return b.String()
}

// stop interrupts the running search and waits for its bestmove so the next
// request does not read a stale one.
func (e *Executor) stop() {
	e.logx.Info("stop analyze")
	if err := e.Exec("stop"); err != nil {
		return
	}
	if err := e.waitCompare("bestmove", engine.StopAnalyzeTimeout); err != nil {
		e.logx.Warnf("engine did not stop: %v", err)
	}
}

func (e *Executor) drain() {
	for {
		select {
		case _, ok := <-e.lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Terminate process
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd == nil {
		return
	}
	_ = e.Exec("quit")
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		if e.cmd.Process != nil {
			_ = e.cmd.Process.Kill()
		}
		e.wg.Wait()
	}

	_ = e.cmd.Wait()
	e.cmd = nil
	e.in = nil
	e.logx.Info("uci-process terminated")
}

func (e *Executor) checkUCI() error {
	if err := e.Exec("uci"); err != nil {
		return err
	}
	timer := time.NewTimer(engine.UCIHandshakeTimeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-e.lines:
			if !ok {
				return ErrEngineExited
			}
			if name, found := strings.CutPrefix(line, "id name "); found {
				e.name = name
			}
			if strings.HasPrefix(line, "uciok") {
				return nil
			}
		case <-timer.C:
			return errors.New("timeout waiting for uciok")
		}
	}
}

func (e *Executor) checkReady() error {
	if err := e.Exec("isready"); err != nil {
		return err
	}
	return e.waitCompare("readyok", engine.UCIHandshakeTimeout)
}

func (e *Executor) waitCompare(str string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-e.lines:
			if !ok {
				return ErrEngineExited
			}
			if strings.HasPrefix(line, str) {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for %s", str)
		}
	}
}

func (e *Executor) stdoutLoop(ctx context.Context) {
	defer e.wg.Done()
	defer close(e.lines)
	scr := bufio.NewScanner(e.out)
	for scr.Scan() {
		line := strings.TrimSpace(scr.Text())
		if line == "" {
			continue
		}
		e.logx.Debugf("ENGINE: %s", line)
		select {
		case e.lines <- line:
		case <-ctx.Done():
			return
		}
	}
}

// parseInfo reads a principal "info" line. Bound scores and secondary
// multipv lines are ignored. The score is relative to the side to move.
func parseInfo(info string) (engine.Evaluation, bool) {
	ev := engine.Evaluation{}
	scored := false
	fld := strings.Fields(info)
	n := len(fld)
	for i := 1; i < n; i++ {
		switch fld[i] {
		case "depth":
			if i+1 < n {
				ev.Depth, _ = strconv.Atoi(fld[i+1])
				i++
			}
		case "multipv":
			if i+1 < n {
				if v, err := strconv.Atoi(fld[i+1]); err == nil && v > 1 {
					return ev, false
				}
				i++
			}
		case "lowerbound", "upperbound":
			return ev, false
		case "score":
			if i+2 < n {
				v, err := strconv.Atoi(fld[i+2])
				if err != nil {
					return ev, false
				}
				switch fld[i+1] {
				case "cp":
					ev.Score = base.CP(v)
					scored = true
				case "mate":
					// mate 0: the side to move is already mated
					if v == 0 {
						v = -1
					}
					ev.Score = base.MateIn(v)
					scored = true
				}
				i += 2
			}
		case "pv":
			ev.PV = append([]string(nil), fld[i+1:]...)
			i = n // pv tag is always last
		default:
			// skip "seldepth", "nodes", "currmove" etc
		}
	}
	if len(ev.PV) > 0 {
		ev.BestMove = ev.PV[0]
	}
	return ev, scored
}
