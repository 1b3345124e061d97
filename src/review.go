package src

import (
	"chessreview/src/analysis"
	"chessreview/src/base"
	"chessreview/src/engine"
	"chessreview/src/logic/convert/convpgn"
	"chessreview/src/logic/history"
	"chessreview/src/logic/opening"
	"chessreview/src/logic/replay"
	"chessreview/src/logx"
	"chessreview/src/metrics"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
)

// View is what a presentation layer shows for the current cursor.
// Eval and Analysis are nil at the start position and while the ply is
// pending.
type View struct {
	AnalysisID string                 `json:"analysis_id"`
	Generation uint64                 `json:"generation"`
	Ply        int                    `json:"ply"`
	MaxPly     int                    `json:"max_ply"`
	Position   base.PositionID        `json:"position"`
	Move       *replay.Ply            `json:"move,omitempty"`
	Eval       *engine.Evaluation     `json:"eval,omitempty"`
	Analysis   *analysis.AnalyzedMove `json:"analysis,omitempty"`
	Flipped    bool                   `json:"flipped"`
	Resolved   int                    `json:"resolved"`
	Positions  int                    `json:"positions"`
}

func (v View) Pending() bool {
	return v.Ply >= 0 && v.Eval == nil
}

func (v View) Complete() bool {
	return v.Resolved == v.Positions
}

// Snapshot is a consistent copy of the whole session.
type Snapshot struct {
	View
	Info        map[convpgn.PGNHeader]string `json:"-"`
	Line        *replay.Line                 `json:"-"`
	Evaluations []analysis.Entry             `json:"-"`
	Moves       []analysis.AnalyzedMove      `json:"moves"`
	Points      []analysis.EvaluationPoint   `json:"points"`
	Turns       []analysis.Turn              `json:"turns"`
	Summary     analysis.Summary             `json:"summary"`
	Opening     opening.Label                `json:"opening"`
}

// Review is one game under review. Loading replaces everything; evaluations
// arrive in the background and are tagged with the load generation, so a
// result for a replaced game is dropped.
type Review struct {
	logx      logx.Logger
	collector *analysis.Collector
	book      *opening.Book

	mu         sync.Mutex
	generation uint64
	id         uuid.UUID
	line       *replay.Line
	positions  []base.PositionID
	info       *history.InfoGame
	hist       *analysis.History
	cursor     *history.Cursor
	moves      []analysis.AnalyzedMove
	summary    analysis.Summary
	label      opening.Label
	flipped    bool
	cancel     context.CancelFunc
	done       chan struct{}
	collectErr error

	// subscribers
	submu sync.Mutex
	subs  map[int]chan<- View
	subid int
}

// NewReview starts with an empty game. A nil collector leaves every
// evaluation pending; a nil book uses the bundled ECO book.
func NewReview(logger logx.Logger, collector *analysis.Collector, book *opening.Book) *Review {
	if logger == nil {
		logger = logx.NewNop()
	}
	if book == nil {
		book = opening.NewBook()
	}
	r := &Review{
		logx: logger, collector: collector, book: book,
		subs: make(map[int]chan<- View),
	}
	line, _ := replay.ReplayStandard(nil)
	r.attach(line, history.NewInfoGame(), opening.Label{})
	close(r.done)
	return r
}

// LoadPGN parses the first game of r and loads it. A malformed record or an
// illegal move leaves the current game untouched.
func (r *Review) LoadPGN(ctx context.Context, rd io.Reader) error {
	game, err := convpgn.ParseOne(rd)
	if err != nil {
		metrics.Loads.WithLabelValues("malformed").Inc()
		r.logx.Warnf("load PGN: %v", err)
		return err
	}
	return r.LoadFrom(ctx, game.StartFEN(), game.Moves, game.Headers)
}

// Load replays tokens from the standard start position.
func (r *Review) Load(ctx context.Context, tokens []base.MoveToken) error {
	return r.LoadFrom(ctx, base.PositionID(base.FEN_START_GAME), tokens, nil)
}

func (r *Review) LoadFrom(ctx context.Context, start base.PositionID, tokens []base.MoveToken, headers map[convpgn.PGNHeader]string) error {
	line, err := replay.Replay(start, tokens)
	if err != nil {
		metrics.Loads.WithLabelValues("illegal").Inc()
		r.logx.Warnf("load game: %v", err)
		return err
	}
	info := history.NewInfoGameFrom(headers)
	label := r.book.Label(info.GetECO(), info.GetOpening(), line)

	r.mu.Lock()
	gen := r.attach(line, info, label)
	id := r.id
	positions := r.positions
	done := r.done
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	view := r.view()
	r.mu.Unlock()

	metrics.Loads.WithLabelValues(metrics.ResultOK).Inc()
	r.logx.Infof("load game %s: generation %d, %d plies, opening %q", id, gen, line.Len(), label.String())
	r.publish(view)

	if r.collector == nil {
		close(done)
		return nil
	}
	go func() {
		err := r.collector.Collect(cctx, positions, r.commitFunc(gen))
		r.mu.Lock()
		if gen == r.generation {
			r.collectErr = err
		}
		r.mu.Unlock()
		if err != nil && !errors.Is(err, context.Canceled) {
			r.logx.Warnf("analysis %s stopped: %v", id, err)
		} else {
			r.logx.Debugf("analysis %s finished", id)
		}
		close(done)
	}()
	return nil
}

// Reset drops the game and any analysis in flight.
func (r *Review) Reset() {
	line, _ := replay.ReplayStandard(nil)
	r.mu.Lock()
	gen := r.attach(line, history.NewInfoGame(), opening.Label{})
	close(r.done)
	view := r.view()
	r.mu.Unlock()

	r.logx.Infof("reset: generation %d", gen)
	r.publish(view)
}

// attach replaces the whole state and returns the new generation. The caller
// holds mu, except in NewReview.
func (r *Review) attach(line *replay.Line, info *history.InfoGame, label opening.Label) uint64 {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.generation++
	r.id = uuid.New()
	r.line = line
	r.positions = line.Positions()
	r.info = info
	r.label = label
	r.hist = analysis.NewHistory(len(r.positions))
	if r.cursor == nil {
		r.cursor = history.NewCursor(line.Len())
	} else {
		r.cursor.Reset(line.Len())
	}
	r.moves = nil
	r.summary = r.aggregate()
	r.done = make(chan struct{})
	r.collectErr = nil
	return r.generation
}

func (r *Review) commitFunc(gen uint64) func(analysis.Result) {
	return func(res analysis.Result) {
		r.mu.Lock()
		if gen != r.generation {
			r.mu.Unlock()
			metrics.StaleResults.Inc()
			r.logx.Debugf("drop stale evaluation: generation %d, position %d", gen, res.Index)
			return
		}
		if res.Err != nil {
			_ = r.hist.Fail(res.Index, res.Err)
		} else {
			_ = r.hist.Resolve(res.Index, res.Eval)
		}
		r.moves = analysis.Analyze(r.line, r.hist)
		r.summary = r.aggregate()
		view := r.view()
		r.mu.Unlock()

		r.publish(view)
	}
}

func (r *Review) aggregate() analysis.Summary {
	s := analysis.Aggregate(r.moves, r.line.Len())
	s.Opening = r.label.String()
	return s
}

// Wait blocks until the analysis of the current game ends.
func (r *Review) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	gen := r.generation
	r.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return context.Canceled
	}
	return r.collectErr
}

// ---- Navigation ----

func (r *Review) First() View { return r.navigate(func(c *history.Cursor) bool { return c.First() }) }
func (r *Review) Last() View  { return r.navigate(func(c *history.Cursor) bool { return c.Last() }) }
func (r *Review) Prev() View  { return r.navigate(func(c *history.Cursor) bool { return c.Prev() }) }
func (r *Review) Next() View  { return r.navigate(func(c *history.Cursor) bool { return c.Next() }) }

// Jump moves to ply k (-1 is the start position). Out of range requests
// return history.OutOfRangeJumpError and leave the cursor alone.
func (r *Review) Jump(k int) (View, error) {
	var jerr error
	v := r.navigate(func(c *history.Cursor) bool {
		moved, err := c.Jump(k)
		jerr = err
		return moved
	})
	if jerr != nil {
		r.logx.Debugf("jump: %v", jerr)
	}
	return v, jerr
}

func (r *Review) navigate(move func(*history.Cursor) bool) View {
	r.mu.Lock()
	changed := move(r.cursor)
	view := r.view()
	r.mu.Unlock()

	if changed {
		r.publish(view)
	}
	return view
}

// Flip turns the board around.
func (r *Review) Flip() View {
	r.mu.Lock()
	r.flipped = !r.flipped
	view := r.view()
	r.mu.Unlock()

	r.publish(view)
	return view
}

func (r *Review) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view()
}

// view reads the state under mu.
func (r *Review) view() View {
	c := r.cursor.Index()
	v := View{
		AnalysisID: r.id.String(),
		Generation: r.generation,
		Ply:        c,
		MaxPly:     r.cursor.Max(),
		Position:   r.positions[r.cursor.Position()],
		Flipped:    r.flipped,
		Resolved:   r.hist.Resolved(),
		Positions:  r.hist.Len(),
	}
	if c == history.Start {
		return v
	}
	p := r.line.Plies[c]
	v.Move = &p
	// shown only where the curve has a point for c
	if c < len(analysis.Points(r.moves)) {
		if ev, ok := r.hist.After(c); ok {
			v.Eval = &ev
		}
	}
	for i := range r.moves {
		if r.moves[i].Ply == c {
			m := r.moves[i]
			v.Analysis = &m
			break
		}
	}
	return v
}

func (r *Review) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	evals := make([]analysis.Entry, r.hist.Len())
	for i := range evals {
		evals[i], _ = r.hist.At(i)
	}
	moves := append([]analysis.AnalyzedMove(nil), r.moves...)
	return Snapshot{
		View:        r.view(),
		Info:        r.info.Headers(),
		Line:        r.line,
		Evaluations: evals,
		Moves:       moves,
		Points:      analysis.Points(moves),
		Turns:       analysis.Turns(r.line, moves),
		Summary:     r.summary,
		Opening:     r.label,
	}
}

// WritePGN exports the game with the evaluation after each move as a
// comment and the classification as a NAG.
func (r *Review) WritePGN(w io.Writer) error {
	s := r.Snapshot()
	headers := s.Info
	if headers[convpgn.PGNHeaderECO] == "" && s.Opening.ECO != "" {
		headers[convpgn.PGNHeaderECO] = s.Opening.ECO
	}
	if headers[convpgn.PGNHeaderOpening] == "" && s.Opening.Name != "" {
		headers[convpgn.PGNHeaderOpening] = s.Opening.Name
	}
	if s.Line.Start.WithoutClocks() != base.PositionID(base.FEN_START_GAME).WithoutClocks() {
		headers[convpgn.PGNHeaderSetUp] = "1"
		headers[convpgn.PGNHeaderFEN] = string(s.Line.Start)
	}

	result := convpgn.ConvStringToPGNStatus(headers[convpgn.PGNHeaderResult])
	if result == convpgn.PGNStatusUndefined || result == convpgn.PGNStatusActive {
		result = convpgn.ConvStringToPGNStatus(s.Line.Outcome)
	}

	byPly := make(map[int]analysis.AnalyzedMove, len(s.Moves))
	for _, m := range s.Moves {
		byPly[m.Ply] = m
	}
	notes := make([]convpgn.Annotation, s.Line.Len())
	for i := range notes {
		if m, ok := byPly[i]; ok {
			notes[i] = convpgn.Annotation{NAG: m.Classification.NAG(), Comment: m.EvalAfter.String()}
		} else if e := s.Evaluations[i+1]; e.IsResolved() {
			notes[i] = convpgn.Annotation{Comment: e.Eval.Score.String()}
		}
	}

	return convpgn.WritePGN(w, convpgn.PGNGame{
		Headers:     headers,
		Moves:       s.Line.SANs(),
		Result:      result,
		Annotations: notes,
	})
}

// ---- Subscribers ----

// Subscribe delivers a View after every change. Sends never block; a slow
// subscriber misses views.
func (r *Review) Subscribe(ch chan<- View) (unsubscribe func()) {
	r.submu.Lock()
	defer r.submu.Unlock()

	id := r.subid
	r.subs[id] = ch
	r.subid++

	return func() {
		r.submu.Lock()
		defer r.submu.Unlock()
		delete(r.subs, id)
	}
}

func (r *Review) publish(v View) {
	r.submu.Lock()
	defer r.submu.Unlock()

	for _, ch := range r.subs {
		select {
		case ch <- v:
		default:
		}
	}
}
