package ui

import (
	"chessreview/src"
	"chessreview/src/analysis"
	"chessreview/src/base"
	"chessreview/src/config"
	"chessreview/src/engine"
	"chessreview/src/engine/table"
	"chessreview/src/engine/uci"
	"chessreview/src/logic/opening"
	"chessreview/src/logx"
	"chessreview/src/metrics"
	clic "chessreview/ui/cli"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

func GetLogger(file io.Writer, cfg *config.Config) *logx.Logx {
	l := logx.NewLogx(
		logx.GetLoggerLevelByString(cfg.LogLevel),
		cfg.Debug,
		cfg.Console,
	)
	l.InitLogger(file)
	return l
}

// LoadConfig reads --config (or chessreview.* in the working directory) and
// applies the flags that were set on the command line.
func LoadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("engine") {
		cfg.Engine = c.String("engine")
	}
	if c.IsSet("uci-path") {
		cfg.UCIPath = c.String("uci-path")
	}
	if c.IsSet("uci-arg") {
		cfg.UCIArgs = c.StringSlice("uci-arg")
	}
	if c.IsSet("table") {
		cfg.Table = c.String("table")
	}
	if c.IsSet("strength") {
		cfg.Level = c.Int("strength")
	}
	if c.IsSet("depth") {
		cfg.Depth = c.Int("depth")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("rate") {
		cfg.Rate = c.Float("rate")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("level") {
		cfg.LogLevel = c.String("level")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("console") {
		cfg.Console = c.Bool("console")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	cfg.Correct()
	return cfg, nil
}

// NewOracle starts the configured evaluation source. The returned func
// releases it.
func NewOracle(cfg *config.Config, logger logx.Logger) (engine.Oracle, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	switch cfg.Engine {
	case config.EngineTable:
		t, err := table.Load(cfg.Table)
		if err != nil {
			return nil, nil, fmt.Errorf("error load evaluation table: %w", err)
		}
		logger.Infof("evaluation table %s: %d positions", cfg.Table, t.Len())
		return t, func() {}, nil
	default:
		p, err := uci.NewPool(logger, cfg.Workers, cfg.SearchParams(), cfg.UCIPath, cfg.UCIArgs...)
		if err != nil {
			return nil, nil, fmt.Errorf("error start engine: %w", err)
		}
		return p, p.Close, nil
	}
}

func NewCollector(cfg *config.Config, oracle engine.Oracle, logger logx.Logger) *analysis.Collector {
	opts := []analysis.CollectorOption{
		analysis.WithWorkers(cfg.Workers),
		analysis.WithTimeout(cfg.EvalTimeout()),
		analysis.WithLogger(logger),
	}
	if cfg.Rate > 0 {
		opts = append(opts, analysis.WithRate(rate.Limit(cfg.Rate), max(1, int(cfg.Rate))))
	}
	return analysis.NewCollector(oracle, opts...)
}

// serveMetrics exposes /metrics until the returned func is called.
func serveMetrics(addr string, logger logx.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server: %v", err)
		}
	}()
	logger.Infof("metrics on http://%s/metrics", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// session is everything one command needs, torn down in reverse order.
type session struct {
	cfg     *config.Config
	logger  *logx.Logx
	review  *src.Review
	closers []func()
}

func newSession(c *cli.Command) (*session, error) {
	cfg, err := LoadConfig(c)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg}

	var out io.Writer = io.Discard
	if !cfg.Console {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("error open logfile: %w", err)
		}
		s.closers = append(s.closers, func() { file.Close() })
		out = file
	}
	s.logger = GetLogger(out, cfg)
	s.closers = append(s.closers, func() { _ = s.logger.Sync() })

	if cfg.MetricsAddr != "" {
		s.closers = append(s.closers, serveMetrics(cfg.MetricsAddr, s.logger))
	}

	oracle, release, err := NewOracle(cfg, s.logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, release)
	s.review = src.NewReview(s.logger, NewCollector(cfg, oracle, s.logger), opening.NewBook())
	s.closers = append(s.closers, s.review.Reset)
	return s, nil
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// load reads the game from path, or from in when path is empty or "-".
func (s *session) load(ctx context.Context, path string, in io.Reader) error {
	if path != "" && path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("error open file: %w", err)
		}
		defer file.Close()
		in = file
	}
	if err := s.review.LoadPGN(ctx, in); err != nil {
		return fmt.Errorf("error read PGN: %w", err)
	}
	return nil
}

// wait lets the analysis finish; an interrupt leaves a partial review.
func (s *session) wait(ctx context.Context) {
	if err := s.review.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warnf("analysis incomplete: %v", err)
	}
}

func pgnPath(c *cli.Command) string {
	if p := c.String("pgn"); p != "" {
		return p
	}
	return c.Args().First()
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to config file (yaml, json or toml)",
		},
		&cli.StringFlag{
			Name:  "pgn",
			Usage: "path to PGN file, '-' for stdin",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "enable debug mod",
		},
		&cli.StringFlag{
			Name:    "level",
			Aliases: []string{"l"},
			Usage:   "logger level",
		},
		&cli.BoolFlag{
			Name:    "console",
			Aliases: []string{"c"},
			Usage:   "console logger encoding on stderr",
		},
		&cli.StringFlag{
			Name:  "engine",
			Usage: "evaluation source: uci or table",
		},
		&cli.StringFlag{
			Name:  "uci-path",
			Usage: "path to UCI engine",
		},
		&cli.StringSliceFlag{
			Name:  "uci-arg",
			Usage: "argument for the UCI engine, repeatable",
		},
		&cli.StringFlag{
			Name:  "table",
			Usage: "path to evaluation table (yaml)",
		},
		&cli.IntFlag{
			Name:  "strength",
			Usage: "analysis level 1..10",
		},
		&cli.IntFlag{
			Name:  "depth",
			Usage: "search depth, overrides the level",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "concurrent evaluations",
		},
		&cli.FloatFlag{
			Name:  "rate",
			Usage: "evaluations per second, 0 = unlimited",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "time limit per position",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "serve Prometheus metrics on this address",
		},
	}
}

// NewApp builds the command tree; in and out replace stdin and stdout.
func NewApp(in io.Reader, out io.Writer) *cli.Command {
	reviewFlags := append(commonFlags(), &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   clic.FormatText,
		Usage:   "report format: " + strings.Join(clic.Formats, ", "),
	})
	browseFlags := append(commonFlags(), &cli.BoolFlag{
		Name:  "watch",
		Usage: "reload the game whenever the file changes",
	})
	exportFlags := append(commonFlags(), &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "write the table here instead of stdout",
	})

	return &cli.Command{
		Name:  "chessreview",
		Usage: "review a chess game with an engine",
		Commands: []*cli.Command{
			{
				Name:      "review",
				Usage:     "classify every move and print the report",
				ArgsUsage: "[game.pgn]",
				Flags:     reviewFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					s, err := newSession(c)
					if err != nil {
						return err
					}
					defer s.Close()
					if err := s.load(ctx, pgnPath(c), in); err != nil {
						return err
					}
					s.wait(ctx)
					return clic.WriteReport(out, s.review, c.String("format"))
				},
			},
			{
				Name:      "browse",
				Usage:     "step through the game while it is analyzed",
				ArgsUsage: "[game.pgn]",
				Flags:     browseFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					path := pgnPath(c)
					if path == "" || path == "-" {
						return errors.New("browse reads commands from stdin, pass the game with --pgn")
					}
					s, err := newSession(c)
					if err != nil {
						return err
					}
					defer s.Close()
					if err := s.load(ctx, path, nil); err != nil {
						return err
					}
					if c.Bool("watch") {
						stop, err := watchGame(ctx, path, s.review, s.logger, watchDebounce)
						if err != nil {
							return err
						}
						defer stop()
					}
					clic.EnableANSI()
					return clic.NewBrowser(s.review, in, out).Run(ctx)
				},
			},
			{
				Name:      "export",
				Usage:     "evaluate every position and write an evaluation table",
				ArgsUsage: "[game.pgn]",
				Flags:     exportFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					s, err := newSession(c)
					if err != nil {
						return err
					}
					defer s.Close()
					if err := s.load(ctx, pgnPath(c), in); err != nil {
						return err
					}
					s.wait(ctx)

					w := out
					if p := c.String("out"); p != "" {
						file, err := os.Create(p)
						if err != nil {
							return fmt.Errorf("error create table: %w", err)
						}
						defer file.Close()
						w = file
					}
					return exportTable(w, s.review.Snapshot())
				},
			},
		},
	}
}

// exportTable writes the resolved evaluations of a snapshot.
func exportTable(w io.Writer, snap src.Snapshot) error {
	positions := snap.Line.Positions()
	fens := make([]base.PositionID, 0, len(positions))
	evals := make([]engine.Evaluation, 0, len(positions))
	for i, e := range snap.Evaluations {
		if !e.IsResolved() {
			continue
		}
		fens = append(fens, positions[i])
		evals = append(evals, e.Eval)
	}
	return table.Write(w, fens, evals)
}

func RunChessReview() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewApp(os.Stdin, os.Stdout).Run(ctx, os.Args)
}
