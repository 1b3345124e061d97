package cli

import (
	"bufio"
	"chessreview/src"
	"chessreview/src/logic/history"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
)

const help = `Commands:
  n, next      next move          p, prev     previous move
  first        start position     last        final position
  <number>     go to ply (0 = start)
  f, flip      flip the board     s, summary  accuracy and move list
  pgn          annotated PGN      q, quit     exit`

const rawHelp = "Left/right arrows step, up/Home and down/End jump to the ends, number+Enter goes to a ply, 'f' flips, 's' summary, 'q' quits."

// Browser steps through a reviewed game. Evaluations that arrive while the
// browser is open are drawn as they resolve.
type Browser struct {
	review *src.Review
	in     io.Reader
	out    io.Writer
	pal    palette
	clear  bool

	mu   sync.Mutex
	last src.View
}

func NewBrowser(r *src.Review, in io.Reader, out io.Writer) *Browser {
	return &Browser{review: r, in: in, out: out, pal: newPalette(out)}
}

// Run uses raw terminal mode when in is a terminal and falls back to line
// mode otherwise.
func (b *Browser) Run(ctx context.Context) error {
	if f, ok := b.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		oldState, err := term.MakeRaw(fd)
		if err == nil {
			defer term.Restore(fd, oldState) //nolint:errcheck
			return b.runRaw(ctx)
		}
	}
	return b.RunLineMode(ctx)
}

func (b *Browser) runRaw(ctx context.Context) error {
	w := &crlfWriter{w: b.out}
	b.clear = true

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go b.follow(fctx, w)

	b.show(w, b.review.Current())
	fmt.Fprintln(w, rawHelp)

	r := bufio.NewReader(b.in)
	var input strings.Builder
	for {
		if ctx.Err() != nil {
			return nil
		}
		k, ch, err := readKey(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var cmd string
		switch k {
		case keyInterrupt:
			fmt.Fprintln(w, "\nInterrupted")
			return nil
		case keyLeft:
			cmd = "prev"
		case keyRight:
			cmd = "next"
		case keyUp, keyHome:
			cmd = "first"
		case keyDown, keyEnd:
			cmd = "last"
		case keyEnter:
			cmd = strings.TrimSpace(input.String())
			input.Reset()
		case keyBackspace:
			if s := input.String(); len(s) > 0 {
				input.Reset()
				input.WriteString(s[:len(s)-1])
				fmt.Fprint(w, "\b \b")
			}
		case keyRune:
			if input.Len() == 0 && (ch == 'f' || ch == 'q' || ch == 's') {
				cmd = string(ch)
				break
			}
			input.WriteByte(ch)
			fmt.Fprintf(w, "%c", ch)
		}
		if cmd == "" {
			continue
		}
		if b.exec(cmd, w) {
			return nil
		}
	}
}

// RunLineMode reads one command per line.
func (b *Browser) RunLineMode(ctx context.Context) error {
	scanner := bufio.NewScanner(b.in)
	b.show(b.out, b.review.Current())
	fmt.Fprintln(b.out, help)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if b.exec(strings.TrimSpace(scanner.Text()), b.out) {
			return nil
		}
	}
	return scanner.Err()
}

// exec runs one command and reports whether the browser should exit.
func (b *Browser) exec(cmd string, w io.Writer) bool {
	switch strings.ToLower(cmd) {
	case "":
	case "q", "quit":
		b.locked(func() { fmt.Fprintln(w, "\nQuitting") })
		return true
	case "n", "next":
		b.show(w, b.review.Next())
	case "p", "prev":
		b.show(w, b.review.Prev())
	case "first", "home":
		b.show(w, b.review.First())
	case "last", "end":
		b.show(w, b.review.Last())
	case "f", "flip":
		b.show(w, b.review.Flip())
	case "s", "summary":
		snap := b.review.Snapshot()
		b.locked(func() {
			fmt.Fprintln(w)
			if err := writeText(w, snap); err != nil {
				fmt.Fprintf(w, "error write summary: %v\n", err)
			}
		})
	case "pgn":
		b.locked(func() {
			fmt.Fprintln(w)
			if err := b.review.WritePGN(w); err != nil {
				fmt.Fprintf(w, "error write pgn: %v\n", err)
			}
		})
	case "h", "help", "?":
		b.locked(func() { fmt.Fprintln(w, help) })
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil {
			b.locked(func() { fmt.Fprintf(w, "\nUnknown command: %s\n", cmd) })
			return false
		}
		v, err := b.review.Jump(n - 1)
		var jerr *history.OutOfRangeJumpError
		if errors.As(err, &jerr) {
			b.locked(func() { fmt.Fprintf(w, "\nNo ply %d, the game has plies 0..%d\n", n, jerr.Max+1) })
			return false
		}
		b.show(w, v)
	}
	return false
}

// locked serializes output with the redraws of follow.
func (b *Browser) locked(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}

func (b *Browser) show(w io.Writer, v src.View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = v
	if b.clear {
		fmt.Fprint(w, "\033[H\033[2J")
	}
	if err := printView(w, v, b.pal); err != nil {
		fmt.Fprintf(w, "error draw position: %v\n", err)
	}
}

// follow redraws the current view when new evaluations land.
func (b *Browser) follow(ctx context.Context, w io.Writer) {
	views := make(chan src.View, 16)
	unsubscribe := b.review.Subscribe(views)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case v := <-views:
			b.mu.Lock()
			seen := v.Generation == b.last.Generation && v.Resolved == b.last.Resolved
			b.mu.Unlock()
			if !seen {
				b.show(w, b.review.Current())
			}
		}
	}
}

type key uint8

const (
	keyUnknown key = iota
	keyRune
	keyEnter
	keyBackspace
	keyInterrupt
	keyLeft
	keyRight
	keyUp
	keyDown
	keyHome
	keyEnd
)

// readKey decodes one key press, including CSI and SS3 cursor sequences.
func readKey(r *bufio.Reader) (key, byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return keyUnknown, 0, err
	}
	switch {
	case b == 3: // Ctrl+C
		return keyInterrupt, 0, nil
	case b == '\r' || b == '\n':
		return keyEnter, 0, nil
	case b == 127 || b == 8:
		return keyBackspace, 0, nil
	case b == 0x1b:
		return readEscape(r)
	case b >= 32 && b <= 126:
		return keyRune, b, nil
	}
	return keyUnknown, 0, nil
}

func readEscape(r *bufio.Reader) (key, byte, error) {
	b1, err := r.ReadByte()
	if err != nil {
		return keyUnknown, 0, err
	}
	if b1 != '[' && b1 != 'O' {
		return keyUnknown, 0, nil
	}
	b2, err := r.ReadByte()
	if err != nil {
		return keyUnknown, 0, err
	}
	switch b2 {
	case 'A':
		return keyUp, 0, nil
	case 'B':
		return keyDown, 0, nil
	case 'C':
		return keyRight, 0, nil
	case 'D':
		return keyLeft, 0, nil
	case 'H':
		return keyHome, 0, nil
	case 'F':
		return keyEnd, 0, nil
	case '1', '7', '4', '8':
		// ESC [ 1 ~ etc.
		if b3, err := r.ReadByte(); err != nil || b3 != '~' {
			return keyUnknown, 0, err
		}
		if b2 == '1' || b2 == '7' {
			return keyHome, 0, nil
		}
		return keyEnd, 0, nil
	}
	return keyUnknown, 0, nil
}

// crlfWriter restores carriage returns that raw mode stops adding.
type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(c.w, strings.ReplaceAll(string(p), "\n", "\r\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}
