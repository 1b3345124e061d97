package convpgn

import (
	"bufio"
	"chessreview/src/base"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Portable Game Notation

var ErrMalformedGameRecord = errors.New("malformed game record")

// MalformedGameRecordError reports input that cannot be read as a game record.
// Line is 1-based, 0 when the problem is not tied to one line.
type MalformedGameRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedGameRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: line %d: %s", ErrMalformedGameRecord, e.Line, e.Reason)
	}
	return fmt.Sprintf("%v: %s", ErrMalformedGameRecord, e.Reason)
}

func (e *MalformedGameRecordError) Is(target error) bool {
	return target == ErrMalformedGameRecord
}

func malformed(line int, format string, args ...interface{}) error {
	return &MalformedGameRecordError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

type PGNStatusGame int

const (
	PGNStatusWW        PGNStatusGame = iota // 1-0
	PGNStatusBW                             // 0-1
	PGNStatusDraw                           // 1/2-1/2
	PGNStatusActive                         // *
	PGNStatusUndefined                      // ?
)

type PGNHeader int

const (
	PGNHeaderEvent    PGNHeader = iota // <Seven Tag Roster>
	PGNHeaderSite                      // <Seven Tag Roster>
	PGNHeaderDate                      // <Seven Tag Roster>
	PGNHeaderRound                     // <Seven Tag Roster>
	PGNHeaderResult                    // <Seven Tag Roster>
	PGNHeaderWhite                     // <Seven Tag Roster>
	PGNHeaderWhiteElo                  // white rating
	PGNHeaderBlack                     // <Seven Tag Roster>
	PGNHeaderBlackElo                  // black rating
	PGNHeaderOpening                   // game debut
	PGNHeaderECO                       // opening code
	PGNHeaderSetUp                     // "1" when FEN is present
	PGNHeaderFEN                       // start position
	PGNHeaderUndefined
)

var headerNames = map[PGNHeader]string{
	PGNHeaderEvent:    "Event",
	PGNHeaderSite:     "Site",
	PGNHeaderDate:     "Date",
	PGNHeaderRound:    "Round",
	PGNHeaderResult:   "Result",
	PGNHeaderWhite:    "White",
	PGNHeaderWhiteElo: "WhiteElo",
	PGNHeaderBlack:    "Black",
	PGNHeaderBlackElo: "BlackElo",
	PGNHeaderOpening:  "Opening",
	PGNHeaderECO:      "ECO",
	PGNHeaderSetUp:    "SetUp",
	PGNHeaderFEN:      "FEN",
}

func ConvStringToPGNStatus(status string) PGNStatusGame {
	switch status {
	case "1-0":
		return PGNStatusWW
	case "0-1":
		return PGNStatusBW
	case "1/2-1/2":
		return PGNStatusDraw
	case "*":
		return PGNStatusActive
	default:
		return PGNStatusUndefined
	}
}

func ConvPGNStatusToString(status PGNStatusGame) string {
	switch status {
	case PGNStatusWW:
		return "1-0"
	case PGNStatusBW:
		return "0-1"
	case PGNStatusDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

func ConvStringToPGNHeader(header string) PGNHeader {
	for h, name := range headerNames {
		if name == header {
			return h
		}
	}
	return PGNHeaderUndefined
}

func ConvPGNHeaderToString(header PGNHeader) string {
	if name, ok := headerNames[header]; ok {
		return name
	}
	return "???"
}

var reTag = regexp.MustCompile(`^\s*\[(\w+)\s+"(.*?)"\]\s*$`)
var reResult = regexp.MustCompile(`^(1-0|0-1|1/2-1/2|\*)$`)
var reMoveNum = regexp.MustCompile(`^\d+\.+`)
var reNAG = regexp.MustCompile(`^\$\d+$`)
var reSpace = regexp.MustCompile(`\s+`)

// SAN (with optional check and annotation suffix) or UCI coordinates.
var reMove = regexp.MustCompile(`^(?:[KQRBN]?[a-h]?[1-8]?x?[a-h][1-8](?:=?[QRBNqrbn])?|O-O(?:-O)?|0-0(?:-0)?)[+#]?[!?]{0,2}$`)

// Annotation is attached to a move when writing an analysed game.
type Annotation struct {
	NAG     string
	Comment string
}

type PGNGame struct {
	Headers map[PGNHeader]string
	Moves   []base.MoveToken
	Result  PGNStatusGame
	// Annotations is either empty or parallel to Moves.
	Annotations []Annotation
}

// StartFEN is the FEN header when present, otherwise the standard start.
func (g *PGNGame) StartFEN() base.PositionID {
	if fen := strings.TrimSpace(g.Headers[PGNHeaderFEN]); fen != "" {
		return base.PositionID(fen)
	}
	return base.PositionID(base.FEN_START_GAME)
}

type PGNParser struct {
	r        *bufio.Reader
	pushback []string
	line     int
}

func NewPGNParser(r io.Reader) *PGNParser {
	return &PGNParser{r: bufio.NewReader(r)}
}

func (p *PGNParser) readLine() (string, error) {
	if len(p.pushback) > 0 {
		n := len(p.pushback)
		ln := p.pushback[n-1]
		p.pushback = p.pushback[:n-1]
		p.line++
		return ln, nil
	}
	ln, err := p.r.ReadString('\n')
	if err == io.EOF && ln != "" {
		// last line without newline
		err = nil
	}
	if err == nil {
		p.line++
	}
	return ln, err
}

func (p *PGNParser) pushBackLine(ln string) {
	p.pushback = append(p.pushback, ln)
	p.line--
}

// Next reads one game. io.EOF means no more games.
func (p *PGNParser) Next() (*PGNGame, error) {
	headers := make(map[PGNHeader]string)
	var line string
	var err error
	found := false

	// tag pairs
	for {
		line, err = p.readLine()
		if err != nil {
			if err == io.EOF {
				if !found {
					return nil, io.EOF
				}
				break
			}
			return nil, err
		}

		trim := strings.TrimSpace(line)
		if trim == "" {
			continue
		}

		if strings.HasPrefix(trim, "[") {
			m := reTag.FindStringSubmatch(trim)
			if m == nil {
				return nil, malformed(p.line, "invalid tag pair %q", trim)
			}
			found = true
			if header := ConvStringToPGNHeader(m[1]); header != PGNHeaderUndefined {
				headers[header] = m[2]
			}
			continue
		}

		p.pushBackLine(line)
		break
	}

	// movetext
	var b strings.Builder
	bodyStart := p.line + 1
	for {
		line, err = p.readLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		trim := strings.TrimSpace(line)
		if trim == "" {
			continue
		}
		if strings.HasPrefix(trim, "[") && strings.HasSuffix(trim, "]") {
			p.pushBackLine(line)
			break
		}
		b.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			b.WriteByte('\n')
		}
	}

	cleanBody, err := normalizeBody(b.String())
	if err != nil {
		return nil, malformed(bodyStart, "%v", err)
	}
	if cleanBody == "" && len(headers) == 0 {
		return nil, io.EOF
	}

	streamMoves := strings.Fields(cleanBody)
	moves := make([]base.MoveToken, 0, len(streamMoves))
	result := "*"
	for _, str := range streamMoves {
		if reNAG.MatchString(str) {
			continue
		}
		if reResult.MatchString(str) {
			result = str
			continue
		}
		// "12." "12..." "12.Nf3"
		if loc := reMoveNum.FindStringIndex(str); loc != nil {
			str = str[loc[1]:]
			if str == "" {
				continue
			}
		}
		if !reMove.MatchString(str) {
			return nil, malformed(bodyStart, "unexpected token %q", str)
		}
		moves = append(moves, base.MoveToken(strings.TrimRight(str, "!?")))
	}

	return &PGNGame{Headers: headers, Moves: moves, Result: ConvStringToPGNStatus(result)}, nil
}

// ParseOne reads the first game; empty input is malformed.
func ParseOne(r io.Reader) (*PGNGame, error) {
	p := NewPGNParser(r)
	g, err := p.Next()
	if errors.Is(err, io.EOF) {
		return nil, malformed(0, "no game found")
	}
	return g, err
}

func ParseAll(r io.Reader) ([]*PGNGame, error) {
	p := NewPGNParser(r)
	var games []*PGNGame
	for {
		g, err := p.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return games, err
		}
		games = append(games, g)
	}
	if len(games) == 0 {
		return nil, malformed(0, "no game found")
	}
	return games, nil
}

// strip comments and side lines: "{ ... }" ";" "( ... )" spaces->space
func normalizeBody(s string) (string, error) {
	var sb strings.Builder
	for _, ln := range strings.Split(s, "\n") {
		if idx := strings.IndexByte(ln, ';'); idx >= 0 && !insideComment(ln[:idx]) {
			ln = ln[:idx]
		}
		sb.WriteString(ln)
		sb.WriteByte('\n')
	}

	out, err := removeDelimited(sb.String(), '{', '}', false)
	if err != nil {
		return "", err
	}
	out, err = removeDelimited(out, '(', ')', true)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reSpace.ReplaceAllString(out, " ")), nil
}

func insideComment(prefix string) bool {
	return strings.Count(prefix, "{") > strings.Count(prefix, "}")
}

// removeDelimited drops delimited spans. Comments do not nest, variations do.
func removeDelimited(s string, open, close rune, nested bool) (string, error) {
	var out []rune
	depth := 0
	for _, r := range s {
		switch {
		case r == open:
			if depth > 0 && !nested {
				return "", fmt.Errorf("nested %q", open)
			}
			depth++
			continue
		case r == close:
			if depth == 0 {
				return "", fmt.Errorf("unmatched %q", close)
			}
			depth--
			// keep tokens on both sides apart
			out = append(out, ' ')
			continue
		}
		if depth == 0 {
			out = append(out, r)
		}
	}
	if depth != 0 {
		return "", fmt.Errorf("unterminated %q", open)
	}
	return string(out), nil
}

// write PGN info
func WritePGN(w io.Writer, game PGNGame) error {
	if w == nil {
		return fmt.Errorf("nil writer")
	}
	if len(game.Annotations) > 0 && len(game.Annotations) != len(game.Moves) {
		return fmt.Errorf("annotations for %d of %d moves", len(game.Annotations), len(game.Moves))
	}

	bw := bufio.NewWriter(w)

	headerOrder := []PGNHeader{
		PGNHeaderEvent,
		PGNHeaderSite,
		PGNHeaderDate,
		PGNHeaderRound,
		PGNHeaderWhite,
		PGNHeaderBlack,
		PGNHeaderWhiteElo,
		PGNHeaderBlackElo,
		PGNHeaderECO,
		PGNHeaderOpening,
		PGNHeaderSetUp,
		PGNHeaderFEN,
	}

	escape := func(s string) string {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, `"`, `\"`)
		return s
	}

	for _, hh := range headerOrder {
		if v, ok := game.Headers[hh]; ok && strings.TrimSpace(v) != "" {
			if _, err := fmt.Fprintf(bw, "[%s \"%s\"]\n", ConvPGNHeaderToString(hh), escape(v)); err != nil {
				return err
			}
		}
	}

	resStr := ConvPGNStatusToString(game.Result)
	if _, err := fmt.Fprintf(bw, "[Result \"%s\"]\n\n", resStr); err != nil {
		return err
	}

	// a game set up with black to move starts with "1..."
	blackFirst := false
	if side, err := game.StartFEN().SideToMove(); err == nil && side == base.Black {
		blackFirst = true
	}

	var body []string
	moveNum := 1
	for i, mv := range game.Moves {
		white := (i%2 == 0) != blackFirst
		switch {
		case i == 0 && blackFirst:
			body = append(body, fmt.Sprintf("%d...", moveNum))
		case white:
			body = append(body, fmt.Sprintf("%d.", moveNum))
		}
		body = append(body, string(mv))
		if len(game.Annotations) > 0 {
			a := game.Annotations[i]
			if a.NAG != "" {
				body = append(body, a.NAG)
			}
			if a.Comment != "" {
				body = append(body, "{ "+strings.ReplaceAll(a.Comment, "}", "")+" }")
			}
		}
		if !white {
			moveNum++
		}
	}
	body = append(body, resStr)

	if _, err := bw.WriteString(strings.Join(body, " ") + "\n"); err != nil {
		return err
	}
	return bw.Flush()
}
