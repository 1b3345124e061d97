// Package opening names the opening of a replayed game.
package opening

import (
	"chessreview/src/base"
	"chessreview/src/logic/replay"
	"strings"
	"sync"

	"github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

// Label is the opening shown in the summary. Zero value means unknown.
type Label struct {
	ECO  string `json:"eco,omitempty" yaml:"eco,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

func (l Label) IsZero() bool {
	return l.ECO == "" && l.Name == ""
}

func (l Label) String() string {
	switch {
	case l.ECO != "" && l.Name != "":
		return l.ECO + " " + l.Name
	case l.Name != "":
		return l.Name
	default:
		return l.ECO
	}
}

// Finder matches a move prefix against an opening book.
type Finder interface {
	Find(moves []*chess.Move) *opening.Opening
}

// Book resolves labels. The ECO book is built on first use.
type Book struct {
	once   sync.Once
	finder Finder
}

func NewBook() *Book {
	return &Book{}
}

// NewBookWith uses the given finder instead of the bundled ECO book.
func NewBookWith(f Finder) *Book {
	b := &Book{finder: f}
	b.once.Do(func() {})
	return b
}

func (b *Book) book() Finder {
	b.once.Do(func() {
		b.finder = opening.NewBookECO()
	})
	return b.finder
}

// Label prefers the ECO code and name recorded with the game. Missing parts
// are filled from the deepest book entry matching the played moves.
func (b *Book) Label(eco, name string, line *replay.Line) Label {
	l := Label{ECO: strings.TrimSpace(eco), Name: strings.TrimSpace(name)}
	if l.ECO != "" && l.Name != "" {
		return l
	}
	if line == nil || line.Len() == 0 || !isStandardStart(line) {
		return l
	}
	o := b.book().Find(line.Moves())
	if o == nil {
		return l
	}
	if l.ECO == "" {
		l.ECO = o.Code()
	}
	if l.Name == "" {
		l.Name = o.Title()
	}
	return l
}

func isStandardStart(line *replay.Line) bool {
	return line.Start.Placement() == base.PositionID(base.FEN_START_GAME).Placement()
}
