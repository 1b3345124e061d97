package cli

import (
	"chessreview/src/analysis"
	"chessreview/src/base"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorGood    = lipgloss.Color("#2CD7C7")
	colorBest    = lipgloss.Color("#20B9B4")
	colorWarning = lipgloss.Color("#F4D03F")
	colorMistake = lipgloss.Color("#E67E22")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#7F8C8D")
)

// palette renders for one writer; plain text when it is not a color terminal.
type palette struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
	tiers   map[base.Classification]lipgloss.Style
	bands   map[analysis.Band]lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c lipgloss.Color) lipgloss.Style { return r.NewStyle().Foreground(c) }
	return palette{
		title:   r.NewStyle().Bold(true),
		muted:   fg(colorMuted),
		warning: fg(colorWarning),
		tiers: map[base.Classification]lipgloss.Style{
			base.Brilliant:  fg(colorGood).Bold(true),
			base.Perfect:    fg(colorBest),
			base.Excellent:  fg(colorBest),
			base.Good:       fg(colorMuted),
			base.Inaccuracy: fg(colorWarning),
			base.Mistake:    fg(colorMistake),
			base.Blunder:    fg(colorError).Bold(true),
		},
		bands: map[analysis.Band]lipgloss.Style{
			analysis.BandExcellent: fg(colorGood),
			analysis.BandGood:      fg(colorBest),
			analysis.BandFair:      fg(colorWarning),
			analysis.BandLow:       fg(colorError),
		},
	}
}

func (p palette) tier(c base.Classification) string {
	return p.tiers[c].Render(c.String())
}

func (p palette) band(acc float64) string {
	b := analysis.AccuracyBand(acc)
	return p.bands[b].Render(b.String())
}
