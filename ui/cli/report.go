package cli

import (
	"chessreview/src"
	"chessreview/src/analysis"
	"chessreview/src/base"
	"chessreview/src/logic/convert/convpgn"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatPGN  = "pgn"
)

var Formats = []string{FormatText, FormatJSON, FormatYAML, FormatPGN}

// Report is the machine readable review of one game.
type Report struct {
	AnalysisID string                  `json:"analysis_id" yaml:"analysis_id"`
	Headers    map[string]string       `json:"headers,omitempty" yaml:"headers,omitempty"`
	Start      base.PositionID         `json:"start" yaml:"start"`
	Opening    string                  `json:"opening,omitempty" yaml:"opening,omitempty"`
	Plies      int                     `json:"plies" yaml:"plies"`
	Complete   bool                    `json:"complete" yaml:"complete"`
	Pending    []int                   `json:"pending,omitempty" yaml:"pending,omitempty"`
	Failed     map[int]string          `json:"failed,omitempty" yaml:"failed,omitempty"`
	Summary    analysis.Summary        `json:"summary" yaml:"summary"`
	Moves      []analysis.AnalyzedMove `json:"moves" yaml:"moves"`
}

// NewReport flattens a snapshot. Pending lists the plies still missing a
// classification and Failed the positions whose last evaluation failed.
func NewReport(s src.Snapshot) Report {
	r := Report{
		AnalysisID: s.AnalysisID,
		Headers:    make(map[string]string, len(s.Info)),
		Start:      s.Line.Start,
		Opening:    s.Opening.String(),
		Plies:      s.Line.Len(),
		Complete:   s.Summary.Complete,
		Summary:    s.Summary,
		Moves:      s.Moves,
	}
	for h, v := range s.Info {
		r.Headers[convpgn.ConvPGNHeaderToString(h)] = v
	}

	analyzed := make(map[int]bool, len(s.Moves))
	for _, m := range s.Moves {
		analyzed[m.Ply] = true
	}
	for ply := 0; ply < s.Line.Len(); ply++ {
		if !analyzed[ply] {
			r.Pending = append(r.Pending, ply)
		}
	}
	for i, e := range s.Evaluations {
		if e.Err != nil {
			if r.Failed == nil {
				r.Failed = make(map[int]string)
			}
			r.Failed[i] = e.Err.Error()
		}
	}
	if r.Moves == nil {
		r.Moves = []analysis.AnalyzedMove{}
	}
	return r
}

// WriteReport prints the review of r in format.
func WriteReport(w io.Writer, r *src.Review, format string) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return writeText(w, r.Snapshot())
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewReport(r.Snapshot()))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewReport(r.Snapshot())); err != nil {
			return err
		}
		return enc.Close()
	case FormatPGN:
		return r.WritePGN(w)
	default:
		return fmt.Errorf("unknown format %q, want one of %s", format, strings.Join(Formats, ", "))
	}
}

func writeText(w io.Writer, s src.Snapshot) error {
	pal := newPalette(w)
	white, black := s.Info[convpgn.PGNHeaderWhite], s.Info[convpgn.PGNHeaderBlack]
	if white != "" || black != "" {
		title := orUnknown(white) + " - " + orUnknown(black)
		if res := s.Info[convpgn.PGNHeaderResult]; res != "" {
			title += "  " + res
		}
		fmt.Fprintln(w, pal.title.Render(title))
	}
	if !s.Opening.IsZero() {
		fmt.Fprintf(w, "Opening: %s\n", s.Opening)
	}
	fmt.Fprintf(w, "Analysis: %s (%d/%d positions)\n\n", s.AnalysisID, s.Resolved, s.Positions)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range s.Turns {
		first := "..."
		if t.First != nil {
			first = turnCell(*t.First)
		}
		fmt.Fprintf(tw, "%d.\t%s\t%s\n", t.Number, first, turnCellPtr(t.Second))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "\tWhite\tBlack\n")
	ws, bs := s.Summary.White, s.Summary.Black
	fmt.Fprintf(tw, "Accuracy\t%.1f\t%.1f\n", ws.Accuracy, bs.Accuracy)
	fmt.Fprintf(tw, "Avg loss\t%.0f\t%.0f\n", ws.AvgLoss, bs.AvgLoss)
	for _, c := range base.Classifications {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", c, ws.Counts[c], bs.Counts[c])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nWhite is %s, Black is %s\n", pal.band(ws.Accuracy), pal.band(bs.Accuracy))
	if !s.Summary.Complete {
		fmt.Fprintln(w, pal.warning.Render(fmt.Sprintf("Incomplete: %d of %d moves analyzed", s.Summary.Analyzed, s.Summary.Total)))
	}
	return nil
}

func turnCell(m analysis.TurnMove) string {
	if m.Move == nil {
		return m.SAN + " (pending)"
	}
	return fmt.Sprintf("%s%s %s", m.SAN, m.Move.Classification.Glyph(), m.Move.EvalAfter)
}

func turnCellPtr(m *analysis.TurnMove) string {
	if m == nil {
		return ""
	}
	return turnCell(*m)
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
