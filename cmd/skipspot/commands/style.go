package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ayusman/skipspot/internal/app"
	"github.com/ayusman/skipspot/internal/dispatch"
	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/store"
)

// Theme defines the terminal colors.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Warn    lipgloss.Color
}

var defaultTheme = Theme{
	Primary: lipgloss.Color("#1db954"),
	Dim:     lipgloss.Color("#6e7681"),
	Warn:    lipgloss.Color("#f0883e"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Key    lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Warn   lipgloss.Style
}

func newStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Key:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Warn:   lipgloss.NewStyle().Foreground(t.Warn),
	}
}

var styles = newStyles(defaultTheme)

// printEvent writes one line per confirmed gesture, transcript, outcome or
// error. Per-frame labels are left to the status page.
func printEvent(w io.Writer, ev app.Event) {
	at := styles.Help.Render(ev.At.Format(time.TimeOnly))
	switch ev.Type {
	case app.EventGesture:
		fmt.Fprintf(w, "%s gesture %s\n", at, styles.Key.Render(string(ev.Label)))
	case app.EventTranscript:
		fmt.Fprintf(w, "%s heard %q\n", at, ev.Transcript)
	case app.EventOutcome:
		if ev.Outcome == nil {
			return
		}
		line := ev.Outcome.String()
		if ev.Outcome.Status != dispatch.Applied && ev.Outcome.Status != dispatch.Noop {
			line = styles.Warn.Render(line)
		}
		fmt.Fprintf(w, "%s %s\n", at, line)
		if ev.Outcome.Hint != "" {
			fmt.Fprintf(w, "%s %s\n", at, styles.Help.Render(ev.Outcome.Hint))
		}
	case app.EventError:
		fmt.Fprintf(w, "%s %s\n", at, styles.Warn.Render(ev.Error))
	}
}

func referenceTable(refs []*store.Reference) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.Border).
		Headers("ID", "NAME", "LABEL", "SAMPLES", "CREATED")
	for _, r := range refs {
		t.Row(r.ID, r.Name, r.Label, fmt.Sprint(r.Samples), r.CreatedAt.Local().Format(time.DateTime))
	}
	return t.Render()
}

// reportTable renders one row per inspected capture. names maps capture ids
// to their names.
func reportTable(reports []*gesture.Report, names map[string]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.Border).
		Headers("NAME", "LABEL", "SAMPLES", "AGREEMENT", "CLASSIFIED", "MEAN DIST", "NEAREST")
	for _, r := range reports {
		nearest := "-"
		if r.Nearest != "" {
			nearest = fmt.Sprintf("%s (%.3f)", r.Nearest, r.NearestDistance)
		}
		t.Row(
			names[r.ID],
			string(r.Label),
			fmt.Sprintf("%d/%d", r.Observed, r.Samples),
			fmt.Sprintf("%.0f%%", r.Agreement*100),
			classified(r.Classified),
			fmt.Sprintf("%.3f", r.MeanDistance),
			nearest,
		)
	}
	return t.Render()
}

// classified lists label counts in a fixed order.
func classified(counts map[gesture.Label]int) string {
	var parts []string
	order := append([]gesture.Label{}, gesture.Actions...)
	for _, l := range append(order, gesture.None) {
		if n := counts[l]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", l, n))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
