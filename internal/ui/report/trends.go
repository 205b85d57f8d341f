package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"

	"zodlint/internal/data/history"
)

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRun\tFiles\tErrors\tWarnings\tFixed\tDeltaErrors\tDeltaWarnings\tConfigChanged\tAvgErrors\tWindowHours\n")
	for _, point := range report.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%t\t%.2f\t%.2f\n",
			point.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			point.RunID,
			point.FileCount,
			point.ErrorCount,
			point.WarnCount,
			point.FixedCount,
			point.DeltaErrors,
			point.DeltaWarnings,
			point.ConfigChanged,
			point.AvgErrors,
			point.WindowHours,
		))
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// RenderTrendText draws the report as a table followed by the rules that
// moved the most across the window.
func RenderTrendText(report history.TrendReport) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Project %s: %d run(s) between %s and %s\n",
		report.ProjectKey, report.RunCount,
		report.Since.Format("2006-01-02 15:04"), report.Until.Format("2006-01-02 15:04"))
	if len(report.Points) == 0 {
		b.WriteString("No runs recorded in this window.\n")
		return []byte(b.String())
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("When", "Files", "Errors", "Warnings", "Fixed", "Δ Errors", "Δ Warnings", "Avg Errors")
	for _, p := range report.Points {
		when := p.Timestamp.Format("2006-01-02 15:04")
		if p.ConfigChanged {
			when += " *"
		}
		t.Row(
			when,
			fmt.Sprint(p.FileCount),
			fmt.Sprint(p.ErrorCount),
			fmt.Sprint(p.WarnCount),
			fmt.Sprint(p.FixedCount),
			signed(p.DeltaErrors),
			signed(p.DeltaWarnings),
			fmt.Sprintf("%.2f", p.AvgErrors),
		)
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	if hasConfigChange(report) {
		b.WriteString("* rule configuration changed since the previous run\n")
	}

	if movers := ruleMovement(report); len(movers) > 0 {
		b.WriteString("\nLargest changes by rule:\n")
		for _, m := range movers {
			fmt.Fprintf(&b, "  %-36s %s\n", m.rule, signed(m.delta))
		}
	}
	return []byte(b.String())
}

type ruleDelta struct {
	rule  string
	delta int
}

// ruleMovement sums per-rule deltas over the window, largest first, capped
// at ten entries.
func ruleMovement(report history.TrendReport) []ruleDelta {
	totals := make(map[string]int)
	for _, p := range report.Points {
		for rule, d := range p.DeltaByRule {
			totals[rule] += d
		}
	}
	out := make([]ruleDelta, 0, len(totals))
	for rule, d := range totals {
		if d != 0 {
			out = append(out, ruleDelta{rule: rule, delta: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := abs(out[i].delta), abs(out[j].delta)
		if ai != aj {
			return ai > aj
		}
		return out[i].rule < out[j].rule
	})
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}

func hasConfigChange(report history.TrendReport) bool {
	for _, p := range report.Points {
		if p.ConfigChanged {
			return true
		}
	}
	return false
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprint(n)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
