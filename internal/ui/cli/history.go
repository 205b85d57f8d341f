package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"zodlint/internal/core/app"
	"zodlint/internal/shared/util"
	"zodlint/internal/ui/report"
)

type historyOptions struct {
	since  string
	window string
	limit  int
	format string
	output string
}

func newHistoryCommand(g *globalOptions) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show how lint results changed across recorded runs",
		Long: `history reads the runs recorded by lint and watch (history.enabled
must be set) and prints error and warning trends for the project.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(g, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.since, "since", "", "only include runs at or after this time (RFC3339 or YYYY-MM-DD)")
	f.StringVar(&opts.window, "window", "24h", "moving-average window")
	f.IntVar(&opts.limit, "limit", 0, "maximum number of runs (newest first; 0 for all)")
	f.StringVarP(&opts.format, "format", "f", "text", "output format: text, json or tsv")
	f.StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	return cmd
}

func runHistory(g *globalOptions, opts *historyOptions) error {
	since, err := parseSince(opts.since)
	if err != nil {
		return err
	}
	window, err := parseHistoryWindow(opts.window)
	if err != nil {
		return err
	}

	p, err := g.loadProject()
	if err != nil {
		return err
	}
	if !p.cfg.History.Enabled {
		return fmt.Errorf("history is disabled; set history.enabled = true in the config or ZODLINT_HISTORY_ENABLED=true")
	}
	a, err := app.New(p.cfg, p.paths, app.Options{NoCache: true})
	if err != nil {
		return err
	}
	defer a.Close()

	trend, err := a.Trends(since, window, opts.limit)
	if err != nil {
		return err
	}

	var data []byte
	switch strings.ToLower(opts.format) {
	case "text", "":
		data = report.RenderTrendText(trend)
	case "json":
		data, err = report.RenderTrendJSON(trend)
	case "tsv":
		data, err = report.RenderTrendTSV(trend)
	default:
		return fmt.Errorf("unknown history format %q (available: json, text, tsv)", opts.format)
	}
	if err != nil {
		return err
	}

	if opts.output != "" {
		return util.WriteFileWithDirs(opts.output, data, 0o644)
	}
	_, err = g.stdout.Write(data)
	return err
}

func parseSince(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, nil
	}

	rfc3339, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return rfc3339.UTC(), nil
	}

	dateOnly, err := time.Parse("2006-01-02", raw)
	if err == nil {
		return dateOnly.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("--since must be RFC3339 or YYYY-MM-DD, got %q", value)
}

func parseHistoryWindow(value string) (time.Duration, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("--window must be a Go duration (example: 24h), got %q", value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("--window must be > 0, got %q", value)
	}
	return d, nil
}
