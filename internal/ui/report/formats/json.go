package formats

import (
	"io"

	"github.com/goccy/go-json"

	"zodlint/internal/engine/lint"
)

type jsonReport struct {
	Version    string       `json:"version"`
	Files      int          `json:"files"`
	Errors     int          `json:"errors"`
	Warnings   int          `json:"warnings"`
	Fixable    int          `json:"fixable"`
	Fixed      int          `json:"fixed"`
	Failed     int          `json:"failed"`
	DurationMs int64        `json:"durationMs"`
	Results    []jsonResult `json:"results"`
}

type jsonResult struct {
	Path         string            `json:"path"`
	Diagnostics  []lint.Diagnostic `json:"diagnostics"`
	SyntaxErrors bool              `json:"syntaxErrors,omitempty"`
	Fixed        int               `json:"fixed,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// JSON writes the full summary, fixes and suggestions included, for tooling.
func JSON(w io.Writer, s lint.Summary, opts Options) error {
	report := jsonReport{
		Version:    nonEmpty(opts.Version, "dev"),
		Files:      s.Files,
		Errors:     s.Errors,
		Warnings:   s.Warnings,
		Fixable:    fixableCount(s),
		Fixed:      s.Fixed,
		Failed:     s.Failed,
		DurationMs: s.Duration.Milliseconds(),
		Results:    make([]jsonResult, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		diags := r.Diagnostics
		if diags == nil {
			diags = []lint.Diagnostic{}
		}
		report.Results = append(report.Results, jsonResult{
			Path:         relativeURI(opts.Root, r.Path),
			Diagnostics:  diags,
			SyntaxErrors: r.SyntaxErrors,
			Fixed:        r.Fixed,
			Error:        r.Err,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
