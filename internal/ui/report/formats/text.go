package formats

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"zodlint/internal/engine/lint"
	"zodlint/internal/engine/rules"
)

type textStyles struct {
	file    lipgloss.Style
	errorS  lipgloss.Style
	warn    lipgloss.Style
	dim     lipgloss.Style
	ok      lipgloss.Style
	summary lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return textStyles{
		file:    r.NewStyle().Underline(true),
		errorS:  r.NewStyle().Foreground(lipgloss.Color("9")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("8")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		summary: r.NewStyle().Bold(true),
	}
}

// Text writes a per-file listing followed by a totals line.
func Text(w io.Writer, s lint.Summary, opts Options) error {
	st := newTextStyles(w, opts.Color)
	var b strings.Builder

	for _, res := range s.Results {
		if len(res.Diagnostics) == 0 && res.Err == "" && !res.SyntaxErrors {
			continue
		}
		b.WriteString(st.file.Render(relativeURI(opts.Root, res.Path)))
		b.WriteString("\n")

		if res.Err != "" {
			fmt.Fprintf(&b, "  %s  %s\n", st.errorS.Render("failed"), res.Err)
		}
		if res.SyntaxErrors {
			fmt.Fprintf(&b, "  %s  %s\n", st.dim.Render("note"), "file has syntax errors; results may be incomplete")
		}

		posWidth, msgWidth := 0, 0
		for _, d := range res.Diagnostics {
			posWidth = max(posWidth, len(position(d)))
			msgWidth = max(msgWidth, len(d.Message))
		}
		for _, d := range res.Diagnostics {
			sev := st.warn.Render(fmt.Sprintf("%-7s", "warning"))
			if d.Severity == rules.SeverityError {
				sev = st.errorS.Render(fmt.Sprintf("%-7s", "error"))
			}
			fmt.Fprintf(&b, "  %s  %s  %-*s  %s\n",
				st.dim.Render(fmt.Sprintf("%*s", posWidth, position(d))),
				sev,
				msgWidth, d.Message,
				st.dim.Render(d.Rule))
		}
		b.WriteString("\n")
	}

	problems := s.Errors + s.Warnings
	switch {
	case problems > 0:
		style := st.warn
		if s.Errors > 0 {
			style = st.errorS
		}
		line := fmt.Sprintf("✖ %s (%s, %s)", plural(problems, "problem"), plural(s.Errors, "error"), plural(s.Warnings, "warning"))
		b.WriteString(style.Inherit(st.summary).Render(line))
		b.WriteString("\n")
		if n := fixableCount(s); n > 0 {
			fmt.Fprintf(&b, "  %s potentially fixable with the `--fix` option.\n", plural(n, "problem"))
		}
	case s.Failed == 0:
		b.WriteString(st.ok.Render(fmt.Sprintf("✔ No problems found in %s", plural(s.Files, "file"))))
		b.WriteString("\n")
	}
	if s.Failed > 0 {
		b.WriteString(st.errorS.Render(fmt.Sprintf("%s could not be linted", plural(s.Failed, "file"))))
		b.WriteString("\n")
	}
	if s.Fixed > 0 {
		b.WriteString(st.ok.Render(fmt.Sprintf("Applied %s", plural(s.Fixed, "fix"))))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func position(d lint.Diagnostic) string {
	return fmt.Sprintf("%d:%d", d.Line, d.Column)
}
