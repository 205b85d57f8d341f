package formats

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"zodlint/internal/engine/lint"
	"zodlint/internal/engine/rules"
)

type MarkdownReportOptions struct {
	ProjectName         string
	ProjectRoot         string
	Version             string
	GeneratedAt         time.Time
	TableOfContents     bool
	CollapsibleSections bool
	Rules               []rules.Meta
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

// Markdown renders the summary as a report suitable for PR comments.
func Markdown(w io.Writer, s lint.Summary, opts Options) error {
	out, err := NewMarkdownGenerator().Generate(s, MarkdownReportOptions{
		ProjectRoot:         opts.Root,
		Version:             opts.Version,
		TableOfContents:     true,
		CollapsibleSections: true,
		Rules:               opts.Rules,
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func (m *MarkdownGenerator) Generate(s lint.Summary, opts MarkdownReportOptions) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}
	byRule := s.ByRule()

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Schema Lint Report\n")
	b.WriteString("project: " + nonEmpty(opts.ProjectName, "unknown") + "\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Lint Report\n\n")
	if opts.TableOfContents {
		b.WriteString("## Table of Contents\n")
		b.WriteString("- [Summary](#summary)\n")
		if len(byRule) > 0 {
			b.WriteString("- [Rules](#rules)\n")
			b.WriteString("- [Findings](#findings)\n")
		}
		if s.Failed > 0 {
			b.WriteString("- [Failed Files](#failed-files)\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Files | %d |\n", s.Files))
	b.WriteString(fmt.Sprintf("| Errors | %d |\n", s.Errors))
	b.WriteString(fmt.Sprintf("| Warnings | %d |\n", s.Warnings))
	b.WriteString(fmt.Sprintf("| Fixable | %d |\n", fixableCount(s)))
	b.WriteString(fmt.Sprintf("| Fixed | %d |\n", s.Fixed))
	b.WriteString(fmt.Sprintf("| Failed | %d |\n\n", s.Failed))

	if len(byRule) > 0 {
		m.writeRules(&b, byRule, opts.Rules)
		m.writeFindings(&b, s, opts.ProjectRoot, opts.CollapsibleSections)
	} else if s.Failed == 0 {
		b.WriteString("No problems found.\n\n")
	}
	m.writeFailures(&b, s, opts.ProjectRoot)

	return b.String(), nil
}

func (m *MarkdownGenerator) writeRules(b *strings.Builder, byRule map[string]int, catalogue []rules.Meta) {
	descriptions := make(map[string]string, len(catalogue))
	for _, meta := range catalogue {
		descriptions[meta.Name] = meta.Description
	}
	names := make([]string, 0, len(byRule))
	for name := range byRule {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if byRule[names[i]] != byRule[names[j]] {
			return byRule[names[i]] > byRule[names[j]]
		}
		return names[i] < names[j]
	})

	b.WriteString("## Rules\n")
	b.WriteString("| Rule | Count | Description |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, name := range names {
		b.WriteString(fmt.Sprintf("| `%s` | %d | %s |\n", name, byRule[name], escapeCell(descriptions[name])))
	}
	b.WriteString("\n")
}

func (m *MarkdownGenerator) writeFindings(b *strings.Builder, s lint.Summary, root string, collapsible bool) {
	b.WriteString("## Findings\n")
	for _, res := range s.Results {
		if len(res.Diagnostics) == 0 {
			continue
		}
		rows := make([]string, 0, len(res.Diagnostics))
		for _, d := range res.Diagnostics {
			fixable := ""
			if len(d.Fix) > 0 {
				fixable = "yes"
			}
			rows = append(rows, fmt.Sprintf("| %d:%d | %s | `%s` | %s | %s |\n",
				d.Line, d.Column, d.Severity, d.Rule, escapeCell(d.Message), fixable))
		}
		b.WriteString("### `" + relativeURI(root, res.Path) + "`\n")
		m.writeTableWithCollapse(
			b,
			fmt.Sprintf("%d finding(s)", len(rows)),
			collapsible,
			len(rows) > 10,
			[]string{"| Location | Severity | Rule | Message | Fixable |\n", "| --- | --- | --- | --- | --- |\n"},
			rows,
		)
	}
}

func (m *MarkdownGenerator) writeFailures(b *strings.Builder, s lint.Summary, root string) {
	if s.Failed == 0 {
		return
	}
	b.WriteString("## Failed Files\n")
	for _, res := range s.Results {
		if res.Err != "" {
			b.WriteString(fmt.Sprintf("- `%s`: %s\n", relativeURI(root, res.Path), res.Err))
		}
	}
	b.WriteString("\n")
}

func (m *MarkdownGenerator) writeTableWithCollapse(
	b *strings.Builder,
	summary string,
	collapsible bool,
	collapse bool,
	header []string,
	rows []string,
) {
	if collapsible && collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapsible && collapse {
		b.WriteString("</details>\n\n")
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}
