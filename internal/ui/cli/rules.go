package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"zodlint/internal/core/config"
	"zodlint/internal/engine/rules"
)

type ruleRow struct {
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Type           rules.Type         `json:"type"`
	Severity       rules.Severity     `json:"severity"`
	Fixable        bool               `json:"fixable"`
	HasSuggestions bool               `json:"hasSuggestions"`
	Recommended    bool               `json:"recommended"`
	Options        map[string]any     `json:"options,omitempty"`
	Schema         []rules.OptionSpec `json:"-"`
}

func newRulesCommand(g *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "rules [rule]",
		Short: "List the built-in rules and how the config sets them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := g.loadProject()
			if err != nil {
				return err
			}
			rows, err := ruleRows(p.cfg)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				for _, row := range rows {
					if row.Name == args[0] {
						if asJSON {
							return writeJSON(g.stdout, row)
						}
						printRuleDetail(g.stdout, row)
						return nil
					}
				}
				return fmt.Errorf("unknown rule %q", args[0])
			}
			if asJSON {
				return writeJSON(g.stdout, rows)
			}
			printRuleTable(g.stdout, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func ruleRows(cfg *config.Config) ([]ruleRow, error) {
	settings, err := cfg.RuleSettings()
	if err != nil {
		return nil, err
	}
	all := rules.All()
	rows := make([]ruleRow, 0, len(all))
	for _, r := range all {
		meta := r.Meta()
		row := ruleRow{
			Name:           meta.Name,
			Description:    meta.Description,
			Type:           meta.Type,
			Severity:       rules.SeverityOff,
			Fixable:        meta.Fixable,
			HasSuggestions: meta.HasSuggestions,
			Recommended:    meta.Recommended,
			Schema:         meta.Options,
		}
		if s, ok := settings[meta.Name]; ok {
			row.Severity = s.Severity
			if len(meta.Options) > 0 {
				row.Options = map[string]any(rules.WithDefaults(meta, s.Options))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func printRuleTable(w io.Writer, rows []ruleRow) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Rule", "Severity", "Fix", "Recommended", "Description")
	for _, row := range rows {
		fixMark := ""
		switch {
		case row.Fixable:
			fixMark = "fix"
		case row.HasSuggestions:
			fixMark = "suggest"
		}
		rec := ""
		if row.Recommended {
			rec = "yes"
		}
		t.Row(row.Name, string(row.Severity), fixMark, rec, row.Description)
	}
	fmt.Fprintln(w, t.Render())
}

func printRuleDetail(w io.Writer, row ruleRow) {
	fmt.Fprintf(w, "%s\n  %s\n\n", row.Name, row.Description)
	fmt.Fprintf(w, "  type:         %s\n", row.Type)
	fmt.Fprintf(w, "  severity:     %s\n", row.Severity)
	fmt.Fprintf(w, "  fixable:      %t\n", row.Fixable)
	fmt.Fprintf(w, "  suggestions:  %t\n", row.HasSuggestions)
	fmt.Fprintf(w, "  recommended:  %t\n", row.Recommended)
	if len(row.Schema) == 0 {
		return
	}
	fmt.Fprintln(w, "\n  options:")
	for _, spec := range row.Schema {
		line := fmt.Sprintf("    %s: %s", spec.Name, spec.Description)
		if len(spec.Enum) > 0 {
			line += fmt.Sprintf(" (one of %s)", strings.Join(spec.Enum, ", "))
		}
		fmt.Fprintln(w, line)
		if v, ok := row.Options[spec.Name]; ok {
			fmt.Fprintf(w, "      current: %v\n", v)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
