package config

import (
	"fmt"
	"maps"
	"strconv"

	"zodlint/internal/engine/parser"
	"zodlint/internal/engine/rules"
	"zodlint/internal/shared/util"
)

// RuleSetting is the resolved configuration of one rule.
type RuleSetting struct {
	Severity rules.Severity
	Options  rules.Options
}

// RuleSettings layers the Rules table over the Extends preset. Rules set to
// off are kept so callers can tell "disabled" from "not mentioned".
func (c *Config) RuleSettings() (map[string]RuleSetting, error) {
	out := make(map[string]RuleSetting)
	switch c.Extends {
	case ExtendsRecommended, "":
		for name, sev := range rules.Recommended() {
			out[name] = RuleSetting{Severity: sev}
		}
	case ExtendsAll:
		for _, name := range rules.Names() {
			out[name] = RuleSetting{Severity: rules.SeverityError}
		}
	case ExtendsNone:
	default:
		return nil, fmt.Errorf("extends must be one of: %s, %s, %s", ExtendsRecommended, ExtendsAll, ExtendsNone)
	}

	for _, name := range util.SortedStringKeys(c.Rules) {
		setting, err := parseRuleSetting(name, c.Rules[name])
		if err != nil {
			return nil, err
		}
		out[name] = setting
	}
	return out, nil
}

func parseRuleSetting(name string, raw any) (RuleSetting, error) {
	rule, ok := rules.Lookup(name)
	if !ok {
		return RuleSetting{}, fmt.Errorf("rules.%s: unknown rule", name)
	}

	var sevRaw any
	opts := rules.Options{}
	switch v := raw.(type) {
	case []any:
		if len(v) == 0 || len(v) > 2 {
			return RuleSetting{}, fmt.Errorf("rules.%s: expected [severity] or [severity, options]", name)
		}
		sevRaw = v[0]
		if len(v) == 2 {
			m, ok := v[1].(map[string]any)
			if !ok {
				return RuleSetting{}, fmt.Errorf("rules.%s: options must be a table, got %T", name, v[1])
			}
			maps.Copy(opts, m)
		}
	case map[string]any:
		sevRaw, ok = v["severity"]
		if !ok {
			return RuleSetting{}, fmt.Errorf("rules.%s: missing severity", name)
		}
		for k, val := range v {
			if k != "severity" {
				opts[k] = val
			}
		}
	default:
		sevRaw = v
	}

	sev, ok := rules.ParseSeverity(severityString(sevRaw))
	if !ok {
		return RuleSetting{}, fmt.Errorf("rules.%s: invalid severity %v", name, sevRaw)
	}
	if err := rules.ValidateOptions(rule.Meta(), opts); err != nil {
		return RuleSetting{}, err
	}
	if len(opts) == 0 {
		opts = nil
	}
	return RuleSetting{Severity: sev, Options: opts}, nil
}

func severityString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// withSeverity replaces the severity of a raw rule entry, keeping options.
func withSeverity(existing any, sev string) any {
	switch v := existing.(type) {
	case []any:
		out := append([]any(nil), v...)
		if len(out) == 0 {
			return sev
		}
		out[0] = sev
		return out
	case map[string]any:
		out := maps.Clone(v)
		out["severity"] = sev
		return out
	}
	return sev
}

// LanguageOverrides converts the languages table for the grammar loader.
func (c *Config) LanguageOverrides() map[string]parser.LanguageOverride {
	if len(c.Languages) == 0 {
		return nil
	}
	out := make(map[string]parser.LanguageOverride, len(c.Languages))
	for id, lang := range c.Languages {
		out[id] = parser.LanguageOverride{Enabled: lang.Enabled, Extensions: lang.Extensions}
	}
	return out
}
