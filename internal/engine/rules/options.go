package rules

import (
	"fmt"
	"slices"
	"strings"

	coreerrors "zodlint/internal/core/errors"
)

// Options holds the decoded options of one rule, as read from config.
type Options map[string]any

func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok && v != "" {
		return v
	}
	return def
}

func (o Options) Strings(key string, def []string) []string {
	switch v := o[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return def
}

// WithDefaults returns a copy of o with every option of meta filled in.
func WithDefaults(meta Meta, o Options) Options {
	out := make(Options, len(meta.Options))
	for _, spec := range meta.Options {
		if spec.Default != nil {
			out[spec.Name] = spec.Default
		}
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

// ValidateOptions checks o against the option schema of meta.
func ValidateOptions(meta Meta, o Options) error {
	for key, value := range o {
		idx := slices.IndexFunc(meta.Options, func(s OptionSpec) bool { return s.Name == key })
		if idx < 0 {
			return optionError(meta.Name, key, "unknown option")
		}
		spec := meta.Options[idx]

		switch spec.Kind {
		case OptionString:
			s, ok := value.(string)
			if !ok {
				return optionError(meta.Name, key, fmt.Sprintf("expected a string, got %T", value))
			}
			if len(spec.Enum) > 0 && !slices.Contains(spec.Enum, s) {
				return optionError(meta.Name, key, fmt.Sprintf("%q is not one of %s", s, strings.Join(spec.Enum, ", ")))
			}

		case OptionStringList:
			items, ok := toStrings(value)
			if !ok {
				return optionError(meta.Name, key, fmt.Sprintf("expected a list of strings, got %T", value))
			}
			if len(items) < spec.MinItems {
				return optionError(meta.Name, key, fmt.Sprintf("needs at least %d item(s)", spec.MinItems))
			}
			seen := make(map[string]bool, len(items))
			for _, item := range items {
				if len(spec.Enum) > 0 && !slices.Contains(spec.Enum, item) {
					return optionError(meta.Name, key, fmt.Sprintf("%q is not one of %s", item, strings.Join(spec.Enum, ", ")))
				}
				if seen[item] {
					return optionError(meta.Name, key, fmt.Sprintf("duplicate item %q", item))
				}
				seen[item] = true
			}
		}
	}
	return nil
}

func toStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func optionError(rule, key, msg string) error {
	return (&coreerrors.DomainError{
		Code:    coreerrors.CodeValidationError,
		Message: fmt.Sprintf("rule %s option %q: %s", rule, key, msg),
	}).WithContext(coreerrors.CtxRule, rule).WithContext(coreerrors.CtxOption, key)
}
