package rules

import "sort"

var builtin = []Rule{
	ArrayStyle,
	ConsistentImportSource,
	ConsistentObjectSchemaType,
	NoAny,
	NoEmptyCustomSchema,
	NoNumberSchemaWithInt,
	NoOptionalAndDefaultTogether,
	NoThrowInRefine,
	NoUnknownSchema,
	PreferMeta,
	PreferMetaLast,
	PreferNamespaceImport,
	PreferStrictObject,
	RequireBrandTypeParameter,
	RequireErrorMessage,
	RequireSchemaSuffix,
	SchemaErrorPropertyStyle,
}

// All returns every built-in rule sorted by name.
func All() []Rule {
	out := append([]Rule(nil), builtin...)
	sort.Slice(out, func(i, j int) bool { return out[i].Meta().Name < out[j].Meta().Name })
	return out
}

func Lookup(name string) (Rule, bool) {
	for _, r := range builtin {
		if r.Meta().Name == name {
			return r, true
		}
	}
	return nil, false
}

func Names() []string {
	all := All()
	out := make([]string, len(all))
	for i, r := range all {
		out[i] = r.Meta().Name
	}
	return out
}

// Recommended returns the severity map of the recommended preset: every
// recommended rule at error level.
func Recommended() map[string]Severity {
	out := make(map[string]Severity)
	for _, r := range builtin {
		if r.Meta().Recommended {
			out[r.Meta().Name] = SeverityError
		}
	}
	return out
}
