// # internal/ui/report/formats/sarif.go
package formats

import (
	"io"

	"github.com/goccy/go-json"

	"zodlint/internal/engine/fix"
	"zodlint/internal/engine/lint"
	"zodlint/internal/engine/rules"
	"zodlint/internal/shared/util"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
	srcRoot      = "%SRCROOT%"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Results     []sarifResult     `json:"results"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
	Properties       *sarifRuleProperties   `json:"properties,omitempty"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifByteRegion `json:"deletedRegion"`
	InsertedContent *sarifMessage   `json:"insertedContent,omitempty"`
}

type sarifByteRegion struct {
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

type sarifInvocation struct {
	ExecutionSuccessful        bool                `json:"executionSuccessful"`
	ToolExecutionNotifications []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

// SARIF builds a SARIF v2.1.0 document from a lint summary. All file URIs are
// made relative to opts.Root; absolute paths are never included so that
// reports are safe to share.
func SARIF(w io.Writer, s lint.Summary, opts Options) error {
	catalogue := make(map[string]rules.Meta, len(opts.Rules))
	for _, m := range opts.Rules {
		catalogue[m.Name] = m
	}

	sarifRules, index := buildSARIFRules(s, catalogue)
	results := make([]sarifResult, 0)
	var notifications []sarifNotification

	for _, res := range s.Results {
		artifact := sarifArtifactLocation{URI: relativeURI(opts.Root, res.Path), URIBaseID: srcRoot}
		if res.Err != "" {
			notifications = append(notifications, sarifNotification{
				Level:     "error",
				Message:   sarifMessage{Text: res.Err},
				Locations: []sarifLocation{{PhysicalLocation: sarifPhysicalLocation{ArtifactLocation: artifact}}},
			})
			continue
		}
		for _, d := range res.Diagnostics {
			result := sarifResult{
				RuleID:    d.Rule,
				RuleIndex: index[d.Rule],
				Level:     sarifLevel(string(d.Severity)),
				Message:   sarifMessage{Text: d.Message},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: artifact,
						Region: &sarifRegion{
							StartLine:   d.Line,
							StartColumn: d.Column,
							EndLine:     d.EndLine,
							EndColumn:   d.EndColumn,
						},
					},
				}},
			}
			if len(d.Fix) > 0 {
				result.Fixes = append(result.Fixes, sarifFixFor(artifact, "Apply the automatic fix", d.Fix))
			}
			for _, sug := range d.Suggestions {
				result.Fixes = append(result.Fixes, sarifFixFor(artifact, sug.Message, sug.Fix))
			}
			results = append(results, result)
		}
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "zodlint",
						Version: nonEmpty(opts.Version, "dev"),
						Rules:   sarifRules,
					},
				},
				Results: results,
				Invocations: []sarifInvocation{{
					ExecutionSuccessful:        s.Failed == 0,
					ToolExecutionNotifications: notifications,
				}},
			},
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// buildSARIFRules returns only the rules that are relevant for the given
// findings, with the index each result refers to.
func buildSARIFRules(s lint.Summary, catalogue map[string]rules.Meta) ([]sarifRule, map[string]int) {
	seen := make(map[string]rules.Severity)
	for _, res := range s.Results {
		for _, d := range res.Diagnostics {
			if _, ok := seen[d.Rule]; !ok {
				seen[d.Rule] = d.Severity
			}
		}
	}
	names := util.SortedStringKeys(seen)

	out := make([]sarifRule, 0, len(names))
	index := make(map[string]int, len(names))
	for i, name := range names {
		rule := sarifRule{
			ID:            name,
			Name:          name,
			DefaultConfig: sarifRuleDefaultConfig{Level: sarifLevel(string(seen[name]))},
		}
		if meta, ok := catalogue[name]; ok {
			rule.ShortDescription = sarifMessage{Text: meta.Description}
			rule.Properties = &sarifRuleProperties{Tags: []string{string(meta.Type)}}
		} else {
			rule.ShortDescription = sarifMessage{Text: name}
		}
		index[name] = i
		out = append(out, rule)
	}
	return out, index
}

func sarifFixFor(artifact sarifArtifactLocation, description string, f fix.Fix) sarifFix {
	replacements := make([]sarifReplacement, 0, len(f))
	for _, e := range f {
		span := e.Span()
		r := sarifReplacement{DeletedRegion: sarifByteRegion{ByteOffset: span.Start, ByteLength: span.Len()}}
		if text := e.Replacement(); text != "" {
			r.InsertedContent = &sarifMessage{Text: text}
		}
		replacements = append(replacements, r)
	}
	return sarifFix{
		Description:     sarifMessage{Text: description},
		ArtifactChanges: []sarifArtifactChange{{ArtifactLocation: artifact, Replacements: replacements}},
	}
}
