// # internal/ui/report/formats/formats.go
package formats

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"

	"zodlint/internal/engine/lint"
	"zodlint/internal/engine/rules"
)

type Options struct {
	// Root anchors the relative paths every format prints.
	Root    string
	Version string
	Color   bool
	// Rules is the rule catalogue SARIF draws descriptions from.
	Rules []rules.Meta
}

// Formatter renders a lint summary.
type Formatter interface {
	Format(w io.Writer, s lint.Summary, opts Options) error
}

type FormatterFunc func(w io.Writer, s lint.Summary, opts Options) error

func (f FormatterFunc) Format(w io.Writer, s lint.Summary, opts Options) error {
	return f(w, s, opts)
}

var registry = map[string]Formatter{
	"text":     FormatterFunc(Text),
	"json":     FormatterFunc(JSON),
	"sarif":    FormatterFunc(SARIF),
	"markdown": FormatterFunc(Markdown),
}

// Names lists the registered formats.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Catalogue returns the metadata of the given rules.
func Catalogue(rs []rules.Rule) []rules.Meta {
	out := make([]rules.Meta, len(rs))
	for i, r := range rs {
		out[i] = r.Meta()
	}
	return out
}

func Lookup(name string) (Formatter, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f, nil
}

// UseColor resolves a color mode ("auto", "always", "never") for f. auto
// honours NO_COLOR and only colors terminals.
func UseColor(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// fixableCount counts diagnostics that carry an autofix.
func fixableCount(s lint.Summary) int {
	n := 0
	for _, r := range s.Results {
		for _, d := range r.Diagnostics {
			if len(d.Fix) > 0 {
				n++
			}
		}
	}
	return n
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	if strings.HasSuffix(word, "x") {
		return fmt.Sprintf("%d %ses", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
