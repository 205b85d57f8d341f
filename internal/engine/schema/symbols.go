// # internal/engine/schema/symbols.go
package schema

import (
	"strings"

	"zodlint/internal/engine/syntax"
)

// LibraryModule is the module whose imports are tracked. Sub-paths such as
// "zod/v4" or "zod/mini" denote the same library.
const LibraryModule = "zod"

// KnownSources lists the published entry points of the library.
var KnownSources = []string{"zod", "zod/mini", "zod/v3", "zod/v4", "zod/v4-mini"}

// NamespaceExport is the named export that aliases the whole library, as in
// `import { z } from "zod"`.
const NamespaceExport = "z"

func IsLibrarySource(source string) bool {
	return source == LibraryModule || strings.HasPrefix(source, LibraryModule+"/")
}

type ImportStyle int

const (
	StyleNamespace ImportStyle = iota
	StyleDefault
	StyleNamed
)

func (s ImportStyle) String() string {
	switch s {
	case StyleNamespace:
		return "namespace"
	case StyleDefault:
		return "default"
	case StyleNamed:
		return "named"
	default:
		return "unknown"
	}
}

type ImportBinding struct {
	LocalName    string
	Style        ImportStyle
	SourceModule string
}

// SymbolTable tracks which local identifiers of one file refer to the library
// as a whole and which refer to one of its named exports. It only grows during
// a pass and must not be shared between files.
type SymbolTable struct {
	namespaces map[string]struct{}
	named      map[string]struct{}
	bindings   []ImportBinding
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		namespaces: make(map[string]struct{}),
		named:      make(map[string]struct{}),
	}
}

// Record registers the bindings of an import declaration. Declarations of
// other modules, and nodes that are not import declarations, are ignored.
func (t *SymbolTable) Record(decl *syntax.Node) {
	if !decl.Is(syntax.KindImportDeclaration) || decl.Source == nil {
		return
	}
	source := decl.Source.Value
	if !IsLibrarySource(source) {
		return
	}

	for _, spec := range decl.Specifiers {
		if spec.Local == nil {
			continue
		}
		local := spec.Local.Name
		if local == "" {
			local = spec.Local.Value
		}
		if local == "" {
			continue
		}

		switch spec.Kind {
		case syntax.KindImportDefault:
			t.namespaces[local] = struct{}{}
			t.bindings = append(t.bindings, ImportBinding{LocalName: local, Style: StyleDefault, SourceModule: source})
		case syntax.KindImportNamespace:
			t.namespaces[local] = struct{}{}
			t.bindings = append(t.bindings, ImportBinding{LocalName: local, Style: StyleNamespace, SourceModule: source})
		case syntax.KindImportNamed:
			t.named[local] = struct{}{}
			// import { z } is Zod's documented form; treat z as the namespace.
			if spec.Imported != nil && spec.Imported.Name == NamespaceExport {
				t.namespaces[local] = struct{}{}
			}
			t.bindings = append(t.bindings, ImportBinding{LocalName: local, Style: StyleNamed, SourceModule: source})
		}
	}
}

func (t *SymbolTable) IsNamespace(name string) bool {
	_, ok := t.namespaces[name]
	return ok
}

func (t *SymbolTable) IsNamedImport(name string) bool {
	_, ok := t.named[name]
	return ok
}

// Bindings returns the recorded bindings in discovery order.
func (t *SymbolTable) Bindings() []ImportBinding {
	return append([]ImportBinding(nil), t.bindings...)
}

// Empty reports whether no library import has been recorded yet.
func (t *SymbolTable) Empty() bool {
	return len(t.namespaces) == 0 && len(t.named) == 0
}
