// # internal/engine/fix/edit.go
package fix

import (
	"fmt"
	"sort"
	"strings"

	coreerrors "zodlint/internal/core/errors"
	"zodlint/internal/engine/syntax"
)

type EditKind int

const (
	Replace EditKind = iota
	Remove
	InsertAfter
)

func (k EditKind) String() string {
	switch k {
	case Replace:
		return "replace"
	case Remove:
		return "remove"
	case InsertAfter:
		return "insert-after"
	default:
		return "unknown"
	}
}

// TextEdit is one range operation on the original source. For InsertAfter the
// text goes right after Range.End and nothing is removed.
type TextEdit struct {
	Kind  EditKind     `json:"kind"`
	Range syntax.Range `json:"range"`
	Text  string       `json:"text,omitempty"`
}

// Span is the part of the source the edit consumes: the range itself for
// Replace and Remove, an empty range at Range.End for InsertAfter.
func (e TextEdit) Span() syntax.Range {
	if e.Kind == InsertAfter {
		return syntax.Range{Start: e.Range.End, End: e.Range.End}
	}
	return e.Range
}

// Replacement is the text that ends up in Span.
func (e TextEdit) Replacement() string {
	if e.Kind == Remove {
		return ""
	}
	return e.Text
}

func (e TextEdit) String() string {
	return fmt.Sprintf("%s[%d,%d)%q", e.Kind, e.Range.Start, e.Range.End, e.Text)
}

// Fix is the set of edits that belong to one diagnostic. The edits must not
// overlap each other.
type Fix []TextEdit

// Span returns the smallest range covering every edit.
func (f Fix) Span() syntax.Range {
	if len(f) == 0 {
		return syntax.Range{}
	}
	out := f[0].Span()
	for _, e := range f[1:] {
		s := e.Span()
		if s.Start < out.Start {
			out.Start = s.Start
		}
		if s.End > out.End {
			out.End = s.End
		}
	}
	return out
}

func ReplaceRange(r syntax.Range, text string) TextEdit {
	return TextEdit{Kind: Replace, Range: r, Text: text}
}

func RemoveRange(r syntax.Range) TextEdit {
	return TextEdit{Kind: Remove, Range: r}
}

func InsertAfterRange(r syntax.Range, text string) TextEdit {
	return TextEdit{Kind: InsertAfter, Range: r, Text: text}
}

func ReplaceNode(n *syntax.Node, text string) TextEdit {
	return ReplaceRange(n.Range(), text)
}

func RemoveNode(n *syntax.Node) TextEdit {
	return RemoveRange(n.Range())
}

func InsertAfterNode(n *syntax.Node, text string) TextEdit {
	return InsertAfterRange(n.Range(), text)
}

// Validate checks that every edit lies inside a source of size n and that no
// two edits touch the same bytes.
func Validate(f Fix, size int) error {
	for i, e := range f {
		if e.Range.Start < 0 || e.Range.End < e.Range.Start || e.Range.End > size {
			return coreerrors.New(coreerrors.CodeValidationError,
				fmt.Sprintf("edit %s is outside the source (size %d)", e, size))
		}
		for _, other := range f[i+1:] {
			if e.Span().Overlaps(other.Span()) {
				return coreerrors.New(coreerrors.CodeConflict,
					fmt.Sprintf("edits %s and %s overlap", e, other))
			}
		}
	}
	return nil
}

// Apply returns src with every edit of f applied. Bytes outside the edited
// spans are copied unchanged.
func Apply(src []byte, f Fix) ([]byte, error) {
	if err := Validate(f, len(src)); err != nil {
		return nil, err
	}
	edits := append(Fix(nil), f...)
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i].Span(), edits[j].Span()
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		// An insertion at the start of a replaced span goes in front of it.
		return a.Len() < b.Len()
	})

	var b strings.Builder
	b.Grow(len(src))
	cursor := 0
	for _, e := range edits {
		span := e.Span()
		b.Write(src[cursor:span.Start])
		b.WriteString(e.Replacement())
		cursor = span.End
	}
	b.Write(src[cursor:])
	return []byte(b.String()), nil
}
