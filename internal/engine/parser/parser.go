// # internal/engine/parser/parser.go
package parser

import (
	"path/filepath"
	"strings"
	"time"

	coreerrors "zodlint/internal/core/errors"
	"zodlint/internal/engine/syntax"
	"zodlint/internal/shared/observability"
)

// Parser turns source files into lowered syntax trees. One Parser is shared by
// every lint worker; the per-language pools hand each goroutine its own
// tree-sitter parser.
type Parser struct {
	loader    *GrammarLoader
	pools     map[string]*ParserPool
	extToLang map[string]string
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:    loader,
		pools:     make(map[string]*ParserPool),
		extToLang: make(map[string]string),
	}
	for id, spec := range loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		lang := loader.Language(id)
		if lang == nil {
			continue
		}
		p.pools[id] = NewParserPool(lang)
		for _, ext := range spec.Extensions {
			p.extToLang[ext] = id
		}
	}
	return p
}

// LanguageFor returns the language id registered for path's extension.
func (p *Parser) LanguageFor(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := p.extToLang[ext]
	return lang, ok
}

func (p *Parser) Supports(path string) bool {
	_, ok := p.LanguageFor(path)
	return ok
}

// ParseFile detects the language from the file extension and parses content.
func (p *Parser) ParseFile(path string, content []byte) (*syntax.File, error) {
	lang, ok := p.LanguageFor(path)
	if !ok {
		return nil, (&coreerrors.DomainError{Code: coreerrors.CodeNotSupported, Message: "unsupported file extension"}).
			WithContext(coreerrors.CtxPath, path)
	}
	return p.Parse(lang, path, content)
}

// Parse parses content with the named grammar. Trees with syntax errors are
// still returned; File.HasErrors tells callers the tree contains ERROR nodes.
func (p *Parser) Parse(language, path string, content []byte) (*syntax.File, error) {
	pool, ok := p.pools[language]
	if !ok {
		return nil, (&coreerrors.DomainError{Code: coreerrors.CodeNotSupported, Message: "language not enabled"}).
			WithContext(coreerrors.CtxLanguage, language)
	}

	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues(language).Observe(time.Since(start).Seconds())
	}()

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, (&coreerrors.DomainError{Code: coreerrors.CodeInternal, Message: "parser returned no tree"}).
			WithContext(coreerrors.CtxPath, path).
			WithContext(coreerrors.CtxLanguage, language)
	}
	defer tree.Close()

	root := tree.RootNode()
	return &syntax.File{
		Path:      path,
		Language:  language,
		Source:    content,
		Root:      lowerTree(root, content),
		HasErrors: root.HasError(),
	}, nil
}

func (p *Parser) SupportedExtensions() []string {
	return p.loader.SupportedExtensions()
}
