// # internal/engine/parser/pool_test.go
package parser

import (
	"sync"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tsLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
}

func TestParserPool_GetPutTracksLeases(t *testing.T) {
	pool := NewParserPool(tsLanguage())

	sp := pool.Get()
	require.NotNil(t, sp)
	assert.Equal(t, 1, pool.Stats())

	pool.Put(sp)
	assert.Equal(t, 0, pool.Stats())
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool(tsLanguage())
	pool.Put(nil)
	assert.Equal(t, 0, pool.Stats())
}

func TestParserPool_ParsesValidTypeScript(t *testing.T) {
	pool := NewParserPool(tsLanguage())

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse([]byte("import { z } from \"zod\";\nconst s = z.string();\n"), nil)
	require.NotNil(t, tree)
	defer tree.Close()

	assert.False(t, tree.RootNode().HasError())
}

func TestParserPool_ConcurrentAccess(t *testing.T) {
	pool := NewParserPool(tsLanguage())

	const goroutines = 20
	const iters = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)

	src := []byte("const s = z.object({ a: z.number() });\n")

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				sp := pool.Get()
				tree := sp.Parse(src, nil)
				if tree == nil {
					t.Errorf("expected non-nil parse tree")
				} else {
					tree.Close()
				}
				pool.Put(sp)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 0, pool.Stats())
}

func TestParserPool_LanguageSetAfterReset(t *testing.T) {
	pool := NewParserPool(tsLanguage())

	sp := pool.Get()
	sp.Reset()
	pool.Put(sp)

	sp2 := pool.Get()
	defer pool.Put(sp2)

	tree := sp2.Parse([]byte("const ok = 1;\n"), nil)
	require.NotNil(t, tree, "parser should still carry its language after Reset")
	defer tree.Close()
}
