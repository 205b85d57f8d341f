package lint

import (
	"container/list"
	"sync"
)

// resultMemo is the in-process tier of the result cache. It holds at most one
// entry per file: the diagnostics for the content hash last linted there.
// Watch mode re-lints the same few files over and over, and a save that
// changes the bytes replaces the file's entry instead of adding one.
type resultMemo struct {
	mu       sync.Mutex
	capacity int
	files    map[string]*list.Element
	order    *list.List // front = most recently linted
}

type memoEntry struct {
	path  string
	key   string
	diags []Diagnostic
}

func newResultMemo(capacity int) *resultMemo {
	if capacity <= 0 {
		capacity = 1
	}
	return &resultMemo{
		capacity: capacity,
		files:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the diagnostics recorded for path when they were produced for
// key. An entry for other content is a miss.
func (m *resultMemo) Get(path, key string) ([]Diagnostic, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.files[path]
	if !ok {
		return nil, false
	}
	e := el.Value.(*memoEntry)
	if e.key != key {
		return nil, false
	}
	m.order.MoveToFront(el)
	return e.diags, true
}

func (m *resultMemo) Put(path, key string, diags []Diagnostic) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.files[path]; ok {
		e := el.Value.(*memoEntry)
		e.key, e.diags = key, diags
		m.order.MoveToFront(el)
		return
	}
	if m.order.Len() >= m.capacity {
		if back := m.order.Back(); back != nil {
			m.order.Remove(back)
			delete(m.files, back.Value.(*memoEntry).path)
		}
	}
	m.files[path] = m.order.PushFront(&memoEntry{path: path, key: key, diags: diags})
}

// Drop removes the entries of deleted files.
func (m *resultMemo) Drop(paths ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		if el, ok := m.files[p]; ok {
			m.order.Remove(el)
			delete(m.files, p)
		}
	}
}

func (m *resultMemo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}
