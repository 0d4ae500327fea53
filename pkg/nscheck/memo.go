package nscheck

import (
	"sync"
	"sync/atomic"
)

// Memo caches the answers of another Checker. A vendor tree repeats the
// same few hundred namespaces across thousands of files, so every worker
// shares one Memo.
type Memo struct {
	inner   Checker
	answers sync.Map // string -> bool

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemo wraps inner with a concurrency-safe answer cache.
func NewMemo(inner Checker) *Memo {
	return &Memo{inner: inner}
}

// ShouldTransform implements Checker.
func (m *Memo) ShouldTransform(candidate string) bool {
	if cached, ok := m.answers.Load(candidate); ok {
		m.hits.Add(1)

		answer, _ := cached.(bool) //nolint:errcheck // only bools are stored

		return answer
	}

	m.misses.Add(1)

	answer := m.inner.ShouldTransform(candidate)
	m.answers.Store(candidate, answer)

	return answer
}

// Hits returns the number of answers served from the cache.
func (m *Memo) Hits() int64 { return m.hits.Load() }

// Misses returns the number of answers delegated to the wrapped checker.
func (m *Memo) Misses() int64 { return m.misses.Load() }
