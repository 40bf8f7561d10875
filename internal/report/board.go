package report

import (
	"fmt"
	"sync"
	"time"
)

// Result wraps a report with its freshness. When Stale is set, Data is the
// last successful load and Error describes the failed refresh.
type Result[T any] struct {
	Data     T         `json:"data"`
	Stale    bool      `json:"stale"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// FetchError reports a failed load with no earlier result to fall back on.
type FetchError struct {
	Kind string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load %s report: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type entry struct {
	generation uint64
	value      any
	loadedAt   time.Time
}

// DefaultBoardLimit is the number of results a Board keeps by default.
const DefaultBoardLimit = 1024

// Board keeps the last successful result per key. Every load takes a
// generation when it starts; a result only replaces a stored one from an
// older generation. Once limit keys are stored, adding another evicts the
// entry with the oldest generation.
type Board struct {
	mu      sync.Mutex
	next    uint64
	limit   int
	entries map[string]entry
}

// NewBoard creates an empty Board holding up to DefaultBoardLimit results.
func NewBoard() *Board {
	return NewBoardWithLimit(DefaultBoardLimit)
}

// NewBoardWithLimit creates an empty Board holding up to limit results.
// A limit below 1 is treated as 1.
func NewBoardWithLimit(limit int) *Board {
	if limit < 1 {
		limit = 1
	}
	return &Board{limit: limit, entries: make(map[string]entry)}
}

// Begin reserves the generation of a new load.
func (b *Board) Begin() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	return b.next
}

// Commit stores value under key unless a newer generation already did.
func (b *Board) Commit(key string, generation uint64, value any, loadedAt time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.entries[key]
	if ok && cur.generation > generation {
		return false
	}
	if !ok && len(b.entries) >= b.limit {
		b.evictOldest()
	}
	b.entries[key] = entry{generation: generation, value: value, loadedAt: loadedAt}
	return true
}

func (b *Board) evictOldest() {
	var (
		oldest string
		gen    uint64
		found  bool
	)
	for k, e := range b.entries {
		if !found || e.generation < gen {
			oldest, gen, found = k, e.generation, true
		}
	}
	if found {
		delete(b.entries, oldest)
	}
}

// Last returns the stored value for key.
func (b *Board) Last(key string) (any, time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[key]
	return e.value, e.loadedAt, ok
}

// Len returns the number of stored results.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
