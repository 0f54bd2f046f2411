package commentary

import (
	"sync"
	"time"
)

// Snapshot is the published commentary state. A zero Snapshot means no
// commentary was ever produced, which is a valid state for rendering.
type Snapshot struct {
	Text        string
	Outcome     Outcome
	GeneratedAt time.Time
	// RosterVersion is the roster version the text was generated from.
	RosterVersion uint64
	Pending       bool
}

// Stale reports whether the text predates rosterVersion.
func (s Snapshot) Stale(rosterVersion uint64) bool {
	return s.Text != "" && s.RosterVersion != rosterVersion
}

// Board holds the latest commentary. Readers never wait on generation.
type Board struct {
	mu      sync.RWMutex
	current Snapshot
}

// NewBoard creates an empty Board.
func NewBoard() *Board {
	return &Board{}
}

// Latest returns the most recent commentary state.
func (b *Board) Latest() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// MarkPending flags that a generation is in flight. The previous text stays.
func (b *Board) MarkPending() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current.Pending = true
}

// ClearPending drops the in-flight flag without replacing the text.
func (b *Board) ClearPending() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current.Pending = false
}

// Complete replaces the current commentary with res and sets Pending from
// more, both under the board lock. A nil more clears Pending. A request
// that marks the board pending after more was read lands after this call,
// so the flag cannot be lost.
func (b *Board) Complete(res Result, rosterVersion uint64, more func() bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = Snapshot{
		Text:          res.Text,
		Outcome:       res.Outcome,
		GeneratedAt:   res.GeneratedAt,
		RosterVersion: rosterVersion,
		Pending:       more != nil && more(),
	}
}
