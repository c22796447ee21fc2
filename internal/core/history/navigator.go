package history

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// notNavigating is the pointer value while the user is at the live input.
const notNavigating = -1

// Navigator steps through cached history the way a shell does with the arrow
// keys. It works on a snapshot taken from the repository and never performs
// I/O while navigating.
type Navigator struct {
	repo *Repository
	log  zerolog.Logger

	mu      sync.Mutex
	ready   bool
	entries []string
	pointer int
}

// NewNavigator creates a Navigator. It is not ready until Load returns.
func NewNavigator(repo *Repository, log zerolog.Logger) *Navigator {
	return &Navigator{
		repo:    repo,
		log:     log,
		pointer: notNavigating,
	}
}

// Load fetches the cached history. A failed load leaves the navigator ready
// with an empty history.
func (n *Navigator) Load(ctx context.Context) {
	entries, err := n.repo.GetCachedRecent(ctx)
	if err != nil {
		n.log.Warn().Err(err).Msg("load history, continuing without it")
		entries = nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.entries = entries
	n.ready = true
}

// Ready reports whether Load has completed.
func (n *Navigator) Ready() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ready
}

// Len returns the number of entries available for navigation.
func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// Prev moves to the next older entry and returns it. At the oldest entry it
// keeps returning that entry. ok is false when there is nothing to show.
func (n *Navigator) Prev() (entry string, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.ready || len(n.entries) == 0 {
		return "", false
	}

	if n.pointer+1 < len(n.entries) {
		n.pointer++
	}
	return n.entries[n.pointer], true
}

// Next moves toward the live input. Stepping past the newest entry returns
// "" and ends navigation. ok is false when not navigating.
func (n *Navigator) Next() (entry string, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pointer == notNavigating {
		return "", false
	}

	if n.pointer-1 >= 0 {
		n.pointer--
		return n.entries[n.pointer], true
	}

	n.pointer = notNavigating
	return "", true
}

// ResetPointer returns to the live input. Call it whenever the user edits.
func (n *Navigator) ResetPointer() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pointer = notNavigating
}

// IsNavigating reports whether an entry is currently recalled.
func (n *Navigator) IsNavigating() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pointer != notNavigating
}

// Record resets the pointer, stores content, and refreshes the snapshot.
func (n *Navigator) Record(ctx context.Context, content string) error {
	n.ResetPointer()

	if _, ok := Normalize(content); !ok {
		return nil
	}

	err := n.repo.Record(ctx, content)

	entries, loadErr := n.repo.GetCachedRecent(ctx)
	if loadErr == nil {
		n.mu.Lock()
		n.entries = entries
		n.mu.Unlock()
	}

	return err
}
