// Package memory provides an in-process history backend. It is used when the
// durable backend cannot be opened and loses everything when the process
// exits.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hay-kot/quill/internal/core/history"
)

// Backend implements history.Backend over a slice ordered newest first.
type Backend struct {
	mu      sync.Mutex
	records []history.Record
	now     func() time.Time
}

// New creates an empty Backend.
func New() *Backend {
	return &Backend{now: time.Now}
}

// Append prepends content unless it matches the newest record.
func (b *Backend) Append(_ context.Context, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.records) > 0 && b.records[0].Content == content {
		return nil
	}

	rec := history.Record{Content: content, CreatedAt: b.now().UnixMilli()}
	b.records = append([]history.Record{rec}, b.records...)
	return nil
}

// QueryRecentDescending returns up to limit records, newest first.
func (b *Backend) QueryRecentDescending(_ context.Context, limit int) ([]history.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if limit <= 0 {
		return []history.Record{}, nil
	}

	n := min(limit, len(b.records))
	out := make([]history.Record, n)
	copy(out, b.records[:n])
	return out, nil
}

// Count returns the number of records.
func (b *Backend) Count(_ context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records), nil
}

// DeleteOldestAscending drops the n oldest records from the tail.
func (b *Backend) DeleteOldestAscending(_ context.Context, n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 {
		return nil
	}

	keep := max(len(b.records)-n, 0)
	b.records = b.records[:keep]
	return nil
}

// Clear removes all records.
func (b *Backend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = nil
	return nil
}

// Close is a no-op.
func (b *Backend) Close() error {
	return nil
}
