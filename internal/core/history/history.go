// Package history defines the input history domain: records, the backend
// contract, and the store, cache, and navigation layers built on top of it.
package history

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	// DefaultRetentionMax is the number of records the backend keeps before
	// pruning removes the oldest.
	DefaultRetentionMax = 100
	// DefaultPreloadCap is the number of entries loaded into, and held by,
	// the repository cache.
	DefaultPreloadCap = 200
)

// ErrUnavailable is returned by an opener when the durable backend cannot be
// used in the current environment.
var ErrUnavailable = errors.New("durable history backend unavailable")

// Record is a single submitted input.
type Record struct {
	ID        int64  `json:"id,omitempty"` // zero for volatile records
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"` // epoch milliseconds
}

// Time returns CreatedAt as a time.Time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.CreatedAt)
}

// Backend is the capability set shared by the durable and volatile stores.
type Backend interface {
	// Append inserts content unless it equals the most recently created record.
	Append(ctx context.Context, content string) error
	// QueryRecentDescending returns up to limit records, newest first.
	QueryRecentDescending(ctx context.Context, limit int) ([]Record, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// DeleteOldestAscending removes the n oldest records.
	DeleteOldestAscending(ctx context.Context, n int) error
	// Clear removes all records.
	Clear(ctx context.Context) error
	// Close releases the backend's resources.
	Close() error
}

// Options bounds the backend and the cache independently.
//
// A zero RetentionMax takes the default; a negative one turns background
// pruning off, leaving the backend unbounded. The config file cannot express
// that; it is for embedders that manage retention themselves. PreloadCap
// always takes the default when not positive.
type Options struct {
	RetentionMax int // backend record ceiling
	PreloadCap   int // cache size and initial load limit
}

// DefaultOptions returns the built-in bounds.
func DefaultOptions() Options {
	return Options{
		RetentionMax: DefaultRetentionMax,
		PreloadCap:   DefaultPreloadCap,
	}
}

func (o Options) withDefaults() Options {
	if o.RetentionMax == 0 {
		o.RetentionMax = DefaultRetentionMax
	}
	if o.PreloadCap <= 0 {
		o.PreloadCap = DefaultPreloadCap
	}
	return o
}

// Normalize trims content. The second return is false when nothing is left,
// in which case callers treat the input as a no-op.
func Normalize(content string) (string, bool) {
	content = strings.TrimSpace(content)
	return content, content != ""
}
