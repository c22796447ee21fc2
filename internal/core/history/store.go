package history

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Store is the single entry point to persisted history. It validates input
// and delegates to whichever backend the connector selected.
type Store struct {
	conn *Connector
	log  zerolog.Logger
}

// NewStore creates a Store over the given connector.
func NewStore(conn *Connector, log zerolog.Logger) *Store {
	return &Store{conn: conn, log: log}
}

// AddHistory appends content. Blank content is ignored.
func (s *Store) AddHistory(ctx context.Context, content string) error {
	content, ok := Normalize(content)
	if !ok {
		return nil
	}

	b, err := s.conn.Backend(ctx)
	if err != nil {
		return err
	}

	if err := b.Append(ctx, content); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// GetRecent returns up to limit records, newest first.
func (s *Store) GetRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}

	b, err := s.conn.Backend(ctx)
	if err != nil {
		return nil, err
	}

	records, err := b.QueryRecentDescending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent history: %w", err)
	}
	return records, nil
}

// CountAll returns the number of stored records.
func (s *Store) CountAll(ctx context.Context) (int, error) {
	b, err := s.conn.Backend(ctx)
	if err != nil {
		return 0, err
	}

	n, err := b.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// PruneOld deletes the oldest records so that at most max remain. It returns
// the number of records removed. max <= 0 disables pruning.
func (s *Store) PruneOld(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	b, err := s.conn.Backend(ctx)
	if err != nil {
		return 0, err
	}

	count, err := b.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	if count <= max {
		return 0, nil
	}

	excess := count - max
	if err := b.DeleteOldestAscending(ctx, excess); err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}

	s.log.Debug().Int("removed", excess).Int("max", max).Msg("pruned history")
	return excess, nil
}

// ClearAll removes every record.
func (s *Store) ClearAll(ctx context.Context) error {
	b, err := s.conn.Backend(ctx)
	if err != nil {
		return err
	}

	if err := b.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
