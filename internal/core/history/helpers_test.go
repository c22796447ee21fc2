package history_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hay-kot/quill/internal/core/history"
	"github.com/hay-kot/quill/internal/store/memory"
)

var errBoom = errors.New("boom")

// fakeBackend wraps the memory backend with call counters and switchable
// failures.
type fakeBackend struct {
	*memory.Backend

	queries atomic.Int32
	deletes atomic.Int32
	appends atomic.Int32

	mu         sync.Mutex
	queryErr   error
	deleteErr  error
	gate       chan struct{} // when set, queries block until it is closed
	hold       chan struct{} // when set, queries read first, then block until it is closed
	appendGate chan struct{} // when set, appends block until it is closed
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{Backend: memory.New()}
}

func (f *fakeBackend) QueryRecentDescending(ctx context.Context, limit int) ([]history.Record, error) {
	f.queries.Add(1)

	f.mu.Lock()
	gate, hold, err := f.gate, f.hold, f.queryErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	records, err := f.Backend.QueryRecentDescending(ctx, limit)
	if hold != nil {
		<-hold
	}
	return records, err
}

func (f *fakeBackend) Append(ctx context.Context, content string) error {
	f.appends.Add(1)

	f.mu.Lock()
	gate := f.appendGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return f.Backend.Append(ctx, content)
}

func (f *fakeBackend) DeleteOldestAscending(ctx context.Context, n int) error {
	f.deletes.Add(1)

	f.mu.Lock()
	err := f.deleteErr
	f.mu.Unlock()

	if err != nil {
		return err
	}
	return f.Backend.DeleteOldestAscending(ctx, n)
}

func (f *fakeBackend) setQueryErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryErr = err
}

func (f *fakeBackend) setDeleteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteErr = err
}

func (f *fakeBackend) setGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

func (f *fakeBackend) setHold(hold chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = hold
}

func (f *fakeBackend) setAppendGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendGate = gate
}

// connectorFor returns a connector that always hands out b.
func connectorFor(b history.Backend) *history.Connector {
	open := func(context.Context) (history.Backend, error) { return b, nil }
	return history.NewConnector(zerolog.Nop(), open, func() history.Backend { return memory.New() })
}

type fixture struct {
	backend *fakeBackend
	store   *history.Store
	repo    *history.Repository
}

func newFixture(t *testing.T, opts history.Options) *fixture {
	t.Helper()

	b := newFakeBackend()
	store := history.NewStore(connectorFor(b), zerolog.Nop())
	repo := history.NewRepository(store, opts, zerolog.Nop())
	t.Cleanup(func() { _ = repo.Close() })

	return &fixture{backend: b, store: store, repo: repo}
}
