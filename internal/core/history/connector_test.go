package history_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/quill/internal/core/history"
	"github.com/hay-kot/quill/internal/store/memory"
)

func TestConnector_OpensOnce(t *testing.T) {
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	durable := memory.New()

	open := func(context.Context) (history.Backend, error) {
		calls.Add(1)
		<-release
		return durable, nil
	}
	conn := history.NewConnector(zerolog.Nop(), open, func() history.Backend { return memory.New() })
	assert.Equal(t, history.StateUninitialized, conn.State())

	const callers = 8
	got := make([]history.Backend, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := conn.Backend(ctx)
			assert.NoError(t, err)
			got[i] = b
		}()
	}

	require.Eventually(t, func() bool { return conn.State() == history.StateOpening }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, history.StateReady, conn.State())
	for _, b := range got {
		assert.Same(t, durable, b)
	}
}

func TestConnector_FallsBackPermanently(t *testing.T) {
	ctx := context.Background()

	var calls atomic.Int32
	open := func(context.Context) (history.Backend, error) {
		calls.Add(1)
		return nil, history.ErrUnavailable
	}

	var fallbacks atomic.Int32
	conn := history.NewConnector(zerolog.Nop(), open, func() history.Backend {
		fallbacks.Add(1)
		return memory.New()
	})

	first, err := conn.Backend(ctx)
	require.NoError(t, err)
	assert.Equal(t, history.StateUnavailable, conn.State())

	second, err := conn.Backend(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), calls.Load(), "opener must not be retried")
	assert.Equal(t, int32(1), fallbacks.Load())
}

func TestConnector_NilOpenerUsesFallback(t *testing.T) {
	conn := history.NewConnector(zerolog.Nop(), nil, func() history.Backend { return memory.New() })

	b, err := conn.Backend(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)
	assert.Equal(t, history.StateUnavailable, conn.State())
}

func TestConnector_WaiterHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	open := func(context.Context) (history.Backend, error) {
		<-release
		return memory.New(), nil
	}
	conn := history.NewConnector(zerolog.Nop(), open, func() history.Backend { return memory.New() })

	go func() { _, _ = conn.Backend(context.Background()) }()
	require.Eventually(t, func() bool { return conn.State() == history.StateOpening }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conn.Backend(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
