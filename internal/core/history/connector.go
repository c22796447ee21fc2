package history

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// ConnState is the lifecycle state of a Connector.
type ConnState int

const (
	StateUninitialized ConnState = iota
	StateOpening
	StateReady
	StateUnavailable
)

func (s ConnState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// OpenFunc opens the durable backend.
type OpenFunc func(ctx context.Context) (Backend, error)

// Connector selects the active backend lazily on first use. The durable
// opener runs at most once; if it fails, the fallback is used for the rest of
// the connector's life.
type Connector struct {
	open     OpenFunc
	fallback func() Backend
	log      zerolog.Logger

	mu      sync.Mutex
	state   ConnState
	backend Backend
	pending chan struct{} // closed when the in-flight open settles
}

// NewConnector creates a Connector. A nil open selects the fallback
// immediately on first use.
func NewConnector(log zerolog.Logger, open OpenFunc, fallback func() Backend) *Connector {
	return &Connector{
		open:     open,
		fallback: fallback,
		log:      log,
	}
}

// State reports the connector's lifecycle state.
func (c *Connector) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Backend returns the active backend, opening it on the first call.
// Concurrent callers during the first open wait for the same attempt.
func (c *Connector) Backend(ctx context.Context) (Backend, error) {
	c.mu.Lock()
	switch c.state {
	case StateReady, StateUnavailable:
		b := c.backend
		c.mu.Unlock()
		return b, nil
	case StateOpening:
		pending := c.pending
		c.mu.Unlock()
		select {
		case <-pending:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return c.Backend(ctx)
	}

	c.state = StateOpening
	c.pending = make(chan struct{})
	c.mu.Unlock()

	backend, state := c.connect(ctx)

	c.mu.Lock()
	c.backend = backend
	c.state = state
	close(c.pending)
	c.pending = nil
	c.mu.Unlock()

	return backend, nil
}

// connect runs the durable opener detached from the caller's cancellation so
// that one caller going away does not decide the backend for everyone else.
func (c *Connector) connect(ctx context.Context) (Backend, ConnState) {
	if c.open == nil {
		c.log.Debug().Msg("no durable backend configured, using memory")
		return c.fallback(), StateUnavailable
	}

	backend, err := c.open(context.WithoutCancel(ctx))
	if err != nil || backend == nil {
		c.log.Warn().Err(err).Msg("durable backend unavailable, falling back to memory")
		return c.fallback(), StateUnavailable
	}

	c.log.Debug().Msg("durable backend ready")
	return backend, StateReady
}

// Close closes the active backend, if one was opened.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend == nil {
		return nil
	}
	return c.backend.Close()
}
