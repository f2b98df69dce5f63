// Package gateway exposes a bucket on an S3-compatible backend as a
// directory tree and owns the live backend connection.
//
// The active configuration and the Store built from it are held together in
// an immutable snapshot. Readers load the snapshot with a single atomic read
// and use it for the whole operation; Replace builds and probes a new
// snapshot off to the side and swaps it in only once it is known to work.
//
// Usage:
//
//	gw := gateway.New(minio.Dial, log)
//	gw.Bootstrap(ctx, bootCfg) // best effort, never fails
//
//	if err := gw.Replace(ctx, newCfg); err != nil {
//	    // previous configuration is still active
//	}
//	entries, err := gw.List(ctx, "docs/")
package gateway

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/koustreak/s3gate/internal/errs"
	"github.com/koustreak/s3gate/internal/filestore"
	"github.com/koustreak/s3gate/internal/logger"
)

// Observer receives notifications about gateway activity.
type Observer interface {
	ObserveOperation(op string, err error, elapsed time.Duration)
	ObserveState(state string)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, error, time.Duration) {}
func (nopObserver) ObserveState(string)                           {}

// snapshot pairs a configuration with the connection built from it.
// Never mutated after publication.
type snapshot struct {
	cfg   filestore.Config
	store filestore.Store
}

// Gateway translates hierarchy-oriented operations into flat backend calls.
// It is safe for concurrent use by multiple goroutines.
type Gateway struct {
	dial     filestore.Dialer
	log      *logger.Logger
	observer Observer

	// writeMu serialises Replace and Bootstrap. Readers never take it.
	writeMu  sync.Mutex
	current  atomic.Pointer[snapshot]
	state    atomic.Int32
	defaults atomic.Pointer[filestore.Config]
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithObserver reports operations and state changes to o.
func WithObserver(o Observer) Option {
	return func(g *Gateway) {
		if o != nil {
			g.observer = o
		}
	}
}

// New returns an UNINITIALIZED gateway that builds connections with dial.
func New(dial filestore.Dialer, log *logger.Logger, opts ...Option) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	g := &Gateway{
		dial:     dial,
		log:      log.With().Str("component", "gateway").Logger(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.observer.ObserveState(StateUninitialized.String())
	return g
}

// State returns the current lifecycle state.
func (g *Gateway) State() State {
	return State(g.state.Load())
}

func (g *Gateway) setState(s State) {
	g.state.Store(int32(s))
	g.observer.ObserveState(s.String())
}

// acquire returns the active snapshot or a NotInitialized error.
func (g *Gateway) acquire() (*snapshot, error) {
	snap := g.current.Load()
	if snap == nil {
		return nil, errs.New(errs.ErrKindNotInitialized, "object store is not configured")
	}
	return snap, nil
}

// Close releases the active connection. The gateway must not be used afterwards.
func (g *Gateway) Close() error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	snap := g.current.Swap(nil)
	g.setState(StateUninitialized)
	if snap == nil {
		return nil
	}
	return snap.store.Close()
}

// track starts timing op. The returned func reports the outcome held in
// *errp, so it is meant to be deferred with a named error result.
func (g *Gateway) track(op string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		g.observer.ObserveOperation(op, *errp, time.Since(start))
	}
}
