package gateway

import (
	"context"

	"github.com/koustreak/s3gate/internal/errs"
	"github.com/koustreak/s3gate/internal/filestore"
)

// Replace validates cfg, builds a connection from it and probes that
// connection. Only when the probe succeeds does the new snapshot become
// current. On any failure the previous snapshot, if any, stays active and
// the returned error is a configuration or connectivity error.
//
// Replace blocks other writers for its whole duration but never blocks
// readers: in-flight operations keep using the snapshot they loaded.
func (g *Gateway) Replace(ctx context.Context, cfg filestore.Config) (err error) {
	defer g.track("replace")(&err)

	if err := cfg.Validate(); err != nil {
		return err
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	g.setState(StateValidating)
	defer g.settle()

	store, err := g.connect(ctx, &cfg)
	if err != nil {
		g.log.WarnWith("configuration rejected", err, map[string]interface{}{
			"endpoint": cfg.Endpoint,
			"bucket":   cfg.Bucket,
		})
		return err
	}

	fields := map[string]interface{}{
		"endpoint":         cfg.Endpoint,
		"bucket":           cfg.Bucket,
		"region":           cfg.Region,
		"addressing_style": string(cfg.AddressingStyle),
	}
	if prev, ok := g.activeConfig(); ok {
		fields["previous_endpoint"] = prev.Endpoint
		fields["previous_bucket"] = prev.Bucket
	}

	// The retired store is not closed: operations that loaded it before the
	// swap may still be using it.
	g.current.Store(&snapshot{cfg: cfg, store: store})

	g.log.InfoWith("configuration applied", fields)
	return nil
}

// Test runs the same validation and probe as Replace without changing any
// state. The probed connection is discarded.
func (g *Gateway) Test(ctx context.Context, cfg filestore.Config) (err error) {
	defer g.track("test")(&err)

	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := g.connect(ctx, &cfg)
	if err != nil {
		return err
	}
	_ = store.Close()
	return nil
}

// Bootstrap applies cfg as the startup configuration on a best-effort basis.
// Failures are logged and leave the gateway UNINITIALIZED; cfg is remembered
// so Current can still show what was attempted.
func (g *Gateway) Bootstrap(ctx context.Context, cfg filestore.Config) {
	g.defaults.Store(&cfg)

	if err := g.Replace(ctx, cfg); err != nil {
		g.log.WarnWith("bootstrap configuration not applied; waiting for a configuration update", err, map[string]interface{}{
			"endpoint": cfg.Endpoint,
		})
	}
}

// Current returns the active configuration with the secret masked. Before
// any configuration has been applied it returns the masked bootstrap
// configuration, or a NotInitialized error when there is none.
func (g *Gateway) Current() (filestore.Config, error) {
	if snap := g.current.Load(); snap != nil {
		return snap.cfg.Masked(), nil
	}
	if def := g.defaults.Load(); def != nil {
		return def.Masked(), nil
	}
	return filestore.Config{}, errs.New(errs.ErrKindNotInitialized, "object store is not configured")
}

// activeConfig returns the unmasked active configuration. Replace reads it
// to record what is being replaced; it never leaves the package.
func (g *Gateway) activeConfig() (filestore.Config, bool) {
	snap := g.current.Load()
	if snap == nil {
		return filestore.Config{}, false
	}
	return snap.cfg, true
}

// TestConnection probes the active connection.
func (g *Gateway) TestConnection(ctx context.Context) (err error) {
	defer g.track("test_connection")(&err)

	snap, err := g.acquire()
	if err != nil {
		return err
	}
	if err := snap.store.Ping(ctx); err != nil {
		return errs.Wrap(errs.ErrKindConnectivity, "connection test failed", err)
	}
	return nil
}

// connect builds a Store for cfg and probes it. The store is closed when
// the probe fails.
func (g *Gateway) connect(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
	store, err := g.dial(ctx, cfg)
	if err != nil {
		if errs.IsConfiguration(err) {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrKindConnectivity, "failed to create object store client", err)
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, errs.Wrap(errs.ErrKindConnectivity, "connectivity probe failed", err)
	}
	return store, nil
}

// settle moves the state out of VALIDATING once a write finishes.
func (g *Gateway) settle() {
	if g.current.Load() != nil {
		g.setState(StateActive)
		return
	}
	g.setState(StateUninitialized)
}
