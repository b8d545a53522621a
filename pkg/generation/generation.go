package generation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/backend"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/conventions"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/log"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/orchestrator"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/registry"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/storage"
	storagememory "github.com/jananxd/AIEmailTemplate-Web-sub000/internal/storage/memory"
	storagesqlite "github.com/jananxd/AIEmailTemplate-Web-sub000/internal/storage/sqlite"
)

// Exposed domain types, so embedding applications don't reach into internal
// packages.
type (
	// Generation is one tracked generation job.
	Generation = model.Generation
	// Request is the immutable set of parameters for a new generation.
	Request = model.GenerationRequest
	// Snapshot is an immutable copy of the registry state.
	Snapshot = registry.Snapshot
	// RecoveryResult summarizes a recovery reconciliation pass.
	RecoveryResult = orchestrator.RecoveryResult
)

// Sentinel errors surfaced by the SDK.
var (
	ErrNotFound         = model.ErrNotFound
	ErrNotValid         = model.ErrNotValid
	ErrCapacityExceeded = model.ErrCapacityExceeded
)

// Config configures the SDK client.
//
// All fields except BackendURL are optional and have sensible defaults: an
// otherwise empty Config{} will use ~/.emailgen/emailgen.db for recovery
// persistence and allow three concurrent generations.
type Config struct {
	// BackendURL is the base URL of the generation service. Required.
	BackendURL string

	// DBPath is the SQLite database path for recovery records.
	// Default: ~/.emailgen/emailgen.db.
	DBPath string

	// Ephemeral disables durable recovery persistence, keeping the records
	// in memory. Interrupted sessions can't be reconciled in this mode.
	Ephemeral bool

	// MaxConcurrent is the ceiling of generations in flight.
	// Default: 3.
	MaxConcurrent int

	// CompletedTTL is how long a completed generation stays visible before
	// automatic removal. Default: 5s.
	CompletedTTL time.Duration

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend URL is required")
	}

	if c.DBPath == "" && !c.Ephemeral {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DBPath = conventions.DBPath(filepath.Join(home, conventions.DefaultDataDir))
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point for orchestrating generations.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	service  *orchestrator.Service
	registry *registry.Registry
	closeFn  func() error
}

// New creates a new SDK client.
//
// The caller must call [Client.Close] when done to release the database
// connection and wait for in-flight stream goroutines.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var store storage.RecoveryStore
	closeFn := func() error { return nil }
	if cfg.Ephemeral {
		memStore, err := storagememory.NewStore(storagememory.StoreConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create recovery store: %w", err)
		}
		store = memStore
	} else {
		sqlStore, err := storagesqlite.NewStore(ctx, storagesqlite.StoreConfig{
			DBPath: cfg.DBPath,
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create recovery store: %w", err)
		}
		store = sqlStore
		closeFn = sqlStore.Close
	}

	reg, err := registry.New(registry.Config{
		RecoveryStore: store,
		MaxConcurrent: cfg.MaxConcurrent,
		CompletedTTL:  cfg.CompletedTTL,
		Logger:        cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create registry: %w", err)
	}

	client, err := backend.NewHTTPClient(backend.HTTPClientConfig{
		BaseURL: cfg.BackendURL,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create backend client: %w", err)
	}

	service, err := orchestrator.NewService(orchestrator.ServiceConfig{
		Registry:      reg,
		Backend:       client,
		RecoveryStore: store,
		Logger:        cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create orchestrator: %w", err)
	}

	return &Client{
		service:  service,
		registry: reg,
		closeFn:  closeFn,
	}, nil
}

// Start admits a new generation and begins streaming it in the background.
// It returns the generation ID, also the ID of the eventual template.
func (c *Client) Start(ctx context.Context, req Request) (string, error) {
	return c.service.Start(ctx, req)
}

// Cancel aborts a generating generation. It disappears from the registry
// instead of transitioning to an error.
func (c *Client) Cancel(ctx context.Context, id string) error {
	return c.service.Cancel(ctx, id)
}

// Remove dismisses a terminal generation from the registry.
func (c *Client) Remove(id string) error {
	return c.registry.Remove(id)
}

// Recover reconciles the recovery records of a previous interrupted session
// against the backend. Safe to call repeatedly, overlapping calls are no-ops.
func (c *Client) Recover(ctx context.Context) (*RecoveryResult, error) {
	return c.service.Recover(ctx)
}

// Subscribe registers a subscriber that receives a snapshot after every
// registry mutation, starting with the current state. The returned function
// unsubscribes it. Subscribers must not call back into the client.
func (c *Client) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return c.registry.Subscribe(fn)
}

// Snapshot returns a copy of the full registry state.
func (c *Client) Snapshot() Snapshot {
	return c.registry.Snapshot()
}

// Count returns the number of generations currently in flight.
func (c *Client) Count() int {
	return c.registry.Count()
}

// CanAdmit returns true when a new generation would be admitted.
func (c *Client) CanAdmit() bool {
	return c.registry.CanAdmit()
}

// Close waits for in-flight stream goroutines and releases the database
// connection. It does not cancel running generations.
func (c *Client) Close() error {
	c.service.Wait()
	return c.closeFn()
}
