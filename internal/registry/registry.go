package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/log"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/storage"
)

const (
	// DefaultMaxConcurrent is the default ceiling of concurrent generations.
	DefaultMaxConcurrent = 3
	// DefaultCompletedTTL is the default grace period a completed generation
	// stays visible before it is removed automatically.
	DefaultCompletedTTL = 5 * time.Second
)

// Snapshot is an immutable copy of the registry state, keyed by generation ID.
type Snapshot map[string]model.Generation

// Subscriber receives a snapshot after every registry mutation.
type Subscriber func(Snapshot)

// Config is the configuration for the registry.
type Config struct {
	RecoveryStore storage.RecoveryStore
	// MaxConcurrent is the admission ceiling of generations in flight.
	MaxConcurrent int
	// CompletedTTL is how long a completed generation stays in the registry
	// before automatic removal.
	CompletedTTL time.Duration
	Logger       log.Logger
}

func (c *Config) defaults() error {
	if c.RecoveryStore == nil {
		return fmt.Errorf("recovery store is required")
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("max concurrent must be positive")
	}
	if c.CompletedTTL == 0 {
		c.CompletedTTL = DefaultCompletedTTL
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "registry.Registry"})
	return nil
}

// Registry is the single in-memory source of truth for all generations. It
// owns the admission ceiling, applies stream-driven lifecycle transitions,
// keeps the recovery store in sync with them, and publishes a snapshot to
// subscribers after every mutation.
//
// Subscribers are called synchronously with the registry locked: they must
// not call back into the registry, only read the snapshot they receive.
type Registry struct {
	generations map[string]model.Generation
	subscribers map[int]Subscriber
	nextSubID   int
	mu          sync.Mutex

	store  storage.RecoveryStore
	max    int
	ttl    time.Duration
	logger log.Logger
}

// New creates a new registry.
func New(cfg Config) (*Registry, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Registry{
		generations: map[string]model.Generation{},
		subscribers: map[int]Subscriber{},
		store:       cfg.RecoveryStore,
		max:         cfg.MaxConcurrent,
		ttl:         cfg.CompletedTTL,
		logger:      cfg.Logger,
	}, nil
}

// Admit accepts a new generation subject to the concurrency ceiling. On
// success the generation enters the registry as generating/validating and
// its recovery record is written. Admission failure has no side effects.
func (r *Registry) Admit(ctx context.Context, req model.GenerationRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if req.ID == "" {
		return fmt.Errorf("generation id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.generations[req.ID]; ok {
		return fmt.Errorf("generation %s: %w", req.ID, model.ErrAlreadyExists)
	}

	if r.generatingLocked() >= r.max {
		return fmt.Errorf("%d generations already in flight: %w", r.max, model.ErrCapacityExceeded)
	}

	g := model.Generation{
		ID:        req.ID,
		Prompt:    req.Prompt,
		OwnerID:   req.OwnerID,
		ProjectID: req.ProjectID,
		UIHandle:  req.UIHandle,
		Status:    model.GenerationStatusGenerating,
		Step:      model.GenerationStepValidating,
		CreatedAt: time.Now().UTC(),
	}

	// The breadcrumb goes first: if it can't be written the generation is
	// not admitted, so a crash can never leave an untracked stream behind.
	err := r.store.Put(ctx, model.RecoveryRecord{
		ID:        g.ID,
		Prompt:    g.Prompt,
		OwnerID:   g.OwnerID,
		ProjectID: g.ProjectID,
		CreatedAt: g.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("could not store recovery record: %w", err)
	}

	r.generations[g.ID] = g
	r.logger.Debugf("Admitted generation %s (%d/%d in flight)", g.ID, r.generatingLocked(), r.max)
	r.notifyLocked()

	return nil
}

// AttachCancel stores the transport abort handle on a generating
// generation. If the generation is gone or terminal the handle is invoked
// immediately so the transport doesn't leak.
func (r *Registry) AttachCancel(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.generations[id]
	if !ok || g.IsTerminal() {
		cancel()
		return
	}

	g.Cancel = cancel
	r.generations[id] = g
}

// ApplyProgress updates the step and message of a generating generation.
// Unknown IDs and terminal generations are ignored, progress frames can
// arrive late after cancellation or a terminal record.
func (r *Registry) ApplyProgress(id string, step model.GenerationStep, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.generations[id]
	if !ok || g.IsTerminal() {
		return
	}

	g.Step = step
	g.Message = message
	r.generations[id] = g
	r.notifyLocked()
}

// ApplySuccess transitions a generation to completed, clears its recovery
// record and schedules its automatic removal after the grace period.
func (r *Registry) ApplySuccess(ctx context.Context, id string, template model.Template) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.generations[id]
	if !ok || g.IsTerminal() {
		return
	}

	g.Status = model.GenerationStatusCompleted
	g.Step = model.GenerationStepCompleted
	g.Message = fmt.Sprintf("Template %q generated", template.Name)
	g.ErrorDetail = ""
	g.Cancel = nil
	r.generations[id] = g

	if err := r.store.Delete(ctx, id); err != nil {
		r.logger.Warningf("Could not clear recovery record for %s: %s", id, err)
	}

	// The generation stays visible for a grace period so the UI can show
	// the completion before it disappears from transient views.
	createdAt := g.CreatedAt
	time.AfterFunc(r.ttl, func() { r.expireCompleted(id, createdAt) })

	r.logger.Infof("Generation %s completed", id)
	r.notifyLocked()
}

// ApplyError transitions a generation to error and clears its recovery
// record. The generation stays in the registry until explicitly removed.
func (r *Registry) ApplyError(ctx context.Context, id string, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.generations[id]
	if !ok || g.IsTerminal() {
		return
	}

	g.Status = model.GenerationStatusError
	g.Step = model.GenerationStepError
	g.ErrorDetail = detail
	g.Cancel = nil
	r.generations[id] = g

	if err := r.store.Delete(ctx, id); err != nil {
		r.logger.Warningf("Could not clear recovery record for %s: %s", id, err)
	}

	r.logger.Warningf("Generation %s failed: %s", id, detail)
	r.notifyLocked()
}

// Cancel aborts a generating generation: it invokes the transport abort
// handle, removes the generation and clears its recovery record.
// Cancellation is not a terminal status, the generation disappears instead
// of showing an error.
func (r *Registry) Cancel(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.generations[id]
	if !ok {
		return fmt.Errorf("generation %s: %w", id, model.ErrNotFound)
	}

	if g.Status == model.GenerationStatusGenerating {
		if g.Cancel != nil {
			g.Cancel()
		}
		if err := r.store.Delete(ctx, id); err != nil {
			r.logger.Warningf("Could not clear recovery record for %s: %s", id, err)
		}
	}

	delete(r.generations, id)
	r.logger.Infof("Cancelled generation %s", id)
	r.notifyLocked()

	return nil
}

// Remove dismisses a terminal generation from the registry. Generating ones
// must be cancelled instead.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.generations[id]
	if !ok {
		return fmt.Errorf("generation %s: %w", id, model.ErrNotFound)
	}
	if !g.IsTerminal() {
		return fmt.Errorf("generation %s is still in flight: %w", id, model.ErrNotValid)
	}

	delete(r.generations, id)
	r.logger.Debugf("Removed generation %s", id)
	r.notifyLocked()

	return nil
}

// Get returns a copy of a generation.
func (r *Registry) Get(id string) (*model.Generation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.generations[id]
	if !ok {
		return nil, fmt.Errorf("generation %s: %w", id, model.ErrNotFound)
	}

	return &g, nil
}

// Count returns the number of generations currently generating.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.generatingLocked()
}

// CanAdmit returns true when a new generation would be admitted.
func (r *Registry) CanAdmit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.generatingLocked() < r.max
}

// Snapshot returns a copy of the full registry state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked()
}

// Subscribe registers a subscriber that receives a snapshot after every
// mutation, starting with the current state. The returned function
// unsubscribes it.
func (r *Registry) Subscribe(s Subscriber) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = s

	s(r.snapshotLocked())

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subscribers, id)
	}
}

// expireCompleted removes a generation once its completion grace period is
// over. The creation timestamp guards against removing a reused ID.
func (r *Registry) expireCompleted(id string, createdAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.generations[id]
	if !ok || g.Status != model.GenerationStatusCompleted || !g.CreatedAt.Equal(createdAt) {
		return
	}

	delete(r.generations, id)
	r.logger.Debugf("Expired completed generation %s", id)
	r.notifyLocked()
}

func (r *Registry) generatingLocked() int {
	count := 0
	for _, g := range r.generations {
		if g.Status == model.GenerationStatusGenerating {
			count++
		}
	}
	return count
}

func (r *Registry) snapshotLocked() Snapshot {
	snapshot := make(Snapshot, len(r.generations))
	for id, g := range r.generations {
		snapshot[id] = g
	}
	return snapshot
}

func (r *Registry) notifyLocked() {
	if len(r.subscribers) == 0 {
		return
	}

	snapshot := r.snapshotLocked()
	for _, s := range r.subscribers {
		s(snapshot)
	}
}
