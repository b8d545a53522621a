package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/log"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
)

// StoreConfig is the configuration for the memory recovery store.
type StoreConfig struct {
	Logger log.Logger
}

func (c *StoreConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Store is an in-memory implementation of storage.RecoveryStore. It does not
// outlive the process, so it is only useful for tests and for running the
// orchestration without durable recovery.
type Store struct {
	records map[string]model.RecoveryRecord
	mu      sync.RWMutex
	logger  log.Logger
}

// NewStore creates a new memory recovery store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Store{
		records: make(map[string]model.RecoveryRecord),
		logger:  cfg.Logger,
	}, nil
}

// Put stores a recovery record, replacing any previous one with the same ID.
func (s *Store) Put(ctx context.Context, r model.RecoveryRecord) error {
	if r.ID == "" {
		return fmt.Errorf("record id is required: %w", model.ErrNotValid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[r.ID] = r
	s.logger.Debugf("Stored recovery record: %s", r.ID)

	return nil
}

// Delete removes a recovery record. Deleting a missing record is not an
// error, terminal transitions and cancellation may race on clearing it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	s.logger.Debugf("Deleted recovery record: %s", id)

	return nil
}

// List returns all recovery records ordered by creation time.
func (s *Store) List(ctx context.Context) ([]model.RecoveryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.RecoveryRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })

	return records, nil
}
