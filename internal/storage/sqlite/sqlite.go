package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/log"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/storage/sqlite/migrations"
)

// StoreConfig is the configuration for the SQLite recovery store.
type StoreConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *StoreConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Store is a SQLite implementation of storage.RecoveryStore. It is the
// durable, process-outliving side of the subsystem: a record present here at
// start means a previous session was interrupted with the generation in
// flight.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// NewStore creates a new SQLite recovery store, running pending migrations.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite recovery store initialized at %s", cfg.DBPath)

	return &Store{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Put stores a recovery record, replacing any previous one with the same ID.
func (s *Store) Put(ctx context.Context, r model.RecoveryRecord) error {
	if r.ID == "" {
		return fmt.Errorf("record id is required: %w", model.ErrNotValid)
	}

	query := `
		INSERT INTO recovery_records (id, prompt, owner_id, project_ref, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			prompt = excluded.prompt,
			owner_id = excluded.owner_id,
			project_ref = excluded.project_ref,
			created_at = excluded.created_at
	`

	_, err := s.db.ExecContext(ctx, query, r.ID, r.Prompt, r.OwnerID, r.ProjectID, r.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("could not insert recovery record: %w", err)
	}

	s.logger.Debugf("Stored recovery record: %s", r.ID)
	return nil
}

// Delete removes a recovery record. Deleting a missing record is not an
// error, terminal transitions and cancellation may race on clearing it.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recovery_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete recovery record: %w", err)
	}

	s.logger.Debugf("Deleted recovery record: %s", id)
	return nil
}

// List returns all recovery records ordered by creation time.
func (s *Store) List(ctx context.Context) ([]model.RecoveryRecord, error) {
	query := `
		SELECT id, prompt, owner_id, project_ref, created_at
		FROM recovery_records
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query recovery records: %w", err)
	}
	defer rows.Close()

	var records []model.RecoveryRecord
	for rows.Next() {
		var r model.RecoveryRecord
		var createdAt int64

		err := rows.Scan(&r.ID, &r.Prompt, &r.OwnerID, &r.ProjectID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}

		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
