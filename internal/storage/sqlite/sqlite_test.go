package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/storage/sqlite"
)

func TestNewStore(t *testing.T) {
	t.Run("missing db path should fail", func(t *testing.T) {
		store, err := sqlite.NewStore(context.Background(), sqlite.StoreConfig{})
		require.Error(t, err)
		require.Nil(t, store)
	})

	t.Run("a valid path should create the database and run migrations", func(t *testing.T) {
		store, err := sqlite.NewStore(context.Background(), sqlite.StoreConfig{
			DBPath: filepath.Join(t.TempDir(), "emailgen.db"),
		})
		require.NoError(t, err)
		defer store.Close()

		records, err := store.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	store, err := sqlite.NewStore(ctx, sqlite.StoreConfig{
		DBPath: filepath.Join(t.TempDir(), "emailgen.db"),
	})
	require.NoError(t, err)
	defer store.Close()

	rec1 := model.RecoveryRecord{
		ID:        "01JF3V7PZD6YT1C7QH2M0X9KWB",
		Prompt:    "A welcome email",
		OwnerID:   "user-1",
		CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
	rec2 := model.RecoveryRecord{
		ID:        "01JF3V7PZD6YT1C7QH2M0X9KWC",
		Prompt:    "A newsletter",
		OwnerID:   "user-2",
		ProjectID: "project-42",
		CreatedAt: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	}

	t.Run("putting a record without ID fails", func(t *testing.T) {
		err := store.Put(ctx, model.RecoveryRecord{Prompt: "no id"})
		require.ErrorIs(t, err, model.ErrNotValid)
	})

	t.Run("stored records survive a store reopen and list ordered by creation time", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, rec1))
		require.NoError(t, store.Put(ctx, rec2))

		records, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.RecoveryRecord{rec2, rec1}, records)
	})

	t.Run("putting a record with an existing ID replaces it", func(t *testing.T) {
		updated := rec1
		updated.Prompt = "A welcome email, shorter"
		require.NoError(t, store.Put(ctx, updated))

		records, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.RecoveryRecord{rec2, updated}, records)
	})

	t.Run("deleted records disappear from listing", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, rec2.ID))
		require.NoError(t, store.Delete(ctx, rec1.ID))

		records, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("deleting a missing record is not an error", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "missing"))
	})
}
