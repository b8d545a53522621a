package generation_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/backend/fake"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/storage/sqlite"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/pkg/generation"
)

func newFakeBackend(t *testing.T) (*fake.Server, *httptest.Server) {
	t.Helper()

	fakeBackend, err := fake.NewServer(fake.ServerConfig{StepDelay: time.Millisecond})
	require.NoError(t, err)

	server := httptest.NewServer(fakeBackend)
	t.Cleanup(server.Close)

	return fakeBackend, server
}

func TestNew(t *testing.T) {
	t.Run("missing backend URL should fail", func(t *testing.T) {
		client, err := generation.New(context.Background(), generation.Config{})
		require.Error(t, err)
		require.Nil(t, client)
	})
}

func TestClientLifecycle(t *testing.T) {
	ctx := context.Background()
	_, server := newFakeBackend(t)

	client, err := generation.New(ctx, generation.Config{
		BackendURL:   server.URL,
		Ephemeral:    true,
		CompletedTTL: time.Hour,
	})
	require.NoError(t, err)
	defer client.Close()

	id, err := client.Start(ctx, generation.Request{
		Prompt:  "A welcome email for new customers",
		OwnerID: "user-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		g, ok := client.Snapshot()[id]
		return ok && g.Status == model.GenerationStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, client.Count())
	assert.True(t, client.CanAdmit())
}

func TestClientRecovery(t *testing.T) {
	ctx := context.Background()
	fakeBackend, server := newFakeBackend(t)
	dbPath := filepath.Join(t.TempDir(), "emailgen.db")

	// A crashed session leaves the recovery records of its in-flight
	// generations behind. Only gen-done made it to the backend.
	store, err := sqlite.NewStore(ctx, sqlite.StoreConfig{DBPath: dbPath})
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, store.Put(ctx, model.RecoveryRecord{ID: "gen-done", Prompt: "A welcome email", OwnerID: "user-1", CreatedAt: now}))
	require.NoError(t, store.Put(ctx, model.RecoveryRecord{ID: "gen-lost", Prompt: "A newsletter", OwnerID: "user-1", CreatedAt: now}))
	require.NoError(t, store.Close())

	fakeBackend.SeedTemplate(model.Template{ID: "gen-done", Name: "Welcome"})

	client, err := generation.New(ctx, generation.Config{BackendURL: server.URL, DBPath: dbPath})
	require.NoError(t, err)
	defer client.Close()

	result, err := client.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gen-done"}, result.Completed)
	assert.Equal(t, []string{"gen-lost"}, result.Lost)

	// Nothing is resurrected and a second pass finds nothing to do.
	assert.Empty(t, client.Snapshot())
	result, err = client.Recover(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Completed)
	assert.Empty(t, result.Lost)
}
