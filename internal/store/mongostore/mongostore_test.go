package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/deppfellow/tareas/internal/model"
	"github.com/deppfellow/tareas/internal/store"
)

// setupTestStore connects to TEST_MONGO_URI and returns a store on a
// throwaway collection. The test is skipped when MongoDB is unreachable.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("Skipping test: TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("Skipping test: mongo not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("Skipping test: mongo ping failed: %v", err)
	}

	logger := zerolog.Nop()
	collection := "tareas_test_" + model.NewID()
	s := NewWithClient(client, "tareas_test", collection, &logger)

	t.Cleanup(func() {
		_ = s.collection.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	return s
}

func TestStore_SaveAndFind(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tarea := &model.Tarea{Description: "comprar pan", Status: model.StatusPendiente}
	require.NoError(t, s.Save(ctx, tarea))

	_, err := model.ParseID(tarea.ID)
	require.NoError(t, err)
	assert.False(t, tarea.CreatedAt.IsZero())

	found, err := s.FindByID(ctx, tarea.ID)
	require.NoError(t, err)
	assert.Equal(t, "comprar pan", found.Description)
	assert.Equal(t, model.StatusPendiente, found.Status)
	assert.Nil(t, found.Date)

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_FindByID_Missing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.FindByID(context.Background(), model.NewID())
	assert.ErrorIs(t, err, store.ErrNoDocument)
}

func TestStore_UpdateOne_PartialFields(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tarea := &model.Tarea{Description: "original", Status: model.StatusPendiente}
	require.NoError(t, s.Save(ctx, tarea))

	status := model.StatusEnProgreso
	date := time.Now().UTC().Truncate(time.Millisecond)
	matched, err := s.UpdateOne(ctx, tarea.ID, store.Update{Status: &status, Date: date})
	require.NoError(t, err)
	assert.True(t, matched)

	found, err := s.FindByID(ctx, tarea.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", found.Description)
	assert.Equal(t, model.StatusEnProgreso, found.Status)
	require.NotNil(t, found.Date)
	assert.True(t, date.Equal(*found.Date))

	matched, err = s.UpdateOne(ctx, model.NewID(), store.Update{Date: date})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestStore_RemoveAndLatest(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, store.ErrNoDocument)

	first := &model.Tarea{Description: "primera", Status: model.StatusPendiente}
	second := &model.Tarea{Description: "segunda", Status: model.StatusPendiente}
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	removed, err := s.Remove(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
