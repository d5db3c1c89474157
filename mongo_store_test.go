package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoStoreRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	store, err := openMongoStore(ctx, Config{MongoURI: uri, MongoDatabase: "presidential_sim_test"})
	require.NoError(t, err)
	defer store.Close()

	user := "test-" + uuid.NewString()
	defer store.Delete(ctx, user)

	e := playToGoverning(t)
	id1, err := store.Save(ctx, user, e.Snapshot())
	require.NoError(t, err)
	id2, err := store.Save(ctx, user, e.Snapshot())
	require.NoError(t, err)
	assert.NotEmpty(t, id1)
	assert.Equal(t, id1, id2)

	loaded, found, err := LoadGame(ctx, store, e.Content(), user)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, e.State(), loaded.State())

	n, err := store.PurgeStale(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, store.Delete(ctx, user))
	snap, err := store.Load(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, snap)
}
