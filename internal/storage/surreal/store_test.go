package surreal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcnabb/questfolio/internal/interfaces"
)

func TestRead_Empty(t *testing.T) {
	store := NewCredentialStoreWithDB(testDB(t), testLogger())

	_, err := store.Read(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrTokenNotFound))
}

func TestSeedAndRead(t *testing.T) {
	store := NewCredentialStoreWithDB(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, "tok-A"))

	token, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-A", token)
}

func TestSeed_Overwrites(t *testing.T) {
	store := NewCredentialStoreWithDB(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, "tok-A"))
	require.NoError(t, store.Seed(ctx, "tok-B"))

	token, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-B", token)
}

func TestSwap(t *testing.T) {
	store := NewCredentialStoreWithDB(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, "tok-A"))
	require.NoError(t, store.Swap(ctx, "tok-A", "tok-B"))

	token, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-B", token)
}

func TestSwap_Conflict(t *testing.T) {
	store := NewCredentialStoreWithDB(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, "tok-A"))

	err := store.Swap(ctx, "tok-stale", "tok-B")
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrTokenConflict))

	token, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-A", token)
}

func TestSwap_MissingRecord(t *testing.T) {
	store := NewCredentialStoreWithDB(testDB(t), testLogger())

	err := store.Swap(context.Background(), "tok-A", "tok-B")
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrTokenNotFound))
}
