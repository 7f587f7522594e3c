package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hmebridge/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestStorage(t *testing.T) *CredentialStorage {
	t.Helper()

	options := badgerhold.DefaultOptions
	options.Dir = t.TempDir()
	options.ValueDir = options.Dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	db := &BadgerDB{store: store}
	return &CredentialStorage{db: db, logger: arbor.NewLogger()}
}

func TestGetAll_EmptyStore(t *testing.T) {
	storage := newTestStorage(t)

	creds, err := storage.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, creds)
	assert.Empty(t, creds)
}

func TestSaveAllGetAll_RoundTrip(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	want := []models.Credential{
		{Label: "phone", Token: "abc123", Cookie: `[{"name":"X-APPLE-WEBAUTH-USER","value":"u"}]`},
		{Label: "laptop", Token: "def456", Cookie: `[]`},
	}

	require.NoError(t, storage.SaveAll(ctx, want))

	got, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveAll_ReplacesCollection(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.SaveAll(ctx, []models.Credential{
		{Label: "a", Token: "tok1", Cookie: `[]`},
		{Label: "b", Token: "tok2", Cookie: `[]`},
	}))

	// Whole-collection write: the second save wins entirely
	require.NoError(t, storage.SaveAll(ctx, []models.Credential{
		{Label: "b", Token: "tok2", Cookie: `[]`},
	}))

	got, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tok2", got[0].Token)
}

func TestSaveAll_EmptyCollection(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.SaveAll(ctx, []models.Credential{
		{Label: "a", Token: "tok1", Cookie: `[]`},
	}))
	require.NoError(t, storage.SaveAll(ctx, []models.Credential{}))

	got, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
