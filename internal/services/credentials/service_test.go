package credentials

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hmebridge/internal/models"
)

// mockCredentialStore implements interfaces.CredentialStore for testing
type mockCredentialStore struct {
	creds []models.Credential
}

func (m *mockCredentialStore) GetAll(ctx context.Context) ([]models.Credential, error) {
	return m.creds, nil
}

func (m *mockCredentialStore) SaveAll(ctx context.Context, creds []models.Credential) error {
	m.creds = creds
	return nil
}

func newTestService(store *mockCredentialStore) *Service {
	return NewService(store, arbor.NewLogger())
}

func TestCreate(t *testing.T) {
	store := &mockCredentialStore{}
	service := newTestService(store)

	cookie := json.RawMessage(`[
		{"name": "X-APPLE-WEBAUTH-USER", "value": "u1"}
	]`)

	cred, err := service.Create(context.Background(), "my iphone", cookie)
	require.NoError(t, err)

	assert.Equal(t, "my iphone", cred.Label)
	assert.Len(t, cred.Token, 32, "token is 16 random bytes hex-encoded")
	assert.Equal(t, `[{"name":"X-APPLE-WEBAUTH-USER","value":"u1"}]`, cred.Cookie, "cookie blob is compacted")

	require.Len(t, store.creds, 1)
	assert.Equal(t, *cred, store.creds[0])
}

func TestCreate_TokensAreUnique(t *testing.T) {
	store := &mockCredentialStore{}
	service := newTestService(store)

	first, err := service.Create(context.Background(), "a", json.RawMessage(`[]`))
	require.NoError(t, err)
	second, err := service.Create(context.Background(), "b", json.RawMessage(`[]`))
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.Len(t, store.creds, 2)
}

func TestCreate_InvalidCookieJSON(t *testing.T) {
	service := newTestService(&mockCredentialStore{})

	_, err := service.Create(context.Background(), "bad", json.RawMessage(`{broken`))
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	store := &mockCredentialStore{creds: []models.Credential{
		{Label: "old", Token: "tok1", Cookie: `[]`},
		{Label: "keep", Token: "tok2", Cookie: `[]`},
	}}
	service := newTestService(store)

	cred, err := service.Update(context.Background(), "tok1", "new", json.RawMessage(`[{"name":"a","value":"b"}]`))
	require.NoError(t, err)

	assert.Equal(t, "new", cred.Label)
	assert.Equal(t, "tok1", cred.Token, "token survives updates")
	assert.Equal(t, `[{"name":"a","value":"b"}]`, cred.Cookie)

	assert.Equal(t, "keep", store.creds[1].Label)
}

func TestUpdate_UnknownToken(t *testing.T) {
	service := newTestService(&mockCredentialStore{})

	_, err := service.Update(context.Background(), "missing", "label", json.RawMessage(`[]`))
	assert.ErrorIs(t, err, ErrCredentialNotFound)
}

func TestDelete(t *testing.T) {
	store := &mockCredentialStore{creds: []models.Credential{
		{Label: "a", Token: "tok1", Cookie: `[]`},
		{Label: "b", Token: "tok2", Cookie: `[]`},
	}}
	service := newTestService(store)

	err := service.Delete(context.Background(), "tok1")
	require.NoError(t, err)

	require.Len(t, store.creds, 1)
	assert.Equal(t, "tok2", store.creds[0].Token)
}

func TestDelete_UnknownToken(t *testing.T) {
	store := &mockCredentialStore{creds: []models.Credential{
		{Label: "a", Token: "tok1", Cookie: `[]`},
	}}
	service := newTestService(store)

	err := service.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
	assert.Len(t, store.creds, 1)
}
