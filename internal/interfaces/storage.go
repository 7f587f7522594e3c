package interfaces

import (
	"context"

	"github.com/ternarybob/hmebridge/internal/models"
)

// CredentialStore is the durable mapping from bridge token to stored iCloud
// session material. The whole collection lives under one key: callers read
// the full set, mutate in memory, and write the full set back. Concurrent
// writers can lose an update (last write wins) - accepted limitation of the
// single-key layout, not something this layer papers over.
type CredentialStore interface {
	// GetAll returns every stored credential. An empty store yields an
	// empty slice, never a not-found error.
	GetAll(ctx context.Context) ([]models.Credential, error)

	// SaveAll replaces the stored collection with the given credentials.
	SaveAll(ctx context.Context, creds []models.Credential) error
}
