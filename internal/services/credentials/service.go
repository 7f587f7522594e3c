package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hmebridge/internal/common"
	"github.com/ternarybob/hmebridge/internal/interfaces"
	"github.com/ternarybob/hmebridge/internal/models"
)

// ErrCredentialNotFound is returned when no stored credential matches the
// given bridge token.
var ErrCredentialNotFound = errors.New("credential not found")

// Service manages the stored credential collection for the admin surface.
// Every mutation is read-all/mutate/write-all against the single-key store;
// two concurrent admin writers can lose an update (last write wins).
type Service struct {
	store  interfaces.CredentialStore
	logger arbor.ILogger
}

// NewService creates a new credential administration service.
func NewService(store interfaces.CredentialStore, logger arbor.ILogger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// List returns all stored credentials.
func (s *Service) List(ctx context.Context) ([]models.Credential, error) {
	return s.store.GetAll(ctx)
}

// Create stores a new credential with a freshly minted bridge token and
// returns it. The cookie payload is compacted before storage so the blob
// round-trips byte-stable.
func (s *Service) Create(ctx context.Context, label string, cookie json.RawMessage) (*models.Credential, error) {
	creds, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	blob, err := compactJSON(cookie)
	if err != nil {
		return nil, fmt.Errorf("invalid cookie payload: %w", err)
	}

	cred := models.Credential{
		Label:  label,
		Token:  common.NewBridgeToken(),
		Cookie: blob,
	}
	creds = append(creds, cred)

	if err := s.store.SaveAll(ctx, creds); err != nil {
		return nil, err
	}

	s.logger.Info().Str("label", cred.Label).Msg("Credential created")
	return &cred, nil
}

// Update replaces the label and cookie of the credential matching token.
func (s *Service) Update(ctx context.Context, token, label string, cookie json.RawMessage) (*models.Credential, error) {
	creds, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	blob, err := compactJSON(cookie)
	if err != nil {
		return nil, fmt.Errorf("invalid cookie payload: %w", err)
	}

	for i := range creds {
		if creds[i].Token != token {
			continue
		}
		creds[i].Label = label
		creds[i].Cookie = blob

		if err := s.store.SaveAll(ctx, creds); err != nil {
			return nil, err
		}

		s.logger.Info().Str("label", label).Msg("Credential updated")
		updated := creds[i]
		return &updated, nil
	}

	return nil, ErrCredentialNotFound
}

// Delete removes the credential matching token.
func (s *Service) Delete(ctx context.Context, token string) error {
	creds, err := s.store.GetAll(ctx)
	if err != nil {
		return err
	}

	remaining := make([]models.Credential, 0, len(creds))
	for _, cred := range creds {
		if cred.Token != token {
			remaining = append(remaining, cred)
		}
	}

	if len(remaining) == len(creds) {
		return ErrCredentialNotFound
	}

	if err := s.store.SaveAll(ctx, remaining); err != nil {
		return err
	}

	s.logger.Info().Msg("Credential deleted")
	return nil
}

// compactJSON re-serializes arbitrary JSON without insignificant
// whitespace. Also validates that the payload is well-formed.
func compactJSON(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
