package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hmebridge/internal/interfaces"
	"github.com/ternarybob/hmebridge/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// credentialsKey is the fixed key the whole credential collection lives
// under. Callers read the full set, mutate in memory, and write it back.
const credentialsKey = "credentials"

// credentialRecord is the single stored row: the serialized credential
// array plus update metadata.
type credentialRecord struct {
	Key       string
	Value     string // JSON array of models.Credential
	UpdatedAt time.Time
}

// CredentialStorage implements the CredentialStore interface for Badger
type CredentialStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCredentialStorage creates a new CredentialStorage instance
func NewCredentialStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CredentialStore {
	return &CredentialStorage{
		db:     db,
		logger: logger,
	}
}

// GetAll returns every stored credential. A missing record means nothing
// has been stored yet and yields an empty slice, not an error.
func (s *CredentialStorage) GetAll(ctx context.Context) ([]models.Credential, error) {
	var record credentialRecord
	err := s.db.Store().Get(credentialsKey, &record)
	if err == badgerhold.ErrNotFound {
		return []models.Credential{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	var creds []models.Credential
	if err := json.Unmarshal([]byte(record.Value), &creds); err != nil {
		return nil, fmt.Errorf("failed to parse stored credentials: %w", err)
	}
	if creds == nil {
		creds = []models.Credential{}
	}

	return creds, nil
}

// SaveAll replaces the stored collection. Concurrent writers race on the
// single record (last write wins); see the CredentialStore contract.
func (s *CredentialStorage) SaveAll(ctx context.Context, creds []models.Credential) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}

	record := credentialRecord{
		Key:       credentialsKey,
		Value:     string(data),
		UpdatedAt: time.Now(),
	}

	if err := s.db.Store().Upsert(credentialsKey, &record); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	s.logger.Debug().Int("count", len(creds)).Msg("Saved credential collection")
	return nil
}
