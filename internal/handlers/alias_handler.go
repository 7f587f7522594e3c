package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hmebridge/internal/models"
	"github.com/ternarybob/hmebridge/internal/services/alias"
	"github.com/ternarybob/hmebridge/internal/services/auth"
	"github.com/ternarybob/hmebridge/internal/services/icloud"
)

// Default note applied when the caller's payload omits one.
const defaultAliasNote = "Generated by Bitwarden."

// AliasService defines the methods needed from the alias service
type AliasService interface {
	CreateAlias(ctx context.Context, header http.Header, note string) (*models.Alias, error)
}

// AliasHandler handles alias-creation HTTP requests
type AliasHandler struct {
	aliasService AliasService
	logger       arbor.ILogger
}

// NewAliasHandler creates a new alias handler
func NewAliasHandler(aliasService AliasService, logger arbor.ILogger) *AliasHandler {
	return &AliasHandler{
		aliasService: aliasService,
		logger:       logger,
	}
}

// CreateAliasHandler handles POST /api/alias/random/new - reserves a new
// Hide My Email alias for the authenticated user
func (h *AliasHandler) CreateAliasHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.CreateAliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to parse alias request body")
		WriteError(w, http.StatusBadRequest, "Bad request")
		return
	}

	note := defaultAliasNote
	if req.Note != nil {
		note = *req.Note
	}

	result, err := h.aliasService.CreateAlias(r.Context(), r.Header, note)
	if err != nil {
		h.writeAliasError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// writeAliasError maps flow failures onto HTTP responses. Upstream error
// payloads are logged for diagnostics but never surfaced verbatim.
func (h *AliasHandler) writeAliasError(w http.ResponseWriter, err error) {
	var rejected *icloud.RejectedError

	switch {
	case errors.Is(err, auth.ErrAuthEmpty):
		WriteError(w, http.StatusUnauthorized, "Authentication header is empty")

	case errors.Is(err, auth.ErrAuthMissing):
		WriteError(w, http.StatusUnauthorized, "Authentication header is missing or invalid")

	case errors.Is(err, alias.ErrIncompleteCredential):
		h.logger.Warn().Msg("Resolved credential lacks required cookies")
		WriteError(w, http.StatusInternalServerError, "Required cookies not found in stored credential")

	case errors.Is(err, icloud.ErrServiceUnavailable):
		h.logger.Warn().Err(err).Msg("Session not entitled to the alias feature")
		WriteError(w, http.StatusInternalServerError, "Alias feature is unavailable for this session")

	case errors.As(err, &rejected):
		h.logger.Error().Str("step", rejected.Step).Str("payload", string(rejected.Payload)).Msg("Upstream rejected the alias flow")
		WriteError(w, http.StatusInternalServerError, "Upstream rejected the request")

	default:
		h.logger.Error().Err(err).Msg("Failed to create alias")
		WriteError(w, http.StatusInternalServerError, "Failed to create alias")
	}
}
