package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hmebridge/internal/models"
	"github.com/ternarybob/hmebridge/internal/services/credentials"
)

// adminTokenHeader carries the shared admin secret. Separate channel from
// end-user alias-creation auth.
const adminTokenHeader = "X-Admin-Token"

// CredentialService defines the methods needed from the credentials service
type CredentialService interface {
	List(ctx context.Context) ([]models.Credential, error)
	Create(ctx context.Context, label string, cookie json.RawMessage) (*models.Credential, error)
	Update(ctx context.Context, token, label string, cookie json.RawMessage) (*models.Credential, error)
	Delete(ctx context.Context, token string) error
}

// CredentialHandler handles credential administration HTTP requests
type CredentialHandler struct {
	credentialService CredentialService
	adminToken        string
	logger            arbor.ILogger
}

// NewCredentialHandler creates a new credential admin handler
func NewCredentialHandler(credentialService CredentialService, adminToken string, logger arbor.ILogger) *CredentialHandler {
	return &CredentialHandler{
		credentialService: credentialService,
		adminToken:        adminToken,
		logger:            logger,
	}
}

// requireAdmin checks the shared admin secret. Returns true when the
// request may proceed, false otherwise (and writes the error response).
func (h *CredentialHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if h.adminToken == "" {
		h.logger.Error().Msg("Admin token is not configured")
		WriteError(w, http.StatusInternalServerError, "Admin token not configured")
		return false
	}

	token := r.Header.Get(adminTokenHeader)
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "X-Admin-Token header is missing")
		return false
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		h.logger.Warn().Str("remote", r.RemoteAddr).Msg("Rejected admin request with bad token")
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}

	return true
}

// ListCredentialsHandler handles GET /admin/credentials
func (h *CredentialHandler) ListCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	creds, err := h.credentialService.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list credentials")
		WriteError(w, http.StatusInternalServerError, "Failed to list credentials")
		return
	}

	h.logger.Debug().Int("count", len(creds)).Msg("Listed credentials")
	WriteJSON(w, http.StatusOK, creds)
}

// CreateCredentialHandler handles POST /admin/credentials
func (h *CredentialHandler) CreateCredentialHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req models.CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to parse credential request body")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, "Label and cookie are required")
		return
	}

	cred, err := h.credentialService.Create(r.Context(), req.Label, req.Cookie)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create credential")
		WriteError(w, http.StatusInternalServerError, "Failed to create credential")
		return
	}

	WriteJSON(w, http.StatusOK, cred)
}

// UpdateCredentialHandler handles PUT /admin/credentials/{token}
func (h *CredentialHandler) UpdateCredentialHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	token := h.tokenFromPath(w, r)
	if token == "" {
		return
	}

	var req models.CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to parse credential request body")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, "Label and cookie are required")
		return
	}

	cred, err := h.credentialService.Update(r.Context(), token, req.Label, req.Cookie)
	if err != nil {
		if errors.Is(err, credentials.ErrCredentialNotFound) {
			WriteError(w, http.StatusNotFound, "Token not found")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to update credential")
		WriteError(w, http.StatusInternalServerError, "Failed to update credential")
		return
	}

	WriteJSON(w, http.StatusOK, cred)
}

// DeleteCredentialHandler handles DELETE /admin/credentials/{token}
func (h *CredentialHandler) DeleteCredentialHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	token := h.tokenFromPath(w, r)
	if token == "" {
		return
	}

	if err := h.credentialService.Delete(r.Context(), token); err != nil {
		if errors.Is(err, credentials.ErrCredentialNotFound) {
			WriteError(w, http.StatusNotFound, "Token not found")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to delete credential")
		WriteError(w, http.StatusInternalServerError, "Failed to delete credential")
		return
	}

	WriteSuccess(w, "Credential deleted")
}

// tokenFromPath extracts the bridge token from /admin/credentials/{token}.
// Writes a 400 and returns "" when the path segment is missing.
func (h *CredentialHandler) tokenFromPath(w http.ResponseWriter, r *http.Request) string {
	token := strings.TrimPrefix(r.URL.Path, "/admin/credentials/")
	if token == "" || strings.Contains(token, "/") {
		WriteError(w, http.StatusBadRequest, "Missing token parameter")
		return ""
	}
	return token
}
