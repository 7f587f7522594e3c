package models

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// Credential is one user's registration with the bridge: a human-readable
// label, the opaque bridge token callers present instead of their real
// iCloud session, and the stored session material. Token is unique across
// all stored credentials.
type Credential struct {
	Label string `json:"label"`
	Token string `json:"token"`
	// Cookie is an opaque serialized blob: a JSON array of CookiePair.
	Cookie string `json:"cookie"`
}

// CookiePair is a single named upstream session cookie.
type CookiePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CredentialRequest is the admin payload for creating or updating a
// credential. Cookie is kept as raw JSON and re-serialized on store so the
// admin can paste whatever the browser exported.
type CredentialRequest struct {
	Label  string          `json:"label" validate:"required"`
	Cookie json.RawMessage `json:"cookie" validate:"required"`
}

// Validate validates the request using go-playground/validator tags.
func (r *CredentialRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
