package common

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewBridgeToken generates an opaque bridge token: 16 random bytes,
// hex-encoded. Issued once per credential and handed to the end user in
// place of their real iCloud session.
func NewBridgeToken() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(bytes)
}

// NewRequestID generates a correlation ID for request logging
// Format: req_<uuid>
func NewRequestID() string {
	return "req_" + uuid.New().String()
}
