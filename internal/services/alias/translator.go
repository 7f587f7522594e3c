package alias

import (
	"time"

	"github.com/ternarybob/hmebridge/internal/models"
)

const (
	// fallbackForwardAddress stands in when the upstream record has no
	// forwarding address configured.
	fallbackForwardAddress = "forwarding-not-set@icloud.com"

	// syntheticID fills the numeric identifiers the alias-provider API
	// shape requires but iCloud does not expose.
	syntheticID = 1
)

// Translate maps a reserved upstream record into the external alias shape.
// Pure and deterministic: counters are zero, PGP flags false, activity
// absent, and the single mailbox is derived from the forwarding address.
func Translate(hme *models.ReservedAlias) models.Alias {
	email := hme.ForwardToEmail
	if email == "" {
		email = fallbackForwardAddress
	}
	mailbox := models.Mailbox{
		ID:    syntheticID,
		Email: email,
	}

	name := hme.Label
	note := hme.Note

	return models.Alias{
		ID:                syntheticID,
		Alias:             hme.Hme,
		Name:              &name,
		Enabled:           hme.IsActive,
		CreationTimestamp: hme.CreateTimestamp,
		CreationDate:      time.UnixMilli(hme.CreateTimestamp).UTC().Format(time.RFC3339),
		Note:              &note,
		Mailbox:           mailbox,
		Mailboxes:         []models.Mailbox{mailbox},
	}
}
