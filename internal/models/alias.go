package models

// ReservedAlias is the record iCloud returns from the reserve step.
// ForwardToEmail may be empty when the account has no forwarding address
// configured. CreateTimestamp is epoch milliseconds.
type ReservedAlias struct {
	ForwardToEmail  string `json:"forwardToEmail"`
	Hme             string `json:"hme"`
	IsActive        bool   `json:"isActive"`
	Label           string `json:"label"`
	Note            string `json:"note"`
	CreateTimestamp int64  `json:"createTimestamp"`
}

// CreateAliasRequest is the inbound alias-creation payload. Note is
// optional; a missing note gets a default supplied by the handler.
type CreateAliasRequest struct {
	Note *string `json:"note"`
}

// Alias is the external-facing alias shape expected by SimpleLogin-style
// API consumers (Bitwarden and friends). iCloud does not expose numeric
// identifiers, so IDs are synthetic placeholders and the activity counters
// are always zero.
type Alias struct {
	ID                int       `json:"id"`
	Alias             string    `json:"alias"`
	Name              *string   `json:"name"`
	Enabled           bool      `json:"enabled"`
	CreationTimestamp int64     `json:"creation_timestamp"`
	CreationDate      string    `json:"creation_date"`
	Note              *string   `json:"note"`
	NbBlock           int       `json:"nb_block"`
	NbForward         int       `json:"nb_forward"`
	NbReply           int       `json:"nb_reply"`
	SupportPGP        bool      `json:"support_pgp"`
	DisablePGP        bool      `json:"disable_pgp"`
	Mailbox           Mailbox   `json:"mailbox"`
	Mailboxes         []Mailbox `json:"mailboxes"`
	LatestActivity    *Activity `json:"latest_activity"`
	Pinned            bool      `json:"pinned"`
}

// Mailbox is the destination mailbox entry embedded in an Alias.
type Mailbox struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// Activity describes the latest alias activity. The bridge never has
// activity data, so this only exists to keep the response shape complete.
type Activity struct {
	Action    string  `json:"action"`
	Timestamp int64   `json:"timestamp"`
	Contact   Contact `json:"contact"`
}

// Contact is the remote party of an Activity entry.
type Contact struct {
	Email        string  `json:"email"`
	Name         *string `json:"name"`
	ReverseAlias string  `json:"reverse_alias"`
}
