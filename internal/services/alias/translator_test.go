package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/hmebridge/internal/models"
)

func TestTranslate(t *testing.T) {
	reserved := &models.ReservedAlias{
		ForwardToEmail:  "me@example.com",
		Hme:             "shiny-otter@icloud.com",
		IsActive:        true,
		Label:           "Generated by hme_bridge",
		Note:            "test",
		CreateTimestamp: 1700000000000,
	}

	result := Translate(reserved)

	assert.Equal(t, 1, result.ID)
	assert.Equal(t, "shiny-otter@icloud.com", result.Alias)
	require.NotNil(t, result.Name)
	assert.Equal(t, "Generated by hme_bridge", *result.Name)
	assert.True(t, result.Enabled)
	assert.Equal(t, int64(1700000000000), result.CreationTimestamp)
	assert.Equal(t, "2023-11-14T22:13:20Z", result.CreationDate)
	require.NotNil(t, result.Note)
	assert.Equal(t, "test", *result.Note)

	// Counters and flags are fixed: the upstream exposes no activity data
	assert.Zero(t, result.NbBlock)
	assert.Zero(t, result.NbForward)
	assert.Zero(t, result.NbReply)
	assert.False(t, result.SupportPGP)
	assert.False(t, result.DisablePGP)
	assert.Nil(t, result.LatestActivity)
	assert.False(t, result.Pinned)

	require.Len(t, result.Mailboxes, 1)
	assert.Equal(t, models.Mailbox{ID: 1, Email: "me@example.com"}, result.Mailboxes[0])
	assert.Equal(t, result.Mailboxes[0], result.Mailbox)
}

func TestTranslate_MissingForwardAddress(t *testing.T) {
	reserved := &models.ReservedAlias{
		Hme:             "plain-fox@icloud.com",
		CreateTimestamp: 1700000000000,
	}

	result := Translate(reserved)

	require.Len(t, result.Mailboxes, 1)
	assert.Equal(t, "forwarding-not-set@icloud.com", result.Mailboxes[0].Email)
}
