package alias

import (
	"context"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hmebridge/internal/models"
	"github.com/ternarybob/hmebridge/internal/services/auth"
	"github.com/ternarybob/hmebridge/internal/services/icloud"
)

// ErrIncompleteCredential means auth resolved to a credential whose cookie
// blob lacks the required cookie names. Distinct from "no credential at
// all": the stored data is misconfigured, not the request.
var ErrIncompleteCredential = errors.New("required cookies not found in stored credential")

// Label applied to every alias the bridge reserves.
const aliasLabel = "Generated by hme_bridge"

// UpstreamClient is the slice of the icloud client this service needs.
type UpstreamClient interface {
	CreateAlias(ctx context.Context, cookieHeader, label, note string) (*models.ReservedAlias, error)
}

// Service runs the full create-alias flow: resolve the request's auth
// material into a cookie header, execute the upstream handshake, and
// translate the result into the external alias shape.
type Service struct {
	resolver *auth.Resolver
	client   UpstreamClient
	logger   arbor.ILogger
}

// NewService creates the alias service.
func NewService(resolver *auth.Resolver, client UpstreamClient, logger arbor.ILogger) *Service {
	return &Service{
		resolver: resolver,
		client:   client,
		logger:   logger,
	}
}

// CreateAlias reserves a brand-new alias for the request's user. Never
// idempotent: every call mints a fresh alias upstream.
func (s *Service) CreateAlias(ctx context.Context, header http.Header, note string) (*models.Alias, error) {
	cookieHeader, err := s.resolver.Resolve(ctx, header)
	if err != nil {
		return nil, err
	}
	if cookieHeader == "" {
		return nil, ErrIncompleteCredential
	}

	reserved, err := s.client.CreateAlias(ctx, cookieHeader, aliasLabel, note)
	if err != nil {
		return nil, err
	}

	result := Translate(reserved)
	s.logger.Info().Str("alias", result.Alias).Msg("Alias created")
	return &result, nil
}

var _ UpstreamClient = (*icloud.Client)(nil)
