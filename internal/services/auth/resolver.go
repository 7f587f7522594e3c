package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hmebridge/internal/interfaces"
)

// The three cookies iCloud requires to authenticate a web-session call.
// Extra cookies in a stored blob are ignored.
var RequiredCookieNames = []string{
	"X-APPLE-DS-WEB-SESSION-TOKEN",
	"X-APPLE-WEBAUTH-TOKEN",
	"X-APPLE-WEBAUTH-USER",
}

var (
	// ErrAuthMissing means no auth source produced a cookie context.
	ErrAuthMissing = errors.New("authentication header is missing or invalid")

	// ErrAuthEmpty means the direct auth header was present but empty.
	// Distinct from absent: the caller clearly tried to authenticate.
	ErrAuthEmpty = errors.New("authentication header is empty")
)

// Source attempts to produce a resolved cookie header from one auth
// channel. ok=false means the source is not applicable and the next one
// should be tried; a non-nil error aborts the chain immediately.
type Source interface {
	Resolve(ctx context.Context, header http.Header) (cookie string, ok bool, err error)
}

// Resolver turns an inbound request's auth headers into a cookie header
// usable against iCloud, trying sources in a fixed priority order and
// short-circuiting on the first success.
type Resolver struct {
	sources []Source
	logger  arbor.ILogger
}

// NewResolver creates a resolver with the standard source chain:
// Authorization bearer token first, then the direct Authentication header.
func NewResolver(store interfaces.CredentialStore, logger arbor.ILogger) *Resolver {
	return &Resolver{
		sources: []Source{
			&bearerSource{store: store, logger: logger},
			&directHeaderSource{store: store, logger: logger},
		},
		logger: logger,
	}
}

// Resolve runs the source chain. The returned cookie header may be empty
// when a credential matched but lacked the required cookie names; deciding
// what that means is the caller's job.
func (r *Resolver) Resolve(ctx context.Context, header http.Header) (string, error) {
	for _, source := range r.sources {
		cookie, ok, err := source.Resolve(ctx, header)
		if err != nil {
			return "", err
		}
		if ok {
			return cookie, nil
		}
	}
	return "", ErrAuthMissing
}

// bearerSource resolves via "Authorization: Bearer <token>" looked up in
// the credential store. Every failure inside this path is a silent
// fallthrough - an unknown token or a malformed stored blob must not block
// the remaining sources.
type bearerSource struct {
	store  interfaces.CredentialStore
	logger arbor.ILogger
}

func (s *bearerSource) Resolve(ctx context.Context, header http.Header) (string, bool, error) {
	token, found := strings.CutPrefix(header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		return "", false, nil
	}

	creds, err := s.store.GetAll(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Credential store unavailable during bearer resolution")
		return "", false, nil
	}

	for _, cred := range creds {
		if cred.Token != token {
			continue
		}
		cookie, err := BuildCookieHeader(cred.Cookie, RequiredCookieNames)
		if err != nil {
			// Malformed stored blob: fall through rather than error
			s.logger.Debug().Err(err).Str("label", cred.Label).Msg("Stored cookie blob failed to parse")
			return "", false, nil
		}
		return cookie, true, nil
	}

	return "", false, nil
}

// directAuthHeader is the channel password managers place their API key
// in (Bitwarden's "Authentication" header).
const directAuthHeader = "Authentication"

// directHeaderSource resolves via the direct auth header: first by parsing
// the value itself as a serialized cookie array, then by treating it as a
// bridge token and looking it up in the store.
type directHeaderSource struct {
	store  interfaces.CredentialStore
	logger arbor.ILogger
}

func (s *directHeaderSource) Resolve(ctx context.Context, header http.Header) (string, bool, error) {
	values, present := header[http.CanonicalHeaderKey(directAuthHeader)]
	if !present || len(values) == 0 {
		return "", false, nil
	}

	value := values[0]
	if value == "" {
		// Present but empty is a hard failure, not a fallthrough
		return "", false, ErrAuthEmpty
	}

	// The header value may be the serialized session itself
	if cookie, err := BuildCookieHeader(value, RequiredCookieNames); err == nil {
		return cookie, true, nil
	}

	// Otherwise treat it as a bridge token
	creds, err := s.store.GetAll(ctx)
	if err != nil {
		return "", false, err
	}

	for _, cred := range creds {
		if cred.Token != value {
			continue
		}
		cookie, err := BuildCookieHeader(cred.Cookie, RequiredCookieNames)
		if err != nil {
			s.logger.Debug().Err(err).Str("label", cred.Label).Msg("Stored cookie blob failed to parse")
			return "", false, nil
		}
		return cookie, true, nil
	}

	return "", false, nil
}
