package icloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hmebridge/internal/interfaces"
	"github.com/ternarybob/hmebridge/internal/models"
)

// Fixed protocol constants. These must match what the iCloud web client
// sends or the upstream rejects the session.
const (
	validateURL          = "https://setup.icloud.com/setup/ws/1/validate"
	aliasSettingsService = "premiummailsettings"

	clientBuildNumber     = "2420Hotfix12"
	clientMasteringNumber = "2420Hotfix12"

	originHeader  = "https://www.icloud.com"
	refererHeader = "https://www.icloud.com/"

	// DefaultUserAgent mimics a desktop browser. iCloud rejects requests
	// that do not resemble browser traffic.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"
)

// ErrServiceUnavailable means the validate step did not expose a
// premiummailsettings URL - the session is not authenticated for or not
// entitled to the Hide My Email feature.
var ErrServiceUnavailable = errors.New("premiummailsettings service not available for this session")

// RejectedError carries the upstream error payload when a generate or
// reserve envelope reports success=false. The payload is kept for
// diagnostics and is not handed verbatim to untrusted callers.
type RejectedError struct {
	Step    string
	Payload json.RawMessage
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("upstream rejected %s: %s", e.Step, string(e.Payload))
}

// Client executes the three-call Hide My Email handshake (validate ->
// generate -> reserve) against iCloud using a resolved cookie header. The
// protocol is written once against the Doer transport so tests can run it
// without network access.
type Client struct {
	transport interfaces.Doer
	userAgent string
	logger    arbor.ILogger
}

// NewClient creates an upstream session client. A nil transport gets a
// default HTTP client with a 30 second timeout; an empty userAgent gets
// DefaultUserAgent.
func NewClient(transport interfaces.Doer, userAgent string, logger arbor.ILogger) *Client {
	if transport == nil {
		transport = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		transport: transport,
		userAgent: userAgent,
		logger:    logger,
	}
}

type webService struct {
	URL *string `json:"url"`
}

type validateResponse struct {
	WebServices map[string]webService `json:"webservices"`
}

// envelope is iCloud's uniform response wrapper for the hme endpoints.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

type generateResult struct {
	Hme string `json:"hme"`
}

type reserveResult struct {
	Hme models.ReservedAlias `json:"hme"`
}

// CreateAlias runs the full handshake and returns the reserved alias
// record. Steps are strictly sequential; failure at any step aborts the
// rest. No retries: a generate handle abandoned by a failed reserve is a
// benign leak on the upstream side.
func (c *Client) CreateAlias(ctx context.Context, cookieHeader, label, note string) (*models.ReservedAlias, error) {
	baseURL, err := c.validate(ctx, cookieHeader)
	if err != nil {
		return nil, err
	}

	handle, err := c.generate(ctx, cookieHeader, baseURL)
	if err != nil {
		return nil, err
	}

	return c.reserve(ctx, cookieHeader, baseURL, handle, label, note)
}

// validate checks the session and discovers the base URL registered for
// the mail-alias settings service.
func (c *Client) validate(ctx context.Context, cookieHeader string) (string, error) {
	body, err := c.post(ctx, validateURL, cookieHeader, nil)
	if err != nil {
		return "", fmt.Errorf("validate call failed: %w", err)
	}

	var res validateResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("failed to parse validate response: %w", err)
	}

	service, found := res.WebServices[aliasSettingsService]
	if !found || service.URL == nil || *service.URL == "" {
		c.logger.Warn().Msg("Validate response missing premiummailsettings URL")
		return "", ErrServiceUnavailable
	}

	c.logger.Debug().Str("base_url", *service.URL).Msg("Discovered alias settings service")
	return *service.URL, nil
}

// generate mints a new alias handle.
func (c *Client) generate(ctx context.Context, cookieHeader, baseURL string) (string, error) {
	body, err := c.post(ctx, baseURL+"/v1/hme/generate", cookieHeader, map[string]string{
		"langCode": "en-us",
	})
	if err != nil {
		return "", fmt.Errorf("generate call failed: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("failed to parse generate response: %w", err)
	}
	if !env.Success {
		return "", &RejectedError{Step: "generate", Payload: env.Error}
	}

	var result generateResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return "", fmt.Errorf("failed to parse generate result: %w", err)
	}

	c.logger.Debug().Str("hme", result.Hme).Msg("Generated alias handle")
	return result.Hme, nil
}

// reserve claims the generated handle with the given label and note.
func (c *Client) reserve(ctx context.Context, cookieHeader, baseURL, handle, label, note string) (*models.ReservedAlias, error) {
	body, err := c.post(ctx, baseURL+"/v1/hme/reserve", cookieHeader, map[string]string{
		"hme":   handle,
		"label": label,
		"note":  note,
	})
	if err != nil {
		return nil, fmt.Errorf("reserve call failed: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse reserve response: %w", err)
	}
	if !env.Success {
		return nil, &RejectedError{Step: "reserve", Payload: env.Error}
	}

	var result reserveResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse reserve result: %w", err)
	}

	c.logger.Info().Str("alias", result.Hme.Hme).Msg("Reserved alias")
	return &result.Hme, nil
}

// post issues one upstream call with the fixed query parameters and
// headers every step shares, returning the raw response body.
func (c *Client) post(ctx context.Context, rawURL, cookieHeader string, payload interface{}) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	q := req.URL.Query()
	q.Set("clientBuildNumber", clientBuildNumber)
	q.Set("clientMasteringNumber", clientMasteringNumber)
	// Upstream tolerates blank client identifiers for these calls
	q.Set("clientId", "")
	q.Set("dsid", "")
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Cookie", cookieHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", originHeader)
	req.Header.Set("Referer", refererHeader)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.transport.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	return body, nil
}
