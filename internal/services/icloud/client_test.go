package icloud

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// fakeTransport implements interfaces.Doer, answering by URL path and
// recording every request for assertions.
type fakeTransport struct {
	responses map[string]fakeResponse
	requests  []*recordedRequest
}

type fakeResponse struct {
	status int
	body   string
}

type recordedRequest struct {
	url    string
	path   string
	query  map[string]string
	header http.Header
	body   string
}

func (f *fakeTransport) Do(req *http.Request) (*http.Response, error) {
	body := ""
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}

	query := map[string]string{}
	for key, values := range req.URL.Query() {
		query[key] = values[0]
	}

	f.requests = append(f.requests, &recordedRequest{
		url:    req.URL.String(),
		path:   req.URL.Path,
		query:  query,
		header: req.Header.Clone(),
		body:   body,
	})

	res, found := f.responses[req.URL.Path]
	if !found {
		res = fakeResponse{status: http.StatusNotFound, body: "{}"}
	}

	return &http.Response{
		StatusCode: res.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(res.body))),
		Header:     http.Header{},
	}, nil
}

const testCookieHeader = "X-APPLE-DS-WEB-SESSION-TOKEN=s; X-APPLE-WEBAUTH-TOKEN=t; X-APPLE-WEBAUTH-USER=u"

func validateBody(baseURL string) string {
	return `{"webservices":{"premiummailsettings":{"url":"` + baseURL + `"}}}`
}

func newTestClient(transport *fakeTransport) *Client {
	return NewClient(transport, "", arbor.NewLogger())
}

func TestCreateAlias_FullFlow(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/setup/ws/1/validate": {status: 200, body: validateBody("https://p42-maildomainws.icloud.com")},
		"/v1/hme/generate":     {status: 200, body: `{"success":true,"result":{"hme":"shiny-otter@icloud.com"}}`},
		"/v1/hme/reserve": {status: 200, body: `{"success":true,"result":{"hme":{
			"forwardToEmail":"me@example.com",
			"hme":"shiny-otter@icloud.com",
			"isActive":true,
			"label":"Generated by hme_bridge",
			"note":"test",
			"createTimestamp":1700000000000}}}`},
	}}
	client := newTestClient(transport)

	reserved, err := client.CreateAlias(context.Background(), testCookieHeader, "Generated by hme_bridge", "test")
	require.NoError(t, err)

	assert.Equal(t, "shiny-otter@icloud.com", reserved.Hme)
	assert.Equal(t, "me@example.com", reserved.ForwardToEmail)
	assert.True(t, reserved.IsActive)
	assert.Equal(t, "test", reserved.Note)
	assert.Equal(t, int64(1700000000000), reserved.CreateTimestamp)

	require.Len(t, transport.requests, 3)
	assert.Equal(t, "/setup/ws/1/validate", transport.requests[0].path)
	assert.Equal(t, "/v1/hme/generate", transport.requests[1].path)
	assert.Equal(t, "/v1/hme/reserve", transport.requests[2].path)

	// Every call carries the fixed identification parameters and headers
	for _, req := range transport.requests {
		assert.Equal(t, "2420Hotfix12", req.query["clientBuildNumber"])
		assert.Equal(t, "2420Hotfix12", req.query["clientMasteringNumber"])
		assert.Equal(t, "", req.query["clientId"])
		assert.Equal(t, "", req.query["dsid"])

		assert.Equal(t, testCookieHeader, req.header.Get("Cookie"))
		assert.Equal(t, "application/json", req.header.Get("Content-Type"))
		assert.Equal(t, "https://www.icloud.com", req.header.Get("Origin"))
		assert.Equal(t, "https://www.icloud.com/", req.header.Get("Referer"))
		assert.Contains(t, req.header.Get("User-Agent"), "Mozilla/5.0")
	}

	// Generate and reserve bodies match the wire protocol
	var generatePayload map[string]string
	require.NoError(t, json.Unmarshal([]byte(transport.requests[1].body), &generatePayload))
	assert.Equal(t, map[string]string{"langCode": "en-us"}, generatePayload)

	var reservePayload map[string]string
	require.NoError(t, json.Unmarshal([]byte(transport.requests[2].body), &reservePayload))
	assert.Equal(t, "shiny-otter@icloud.com", reservePayload["hme"])
	assert.Equal(t, "Generated by hme_bridge", reservePayload["label"])
	assert.Equal(t, "test", reservePayload["note"])

	// Generate and reserve go to the discovered base URL
	assert.True(t, strings.HasPrefix(transport.requests[1].url, "https://p42-maildomainws.icloud.com/"))
}

func TestCreateAlias_MissingServiceURL(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/setup/ws/1/validate": {status: 200, body: `{"webservices":{"mail":{"url":"https://mail.icloud.com"}}}`},
	}}
	client := newTestClient(transport)

	_, err := client.CreateAlias(context.Background(), testCookieHeader, "label", "note")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Len(t, transport.requests, 1, "no generate call after failed discovery")
}

func TestCreateAlias_NullServiceURL(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/setup/ws/1/validate": {status: 200, body: `{"webservices":{"premiummailsettings":{"url":null}}}`},
	}}
	client := newTestClient(transport)

	_, err := client.CreateAlias(context.Background(), testCookieHeader, "label", "note")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Len(t, transport.requests, 1)
}

func TestCreateAlias_GenerateRejected(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/setup/ws/1/validate": {status: 200, body: validateBody("https://p42-maildomainws.icloud.com")},
		"/v1/hme/generate":     {status: 200, body: `{"success":false,"error":"quota exceeded"}`},
	}}
	client := newTestClient(transport)

	_, err := client.CreateAlias(context.Background(), testCookieHeader, "label", "note")

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "generate", rejected.Step)
	assert.JSONEq(t, `"quota exceeded"`, string(rejected.Payload))
	assert.Len(t, transport.requests, 2, "no reserve call after rejected generate")
}

func TestCreateAlias_ReserveRejected(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/setup/ws/1/validate": {status: 200, body: validateBody("https://p42-maildomainws.icloud.com")},
		"/v1/hme/generate":     {status: 200, body: `{"success":true,"result":{"hme":"x@icloud.com"}}`},
		"/v1/hme/reserve":      {status: 200, body: `{"success":false,"error":{"errorCode":"-41015"}}`},
	}}
	client := newTestClient(transport)

	_, err := client.CreateAlias(context.Background(), testCookieHeader, "label", "note")

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "reserve", rejected.Step)
}

func TestCreateAlias_UpstreamStatusError(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/setup/ws/1/validate": {status: 421, body: "misdirected"},
	}}
	client := newTestClient(transport)

	_, err := client.CreateAlias(context.Background(), testCookieHeader, "label", "note")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "421")
	assert.Len(t, transport.requests, 1)
}

func TestCreateAlias_MalformedValidateResponse(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{
		"/setup/ws/1/validate": {status: 200, body: "<html>sign in</html>"},
	}}
	client := newTestClient(transport)

	_, err := client.CreateAlias(context.Background(), testCookieHeader, "label", "note")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse validate response")
}
