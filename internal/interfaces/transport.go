package interfaces

import "net/http"

// Doer performs a single HTTP request. The upstream session client is
// written against this instead of a concrete *http.Client so tests can
// inject a fake transport and the protocol logic exists exactly once.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
