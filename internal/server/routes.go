package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Alias creation (SimpleLogin-style endpoint Bitwarden calls)
	mux.HandleFunc("/api/alias/random/new", s.app.AliasHandler.CreateAliasHandler)

	// Credential administration (gated by X-Admin-Token)
	mux.HandleFunc("/admin/credentials", s.handleCredentialCollection) // GET (list), POST (create)
	mux.HandleFunc("/admin/credentials/", s.handleCredentialItem)     // PUT/DELETE /{token}

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleCredentialCollection routes /admin/credentials by method
func (s *Server) handleCredentialCollection(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r,
		s.app.CredentialHandler.ListCredentialsHandler,
		s.app.CredentialHandler.CreateCredentialHandler)
}

// handleCredentialItem routes /admin/credentials/{token} by method
func (s *Server) handleCredentialItem(w http.ResponseWriter, r *http.Request) {
	RouteResourceItem(w, r,
		nil,
		s.app.CredentialHandler.UpdateCredentialHandler,
		s.app.CredentialHandler.DeleteCredentialHandler)
}
