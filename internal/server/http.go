package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/schema/fields", s.handleSaveField)
	mux.HandleFunc("GET /v1/schema/fields/{name}", s.handleGetField)
	mux.HandleFunc("DELETE /v1/schema/fields/{name}", s.handleDeleteField)
	mux.HandleFunc("POST /v1/schema/groups", s.handleSaveGroup)
	mux.HandleFunc("GET /v1/schema/groups/{id}", s.handleGetGroup)
	mux.HandleFunc("DELETE /v1/schema/groups/{id}", s.handleDeleteGroup)
	mux.HandleFunc("POST /v1/schema/groups/{id}/publish", s.handlePublish)
	mux.HandleFunc("POST /v1/schema/entities/{entity}/deprecate", s.handleDeprecate)
	mux.HandleFunc("POST /v1/schema/entities/{entity}/rollback", s.handleRollback)
	mux.HandleFunc("GET /v1/schema/entities/{entity}/versions", s.handleListVersions)
	mux.HandleFunc("GET /v1/schema/entities/{entity}/latest", s.handleLatestPublished)
	mux.HandleFunc("GET /v1/schema/entities/{entity}/indexes", s.handleIndexPlan)

	mux.HandleFunc("POST /v1/records/{entity}", s.handleSubmit)
	mux.HandleFunc("POST /v1/records/{entity}/query", s.handleQuery)
	mux.HandleFunc("GET /v1/records/{entity}/{id}", s.handleGetRecord)
	mux.HandleFunc("PATCH /v1/records/{entity}/{id}", s.handlePatch)
	mux.HandleFunc("PUT /v1/records/{entity}/{id}", s.handleReplace)
	mux.HandleFunc("DELETE /v1/records/{entity}/{id}", s.handleDelete)

	mux.HandleFunc("POST /v1/export/{entity}", s.handleExport)
	mux.HandleFunc("GET /v1/health", s.handleHealth)

	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AuthMiddleware enforces a Bearer token on every route except the health
// check. When token is empty, auth is disabled.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/v1/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "invalid authorization scheme")
			return
		}

		provided := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
