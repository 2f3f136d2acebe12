package server

import (
	"encoding/json"
	"net/http"

	"github.com/groblegark/dynrec/internal/query"
)

// handleSubmit handles POST /v1/records/{entity}.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	doc, err := s.records.Submit(r.Context(), r.PathValue("entity"), payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// handleQuery handles POST /v1/records/{entity}/query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req query.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.records.Query(r.Context(), r.PathValue("entity"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetRecord handles GET /v1/records/{entity}/{id}. Soft-deleted records
// are still returned here, with their delete markers set.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	doc, err := s.records.Get(r.Context(), r.PathValue("entity"), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handlePatch handles PATCH /v1/records/{entity}/{id}.
func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	doc, err := s.records.Patch(r.Context(), r.PathValue("entity"), r.PathValue("id"), payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleReplace handles PUT /v1/records/{entity}/{id}.
func (s *Server) handleReplace(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	doc, err := s.records.Replace(r.Context(), r.PathValue("entity"), r.PathValue("id"), payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDelete handles DELETE /v1/records/{entity}/{id}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.records.Delete(r.Context(), r.PathValue("entity"), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport handles POST /v1/export/{entity}.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "no export destination configured")
		return
	}

	result, err := s.exporter.Export(r.Context(), r.PathValue("entity"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
