// Package server exposes the schema and record engines over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/groblegark/dynrec/internal/export"
	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/record"
	"github.com/groblegark/dynrec/internal/schema"
)

// Server handles HTTP requests against the schema manager and record engine.
// exporter is nil when no export destination is configured.
type Server struct {
	schemas  *schema.Manager
	records  *record.Service
	exporter *export.Exporter
}

// NewServer returns a Server over the given engines.
func NewServer(schemas *schema.Manager, records *record.Service, exporter *export.Exporter) *Server {
	return &Server{schemas: schemas, records: records, exporter: exporter}
}

// actor resolves the acting identity from the X-Actor header.
func actor(r *http.Request) string {
	if a := r.Header.Get("X-Actor"); a != "" {
		return a
	}
	return "system"
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps engine errors onto HTTP statuses. Validation errors
// keep their path as a separate response field.
func writeDomainError(w http.ResponseWriter, err error) {
	var nf *model.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, nf.Error())
		return
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Error(),
			"path":  verr.Path,
		})
		return
	}
	var inv model.InvalidError
	if errors.As(err, &inv) {
		writeError(w, http.StatusBadRequest, inv.Error())
		return
	}
	var compat *model.CompatibilityError
	if errors.As(err, &compat) {
		writeError(w, http.StatusBadRequest, compat.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
