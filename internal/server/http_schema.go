package server

import (
	"encoding/json"
	"net/http"

	"github.com/groblegark/dynrec/internal/model"
)

// handleSaveField handles POST /v1/schema/fields.
func (s *Server) handleSaveField(w http.ResponseWriter, r *http.Request) {
	var def model.FieldDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	saved, err := s.schemas.SaveField(r.Context(), &def)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// handleGetField handles GET /v1/schema/fields/{name}.
func (s *Server) handleGetField(w http.ResponseWriter, r *http.Request) {
	def, err := s.schemas.GetField(r.Context(), r.PathValue("name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// handleDeleteField handles DELETE /v1/schema/fields/{name}.
func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	if err := s.schemas.DeleteField(r.Context(), r.PathValue("name")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSaveGroup handles POST /v1/schema/groups.
func (s *Server) handleSaveGroup(w http.ResponseWriter, r *http.Request) {
	var group model.FieldGroup
	if err := json.NewDecoder(r.Body).Decode(&group); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	saved, err := s.schemas.SaveGroup(r.Context(), &group)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// handleGetGroup handles GET /v1/schema/groups/{id}. The id segment also
// accepts a group name.
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.schemas.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// handleDeleteGroup handles DELETE /v1/schema/groups/{id}.
func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.schemas.DeleteGroup(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePublish handles POST /v1/schema/groups/{id}/publish.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	version, err := s.schemas.Publish(r.Context(), r.PathValue("id"), actor(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

// handleDeprecate handles POST /v1/schema/entities/{entity}/deprecate.
func (s *Server) handleDeprecate(w http.ResponseWriter, r *http.Request) {
	version, err := s.schemas.Deprecate(r.Context(), r.PathValue("entity"), actor(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

// handleRollback handles POST /v1/schema/entities/{entity}/rollback.
func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Version int `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	version, err := s.schemas.Rollback(r.Context(), r.PathValue("entity"), in.Version, actor(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

// handleListVersions handles GET /v1/schema/entities/{entity}/versions.
func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.schemas.ListVersions(r.Context(), r.PathValue("entity"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if versions == nil {
		versions = []*model.SchemaVersion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

// handleLatestPublished handles GET /v1/schema/entities/{entity}/latest.
func (s *Server) handleLatestPublished(w http.ResponseWriter, r *http.Request) {
	version, err := s.schemas.LatestPublished(r.Context(), r.PathValue("entity"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

// handleIndexPlan handles GET /v1/schema/entities/{entity}/indexes.
func (s *Server) handleIndexPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.schemas.IndexPlan(r.Context(), r.PathValue("entity"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
