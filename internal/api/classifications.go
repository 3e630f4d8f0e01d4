package api

import (
	"net/http"

	"github.com/openmetagraph/metacat/internal/domain"

	"github.com/go-chi/chi/v5"
)

type setClassificationRequest struct {
	Properties map[string]any `json:"properties,omitempty"`
	provenance
}

func (s *Server) handleSetClassification(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req setClassificationRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.SetClassification(r.Context(), caller, guid, chi.URLParam(r, "name"), req.Properties); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearClassification(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req provenance
	if err := decodeOptionalBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.ClearClassification(r.Context(), caller, guid, chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetClassifications(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	classifications, err := s.catalog.GetClassifications(r.Context(), guid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classifications)
}

type primaryKeyRequest struct {
	Name       string            `json:"name"`
	KeyPattern domain.KeyPattern `json:"key_pattern,omitempty"`
	provenance
}

func (s *Server) handleSetPrimaryKey(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req primaryKeyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.SetPrimaryKey(r.Context(), caller, guid, req.Name, req.KeyPattern); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearPrimaryKey(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req provenance
	if err := decodeOptionalBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.ClearPrimaryKey(r.Context(), caller, guid); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type calculatedValueRequest struct {
	Formula string `json:"formula"`
	provenance
}

func (s *Server) handleSetCalculatedValue(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req calculatedValueRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.SetCalculatedValue(r.Context(), caller, guid, req.Formula); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCalculatedValue(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req provenance
	if err := decodeOptionalBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.ClearCalculatedValue(r.Context(), caller, guid); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
