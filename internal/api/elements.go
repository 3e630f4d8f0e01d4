package api

import (
	"net/http"

	"github.com/openmetagraph/metacat/internal/catalog"
	"github.com/openmetagraph/metacat/internal/domain"

	"github.com/go-chi/chi/v5"
)

type createElementRequest struct {
	Properties domain.ElementProperties `json:"properties"`
	provenance
}

func (s *Server) handleCreateElement(w http.ResponseWriter, r *http.Request) {
	var req createElementRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	guid, err := s.catalog.CreateElement(r.Context(), caller, chi.URLParam(r, "typeName"), req.Properties)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"guid": guid.String()})
}

func (s *Server) handleGetElement(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	asOf, err := parseAsOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	element, err := s.catalog.GetElementByGUID(r.Context(), guid, asOf)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, element)
}

type updateElementRequest struct {
	Properties    domain.ElementProperties `json:"properties"`
	IsMergeUpdate bool                     `json:"is_merge_update"`
	provenance
}

func (s *Server) handleUpdateElement(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req updateElementRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.UpdateElement(r.Context(), caller, guid, req.Properties, req.IsMergeUpdate); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteElementRequest struct {
	QualifiedName string `json:"qualified_name"`
	provenance
}

func (s *Server) handleDeleteElement(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req deleteElementRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.DeleteElement(r.Context(), caller, guid, req.QualifiedName); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetElementsByName(w http.ResponseWriter, r *http.Request) {
	startFrom, pageSize, err := parsePaging(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	asOf, err := parseAsOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	elements, err := s.catalog.GetElementsByName(r.Context(), chi.URLParam(r, "typeName"),
		r.URL.Query().Get("name"), asOf, startFrom, pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, elements)
}

func (s *Server) handleGetElementByQualifiedName(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	element, err := s.catalog.GetElementByQualifiedName(r.Context(), chi.URLParam(r, "typeName"),
		r.URL.Query().Get("qualifiedName"), asOf)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, element)
}

func (s *Server) handleFindElements(w http.ResponseWriter, r *http.Request) {
	startFrom, pageSize, err := parsePaging(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	asOf, err := parseAsOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	elements, err := s.catalog.FindElements(r.Context(), chi.URLParam(r, "typeName"),
		r.URL.Query().Get("pattern"), asOf, startFrom, pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, elements)
}

func (s *Server) handlePublishElement(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.catalog.PublishElement(r.Context(), guid); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRelinquishElement(w http.ResponseWriter, r *http.Request) {
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

	if err := s.catalog.RelinquishElement(r.Context(), caller, guid); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWithdrawElement(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.catalog.WithdrawElement(r.Context(), guid); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setVendorPropertiesRequest struct {
	Properties map[string]string `json:"properties"`
	provenance
}

func (s *Server) handleSetVendorProperties(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req setVendorPropertiesRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.SetVendorProperties(r.Context(), caller, guid, req.Properties); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetVendorProperties(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	properties, err := s.catalog.GetVendorProperties(r.Context(), guid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, properties)
}

type createFromTemplateRequest struct {
	Overrides catalog.TemplateOverrides `json:"overrides"`
	provenance
}

func (s *Server) handleCreateFromTemplate(w http.ResponseWriter, r *http.Request) {
	templateGUID, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req createFromTemplateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	guid, err := s.catalog.CreateElementFromTemplate(r.Context(), caller, templateGUID, req.Overrides)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"guid": guid.String()})
}
