package api

import (
	"net/http"
	"time"

	"github.com/openmetagraph/metacat/internal/catalog"
	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type relationshipRequest struct {
	TypeName      string         `json:"type_name"`
	End1GUID      uuid.UUID      `json:"end1_guid"`
	End2GUID      uuid.UUID      `json:"end2_guid"`
	Properties    map[string]any `json:"properties,omitempty"`
	EffectiveFrom *time.Time     `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time     `json:"effective_to,omitempty"`
	provenance
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.Link(r.Context(), caller, req.End1GUID, req.End2GUID,
		req.TypeName, req.Properties, req.EffectiveFrom, req.EffectiveTo); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleUpdateRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.UpdateRelationship(r.Context(), caller, req.End1GUID, req.End2GUID,
		req.TypeName, req.Properties, req.EffectiveFrom, req.EffectiveTo); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.Unlink(r.Context(), caller, req.End1GUID, req.End2GUID, req.TypeName); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseDirection(r *http.Request) domain.RelationshipDirection {
	if r.URL.Query().Get("direction") == "from_end2" {
		return domain.DirectionFromEnd2
	}
	return domain.DirectionFromEnd1
}

func (s *Server) handleGetRelationships(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
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

	relationships, err := s.catalog.GetRelationships(r.Context(), guid,
		r.URL.Query().Get("typeName"), parseDirection(r), asOf, startFrom, pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, relationships)
}

// handleGetRelatedElements expands the far ends of a relationship page.
// With the loader middleware installed the expansion batches into one
// store round trip.
func (s *Server) handleGetRelatedElements(w http.ResponseWriter, r *http.Request) {
	guid, err := parseGUID(r, "guid")
	if err != nil {
		s.writeError(w, err)
		return
	}
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
	relationshipType := chi.URLParam(r, "relationshipType")
	direction := parseDirection(r)

	loader := middleware.ElementLoaderFromContext(r.Context())
	if loader == nil || asOf != nil {
		elements, err := s.catalog.GetRelatedElements(r.Context(), guid, relationshipType, direction, asOf, startFrom, pageSize)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, elements)
		return
	}

	relationships, err := s.catalog.GetRelationships(r.Context(), guid, relationshipType, direction, nil, startFrom, pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	guids := make([]uuid.UUID, len(relationships))
	for i, relationship := range relationships {
		guids[i] = relationship.OtherEnd(guid)
	}
	elements, err := loader.LoadMany(r.Context(), guids)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, elements)
}

type foreignKeyRequest struct {
	PrimaryKeyColumn uuid.UUID                    `json:"primary_key_column"`
	ForeignKeyColumn uuid.UUID                    `json:"foreign_key_column"`
	Properties       catalog.ForeignKeyProperties `json:"properties"`
	provenance
}

func (s *Server) handleSetupForeignKey(w http.ResponseWriter, r *http.Request) {
	var req foreignKeyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.SetupForeignKey(r.Context(), caller, req.PrimaryKeyColumn, req.ForeignKeyColumn, req.Properties); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleClearForeignKey(w http.ResponseWriter, r *http.Request) {
	var req foreignKeyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.ClearForeignKey(r.Context(), caller, req.PrimaryKeyColumn, req.ForeignKeyColumn); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type queryTargetRequest struct {
	DerivedElement uuid.UUID `json:"derived_element"`
	TargetElement  uuid.UUID `json:"target_element"`
	QueryID        string    `json:"query_id"`
	Query          string    `json:"query"`
	provenance
}

func (s *Server) handleSetupQueryTarget(w http.ResponseWriter, r *http.Request) {
	var req queryTargetRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := req.caller(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.catalog.SetupQueryTarget(r.Context(), caller, req.DerivedElement, req.TargetElement, req.QueryID, req.Query); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
