// Package api exposes the catalog engine over HTTP. Handlers stay thin:
// parse, call the catalog, translate the error kind to a status code.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/openmetagraph/metacat/internal/catalog"
	"github.com/openmetagraph/metacat/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server holds the handler dependencies.
type Server struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

// NewServer creates the API server.
func NewServer(catalogService *catalog.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{catalog: catalogService, logger: logger}
}

// Routes mounts every catalog operation.
func (s *Server) Routes(r chi.Router) {
	r.Route("/elements", func(r chi.Router) {
		r.Post("/{typeName}", s.handleCreateElement)
		r.Get("/{guid}", s.handleGetElement)
		r.Put("/{guid}", s.handleUpdateElement)
		r.Delete("/{guid}", s.handleDeleteElement)

		r.Post("/{guid}/publish", s.handlePublishElement)
		r.Post("/{guid}/withdraw", s.handleWithdrawElement)
		r.Post("/{guid}/relinquish", s.handleRelinquishElement)

		r.Get("/{guid}/vendor-properties", s.handleGetVendorProperties)
		r.Put("/{guid}/vendor-properties", s.handleSetVendorProperties)

		r.Get("/{guid}/classifications", s.handleGetClassifications)
		r.Post("/{guid}/classifications/{name}", s.handleSetClassification)
		r.Delete("/{guid}/classifications/{name}", s.handleClearClassification)

		r.Post("/{guid}/primary-key", s.handleSetPrimaryKey)
		r.Delete("/{guid}/primary-key", s.handleClearPrimaryKey)
		r.Post("/{guid}/calculated-value", s.handleSetCalculatedValue)
		r.Delete("/{guid}/calculated-value", s.handleClearCalculatedValue)

		r.Get("/{guid}/related/{relationshipType}", s.handleGetRelatedElements)
		r.Get("/{guid}/relationships", s.handleGetRelationships)
	})

	r.Route("/types/{typeName}/elements", func(r chi.Router) {
		r.Get("/by-name", s.handleGetElementsByName)
		r.Get("/by-qualified-name", s.handleGetElementByQualifiedName)
		r.Get("/search", s.handleFindElements)
	})

	r.Route("/relationships", func(r chi.Router) {
		r.Post("/", s.handleLink)
		r.Put("/", s.handleUpdateRelationship)
		r.Delete("/", s.handleUnlink)
		r.Post("/foreign-key", s.handleSetupForeignKey)
		r.Delete("/foreign-key", s.handleClearForeignKey)
		r.Post("/query-target", s.handleSetupQueryTarget)
	})

	r.Post("/templates/{guid}", s.handleCreateFromTemplate)
}

// provenance is the optional external-source stamp accepted on every write.
type provenance struct {
	ExternalSourceGUID string `json:"external_source_guid,omitempty"`
	ExternalSourceName string `json:"external_source_name,omitempty"`
}

// caller builds the catalog caller for a request. The user identity is
// opaque and passed through from the X-User-ID header.
func (p provenance) caller(r *http.Request) (catalog.Caller, error) {
	userID := r.Header.Get("X-User-ID")
	if p.ExternalSourceGUID == "" {
		return catalog.LocalCaller(userID), nil
	}
	sourceGUID, err := uuid.Parse(p.ExternalSourceGUID)
	if err != nil {
		return catalog.Caller{}, domain.NewError(domain.KindInvalidParameter,
			"invalid external source guid %q", p.ExternalSourceGUID)
	}
	return catalog.ExternalCaller(userID, sourceGUID, p.ExternalSourceName), nil
}

func parseGUID(r *http.Request, param string) (uuid.UUID, error) {
	guid, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, domain.NewError(domain.KindInvalidParameter, "invalid guid %q", chi.URLParam(r, param))
	}
	return guid, nil
}

func parsePaging(r *http.Request) (int, int, error) {
	startFrom := 0
	pageSize := 0
	if raw := r.URL.Query().Get("startFrom"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, domain.NewError(domain.KindInvalidParameter, "invalid startFrom %q", raw)
		}
		startFrom = value
	}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, domain.NewError(domain.KindInvalidParameter, "invalid pageSize %q", raw)
		}
		pageSize = value
	}
	return startFrom, pageSize, nil
}

func parseAsOf(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("asOf")
	if raw == "" {
		return nil, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewError(domain.KindInvalidParameter, "invalid asOf %q", raw)
	}
	return &at, nil
}

func decodeBody(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return domain.NewError(domain.KindInvalidParameter, "invalid request body: %v", err)
	}
	return nil
}

// decodeOptionalBody decodes the body when one is present. Handlers whose
// payload is only the provenance stamp accept an empty body for local
// callers.
func decodeOptionalBody(r *http.Request, into any) error {
	err := json.NewDecoder(r.Body).Decode(into)
	if err != nil && !errors.Is(err, io.EOF) {
		return domain.NewError(domain.KindInvalidParameter, "invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

// writeError maps the error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindInvalidParameter, domain.KindUnknownRelationshipType:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindDuplicateElement, domain.KindDuplicateRelationship, domain.KindConflictingIdentity:
		status = http.StatusConflict
	case domain.KindNotAuthorized:
		status = http.StatusForbidden
	case domain.KindStoreUnavailable:
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("unclassified request failure", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{
		"kind":  string(domain.KindOf(err)),
		"error": err.Error(),
	})
}
