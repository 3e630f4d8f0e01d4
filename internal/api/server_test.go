package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openmetagraph/metacat/internal/api"
	"github.com/openmetagraph/metacat/internal/catalog"
	"github.com/openmetagraph/metacat/internal/config"
	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/middleware"
	"github.com/openmetagraph/metacat/internal/repository/memory"
	"github.com/openmetagraph/metacat/internal/types"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memory.NewStore()
	catalogService := catalog.NewService(catalog.ServiceConfig{
		Registry:        types.NewRegistry(),
		Elements:        store.Elements(),
		Relationships:   store.Relationships(),
		Classifications: store.Classifications(),
		VendorProps:     store.VendorProperties(),
		Zones: config.ZoneConfig{
			Default:   []string{"quarantine"},
			Published: []string{"production"},
		},
	})

	router := chi.NewRouter()
	router.Use(middleware.ElementLoader(store.Elements()))
	api.NewServer(catalogService, nil).Routes(router)
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "peter")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createElement(t *testing.T, router http.Handler, typeName, qualifiedName string) uuid.UUID {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/elements/"+typeName, map[string]any{
		"properties": map[string]any{"qualified_name": qualifiedName},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	guid, err := uuid.Parse(resp["guid"])
	require.NoError(t, err)
	return guid
}

func TestCreateAndGetElement(t *testing.T) {
	router := newTestRouter(t)

	guid := createElement(t, router, types.TypeDatabase, "srv::db1")

	rec := doJSON(t, router, http.MethodGet, "/elements/"+guid.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var element domain.Element
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &element))
	assert.Equal(t, guid, element.GUID)
	assert.Equal(t, "srv::db1", element.QualifiedName)
	assert.Equal(t, []string{"quarantine"}, element.ZoneMembership)
}

func TestErrorStatusMapping(t *testing.T) {
	router := newTestRouter(t)

	// Unknown type name.
	rec := doJSON(t, router, http.MethodPost, "/elements/Widget", map[string]any{
		"properties": map[string]any{"qualified_name": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown element.
	rec = doJSON(t, router, http.MethodGet, "/elements/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed guid.
	rec = doJSON(t, router, http.MethodGet, "/elements/not-a-guid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Duplicate qualified name.
	createElement(t, router, types.TypeDatabase, "srv::db1")
	rec = doJSON(t, router, http.MethodPost, "/elements/"+types.TypeDatabase, map[string]any{
		"properties": map[string]any{"qualified_name": "srv::db1"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(domain.KindDuplicateElement), body["kind"])
}

func TestOwnershipReturnsForbidden(t *testing.T) {
	router := newTestRouter(t)

	sourceGUID := uuid.NewString()
	rec := doJSON(t, router, http.MethodPost, "/elements/"+types.TypeDatabase, map[string]any{
		"properties":           map[string]any{"qualified_name": "srv::db1"},
		"external_source_guid": sourceGUID,
		"external_source_name": "warehouse-sync",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = doJSON(t, router, http.MethodPut, "/elements/"+resp["guid"], map[string]any{
		"properties":      map[string]any{"description": "touched"},
		"is_merge_update": true,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClearClassificationCarriesProvenance(t *testing.T) {
	router := newTestRouter(t)

	sourceGUID := uuid.NewString()
	stamp := map[string]any{
		"external_source_guid": sourceGUID,
		"external_source_name": "warehouse-sync",
	}

	rec := doJSON(t, router, http.MethodPost, "/elements/"+types.TypeDatabaseColumn, map[string]any{
		"properties":           map[string]any{"qualified_name": "srv::db1::c1"},
		"external_source_guid": sourceGUID,
		"external_source_name": "warehouse-sync",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	guid := resp["guid"]

	rec = doJSON(t, router, http.MethodPost, "/elements/"+guid+"/primary-key", map[string]any{
		"name":                 "c1_pk",
		"external_source_guid": sourceGUID,
		"external_source_name": "warehouse-sync",
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// Without the owning source the clear is refused.
	rec = doJSON(t, router, http.MethodDelete, "/elements/"+guid+"/primary-key", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// With it the owning connector can clear its own classification.
	rec = doJSON(t, router, http.MethodDelete, "/elements/"+guid+"/primary-key", stamp)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestRelinquishEndpointReleasesOwnership(t *testing.T) {
	router := newTestRouter(t)

	sourceGUID := uuid.NewString()
	rec := doJSON(t, router, http.MethodPost, "/elements/"+types.TypeDatabase, map[string]any{
		"properties":           map[string]any{"qualified_name": "srv::db1"},
		"external_source_guid": sourceGUID,
		"external_source_name": "warehouse-sync",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	guid := resp["guid"]

	rec = doJSON(t, router, http.MethodPost, "/elements/"+guid+"/relinquish", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/elements/"+guid+"/relinquish", map[string]any{
		"external_source_guid": sourceGUID,
		"external_source_name": "warehouse-sync",
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPut, "/elements/"+guid, map[string]any{
		"properties":      map[string]any{"description": "now local"},
		"is_merge_update": true,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteElementVerifiesQualifiedName(t *testing.T) {
	router := newTestRouter(t)

	guid := createElement(t, router, types.TypeDatabase, "srv::db1")

	rec := doJSON(t, router, http.MethodDelete, "/elements/"+guid.String(), map[string]any{
		"qualified_name": "srv::other",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/elements/"+guid.String(), map[string]any{
		"qualified_name": "srv::db1",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/elements/"+guid.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublishWithdrawEndpoints(t *testing.T) {
	router := newTestRouter(t)

	guid := createElement(t, router, types.TypeDatabase, "srv::db1")

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/elements/%s/publish", guid), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/elements/"+guid.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var element domain.Element
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &element))
	assert.Equal(t, []string{"production"}, element.ZoneMembership)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/elements/%s/withdraw", guid), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRelatedElementsUsesLoader(t *testing.T) {
	router := newTestRouter(t)

	database := createElement(t, router, types.TypeDatabase, "srv::db1")
	schema := createElement(t, router, types.TypeDatabaseSchema, "srv::db1::retail")

	rec := doJSON(t, router, http.MethodPost, "/relationships/", map[string]any{
		"type_name": types.RelationshipDataContentForDataSet,
		"end1_guid": database.String(),
		"end2_guid": schema.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/elements/%s/related/%s", database, types.RelationshipDataContentForDataSet), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var related []domain.Element
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &related))
	require.Len(t, related, 1)
	assert.Equal(t, schema, related[0].GUID)
}

func TestSearchEndpoint(t *testing.T) {
	router := newTestRouter(t)

	createElement(t, router, types.TypeDatabase, "srv::sales")
	createElement(t, router, types.TypeDatabase, "srv::inventory")

	rec := doJSON(t, router, http.MethodGet,
		"/types/"+types.TypeDatabase+"/elements/search?pattern=sal.*", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var matches []domain.Element
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "srv::sales", matches[0].QualifiedName)
}
