package export_test

import (
	"context"
	"testing"

	"github.com/openmetagraph/metacat/internal/catalog"
	"github.com/openmetagraph/metacat/internal/config"
	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/export"
	"github.com/openmetagraph/metacat/internal/repository/memory"
	"github.com/openmetagraph/metacat/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExportService(t *testing.T) (*export.Service, *catalog.Service) {
	t.Helper()
	store := memory.NewStore()
	catalogService := catalog.NewService(catalog.ServiceConfig{
		Registry:        types.NewRegistry(),
		Elements:        store.Elements(),
		Relationships:   store.Relationships(),
		Classifications: store.Classifications(),
		VendorProps:     store.VendorProperties(),
		Zones:           config.ZoneConfig{Default: []string{"quarantine"}},
	})
	return export.NewService(catalogService, nil), catalogService
}

func TestExportElementsWritesHeaderAndRows(t *testing.T) {
	svc, catalogService := newExportService(t)
	ctx := context.Background()
	caller := catalog.LocalCaller("peter")

	_, err := catalogService.CreateElement(ctx, caller, types.TypeDatabase, domain.ElementProperties{
		QualifiedName: "srv::db1",
		DisplayName:   "db1",
	})
	require.NoError(t, err)
	_, err = catalogService.CreateElement(ctx, caller, types.TypeDatabase, domain.ElementProperties{
		QualifiedName: "srv::db2",
	})
	require.NoError(t, err)

	workbook, err := svc.ExportElements(ctx, export.Request{TypeName: types.TypeDatabase})
	require.NoError(t, err)
	defer workbook.Close()

	header, err := workbook.GetCellValue("Elements", "C1")
	require.NoError(t, err)
	assert.Equal(t, "Qualified Name", header)

	// Rows come back ordered by qualified name.
	first, err := workbook.GetCellValue("Elements", "C2")
	require.NoError(t, err)
	assert.Equal(t, "srv::db1", first)
	second, err := workbook.GetCellValue("Elements", "C3")
	require.NoError(t, err)
	assert.Equal(t, "srv::db2", second)

	zones, err := workbook.GetCellValue("Elements", "F2")
	require.NoError(t, err)
	assert.Equal(t, "quarantine", zones)
}

func TestExportElementsRejectsBadPattern(t *testing.T) {
	svc, _ := newExportService(t)

	_, err := svc.ExportElements(context.Background(), export.Request{Pattern: "sal["})
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidParameter, domain.KindOf(err))
}

func TestExportElementsEmptyCatalog(t *testing.T) {
	svc, _ := newExportService(t)

	workbook, err := svc.ExportElements(context.Background(), export.Request{})
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("Elements")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
