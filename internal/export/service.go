// Package export renders catalog element sets to spreadsheet workbooks for
// offline review by stewards and vendor tooling.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openmetagraph/metacat/internal/catalog"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheetName = "Elements"

// maxExportRows bounds one workbook; larger sets are exported in slices via
// startFrom.
const maxExportRows = 10000

// Service pages the catalog and writes workbooks.
type Service struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

// NewService creates an export service.
func NewService(catalogService *catalog.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalogService, logger: logger}
}

// Request selects which elements to export. Pattern is a regular
// expression; an empty TypeName exports across all types.
type Request struct {
	TypeName  string
	Pattern   string
	StartFrom int
}

// ExportElements writes the matching elements into an xlsx workbook.
func (s *Service) ExportElements(ctx context.Context, req Request) (*excelize.File, error) {
	pattern := req.Pattern
	if pattern == "" {
		pattern = ".*"
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name export sheet: %w", err)
	}

	headers := []any{"GUID", "Type", "Qualified Name", "Display Name", "Description", "Zones", "Owning Source", "Created At"}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}

	rowIndex := 2
	startFrom := req.StartFrom
	const pageSize = 200
	for rowIndex-2 < maxExportRows {
		elements, err := s.catalog.FindElements(ctx, req.TypeName, pattern, nil, startFrom, pageSize)
		if err != nil {
			return nil, err
		}
		if len(elements) == 0 {
			break
		}

		for _, element := range elements {
			owningSource := ""
			if element.OwningSource != nil {
				owningSource = element.OwningSource.Name
			}
			row := []any{
				element.GUID.String(),
				element.TypeName,
				element.QualifiedName,
				element.DisplayName,
				element.Description,
				strings.Join(element.ZoneMembership, ","),
				owningSource,
				element.CreatedAt.Format(time.RFC3339),
			}
			cell, err := excelize.CoordinatesToCellName(1, rowIndex)
			if err != nil {
				return nil, fmt.Errorf("failed to compute export cell: %w", err)
			}
			if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write export row: %w", err)
			}
			rowIndex++
		}

		startFrom += len(elements)
	}

	s.logger.Info("elements exported",
		zap.String("type", req.TypeName),
		zap.String("pattern", pattern),
		zap.Int("rows", rowIndex-2))
	return f, nil
}
