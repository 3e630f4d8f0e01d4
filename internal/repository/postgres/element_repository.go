package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const elementColumns = `guid, type_name, qualified_name, display_name, description,
	additional_properties, extended_properties, zone_membership,
	effective_from, effective_to, owning_source_guid, owning_source_name,
	status, created_at, updated_at`

// elementRepository implements repository.ElementRepository.
type elementRepository struct {
	pool *pgxpool.Pool
}

// NewElementRepository creates a Postgres-backed element repository.
func NewElementRepository(pool *pgxpool.Pool) repository.ElementRepository {
	return &elementRepository{pool: pool}
}

func (r *elementRepository) Create(ctx context.Context, element domain.Element) (domain.Element, error) {
	additionalJSON, err := element.GetAdditionalPropertiesAsJSONB()
	if err != nil {
		return domain.Element{}, fmt.Errorf("failed to marshal additional properties: %w", err)
	}
	extendedJSON, err := element.GetExtendedPropertiesAsJSONB()
	if err != nil {
		return domain.Element{}, fmt.Errorf("failed to marshal extended properties: %w", err)
	}

	var sourceGUID *uuid.UUID
	var sourceName *string
	if element.OwningSource != nil {
		sourceGUID = &element.OwningSource.GUID
		sourceName = &element.OwningSource.Name
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO metadata_elements (
			guid, type_name, qualified_name, display_name, description,
			additional_properties, extended_properties, zone_membership,
			effective_from, effective_to, owning_source_guid, owning_source_name,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+elementColumns,
		element.GUID, element.TypeName, element.QualifiedName, element.DisplayName,
		element.Description, additionalJSON, extendedJSON, element.ZoneMembership,
		element.EffectiveFrom, element.EffectiveTo, sourceGUID, sourceName,
		element.Status, element.CreatedAt, element.UpdatedAt,
	)

	created, err := scanElement(row)
	if err != nil {
		return domain.Element{}, mapError(err, domain.KindStoreUnavailable,
			"failed to create %s %q", element.TypeName, element.QualifiedName)
	}
	return created, nil
}

func (r *elementRepository) GetByGUID(ctx context.Context, guid uuid.UUID, filter repository.ReadFilter) (domain.Element, error) {
	query := `SELECT ` + elementColumns + ` FROM metadata_elements
		WHERE guid = $1 AND status = 'ACTIVE'` + effectiveClause(filter, 2)

	args := []any{guid}
	if filter.AsOf != nil {
		args = append(args, *filter.AsOf)
	}

	element, err := scanElement(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Element{}, mapError(err, domain.KindNotFound, "element %s not found", guid)
	}
	return element, nil
}

func (r *elementRepository) GetByGUIDs(ctx context.Context, guids []uuid.UUID, filter repository.ReadFilter) ([]domain.Element, error) {
	if len(guids) == 0 {
		return []domain.Element{}, nil
	}

	query := `SELECT ` + elementColumns + ` FROM metadata_elements
		WHERE guid = ANY($1) AND status = 'ACTIVE'` + effectiveClause(filter, 2)

	args := []any{guids}
	if filter.AsOf != nil {
		args = append(args, *filter.AsOf)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, domain.KindStoreUnavailable, "failed to get elements by guids")
	}
	defer rows.Close()

	return scanElements(rows)
}

func (r *elementRepository) GetByQualifiedName(ctx context.Context, typeNames []string, qualifiedName string, filter repository.ReadFilter) (domain.Element, error) {
	query := `SELECT ` + elementColumns + ` FROM metadata_elements
		WHERE qualified_name = $1 AND status = 'ACTIVE'`
	args := []any{qualifiedName}
	if len(typeNames) > 0 {
		args = append(args, typeNames)
		query += fmt.Sprintf(" AND type_name = ANY($%d)", len(args))
	}
	if filter.AsOf != nil {
		args = append(args, *filter.AsOf)
		query += effectiveClause(filter, len(args))
	}
	query += " LIMIT 1"

	element, err := scanElement(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Element{}, mapError(err, domain.KindNotFound, "no element with qualified name %q", qualifiedName)
	}
	return element, nil
}

func (r *elementRepository) ListByName(ctx context.Context, typeNames []string, name string, filter repository.ReadFilter, offset, limit int) ([]domain.Element, error) {
	return r.list(ctx, typeNames, filter, offset, limit,
		"(qualified_name = $1 OR display_name = $1)", name)
}

func (r *elementRepository) Search(ctx context.Context, typeNames []string, pattern string, filter repository.ReadFilter, offset, limit int) ([]domain.Element, error) {
	return r.list(ctx, typeNames, filter, offset, limit,
		"(qualified_name ~ $1 OR display_name ~ $1 OR description ~ $1)", pattern)
}

// list builds the shared paged query. Ordering by qualified name then guid
// keeps pages stable for a fixed predicate and unchanged data.
func (r *elementRepository) list(ctx context.Context, typeNames []string, filter repository.ReadFilter, offset, limit int, predicate string, predicateArg any) ([]domain.Element, error) {
	offset, limit = normalizePage(offset, limit)

	query := `SELECT ` + elementColumns + ` FROM metadata_elements
		WHERE status = 'ACTIVE' AND ` + predicate
	args := []any{predicateArg}
	if len(typeNames) > 0 {
		args = append(args, typeNames)
		query += fmt.Sprintf(" AND type_name = ANY($%d)", len(args))
	}
	if filter.AsOf != nil {
		args = append(args, *filter.AsOf)
		query += effectiveClause(filter, len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY qualified_name, guid LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, domain.KindStoreUnavailable, "failed to list elements")
	}
	defer rows.Close()

	return scanElements(rows)
}

func (r *elementRepository) Update(ctx context.Context, element domain.Element) (domain.Element, error) {
	additionalJSON, err := element.GetAdditionalPropertiesAsJSONB()
	if err != nil {
		return domain.Element{}, fmt.Errorf("failed to marshal additional properties: %w", err)
	}
	extendedJSON, err := element.GetExtendedPropertiesAsJSONB()
	if err != nil {
		return domain.Element{}, fmt.Errorf("failed to marshal extended properties: %w", err)
	}

	var sourceGUID *uuid.UUID
	var sourceName *string
	if element.OwningSource != nil {
		sourceGUID = &element.OwningSource.GUID
		sourceName = &element.OwningSource.Name
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE metadata_elements SET
			qualified_name = $2, display_name = $3, description = $4,
			additional_properties = $5, extended_properties = $6,
			zone_membership = $7, effective_from = $8, effective_to = $9,
			owning_source_guid = $10, owning_source_name = $11, updated_at = $12
		WHERE guid = $1 AND status = 'ACTIVE'
		RETURNING `+elementColumns,
		element.GUID, element.QualifiedName, element.DisplayName, element.Description,
		additionalJSON, extendedJSON, element.ZoneMembership,
		element.EffectiveFrom, element.EffectiveTo, sourceGUID, sourceName,
		element.UpdatedAt,
	)

	updated, err := scanElement(row)
	if err != nil {
		return domain.Element{}, mapError(err, domain.KindNotFound, "element %s not found", element.GUID)
	}
	return updated, nil
}

func (r *elementRepository) SoftDelete(ctx context.Context, guid uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE metadata_elements SET status = 'DELETED', updated_at = now()
		WHERE guid = $1 AND status = 'ACTIVE'`, guid)
	if err != nil {
		return mapError(err, domain.KindStoreUnavailable, "failed to delete element %s", guid)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.KindNotFound, "element %s not found", guid)
	}
	return nil
}

// effectiveClause appends the effective-window predicate when the filter
// carries a reference time. argPos is the 1-based placeholder position the
// caller reserved for it.
func effectiveClause(filter repository.ReadFilter, argPos int) string {
	if filter.AsOf == nil {
		return ""
	}
	return fmt.Sprintf(
		" AND (effective_from IS NULL OR effective_from <= $%d) AND (effective_to IS NULL OR effective_to >= $%d)",
		argPos, argPos)
}

func scanElement(row pgx.Row) (domain.Element, error) {
	var (
		element        domain.Element
		additionalJSON json.RawMessage
		extendedJSON   json.RawMessage
		sourceGUID     *uuid.UUID
		sourceName     *string
	)

	err := row.Scan(
		&element.GUID, &element.TypeName, &element.QualifiedName,
		&element.DisplayName, &element.Description,
		&additionalJSON, &extendedJSON, &element.ZoneMembership,
		&element.EffectiveFrom, &element.EffectiveTo, &sourceGUID, &sourceName,
		&element.Status, &element.CreatedAt, &element.UpdatedAt,
	)
	if err != nil {
		return domain.Element{}, err
	}

	if len(additionalJSON) > 0 {
		if err := json.Unmarshal(additionalJSON, &element.AdditionalProperties); err != nil {
			return domain.Element{}, fmt.Errorf("failed to decode additional properties for %s: %w", element.GUID, err)
		}
	}
	if len(extendedJSON) > 0 {
		if err := json.Unmarshal(extendedJSON, &element.ExtendedProperties); err != nil {
			return domain.Element{}, fmt.Errorf("failed to decode extended properties for %s: %w", element.GUID, err)
		}
	}
	if sourceGUID != nil {
		name := ""
		if sourceName != nil {
			name = *sourceName
		}
		element.OwningSource = &domain.OwningSource{GUID: *sourceGUID, Name: name}
	}
	return element, nil
}

func scanElements(rows pgx.Rows) ([]domain.Element, error) {
	elements := []domain.Element{}
	for rows.Next() {
		element, err := scanElement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan element row: %w", err)
		}
		elements = append(elements, element)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, domain.KindStoreUnavailable, "failed reading element rows")
	}
	return elements, nil
}
