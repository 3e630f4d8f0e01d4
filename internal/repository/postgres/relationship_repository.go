package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const relationshipColumns = `guid, type_name, end1_guid, end2_guid, properties,
	effective_from, effective_to, owning_source_guid, owning_source_name,
	created_at, updated_at`

// relationshipRepository implements repository.RelationshipRepository.
type relationshipRepository struct {
	pool *pgxpool.Pool
}

// NewRelationshipRepository creates a Postgres-backed relationship repository.
func NewRelationshipRepository(pool *pgxpool.Pool) repository.RelationshipRepository {
	return &relationshipRepository{pool: pool}
}

func (r *relationshipRepository) Create(ctx context.Context, relationship domain.Relationship) (domain.Relationship, error) {
	propertiesJSON, err := relationship.GetPropertiesAsJSONB()
	if err != nil {
		return domain.Relationship{}, fmt.Errorf("failed to marshal relationship properties: %w", err)
	}

	var sourceGUID *uuid.UUID
	var sourceName *string
	if relationship.OwningSource != nil {
		sourceGUID = &relationship.OwningSource.GUID
		sourceName = &relationship.OwningSource.Name
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO element_relationships (
			guid, type_name, end1_guid, end2_guid, properties,
			effective_from, effective_to, owning_source_guid, owning_source_name,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+relationshipColumns,
		relationship.GUID, relationship.TypeName, relationship.End1GUID, relationship.End2GUID,
		propertiesJSON, relationship.EffectiveFrom, relationship.EffectiveTo,
		sourceGUID, sourceName, relationship.CreatedAt, relationship.UpdatedAt,
	)

	created, err := scanRelationship(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Relationship{}, domain.WrapError(domain.KindDuplicateRelationship, err,
				"%s relationship between %s and %s already exists",
				relationship.TypeName, relationship.End1GUID, relationship.End2GUID)
		}
		return domain.Relationship{}, mapError(err, domain.KindStoreUnavailable,
			"failed to create %s relationship", relationship.TypeName)
	}
	return created, nil
}

func (r *relationshipRepository) GetBetween(ctx context.Context, typeName string, end1, end2 uuid.UUID) (domain.Relationship, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+relationshipColumns+` FROM element_relationships
		WHERE type_name = $1 AND end1_guid = $2 AND end2_guid = $3`,
		typeName, end1, end2)

	relationship, err := scanRelationship(row)
	if err != nil {
		return domain.Relationship{}, mapError(err, domain.KindNotFound,
			"no %s relationship between %s and %s", typeName, end1, end2)
	}
	return relationship, nil
}

func (r *relationshipRepository) ListByEnd(ctx context.Context, guid uuid.UUID, typeName string, direction domain.RelationshipDirection, filter repository.ReadFilter, offset, limit int) ([]domain.Relationship, error) {
	offset, limit = normalizePage(offset, limit)

	endColumn := "end1_guid"
	if direction == domain.DirectionFromEnd2 {
		endColumn = "end2_guid"
	}

	query := `SELECT ` + relationshipColumns + ` FROM element_relationships WHERE ` + endColumn + ` = $1`
	args := []any{guid}
	if typeName != "" {
		args = append(args, typeName)
		query += fmt.Sprintf(" AND type_name = $%d", len(args))
	}
	if filter.AsOf != nil {
		args = append(args, *filter.AsOf)
		query += effectiveClause(filter, len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at, guid LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, domain.KindStoreUnavailable, "failed to list relationships for %s", guid)
	}
	defer rows.Close()

	relationships := []domain.Relationship{}
	for rows.Next() {
		relationship, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship row: %w", err)
		}
		relationships = append(relationships, relationship)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, domain.KindStoreUnavailable, "failed reading relationship rows")
	}
	return relationships, nil
}

func (r *relationshipRepository) CountTo(ctx context.Context, typeName string, end2 uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM element_relationships
		WHERE type_name = $1 AND end2_guid = $2`, typeName, end2).Scan(&count)
	if err != nil {
		return 0, mapError(err, domain.KindStoreUnavailable, "failed to count %s relationships", typeName)
	}
	return count, nil
}

func (r *relationshipRepository) Update(ctx context.Context, relationship domain.Relationship) (domain.Relationship, error) {
	propertiesJSON, err := relationship.GetPropertiesAsJSONB()
	if err != nil {
		return domain.Relationship{}, fmt.Errorf("failed to marshal relationship properties: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE element_relationships SET
			properties = $2, effective_from = $3, effective_to = $4, updated_at = $5
		WHERE guid = $1
		RETURNING `+relationshipColumns,
		relationship.GUID, propertiesJSON, relationship.EffectiveFrom,
		relationship.EffectiveTo, relationship.UpdatedAt,
	)

	updated, err := scanRelationship(row)
	if err != nil {
		return domain.Relationship{}, mapError(err, domain.KindNotFound,
			"relationship %s not found", relationship.GUID)
	}
	return updated, nil
}

func (r *relationshipRepository) Delete(ctx context.Context, guid uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM element_relationships WHERE guid = $1`, guid)
	if err != nil {
		return mapError(err, domain.KindStoreUnavailable, "failed to delete relationship %s", guid)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.KindNotFound, "relationship %s not found", guid)
	}
	return nil
}

func (r *relationshipRepository) DeleteForElement(ctx context.Context, guid uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM element_relationships WHERE end1_guid = $1 OR end2_guid = $1`, guid)
	if err != nil {
		return mapError(err, domain.KindStoreUnavailable, "failed to delete relationships for %s", guid)
	}
	return nil
}

func scanRelationship(row pgx.Row) (domain.Relationship, error) {
	var (
		relationship   domain.Relationship
		propertiesJSON json.RawMessage
		sourceGUID     *uuid.UUID
		sourceName     *string
	)

	err := row.Scan(
		&relationship.GUID, &relationship.TypeName,
		&relationship.End1GUID, &relationship.End2GUID, &propertiesJSON,
		&relationship.EffectiveFrom, &relationship.EffectiveTo,
		&sourceGUID, &sourceName,
		&relationship.CreatedAt, &relationship.UpdatedAt,
	)
	if err != nil {
		return domain.Relationship{}, err
	}

	if len(propertiesJSON) > 0 {
		properties, err := domain.FromJSONBProperties(propertiesJSON)
		if err != nil {
			return domain.Relationship{}, fmt.Errorf("failed to decode properties for relationship %s: %w", relationship.GUID, err)
		}
		relationship.Properties = properties
	}
	if sourceGUID != nil {
		name := ""
		if sourceName != nil {
			name = *sourceName
		}
		relationship.OwningSource = &domain.OwningSource{GUID: *sourceGUID, Name: name}
	}
	return relationship, nil
}
