package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openmetagraph/metacat/internal/domain"
	"github.com/openmetagraph/metacat/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// classificationRepository implements repository.ClassificationRepository.
type classificationRepository struct {
	pool *pgxpool.Pool
}

// NewClassificationRepository creates a Postgres-backed classification
// repository.
func NewClassificationRepository(pool *pgxpool.Pool) repository.ClassificationRepository {
	return &classificationRepository{pool: pool}
}

func (r *classificationRepository) Set(ctx context.Context, classification domain.Classification) error {
	propertiesJSON, err := json.Marshal(classification.Properties)
	if err != nil {
		return fmt.Errorf("failed to marshal classification properties: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO element_classifications (element_guid, name, properties, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (element_guid, name)
		DO UPDATE SET properties = EXCLUDED.properties, updated_at = EXCLUDED.updated_at`,
		classification.ElementGUID, classification.Name, propertiesJSON,
		classification.CreatedAt, classification.UpdatedAt,
	)
	if err != nil {
		return mapError(err, domain.KindStoreUnavailable,
			"failed to set %s classification on %s", classification.Name, classification.ElementGUID)
	}
	return nil
}

func (r *classificationRepository) Clear(ctx context.Context, elementGUID uuid.UUID, name string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM element_classifications WHERE element_guid = $1 AND name = $2`,
		elementGUID, name)
	if err != nil {
		return mapError(err, domain.KindStoreUnavailable,
			"failed to clear %s classification on %s", name, elementGUID)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.KindNotFound, "element %s has no %s classification", elementGUID, name)
	}
	return nil
}

func (r *classificationRepository) List(ctx context.Context, elementGUID uuid.UUID) ([]domain.Classification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT element_guid, name, properties, created_at, updated_at
		FROM element_classifications
		WHERE element_guid = $1
		ORDER BY name`, elementGUID)
	if err != nil {
		return nil, mapError(err, domain.KindStoreUnavailable,
			"failed to list classifications for %s", elementGUID)
	}
	defer rows.Close()

	classifications := []domain.Classification{}
	for rows.Next() {
		var classification domain.Classification
		var propertiesJSON json.RawMessage
		if err := rows.Scan(
			&classification.ElementGUID, &classification.Name, &propertiesJSON,
			&classification.CreatedAt, &classification.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan classification row: %w", err)
		}
		if len(propertiesJSON) > 0 {
			if err := json.Unmarshal(propertiesJSON, &classification.Properties); err != nil {
				return nil, fmt.Errorf("failed to decode classification properties: %w", err)
			}
		}
		classifications = append(classifications, classification)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, domain.KindStoreUnavailable, "failed reading classification rows")
	}
	return classifications, nil
}
