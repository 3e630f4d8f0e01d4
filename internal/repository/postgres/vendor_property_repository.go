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
	"github.com/jackc/pgx/v5/pgxpool"
)

// vendorPropertyRepository implements repository.VendorPropertyRepository.
type vendorPropertyRepository struct {
	pool *pgxpool.Pool
}

// NewVendorPropertyRepository creates a Postgres-backed vendor property
// repository.
func NewVendorPropertyRepository(pool *pgxpool.Pool) repository.VendorPropertyRepository {
	return &vendorPropertyRepository{pool: pool}
}

func (r *vendorPropertyRepository) Set(ctx context.Context, elementGUID uuid.UUID, properties map[string]string) error {
	if properties == nil {
		_, err := r.pool.Exec(ctx, `
			DELETE FROM element_vendor_properties WHERE element_guid = $1`, elementGUID)
		if err != nil {
			return mapError(err, domain.KindStoreUnavailable,
				"failed to clear vendor properties for %s", elementGUID)
		}
		return nil
	}

	propertiesJSON, err := json.Marshal(properties)
	if err != nil {
		return fmt.Errorf("failed to marshal vendor properties: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO element_vendor_properties (element_guid, properties, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (element_guid)
		DO UPDATE SET properties = EXCLUDED.properties, updated_at = now()`,
		elementGUID, propertiesJSON)
	if err != nil {
		return mapError(err, domain.KindStoreUnavailable,
			"failed to set vendor properties for %s", elementGUID)
	}
	return nil
}

func (r *vendorPropertyRepository) Get(ctx context.Context, elementGUID uuid.UUID) (map[string]string, error) {
	var propertiesJSON json.RawMessage
	err := r.pool.QueryRow(ctx, `
		SELECT properties FROM element_vendor_properties WHERE element_guid = $1`,
		elementGUID).Scan(&propertiesJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return map[string]string{}, nil
		}
		return nil, mapError(err, domain.KindStoreUnavailable,
			"failed to get vendor properties for %s", elementGUID)
	}

	properties := map[string]string{}
	if len(propertiesJSON) > 0 {
		if err := json.Unmarshal(propertiesJSON, &properties); err != nil {
			return nil, fmt.Errorf("failed to decode vendor properties for %s: %w", elementGUID, err)
		}
	}
	return properties, nil
}
