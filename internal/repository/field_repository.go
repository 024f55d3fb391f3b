package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/filterql/internal/domain"
)

// ErrFieldCatalogNotFound is returned when no catalog exists for an
// (organization, entity type) pair.
var ErrFieldCatalogNotFound = errors.New("field catalog not found")

// fieldCatalogRepository implements FieldCatalogRepository on Postgres.
// Catalogs are stored whole as JSONB: they are read per evaluation request
// and replaced atomically by the host.
type fieldCatalogRepository struct {
	pool *pgxpool.Pool
}

// NewFieldCatalogRepository creates a new field catalog repository.
func NewFieldCatalogRepository(pool *pgxpool.Pool) FieldCatalogRepository {
	return &fieldCatalogRepository{pool: pool}
}

// Replace stores the catalog for an entity type, overwriting any previous
// version.
func (r *fieldCatalogRepository) Replace(ctx context.Context, organizationID uuid.UUID, entityType string, fields []domain.FilterField) error {
	if fields == nil {
		fields = []domain.FilterField{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal field catalog: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		"INSERT INTO filter_fields (organization_id, entity_type, fields, updated_at) VALUES ($1, $2, $3, now()) "+
			"ON CONFLICT (organization_id, entity_type) DO UPDATE SET fields = EXCLUDED.fields, updated_at = now()",
		organizationID, entityType, fieldsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to replace field catalog: %w", err)
	}
	return nil
}

// Get loads the catalog for an entity type.
func (r *fieldCatalogRepository) Get(ctx context.Context, organizationID uuid.UUID, entityType string) ([]domain.FilterField, error) {
	var fieldsJSON json.RawMessage
	err := r.pool.QueryRow(ctx,
		"SELECT fields FROM filter_fields WHERE organization_id = $1 AND entity_type = $2",
		organizationID, entityType,
	).Scan(&fieldsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFieldCatalogNotFound
		}
		return nil, fmt.Errorf("failed to get field catalog: %w", err)
	}

	var fields []domain.FilterField
	if err := json.Unmarshal(fieldsJSON, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode field catalog: %w", err)
	}
	return fields, nil
}
