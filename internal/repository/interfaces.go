package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rpattn/filterql/internal/domain"
)

// EntityRepository persists materialized entities and answers filtered
// listings. List pushes a compiled filter down to the store; callers that
// want in-memory evaluation pass a nil filter and apply the direct
// predicate themselves.
type EntityRepository interface {
	Create(ctx context.Context, entity domain.Entity) (domain.Entity, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Entity, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Entity, error)
	List(ctx context.Context, query ListQuery) ([]domain.Entity, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, organizationID uuid.UUID) (int64, error)
}

// ListQuery bundles the parameters of a filtered listing.
type ListQuery struct {
	OrganizationID uuid.UUID
	EntityType     string
	Filter         *domain.FilterDefinition
	Fields         []domain.FilterField
	Sort           *domain.EntitySort
	Limit          int
	Offset         int
}

// FieldCatalogRepository stores the host-supplied filter field catalog per
// (organization, entity type).
type FieldCatalogRepository interface {
	Replace(ctx context.Context, organizationID uuid.UUID, entityType string, fields []domain.FilterField) error
	Get(ctx context.Context, organizationID uuid.UUID, entityType string) ([]domain.FilterField, error)
}
