package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/filterql/internal/domain"
	"github.com/rpattn/filterql/internal/filter"
)

// entityRepository implements EntityRepository on Postgres.
type entityRepository struct {
	pool *pgxpool.Pool
}

// NewEntityRepository creates a new entity repository.
func NewEntityRepository(pool *pgxpool.Pool) EntityRepository {
	return &entityRepository{pool: pool}
}

const entityColumns = "id, organization_id, entity_type, properties, created_at, updated_at"

// Create inserts a new entity.
func (r *entityRepository) Create(ctx context.Context, entity domain.Entity) (domain.Entity, error) {
	propertiesJSON, err := entity.GetPropertiesAsJSONB()
	if err != nil {
		return domain.Entity{}, fmt.Errorf("failed to marshal properties: %w", err)
	}

	if entity.ID == uuid.Nil {
		entity.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx,
		"INSERT INTO entities (id, organization_id, entity_type, properties) VALUES ($1, $2, $3, $4) "+
			"RETURNING "+entityColumns,
		entity.ID, entity.OrganizationID, entity.EntityType, propertiesJSON,
	)
	return scanEntity(row)
}

// GetByID retrieves an entity by ID.
func (r *entityRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Entity, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+entityColumns+" FROM entities WHERE id = $1", id)
	entity, err := scanEntity(row)
	if err != nil {
		return domain.Entity{}, fmt.Errorf("failed to get entity: %w", err)
	}
	return entity, nil
}

// GetByIDs retrieves multiple entities by their IDs.
func (r *entityRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Entity, error) {
	if len(ids) == 0 {
		return []domain.Entity{}, nil
	}

	rows, err := r.pool.Query(ctx, "SELECT "+entityColumns+" FROM entities WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get entities by IDs: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity rows: %w", err)
	}
	return entities, nil
}

// List retrieves entities matching the query. When a filter is present it
// is compiled and lowered to a WHERE clause so Postgres does the
// filtering; the returned count is the total matching rows before paging.
func (r *entityRepository) List(ctx context.Context, query ListQuery) ([]domain.Entity, int, error) {
	builder := newSQLBuilder()
	alias := "e"

	whereClauses := []string{
		fmt.Sprintf("%s.organization_id = %s", alias, builder.placeholder(builder.addArg(query.OrganizationID))),
	}
	if query.EntityType != "" {
		whereClauses = append(whereClauses,
			fmt.Sprintf("%s.entity_type = %s", alias, builder.placeholder(builder.addArg(query.EntityType))))
	}
	if query.Filter != nil && !query.Filter.IsEmpty() {
		node := filter.Compile(*query.Filter, query.Fields)
		whereClauses = append(whereClauses, renderFilterNode(alias, node, builder))
	}

	fromClause := fmt.Sprintf("FROM entities %s WHERE %s", alias, strings.Join(whereClauses, " AND "))
	countArgs := append([]any{}, builder.args...)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+fromClause, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count filtered entities: %w", err)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 25
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	selectQuery := fmt.Sprintf("SELECT %s.id, %s.organization_id, %s.entity_type, %s.properties, %s.created_at, %s.updated_at %s %s LIMIT %s OFFSET %s",
		alias, alias, alias, alias, alias, alias,
		fromClause,
		orderClause(alias, query.Sort, builder),
		builder.placeholder(builder.addArg(limit)),
		builder.placeholder(builder.addArg(offset)),
	)

	rows, err := r.pool.Query(ctx, selectQuery, builder.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list filtered entities: %w", err)
	}
	defer rows.Close()

	entities := make([]domain.Entity, 0)
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, 0, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate entity rows: %w", err)
	}

	return entities, total, nil
}

// Delete deletes an entity.
func (r *entityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM entities WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	return nil
}

// Count returns the total count of entities for an organization.
func (r *entityRepository) Count(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM entities WHERE organization_id = $1", organizationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return count, nil
}

func orderClause(alias string, sort *domain.EntitySort, builder *sqlBuilder) string {
	if sort == nil {
		return fmt.Sprintf("ORDER BY %s.created_at DESC", alias)
	}

	direction := "ASC"
	if sort.Direction == domain.SortDirectionDesc {
		direction = "DESC"
	}

	switch sort.Field {
	case domain.EntitySortFieldUpdatedAt:
		return fmt.Sprintf("ORDER BY %s.updated_at %s", alias, direction)
	case domain.EntitySortFieldEntityType:
		return fmt.Sprintf("ORDER BY %s.entity_type %s", alias, direction)
	case domain.EntitySortFieldProperty:
		if sort.PropertyKey != "" {
			keyIdx := builder.addArg(sort.PropertyKey)
			return fmt.Sprintf("ORDER BY %s.properties ->> %s::text %s NULLS LAST", alias, builder.placeholder(keyIdx), direction)
		}
	}
	return fmt.Sprintf("ORDER BY %s.created_at %s", alias, direction)
}

// rowScanner matches both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (domain.Entity, error) {
	var (
		entity         domain.Entity
		propertiesJSON json.RawMessage
		createdAt      time.Time
		updatedAt      time.Time
	)
	if err := row.Scan(&entity.ID, &entity.OrganizationID, &entity.EntityType, &propertiesJSON, &createdAt, &updatedAt); err != nil {
		return domain.Entity{}, fmt.Errorf("scan entity row: %w", err)
	}

	properties, err := domain.FromJSONBProperties(propertiesJSON)
	if err != nil {
		return domain.Entity{}, fmt.Errorf("failed to decode properties for entity %s: %w", entity.ID, err)
	}
	entity.Properties = properties
	entity.CreatedAt = createdAt
	entity.UpdatedAt = updatedAt
	return entity, nil
}
