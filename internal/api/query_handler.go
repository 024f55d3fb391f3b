package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/filterql/internal/auth"
	"github.com/rpattn/filterql/internal/domain"
	"github.com/rpattn/filterql/internal/filter"
	"github.com/rpattn/filterql/internal/repository"
)

// QueryMode selects which evaluation backend answers a query.
type QueryMode string

const (
	// ModePushdown compiles the filter to SQL and lets the store filter.
	ModePushdown QueryMode = "pushdown"
	// ModeMemory pages entities out and applies the direct predicate
	// in-process. Both modes return the same rows for the same filter.
	ModeMemory QueryMode = "memory"
)

const memoryScanPageSize = 500

// QueryHandler answers filtered entity listings.
type QueryHandler struct {
	entityRepo repository.EntityRepository
	fieldRepo  repository.FieldCatalogRepository
}

func NewQueryHandler(entityRepo repository.EntityRepository, fieldRepo repository.FieldCatalogRepository) *QueryHandler {
	return &QueryHandler{entityRepo: entityRepo, fieldRepo: fieldRepo}
}

type queryPayload struct {
	OrganizationID string                   `json:"organizationId"`
	EntityType     string                   `json:"entityType"`
	Filter         *domain.FilterDefinition `json:"filter"`
	Limit          int                      `json:"limit"`
	Offset         int                      `json:"offset"`
	Mode           string                   `json:"mode"`
	Sort           *sortInput               `json:"sort"`
}

type queryResponse struct {
	Entities   []domain.Entity `json:"entities"`
	TotalCount int             `json:"totalCount"`
	Mode       QueryMode       `json:"mode"`
}

func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var payload queryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	orgID, err := uuid.Parse(strings.TrimSpace(payload.OrganizationID))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid organizationId: %v", err), http.StatusBadRequest)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), orgID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	entityType := strings.TrimSpace(payload.EntityType)
	if entityType == "" {
		http.Error(w, "entityType is required", http.StatusBadRequest)
		return
	}
	mode := QueryMode(strings.ToLower(strings.TrimSpace(payload.Mode)))
	if mode == "" {
		mode = ModePushdown
	}
	if mode != ModePushdown && mode != ModeMemory {
		http.Error(w, fmt.Sprintf("unsupported mode %q", payload.Mode), http.StatusBadRequest)
		return
	}

	fields, err := h.fieldRepo.Get(r.Context(), orgID, entityType)
	if err != nil && !errors.Is(err, repository.ErrFieldCatalogNotFound) {
		http.Error(w, fmt.Sprintf("load field catalog: %v", err), http.StatusInternalServerError)
		return
	}

	limit := payload.Limit
	if limit <= 0 {
		limit = 25
	}
	offset := payload.Offset
	if offset < 0 {
		offset = 0
	}
	sort := toEntitySort(payload.Sort)

	var (
		entities []domain.Entity
		total    int
	)
	switch mode {
	case ModePushdown:
		entities, total, err = h.entityRepo.List(r.Context(), repository.ListQuery{
			OrganizationID: orgID,
			EntityType:     entityType,
			Filter:         payload.Filter,
			Fields:         fields,
			Sort:           sort,
			Limit:          limit,
			Offset:         offset,
		})
	case ModeMemory:
		entities, total, err = h.queryInMemory(r.Context(), orgID, entityType, payload.Filter, fields, sort, limit, offset)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("query entities: %v", err), http.StatusInternalServerError)
		return
	}
	if entities == nil {
		entities = []domain.Entity{}
	}
	writeJSON(w, http.StatusOK, queryResponse{Entities: entities, TotalCount: total, Mode: mode})
}

// queryInMemory pages the unfiltered listing out of the store and applies
// the direct predicate in-process.
func (h *QueryHandler) queryInMemory(
	ctx context.Context,
	orgID uuid.UUID,
	entityType string,
	def *domain.FilterDefinition,
	fields []domain.FilterField,
	sort *domain.EntitySort,
	limit, offset int,
) ([]domain.Entity, int, error) {
	predicate := func(filter.Source) bool { return true }
	if def != nil {
		predicate = filter.Evaluate(*def, fields)
	}

	matched := make([]domain.Entity, 0, limit)
	total := 0
	scanOffset := 0
	for {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		page, _, err := h.entityRepo.List(ctx, repository.ListQuery{
			OrganizationID: orgID,
			EntityType:     entityType,
			Sort:           sort,
			Limit:          memoryScanPageSize,
			Offset:         scanOffset,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("scan entities: %w", err)
		}
		if len(page) == 0 {
			break
		}
		for _, entity := range page {
			if !predicate(entity) {
				continue
			}
			if total >= offset && len(matched) < limit {
				matched = append(matched, entity)
			}
			total++
		}
		if len(page) < memoryScanPageSize {
			break
		}
		scanOffset += memoryScanPageSize
	}
	return matched, total, nil
}
