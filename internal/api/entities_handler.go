package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/filterql/internal/auth"
	"github.com/rpattn/filterql/internal/domain"
	"github.com/rpattn/filterql/internal/middleware"
	"github.com/rpattn/filterql/internal/repository"
	"github.com/rpattn/filterql/pkg/validator"
)

// EntitiesHandler ingests materialized entities and serves batched lookups.
type EntitiesHandler struct {
	entityRepo repository.EntityRepository
	fieldRepo  repository.FieldCatalogRepository
	validator  *validator.PropertiesValidator
}

func NewEntitiesHandler(entityRepo repository.EntityRepository, fieldRepo repository.FieldCatalogRepository) *EntitiesHandler {
	return &EntitiesHandler{
		entityRepo: entityRepo,
		fieldRepo:  fieldRepo,
		validator:  validator.NewPropertiesValidator(),
	}
}

type createEntityPayload struct {
	OrganizationID string         `json:"organizationId"`
	EntityType     string         `json:"entityType"`
	Properties     map[string]any `json:"properties"`
}

func (h *EntitiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *EntitiesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload createEntityPayload
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
	properties := payload.Properties
	if fields, err := h.fieldRepo.Get(r.Context(), orgID, entityType); err == nil {
		properties = domain.NormalizePropertyKeys(properties, fields)
		result := h.validator.ValidateProperties(properties, fields)
		if !result.IsValid {
			writeJSON(w, http.StatusUnprocessableEntity, result)
			return
		}
	}
	entity := domain.NewEntity(orgID, entityType, properties)
	created, err := h.entityRepo.Create(r.Context(), entity)
	if err != nil {
		http.Error(w, fmt.Sprintf("create entity: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *EntitiesHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("ids"))
	if raw == "" {
		http.Error(w, "ids is required", http.StatusBadRequest)
		return
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid entity id %q: %v", part, err), http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	// Batch through the dataloader when the middleware attached one.
	if loader := middleware.EntityLoaderFromContext(r.Context()); loader != nil {
		keys := make(dataloader.Keys, len(ids))
		for i, id := range ids {
			keys[i] = dataloader.StringKey(id.String())
		}
		thunk := loader.LoadMany(r.Context(), keys)
		results, errs := thunk()
		if len(errs) > 0 {
			http.Error(w, fmt.Sprintf("load entities: %v", errs[0]), http.StatusInternalServerError)
			return
		}
		entities := make([]domain.Entity, 0, len(results))
		for _, result := range results {
			if entity, ok := result.(domain.Entity); ok {
				entities = append(entities, entity)
			}
		}
		writeJSON(w, http.StatusOK, entities)
		return
	}

	entities, err := h.entityRepo.GetByIDs(r.Context(), ids)
	if err != nil {
		http.Error(w, fmt.Sprintf("load entities: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

func (h *EntitiesHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid entity id: %v", err), http.StatusBadRequest)
		return
	}
	entity, err := h.entityRepo.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "entity not found", http.StatusNotFound)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), entity.OrganizationID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if err := h.entityRepo.Delete(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("delete entity: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
