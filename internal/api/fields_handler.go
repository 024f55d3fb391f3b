package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/filterql/internal/auth"
	"github.com/rpattn/filterql/internal/domain"
	"github.com/rpattn/filterql/internal/repository"
)

// FieldsHandler serves and replaces the filter field catalog for an
// (organization, entity type) pair.
type FieldsHandler struct {
	fieldRepo repository.FieldCatalogRepository
}

func NewFieldsHandler(fieldRepo repository.FieldCatalogRepository) *FieldsHandler {
	return &FieldsHandler{fieldRepo: fieldRepo}
}

type fieldsPayload struct {
	OrganizationID string               `json:"organizationId"`
	EntityType     string               `json:"entityType"`
	Fields         []domain.FilterField `json:"fields"`
}

type fieldsResponse struct {
	OrganizationID uuid.UUID            `json:"organizationId"`
	EntityType     string               `json:"entityType"`
	Fields         []domain.FilterField `json:"fields"`
}

func (h *FieldsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPut:
		h.handleReplace(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *FieldsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	orgID, err := uuid.Parse(strings.TrimSpace(query.Get("organizationId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid organizationId: %v", err), http.StatusBadRequest)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), orgID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	entityType := strings.TrimSpace(query.Get("entityType"))
	if entityType == "" {
		http.Error(w, "entityType is required", http.StatusBadRequest)
		return
	}
	fields, err := h.fieldRepo.Get(r.Context(), orgID, entityType)
	if err != nil {
		if errors.Is(err, repository.ErrFieldCatalogNotFound) {
			http.Error(w, "field catalog not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("load field catalog: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, fieldsResponse{OrganizationID: orgID, EntityType: entityType, Fields: fields})
}

func (h *FieldsHandler) handleReplace(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload fieldsPayload
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
	for _, field := range payload.Fields {
		if strings.TrimSpace(field.Name) == "" {
			http.Error(w, "field name is required", http.StatusBadRequest)
			return
		}
		if field.Type == "" {
			http.Error(w, fmt.Sprintf("field %s is missing a type", field.Name), http.StatusBadRequest)
			return
		}
	}
	if err := h.fieldRepo.Replace(r.Context(), orgID, entityType, payload.Fields); err != nil {
		http.Error(w, fmt.Sprintf("replace field catalog: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, fieldsResponse{OrganizationID: orgID, EntityType: entityType, Fields: payload.Fields})
}
