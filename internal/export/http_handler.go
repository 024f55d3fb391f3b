package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/filterql/internal/auth"
	"github.com/rpattn/filterql/internal/domain"
)

type Handler struct {
	service *Service
}

func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

type exportPayload struct {
	OrganizationID string                   `json:"organizationId"`
	EntityType     string                   `json:"entityType"`
	Format         string                   `json:"format"`
	Filter         *domain.FilterDefinition `json:"filter"`
	Columns        []string                 `json:"columns"`
	Sort           *sortInput               `json:"sort"`
}

type sortInput struct {
	Field       string `json:"field"`
	Direction   string `json:"direction"`
	PropertyKey string `json:"propertyKey"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var payload exportPayload
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
	format, err := FormatFromString(payload.Format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := Request{
		OrganizationID: orgID,
		EntityType:     payload.EntityType,
		Filter:         payload.Filter,
		Format:         format,
		Columns:        payload.Columns,
		Sort:           toEntitySort(payload.Sort),
	}

	// Headers must be committed before the first row is streamed.
	fileName := fmt.Sprintf("%s.%s", sanitizeFileName(payload.EntityType), format.Extension())
	w.Header().Set("Content-Type", format.MimeType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if _, err := h.service.Run(r.Context(), req, w); err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// The response may be partially written; the broken stream is
		// all we can signal at this point.
		log.Printf("[export] run failed: %v", err)
		return
	}
}

func toEntitySort(input *sortInput) *domain.EntitySort {
	if input == nil {
		return nil
	}
	sort := &domain.EntitySort{
		Field:       domain.EntitySortField(strings.ToLower(strings.TrimSpace(input.Field))),
		Direction:   domain.SortDirectionFromString(input.Direction),
		PropertyKey: strings.TrimSpace(input.PropertyKey),
	}
	if sort.Field == "" {
		return nil
	}
	return sort
}
