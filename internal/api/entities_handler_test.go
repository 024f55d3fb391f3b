package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rpattn/filterql/internal/domain"
)

func TestCreateEntityNormalizesPropertyKeys(t *testing.T) {
	entityRepo := &fakeEntityRepo{}
	fieldRepo := &fakeFieldRepo{fields: []domain.FilterField{
		{Name: "name", Type: domain.FilterFieldTypeText},
		{Name: "count", Type: domain.FilterFieldTypeNumber},
	}}
	handler := NewEntitiesHandler(entityRepo, fieldRepo)

	body := `{"organizationId":"` + testOrgID.String() + `","entityType":"equipment","properties":{"Name":"Pump A","COUNT":3}}`
	req := httptest.NewRequest(http.MethodPost, "/entities", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(entityRepo.entities) != 1 {
		t.Fatalf("created = %d, want 1", len(entityRepo.entities))
	}
	props := entityRepo.entities[0].Properties
	if props["name"] != "Pump A" || props["count"] != 3.0 {
		t.Errorf("properties = %v, want keys stored under cataloged casing", props)
	}
	if _, ok := props["Name"]; ok {
		t.Error("payload casing should not leak into the stored bag")
	}
}

func TestCreateEntityRejectsInvalidProperties(t *testing.T) {
	entityRepo := &fakeEntityRepo{}
	fieldRepo := &fakeFieldRepo{fields: []domain.FilterField{
		{Name: "count", Type: domain.FilterFieldTypeNumber},
	}}
	handler := NewEntitiesHandler(entityRepo, fieldRepo)

	body := `{"organizationId":"` + testOrgID.String() + `","entityType":"equipment","properties":{"count":"not a number"}}`
	req := httptest.NewRequest(http.MethodPost, "/entities", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if len(entityRepo.entities) != 0 {
		t.Error("invalid entity should not be created")
	}
	var result struct {
		IsValid bool `json:"is_valid"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.IsValid {
		t.Error("validation result should report the failure")
	}
}
