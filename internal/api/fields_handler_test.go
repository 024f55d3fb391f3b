package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpattn/filterql/internal/domain"
)

func TestFieldsHandlerGet(t *testing.T) {
	fieldRepo := &fakeFieldRepo{fields: []domain.FilterField{
		{Name: "name", Label: "Name", Type: domain.FilterFieldTypeText},
		{Name: "status", Label: "Status", Type: domain.FilterFieldTypeEnum, Options: []domain.FilterFieldOption{
			{Value: "ACTIVE", Label: "Active"},
		}},
	}}
	handler := NewFieldsHandler(fieldRepo)

	req := httptest.NewRequest(http.MethodGet,
		"/fields?organizationId="+testOrgID.String()+"&entityType=equipment", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		EntityType string               `json:"entityType"`
		Fields     []domain.FilterField `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EntityType != "equipment" || len(resp.Fields) != 2 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Fields[1].Options[0].Value != "ACTIVE" {
		t.Errorf("enum options lost: %+v", resp.Fields[1])
	}
}

func TestFieldsHandlerGetMissingCatalog(t *testing.T) {
	handler := NewFieldsHandler(&fakeFieldRepo{})

	req := httptest.NewRequest(http.MethodGet,
		"/fields?organizationId="+testOrgID.String()+"&entityType=equipment", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestFieldsHandlerReplace(t *testing.T) {
	fieldRepo := &fakeFieldRepo{}
	handler := NewFieldsHandler(fieldRepo)

	body := queryBody(t, map[string]any{
		"organizationId": testOrgID.String(),
		"entityType":     "equipment",
		"fields": []map[string]any{
			{"name": "name", "label": "Name", "type": "TEXT"},
			{"name": "age", "label": "Age", "type": "NUMBER"},
		},
	})
	req := httptest.NewRequest(http.MethodPut, "/fields", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(fieldRepo.replaced) != 2 || fieldRepo.replaced[1].Type != domain.FilterFieldTypeNumber {
		t.Errorf("replaced = %+v", fieldRepo.replaced)
	}
}

func TestFieldsHandlerReplaceValidation(t *testing.T) {
	handler := NewFieldsHandler(&fakeFieldRepo{})

	tests := []struct {
		name   string
		fields []map[string]any
	}{
		{"blank name", []map[string]any{{"name": "  ", "type": "TEXT"}}},
		{"missing type", []map[string]any{{"name": "age"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := queryBody(t, map[string]any{
				"organizationId": testOrgID.String(),
				"entityType":     "equipment",
				"fields":         tt.fields,
			})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/fields", body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
