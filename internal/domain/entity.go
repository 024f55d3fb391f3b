package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entity is a materialized item the direct evaluation backend runs
// against: a bag of dynamic properties scoped to an organization.
type Entity struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	EntityType     string         `json:"entity_type"`
	Properties     map[string]any `json:"properties"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewEntity creates an entity with a deep-copied property bag.
func NewEntity(organizationID uuid.UUID, entityType string, properties map[string]any) Entity {
	now := time.Now()
	return Entity{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		EntityType:     entityType,
		Properties:     copyProperties(properties),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// WithProperty returns a copy of the entity with an added/updated property.
func (e Entity) WithProperty(key string, value any) Entity {
	newProperties := copyProperties(e.Properties)
	newProperties[key] = value
	e.Properties = newProperties
	e.UpdatedAt = time.Now()
	return e
}

// TypeName identifies the entity's type for accessor caching.
func (e Entity) TypeName() string {
	return e.EntityType
}

// FieldValue reads a property by name. Lookup is case-insensitive: an exact
// key match wins, otherwise the first fold-equal key is used. The second
// return value is false when no property carries the name.
func (e Entity) FieldValue(name string) (any, bool) {
	if value, ok := e.Properties[name]; ok {
		return value, true
	}
	for key, value := range e.Properties {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return nil, false
}

// NormalizePropertyKeys rewrites property keys onto their cataloged
// spelling so that stored bags and JSONB lookups agree on case. Keys with
// no catalog match are kept verbatim.
func NormalizePropertyKeys(properties map[string]any, fields []FilterField) map[string]any {
	normalized := make(map[string]any, len(properties))
	for key, value := range properties {
		if field, ok := FindFilterField(fields, key); ok {
			key = field.Name
		}
		normalized[key] = value
	}
	return normalized
}

// GetPropertiesAsJSONB marshals the property bag for storage.
func (e *Entity) GetPropertiesAsJSONB() (json.RawMessage, error) {
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
	return json.Marshal(e.Properties)
}

// FromJSONBProperties creates a properties map from JSONB data.
func FromJSONBProperties(propertiesJSON json.RawMessage) (map[string]any, error) {
	var properties map[string]any
	err := json.Unmarshal(propertiesJSON, &properties)
	return properties, err
}

func copyProperties(properties map[string]any) map[string]any {
	newProperties := make(map[string]any, len(properties))
	for k, v := range properties {
		newProperties[k] = v
	}
	return newProperties
}
