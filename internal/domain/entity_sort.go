package domain

import "strings"

// SortDirection orders a listing ascending or descending.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// EntitySortField enumerates the sortable columns of an entity listing.
// EntitySortFieldProperty sorts by one key of the property bag and needs a
// PropertyKey alongside it.
type EntitySortField string

const (
	EntitySortFieldCreatedAt  EntitySortField = "created_at"
	EntitySortFieldUpdatedAt  EntitySortField = "updated_at"
	EntitySortFieldEntityType EntitySortField = "entity_type"
	EntitySortFieldProperty   EntitySortField = "property"
)

// EntitySort captures ordering preferences for entity listings.
type EntitySort struct {
	Field       EntitySortField
	Direction   SortDirection
	PropertyKey string
}

// SortDirectionFromString resolves a direction case-insensitively,
// defaulting to ascending for anything unrecognized.
func SortDirectionFromString(value string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(value), string(SortDirectionDesc)) {
		return SortDirectionDesc
	}
	return SortDirectionAsc
}
