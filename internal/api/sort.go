package api

import (
	"strings"

	"github.com/rpattn/filterql/internal/domain"
)

type sortInput struct {
	Field       string `json:"field"`
	Direction   string `json:"direction"`
	PropertyKey string `json:"propertyKey"`
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
