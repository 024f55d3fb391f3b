package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type scopeKey struct{}

// ErrMissingOrganization is returned when a request names no organization.
var ErrMissingOrganization = errors.New("organizationId is required")

// ContextWithOrganizationID scopes the context to one organization. Handlers
// downstream reject requests that name a different organization.
func ContextWithOrganizationID(ctx context.Context, id uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeKey{}, id)
}

// OrganizationIDFromContext reads the authenticated organization scope.
// The second return value is false when the context is unscoped.
func OrganizationIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(scopeKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// EnforceOrganizationScope rejects a request whose organization does not
// match the authenticated scope. Unscoped contexts pass: scoping is applied
// by whatever authentication layer fronts the service.
func EnforceOrganizationScope(ctx context.Context, organizationID uuid.UUID) error {
	if organizationID == uuid.Nil {
		return ErrMissingOrganization
	}
	scopedID, ok := OrganizationIDFromContext(ctx)
	if ok && scopedID != organizationID {
		return fmt.Errorf("organizationId %s does not match authenticated scope", organizationID)
	}
	return nil
}
