package middleware

import (
	"context"
	"net/http"

	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/filterql/internal/entityloader"
	"github.com/rpattn/filterql/internal/repository"
)

type ctxKey struct{}

// DataLoaderMiddleware attaches a fresh per-request entity loader to the
// context. Loaders must not outlive the request: their cache would leak
// entities across organization scopes.
func DataLoaderMiddleware(repo repository.EntityRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := entityloader.NewEntityLoader(repo)
			ctx := context.WithValue(r.Context(), ctxKey{}, loader.Loader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EntityLoaderFromContext returns the request's entity loader, or nil when
// the middleware is not installed.
func EntityLoaderFromContext(ctx context.Context) *dataloader.Loader {
	if loader, ok := ctx.Value(ctxKey{}).(*dataloader.Loader); ok {
		return loader
	}
	return nil
}
