package middleware

import (
	"context"
	"net/http"

	"github.com/openmetagraph/metacat/internal/elementloader"
	"github.com/openmetagraph/metacat/internal/repository"
)

type ctxKey string

const elementLoaderKey ctxKey = "elementLoader"

// ElementLoader attaches a request-scoped batching loader to the context so
// handlers expanding relationship ends share one store round trip.
func ElementLoader(repo repository.ElementRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := elementloader.NewElementLoader(repo)
			ctx := context.WithValue(r.Context(), elementLoaderKey, loader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ElementLoaderFromContext retrieves the request's loader, or nil when the
// middleware is not installed.
func ElementLoaderFromContext(ctx context.Context) *elementloader.ElementLoader {
	if l, ok := ctx.Value(elementLoaderKey).(*elementloader.ElementLoader); ok {
		return l
	}
	return nil
}
