// internal/app/bootstrap/bodylimit.go
package bootstrap

import (
	"net/http"

	"go.uber.org/zap"
)

// defaultBodyLimit caps request bodies on routes without their own budget.
const defaultBodyLimit = 1 << 20

// limitBody caps every request body before any middleware reads it. Paths in
// budgets get their own limit; the rest get def. Bodies that announce an
// oversized Content-Length are refused without reading.
func limitBody(def int64, budgets map[string]int64, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := def
			if n, ok := budgets[r.URL.Path]; ok {
				limit = n
			}
			if r.ContentLength > limit {
				logger.Warn("request body too large",
					zap.String("path", r.URL.Path),
					zap.Int64("content_length", r.ContentLength),
					zap.Int64("limit", limit))
				http.Error(w, "Request body too large.", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
