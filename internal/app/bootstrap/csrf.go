// internal/app/bootstrap/csrf.go
package bootstrap

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// csrfMiddleware guards every unsafe request with a gorilla/csrf token. The
// token key is derived from the session key so no extra secret is needed.
// Outside production requests are marked plaintext so the Referer check
// does not demand HTTPS.
func csrfMiddleware(sessionKey string, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	key := sha256.Sum256([]byte("csrf:" + sessionKey))
	protect := csrf.Protect(key[:],
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf check failed",
				zap.String("path", r.URL.Path),
				zap.Error(csrf.FailureReason(r)))
			http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		})),
	)

	return func(next http.Handler) http.Handler {
		h := protect(next)
		if secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
