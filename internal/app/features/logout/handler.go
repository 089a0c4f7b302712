// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/partnerportal/internal/app/system/auditlog"
	"github.com/dalemusser/partnerportal/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler ends console sessions.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// ServeLogout handles POST /logout. The cookie is cleared even when saving
// the emptied session fails.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	u, signedIn := auth.CurrentUser(r)

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("sign out: save session failed", zap.Error(err))
	}
	if signedIn {
		h.AuditLog.Logout(r.Context(), r, u.ID)
		h.Log.Info("console user signed out", zap.String("user_id", u.ID), zap.String("role", u.Role))
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
