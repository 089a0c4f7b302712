// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/partnerportal/internal/app/system/auth"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit trail (typically at "/admin/audit").
// Reviewers cannot see it.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleSuperAdmin, models.RoleAdmin))

		pr.Get("/", h.ServeList)
	})

	return r
}
