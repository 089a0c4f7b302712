package applications

import (
	"github.com/dalemusser/partnerportal/internal/app/system/auth"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the Review Console under /admin/applications.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer))

	r.Get("/", h.ServeList)
	r.Get("/export", h.ServeExport)
	r.Post("/bulk", h.HandleBulk)
	r.Get("/{id}", h.ServeDetail)
	r.Post("/{id}/decision", h.HandleDecision)
	return r
}
