package tenants

import (
	"github.com/dalemusser/partnerportal/internal/app/system/auth"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the tenant directory under /admin/tenants. Reviewers may
// not edit tenants.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleSuperAdmin, models.RoleAdmin))

	r.Get("/", h.ServeList)
	r.Post("/{id}", h.HandleUpdate)
	return r
}
