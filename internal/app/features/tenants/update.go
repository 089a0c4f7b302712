package tenants

import (
	"errors"
	"net/http"
	"strings"

	tenantstore "github.com/dalemusser/partnerportal/internal/app/store/tenants"
	"github.com/dalemusser/partnerportal/internal/app/system/auth"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleUpdate handles POST /admin/tenants/{id}. It redirects back to the
// list with updated=<id> or error=<code>.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		h.redirect(w, r, map[string]string{"error": "invalid_id"})
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, map[string]string{"error": "bad_form"})
		return
	}

	in := tenantstore.Settings{
		Status:   strings.TrimSpace(r.FormValue("status")),
		Currency: strings.ToUpper(strings.TrimSpace(r.FormValue("currency"))),
		Locale:   strings.TrimSpace(r.FormValue("locale")),
	}
	if len(in.Currency) > 3 || len(in.Locale) > 16 {
		h.redirect(w, r, map[string]string{"error": "bad_form"})
		return
	}

	actor := ""
	if u, ok := auth.CurrentUser(r); ok {
		actor = u.ID
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "tenant update")
	defer cancel()

	switch err := h.Tenants.UpdateSettings(ctx, id, in, actor); {
	case err == nil:
	case errors.Is(err, tenantstore.ErrInvalidStatus):
		h.redirect(w, r, map[string]string{"error": "invalid_status"})
		return
	case errors.Is(err, tenantstore.ErrNotFound):
		h.redirect(w, r, map[string]string{"error": "not_found"})
		return
	default:
		h.Log.Error("tenant update failed", zap.String("tenant_id", rawID), zap.Error(err))
		h.redirect(w, r, map[string]string{"error": "server_error"})
		return
	}

	h.AuditLog.TenantUpdated(ctx, r, actor, id, in.Status)
	h.Log.Info("tenant updated",
		zap.String("tenant_id", rawID),
		zap.String("status", in.Status),
		zap.String("actor", actor))
	h.redirect(w, r, map[string]string{"updated": rawID})
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, params map[string]string) {
	back := urlutil.SafeReturn(r.FormValue("return"), "", listPath)
	http.Redirect(w, r, urlutil.AddOrSetQueryParams(back, params), http.StatusSeeOther)
}
