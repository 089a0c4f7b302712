package applications

import (
	"errors"
	"net/http"

	applicationstore "github.com/dalemusser/partnerportal/internal/app/store/applications"
	"github.com/dalemusser/partnerportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeDetail handles GET /admin/applications/{id}.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogNotFound(w, r, "bad application id", "Application not found.", "/admin/applications")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "application detail")
	defer cancel()

	app, err := h.Reviews.Get(ctx, id)
	if errors.Is(err, applicationstore.ErrNotFound) {
		h.ErrLog.LogNotFound(w, r, "application not found", "Application not found.", "/admin/applications")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load application failed", err, "A database error occurred.", "/admin/applications")
		return
	}

	var urls map[string]string
	if h.Signer != nil {
		urls = h.Signer.URLs(ctx, app.DocPaths())
	}

	vm := detailVM{
		Title:      app.CompanyName,
		CSRFToken:  csrf.Token(r),
		Row:        toRow(app, urls),
		Notes:      htmlsanitize.SanitizeToHTML(app.Notes),
		ReviewedBy: app.ReviewedBy,
		LastInvite: app.LastInviteKind,
		Decided:    query.Get(r, "decided"),
		Invite:     query.Get(r, "invite"),
		Via:        query.Get(r, "via"),
		Error:      query.Get(r, "error"),
		Message:    query.Get(r, "message"),
	}
	if app.ReviewedAt != nil {
		vm.ReviewedAt = app.ReviewedAt.UTC().Format(dateLayout)
	}
	templates.Render(w, r, "applications_detail", vm)
}
