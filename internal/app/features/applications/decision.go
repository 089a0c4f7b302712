package applications

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	applicationstore "github.com/dalemusser/partnerportal/internal/app/store/applications"
	"github.com/dalemusser/partnerportal/internal/app/system/auth"
	"github.com/dalemusser/partnerportal/internal/app/system/invitation"
	"github.com/dalemusser/partnerportal/internal/app/system/review"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Error codes carried in the redirect's error parameter.
const (
	errCodeInvalidID       = "invalid_id"
	errCodeInvalidDecision = "invalid_decision"
	errCodeNotFound        = "not_found"
	errCodeNoSelection     = "no_selection"
	errCodeTenant          = "tenant_provisioning"
	errCodeInvitation      = "invitation_failed"
	errCodeServer          = "server_error"
)

const listPath = "/admin/applications"

func actorID(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		return u.ID
	}
	return ""
}

func redirectWith(w http.ResponseWriter, r *http.Request, base string, params map[string]string) {
	http.Redirect(w, r, urlutil.AddOrSetQueryParams(base, params), http.StatusSeeOther)
}

func errorParams(code string, err error) map[string]string {
	return map[string]string{"error": code, "message": err.Error()}
}

// HandleDecision handles POST /admin/applications/{id}/decision.
// It always answers with a 303 back to the application.
func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		redirectWith(w, r, listPath, errorParams(errCodeInvalidID, errors.New("invalid application id")))
		return
	}
	back := listPath + "/" + rawID

	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, back, errorParams(errCodeInvalidDecision, err))
		return
	}
	decision := strings.TrimSpace(r.FormValue("decision"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "application decision")
	defer cancel()

	out, err := h.Reviews.Decide(ctx, actorID(r), id, decision)
	if err != nil {
		code := decisionErrorCode(err)
		if code == errCodeServer {
			h.Log.Error("application decision failed",
				zap.String("application_id", rawID),
				zap.String("decision", decision),
				zap.Error(err))
		}
		if (code == errCodeInvalidDecision && !errors.Is(err, review.ErrNotApproved)) || code == errCodeNotFound {
			back = listPath
		}
		redirectWith(w, r, back, errorParams(code, err))
		return
	}

	params := map[string]string{"decided": out.Decision}
	if out.Invitation != nil {
		params["invite"] = out.Invitation.URL
		params["via"] = string(out.Invitation.Kind)
	}
	redirectWith(w, r, back, params)
}

func decisionErrorCode(err error) string {
	switch {
	case errors.Is(err, review.ErrInvalidDecision), errors.Is(err, applicationstore.ErrInvalidStatus):
		return errCodeInvalidDecision
	case errors.Is(err, applicationstore.ErrNotFound):
		return errCodeNotFound
	case errors.Is(err, invitation.ErrTenantProvisioning):
		return errCodeTenant
	case errors.Is(err, review.ErrInvitation):
		return errCodeInvitation
	default:
		return errCodeServer
	}
}

// HandleBulk handles POST /admin/applications/bulk with a comma-separated
// ids field. Bulk decisions never issue invitations.
func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, listPath, errorParams(errCodeNoSelection, err))
		return
	}
	back := urlutil.SafeReturn(r.FormValue("return"), "", listPath)
	decision := strings.TrimSpace(r.FormValue("decision"))

	// Accept the comma-separated ids field and any checked rows.
	raw := strings.Join(append([]string{r.FormValue("ids")}, r.Form["pick"]...), ",")
	ids, err := parseIDs(raw)
	if err != nil {
		redirectWith(w, r, back, errorParams(errCodeInvalidID, err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "bulk decision")
	defer cancel()

	n, err := h.Reviews.BulkDecide(ctx, actorID(r), ids, decision)
	switch {
	case err == nil:
	case errors.Is(err, review.ErrNoSelection):
		redirectWith(w, r, back, errorParams(errCodeNoSelection, err))
		return
	case errors.Is(err, review.ErrInvalidDecision):
		redirectWith(w, r, back, errorParams(errCodeInvalidDecision, err))
		return
	default:
		h.Log.Error("bulk decision failed", zap.Int("requested", len(ids)), zap.Error(err))
		redirectWith(w, r, back, errorParams(errCodeServer, err))
		return
	}

	redirectWith(w, r, back, map[string]string{
		"decided": decision,
		"count":   strconv.FormatInt(n, 10),
	})
}

// parseIDs splits a comma-separated list of ObjectID hex strings, skipping
// blanks and duplicates.
func parseIDs(raw string) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(part)
		if err != nil {
			return nil, errors.New("invalid application id: " + part)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}
