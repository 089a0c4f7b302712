// Package landing routes a partner identity to its tenant after sign-in at
// the identity provider.
package landing

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/dalemusser/partnerportal/internal/app/system/auditlog"
	"github.com/dalemusser/partnerportal/internal/app/system/identity"
	"github.com/dalemusser/partnerportal/internal/app/system/membership"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for each resolution state.
const (
	workspacePrefix = "/workspace/"
	activatePath    = "/activate"
	supportPath     = "/support"
	suspendedPath   = "/suspended"
)

// Resolver is the membership lookup used at landing time.
type Resolver interface {
	Resolve(ctx context.Context, identityID string) (membership.Resolution, error)
}

type Handler struct {
	Verifier *identity.Verifier
	Resolver Resolver
	Log      *zap.Logger
	AuditLog *auditlog.Logger
}

func NewHandler(verifier *identity.Verifier, resolver Resolver, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Verifier: verifier, Resolver: resolver, Log: logger, AuditLog: audit}
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLanding)
	return r
}

// ServeLanding handles GET /auth/landing. The access token comes from the
// Authorization header, or from access_token when the provider hands it back
// on the query string.
func (h *Handler) ServeLanding(w http.ResponseWriter, r *http.Request) {
	token := identity.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = query.Get(r, "access_token")
	}
	claims, err := h.Verifier.Parse(token)
	if err != nil {
		h.Log.Warn("landing rejected", zap.Error(err))
		w.Header().Set("WWW-Authenticate", `Bearer realm="partnerportal"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	identityID := claims.Subject

	// Resolve can sleep between attempts, so it gets the long budget.
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "landing resolve")
	defer cancel()

	res, err := h.Resolver.Resolve(ctx, identityID)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.Canceled) {
			status = http.StatusRequestTimeout
		}
		h.Log.Error("landing resolve failed", zap.String("identity_id", identityID), zap.Error(err))
		http.Error(w, http.StatusText(status), status)
		return
	}

	var tenantID *primitive.ObjectID
	if !res.TenantID.IsZero() {
		tenantID = &res.TenantID
	}
	h.AuditLog.LandingResolved(ctx, r, identityID, tenantID, string(res.State), string(res.Source))
	h.Log.Info("landing resolved",
		zap.String("identity_id", identityID),
		zap.String("state", string(res.State)),
		zap.String("source", string(res.Source)))

	http.Redirect(w, r, Destination(res), http.StatusFound)
}

// Destination maps a resolution to the path the identity is sent to.
func Destination(res membership.Resolution) string {
	switch res.State {
	case membership.StateWorkspace:
		return workspacePrefix + res.TenantID.Hex()
	case membership.StateActivate:
		return activatePath + "?tenant=" + url.QueryEscape(res.TenantID.Hex())
	case membership.StateSuspended:
		return suspendedPath
	default:
		return supportPath
	}
}
