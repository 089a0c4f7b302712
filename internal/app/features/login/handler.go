// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/partnerportal/internal/app/features/errors"
	adminuserstore "github.com/dalemusser/partnerportal/internal/app/store/adminusers"
	"github.com/dalemusser/partnerportal/internal/app/store/audit"
	"github.com/dalemusser/partnerportal/internal/app/system/auditlog"
	"github.com/dalemusser/partnerportal/internal/app/system/auth"
	"github.com/dalemusser/partnerportal/internal/app/system/ratelimit"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// defaultLanding is where a console user goes after signing in.
const defaultLanding = "/admin/applications"

type Handler struct {
	Users      *adminuserstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger

	// Limiter throttles attempts per IP and per email; nil disables it.
	Limiter *ratelimit.LoginLimiter
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      adminuserstore.New(db),
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
	}
}

type loginFormData struct {
	Title     string
	CSRFToken string
	Error     string
	Email     string
	ReturnURL string
}

// ServeLogin handles GET /login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		Title:     "Sign in",
		CSRFToken: csrf.Token(r),
		ReturnURL: query.Get(r, "return"),
	})
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email, ret string) {
	h.renderForm(w, r, http.StatusUnauthorized, msg, email, ret)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, msg, email, ret string) {
	w.WriteHeader(status)
	templates.Render(w, r, "login", loginFormData{
		Title:     "Sign in",
		CSRFToken: csrf.Token(r),
		Error:     msg,
		Email:     email,
		ReturnURL: ret,
	})
}

// HandleLoginPost handles POST /login.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	ret := r.FormValue("return")
	if email == "" || password == "" {
		h.renderFormWithError(w, r, "Please enter your email and password.", email, ret)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, "", email, "rate limited")
			h.renderForm(w, r, http.StatusTooManyRequests, reason, email, ret)
			return
		}
	}

	u, err := h.Users.Authenticate(ctx, email, password)
	switch {
	case err == nil:
	case errors.Is(err, adminuserstore.ErrNotFound):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, "", email, "user not found")
		h.renderFormWithError(w, r, "Invalid email or password.", email, ret)
		return
	case errors.Is(err, adminuserstore.ErrWrongPassword):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, u.ID.Hex(), email, "wrong password")
		h.renderFormWithError(w, r, "Invalid email or password.", email, ret)
		return
	case errors.Is(err, adminuserstore.ErrDisabled):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, u.ID.Hex(), email, "user disabled")
		h.renderFormWithError(w, r, "This account is disabled.", email, ret)
		return
	default:
		h.ErrLog.LogServerError(w, r, "admin lookup failed", err, "A database error occurred.", "/login")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Unable to sign you in.", "/login")
		return
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID.Hex(), u.Email)
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}

	http.Redirect(w, r, urlutil.SafeReturn(ret, "", defaultLanding), http.StatusSeeOther)
}
