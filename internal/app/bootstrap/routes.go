// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	applicationsfeature "github.com/dalemusser/partnerportal/internal/app/features/applications"
	auditlogfeature "github.com/dalemusser/partnerportal/internal/app/features/auditlog"
	applyfeature "github.com/dalemusser/partnerportal/internal/app/features/apply"
	errorsfeature "github.com/dalemusser/partnerportal/internal/app/features/errors"
	healthfeature "github.com/dalemusser/partnerportal/internal/app/features/health"
	landingfeature "github.com/dalemusser/partnerportal/internal/app/features/landing"
	loginfeature "github.com/dalemusser/partnerportal/internal/app/features/login"
	logoutfeature "github.com/dalemusser/partnerportal/internal/app/features/logout"
	tenantsfeature "github.com/dalemusser/partnerportal/internal/app/features/tenants"
	adminuserstore "github.com/dalemusser/partnerportal/internal/app/store/adminusers"
	applicationstore "github.com/dalemusser/partnerportal/internal/app/store/applications"
	invitationstore "github.com/dalemusser/partnerportal/internal/app/store/invitations"
	membershipstore "github.com/dalemusser/partnerportal/internal/app/store/memberships"
	profilestore "github.com/dalemusser/partnerportal/internal/app/store/profiles"
	tenantstore "github.com/dalemusser/partnerportal/internal/app/store/tenants"
	"github.com/dalemusser/partnerportal/internal/app/system/auditlog"
	"github.com/dalemusser/partnerportal/internal/app/system/auth"
	"github.com/dalemusser/partnerportal/internal/app/system/docstore"
	"github.com/dalemusser/partnerportal/internal/app/system/identity"
	"github.com/dalemusser/partnerportal/internal/app/system/invitation"
	"github.com/dalemusser/partnerportal/internal/app/system/membership"
	"github.com/dalemusser/partnerportal/internal/app/system/ratelimit"
	"github.com/dalemusser/partnerportal/internal/app/system/review"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// filesPrefix is where local-disk documents are served from.
const filesPrefix = "/files"

// bodyBudgets are the per-path body limits that differ from defaultBodyLimit.
var bodyBudgets = map[string]int64{
	"/apply":  applyfeature.MaxFormSize,
	"/apply/": applyfeature.MaxFormSize,
}

// useRequestGuards installs the middleware that must run before anything
// parses a request body: the size limit, the submission limiter, then CSRF.
func useRequestGuards(r chi.Router, submissions, protect func(http.Handler) http.Handler, logger *zap.Logger) {
	r.Use(limitBody(defaultBodyLimit, bodyBudgets, logger))
	r.Use(submissions)
	r.Use(protect)
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It boots the template engine, builds the
// domain services and mounts every feature router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Role changes and disabled accounts take effect on the next request.
	sessionMgr.SetUserFetcher(adminuserstore.NewFetcher(db))

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLogger := auditlog.New(deps.Outbox, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	// Invitation issuer. Native invites are skipped when no provider is
	// configured.
	var provider invitation.Provider
	if appCfg.IdPBaseURL != "" {
		client, err := identity.NewClient(identity.Config{
			BaseURL:      appCfg.IdPBaseURL,
			ServiceKey:   appCfg.IdPServiceKey,
			ClientID:     appCfg.IdPClientID,
			ClientSecret: appCfg.IdPClientSecret,
			TokenURL:     appCfg.IdPTokenURL,
		}, logger)
		if err != nil {
			logger.Error("identity provider client init failed", zap.Error(err))
			return nil, err
		}
		provider = client
	} else {
		logger.Warn("idp_base_url not set; every invitation uses the fallback path")
	}
	tenants := tenantstore.New(db)
	issuer := invitation.New(tenants, invitationstore.New(db), provider, auditLogger, logger, invitation.Config{
		BaseURL:       appCfg.BaseURL,
		SigningSecret: appCfg.InviteSigningSecret,
		Expiry:        invitation.DefaultExpiry,
	})
	reviews := review.New(applicationstore.New(db), issuer, auditLogger, logger)
	signer := docstore.NewSigner(deps.Docs, appCfg.DocURLExpiry, logger)

	resolver := membership.NewResolver(profilestore.New(db), membershipstore.New(db), tenants, logger, membership.Config{
		Attempts: uint(appCfg.ResolverAttempts),
		Delay:    appCfg.ResolverDelay,
	})

	applyHandler := applyfeature.NewHandler(db, deps.Docs, errLog, auditLogger, logger)
	applyHandler.Limiter = ratelimit.New(5, 10*time.Minute)

	r := chi.NewRouter()
	useRequestGuards(r, applyHandler.LimitSubmissions, csrfMiddleware(appCfg.SessionKey, secure, logger), logger)

	// Loads the admin SessionUser into context when signed in.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Outbox, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/apply", http.StatusSeeOther)
	})

	// Public application form
	r.Mount("/apply", applyfeature.Routes(applyHandler))

	// Partner sign-in landing
	landingHandler := landingfeature.NewHandler(identity.NewVerifier(appCfg.IdPJWTSecret), resolver, auditLogger, logger)
	r.Mount("/auth/landing", landingfeature.Routes(landingHandler))

	// Admin authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, auditLogger, logger)
	loginHandler.Limiter = ratelimit.NewLoginLimiter()
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLogger, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Review Console and tenant directory
	applicationsHandler := applicationsfeature.NewHandler(reviews, signer, errLog, logger)
	r.Mount("/admin/applications", applicationsfeature.Routes(applicationsHandler, sessionMgr))

	tenantsHandler := tenantsfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/admin/tenants", tenantsfeature.Routes(tenantsHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	r.Mount("/admin/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	// Signed downloads for local-disk documents
	if local, ok := deps.Docs.(*docstore.Local); ok {
		r.Handle(filesPrefix+"/*", http.StripPrefix(filesPrefix, local))
	}

	return otelhttp.NewHandler(r, "partnerportal",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" }),
	), nil
}
