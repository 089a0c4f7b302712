// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/system/invitation"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	devSessionKey         = "dev-only-change-me-please-0123456789ABCDEF"
	devSuperAdminPassword = "change-me-now"
)

// appConfigKeys defines the configuration keys for PartnerPortal.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PARTNERPORTAL_MONGO_URI, PARTNERPORTAL_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "partner_portal", Desc: "MongoDB database name"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "partnerportal-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "8h", Desc: "Admin session lifetime"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL used in invitation links"},
	{Name: "invite_signing_secret", Default: invitation.InsecureDevSecret, Desc: "HMAC secret for fallback invitation codes"},

	// Identity provider
	{Name: "idp_base_url", Default: "", Desc: "Identity provider base URL (blank disables native invites)"},
	{Name: "idp_service_key", Default: "", Desc: "Identity provider service-role key"},
	{Name: "idp_client_id", Default: "", Desc: "OAuth2 client ID for the provider admin API"},
	{Name: "idp_client_secret", Default: "", Desc: "OAuth2 client secret for the provider admin API"},
	{Name: "idp_token_url", Default: "", Desc: "OAuth2 token URL for the provider admin API"},
	{Name: "idp_jwt_secret", Default: "", Desc: "HS256 secret used to verify provider access tokens"},

	// Document storage
	{Name: "storage_type", Default: "local", Desc: "Document storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads/documents", Desc: "Local storage path for uploaded documents"},
	{Name: "storage_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_prefix", Default: "documents/", Desc: "S3 key prefix"},
	{Name: "doc_url_expiry", Default: "15m", Desc: "Lifetime of signed document URLs"},

	// Audit outbox
	{Name: "redis_addr", Default: "", Desc: "Redis address for the audit outbox (blank keeps it in process)"},
	{Name: "outbox_key", Default: "partnerportal:audit_outbox", Desc: "Redis list key for the audit outbox"},
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "otel_endpoint", Default: "", Desc: "OTLP/gRPC collector endpoint (blank disables tracing)"},

	{Name: "resolver_attempts", Default: 3, Desc: "Membership lookup attempts at landing"},
	{Name: "resolver_delay", Default: "400ms", Desc: "Delay between membership lookup attempts"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin account created on startup"},
	{Name: "superadmin_password", Default: devSuperAdminPassword, Desc: "Initial password for the superadmin account"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PARTNERPORTAL", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 8*time.Hour),

		BaseURL:             strings.TrimRight(appValues.String("base_url"), "/"),
		InviteSigningSecret: appValues.String("invite_signing_secret"),

		IdPBaseURL:      strings.TrimRight(appValues.String("idp_base_url"), "/"),
		IdPServiceKey:   appValues.String("idp_service_key"),
		IdPClientID:     appValues.String("idp_client_id"),
		IdPClientSecret: appValues.String("idp_client_secret"),
		IdPTokenURL:     appValues.String("idp_token_url"),
		IdPJWTSecret:    appValues.String("idp_jwt_secret"),

		StorageType:      strings.ToLower(appValues.String("storage_type")),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageBucket:    appValues.String("storage_bucket"),
		StorageS3Region:  appValues.String("storage_s3_region"),
		StorageS3Prefix:  appValues.String("storage_s3_prefix"),
		DocURLExpiry:     appValues.Duration("doc_url_expiry", 15*time.Minute),

		RedisAddr:     appValues.String("redis_addr"),
		OutboxKey:     appValues.String("outbox_key"),
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		OTelEndpoint: appValues.String("otel_endpoint"),

		ResolverAttempts: appValues.Int("resolver_attempts"),
		ResolverDelay:    appValues.Duration("resolver_delay", 400*time.Millisecond),

		SuperAdminEmail:    appValues.String("superadmin_email"),
		SuperAdminPassword: appValues.String("superadmin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Insecure development defaults are accepted only when the core env is not
// "prod".
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env == "prod", appCfg)
}

func validateApp(prod bool, appCfg AppConfig) error {
	var errs []error

	switch appCfg.StorageType {
	case "local":
		if appCfg.StorageLocalPath == "" {
			errs = append(errs, errors.New("storage_local_path is required for local storage"))
		}
	case "s3":
		if appCfg.StorageBucket == "" || appCfg.StorageS3Region == "" {
			errs = append(errs, errors.New("storage_bucket and storage_s3_region are required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType))
	}

	if appCfg.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if appCfg.ResolverAttempts < 1 {
		errs = append(errs, errors.New("resolver_attempts must be at least 1"))
	}

	if prod {
		if appCfg.SessionKey == devSessionKey || len(appCfg.SessionKey) < 32 {
			errs = append(errs, errors.New("session_key must be set to a strong secret in prod"))
		}
		if appCfg.InviteSigningSecret == invitation.InsecureDevSecret || len(appCfg.InviteSigningSecret) < 32 {
			errs = append(errs, errors.New("invite_signing_secret must be set to a strong secret in prod"))
		}
		if appCfg.IdPJWTSecret == "" {
			errs = append(errs, errors.New("idp_jwt_secret is required in prod"))
		}
		if appCfg.SuperAdminEmail != "" && appCfg.SuperAdminPassword == devSuperAdminPassword {
			errs = append(errs, errors.New("superadmin_password must be changed in prod"))
		}
		if !strings.HasPrefix(appCfg.BaseURL, "https://") {
			errs = append(errs, errors.New("base_url must use https in prod"))
		}
	}

	return errors.Join(errs...)
}
