// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (PARTNERPORTAL_*),
// configuration files, or command-line flags (loaded in LoadConfig).
// WAFFLE's CoreConfig covers ports, TLS, log level and the like; everything
// specific to PartnerPortal lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string
	MongoDatabase string

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// BaseURL prefixes invitation links and the provider redirect target.
	BaseURL             string
	InviteSigningSecret string

	// Identity provider (GoTrue-compatible admin API)
	IdPBaseURL      string
	IdPServiceKey   string
	IdPClientID     string
	IdPClientSecret string
	IdPTokenURL     string
	IdPJWTSecret    string // HS256 secret for verifying access tokens at landing

	// Document storage
	StorageType      string // "local" or "s3"
	StorageLocalPath string
	StorageBucket    string
	StorageS3Region  string
	StorageS3Prefix  string
	DocURLExpiry     time.Duration

	// Audit outbox. Blank RedisAddr keeps the queue in process.
	RedisAddr     string
	OutboxKey     string
	AuditLogAuth  string
	AuditLogAdmin string

	// Tracing (blank disables export)
	OTelEndpoint string

	// Membership resolver retry
	ResolverAttempts int
	ResolverDelay    time.Duration

	// SuperAdmin bootstrap
	SuperAdminEmail    string
	SuperAdminPassword string
}
