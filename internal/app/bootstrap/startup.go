// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	adminuserstore "github.com/dalemusser/partnerportal/internal/app/store/adminusers"
	"github.com/dalemusser/partnerportal/internal/app/store/audit"
	"github.com/dalemusser/partnerportal/internal/app/system/outbox"
	"github.com/dalemusser/partnerportal/internal/app/system/tracing"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

const (
	outboxInterval = 2 * time.Second
	outboxBatch    = 100
)

type runtimeState struct {
	consumer *outbox.Consumer
	tracing  tracing.Shutdown
}

// Startup runs after the schema is in place: it installs tracing, creates
// the bootstrap superadmin and starts the audit outbox consumer.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, appCfg.OTelEndpoint, "partnerportal", logger)
	if err != nil {
		logger.Error("tracing setup failed", zap.Error(err))
		return err
	}
	deps.runtime.tracing = shutdownTracing

	if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminPassword, logger); err != nil {
		return err
	}

	consumer := outbox.NewConsumer(deps.Outbox, audit.New(deps.MongoDatabase), logger, outboxInterval, outboxBatch)
	consumer.Start()
	deps.runtime.consumer = consumer
	return nil
}

// ensureSuperAdmin creates the configured superadmin account if it does not
// exist yet. An existing account is left untouched.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	created, err := adminuserstore.New(deps.MongoDatabase).EnsureSuperAdmin(ctx, email, password)
	if err != nil {
		logger.Error("superadmin bootstrap failed", zap.String("email", email), zap.Error(err))
		return err
	}
	if created {
		logger.Info("superadmin created", zap.String("email", email))
	}
	return nil
}
