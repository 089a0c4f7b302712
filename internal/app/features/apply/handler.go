// internal/app/features/apply/handler.go
package apply

import (
	uierrors "github.com/dalemusser/partnerportal/internal/app/features/errors"
	applicationstore "github.com/dalemusser/partnerportal/internal/app/store/applications"
	"github.com/dalemusser/partnerportal/internal/app/system/auditlog"
	"github.com/dalemusser/partnerportal/internal/app/system/docstore"
	"github.com/dalemusser/partnerportal/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the public partner application form.
type Handler struct {
	Apps     *applicationstore.Store
	Docs     docstore.Backend
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger

	// Limiter caps submissions per client IP through LimitSubmissions; nil
	// disables it.
	Limiter *ratelimit.Limiter
}

func NewHandler(db *mongo.Database, docs docstore.Backend, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Apps:     applicationstore.New(db),
		Docs:     docs,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}
