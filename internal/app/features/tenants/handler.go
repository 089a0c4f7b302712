package tenants

import (
	uierrors "github.com/dalemusser/partnerportal/internal/app/features/errors"
	tenantstore "github.com/dalemusser/partnerportal/internal/app/store/tenants"
	"github.com/dalemusser/partnerportal/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the tenant directory pages of the admin console.
type Handler struct {
	Tenants  *tenantstore.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Tenants:  tenantstore.New(db),
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}
