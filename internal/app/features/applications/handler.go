// internal/app/features/applications/handler.go
package applications

import (
	uierrors "github.com/dalemusser/partnerportal/internal/app/features/errors"
	"github.com/dalemusser/partnerportal/internal/app/system/docstore"
	"github.com/dalemusser/partnerportal/internal/app/system/review"
	"go.uber.org/zap"
)

// Handler serves the Review Console.
type Handler struct {
	Reviews *review.Service
	Signer  *docstore.Signer // nil disables document links
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

func NewHandler(reviews *review.Service, signer *docstore.Signer, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Reviews: reviews,
		Signer:  signer,
		Log:     logger,
		ErrLog:  errLog,
	}
}
