package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/partnerportal/internal/app/system/outbox"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Outbox outbox.Queue // optional
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. queue may be nil.
func NewHandler(client *mongo.Client, queue outbox.Queue, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Outbox: queue,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	// Pending audit events not yet persisted; -1 when the queue is unreadable.
	OutboxPending *int64 `json:"outbox_pending,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "outbox_pending":0 }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	// Informational only; a slow outbox does not fail the check.
	if h.Outbox != nil {
		n, err := h.Outbox.Len(ctx)
		if err != nil {
			h.Log.Warn("health-check: outbox length failed", zap.Error(err))
			n = -1
		}
		resp.OutboxPending = &n
	}

	_ = json.NewEncoder(w).Encode(resp)
}
