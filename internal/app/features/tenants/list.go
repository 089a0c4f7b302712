package tenants

import (
	"net/http"
	"strings"

	tenantstore "github.com/dalemusser/partnerportal/internal/app/store/tenants"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gorilla/csrf"
)

const listPath = "/admin/tenants"

var statuses = []string{models.TenantPending, models.TenantApproved, models.TenantActive, models.TenantSuspended}

func toRow(t models.Tenant) rowVM {
	row := rowVM{
		ID:                 t.ID.Hex(),
		Name:               t.Name,
		Status:             t.Status,
		Currency:           t.Currency,
		Locale:             t.Locale,
		ApprovedBy:         t.ApprovedBy,
		ProvisioningFailed: t.ProvisioningFailed,
	}
	if t.ApprovedAt != nil {
		row.ApprovedAt = t.ApprovedAt.UTC().Format("2006-01-02 15:04")
	}
	return row
}

// ServeList handles GET /admin/tenants with optional q and status filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(query.Get(r, "status"))
	if status == "all" {
		status = ""
	}
	if status != "" && !tenantstore.ValidStatus(status) {
		h.ErrLog.LogBadRequest(w, r, "bad tenant status filter", tenantstore.ErrInvalidStatus, "Unknown status filter.", listPath)
		return
	}
	search := strings.TrimSpace(query.Get(r, "q"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "tenants list")
	defer cancel()

	list, err := h.Tenants.List(ctx, tenantstore.ListFilter{Search: search, Status: status})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list tenants failed", err, "A database error occurred.", "/")
		return
	}

	rows := make([]rowVM, 0, len(list))
	for _, t := range list {
		rows = append(rows, toRow(t))
	}
	templates.Render(w, r, "tenants_list", listVM{
		Title:     "Tenants",
		CSRFToken: csrf.Token(r),
		Rows:      rows,
		Search:    search,
		Status:    status,
		Statuses:  statuses,
		Updated:   query.Get(r, "updated"),
		Error:     query.Get(r, "error"),
	})
}
