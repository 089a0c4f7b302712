// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/store/audit"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const pageSize = 50

const dateLayout = "2006-01-02"

// listQuery is the parsed form of the list page's query string.
type listQuery struct {
	filter    audit.QueryFilter
	page      int
	category  string
	eventType string
	subject   string
	startDate string
	endDate   string
}

// parseListQuery reads category, event_type, subject, start_date, end_date
// and page. Unparseable dates are ignored. A subject that is an ObjectID also
// matches events scoped to that tenant.
func parseListQuery(r *http.Request) listQuery {
	q := r.URL.Query()
	lq := listQuery{
		category:  strings.TrimSpace(q.Get("category")),
		eventType: strings.TrimSpace(q.Get("event_type")),
		subject:   strings.TrimSpace(q.Get("subject")),
		startDate: strings.TrimSpace(q.Get("start_date")),
		endDate:   strings.TrimSpace(q.Get("end_date")),
		page:      1,
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		lq.page = p
	}

	lq.filter = audit.QueryFilter{
		Category:  lq.category,
		EventType: lq.eventType,
		SubjectID: lq.subject,
		Limit:     pageSize,
		Offset:    int64((lq.page - 1) * pageSize),
	}
	if id, err := primitive.ObjectIDFromHex(lq.subject); err == nil {
		if lq.category == audit.CategoryTenant {
			lq.filter.SubjectID = ""
			lq.filter.TenantID = &id
		}
	}
	if lq.startDate != "" {
		if t, err := time.Parse(dateLayout, lq.startDate); err == nil {
			lq.filter.StartTime = &t
		}
	}
	if lq.endDate != "" {
		if t, err := time.Parse(dateLayout, lq.endDate); err == nil {
			// End of day
			endOfDay := t.Add(24*time.Hour - time.Second)
			lq.filter.EndTime = &endOfDay
		}
	}
	return lq
}

func toItem(e audit.Event) listItem {
	item := listItem{
		ID:        e.ID.Hex(),
		Timestamp: e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		Category:  e.Category,
		EventType: e.EventType,
		ActorID:   e.ActorID,
		SubjectID: e.SubjectID,
		IP:        e.IP,
		Success:   e.Success,
		Failure:   e.FailureReason,
		Details:   e.Details,
	}
	if e.TenantID != nil {
		item.TenantID = e.TenantID.Hex()
	}
	return item
}

// ServeList handles GET /admin/audit - the audit trail with filtering.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	lq := parseListQuery(r)

	events, err := h.Events.Query(ctx, lq.filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to query audit events", err, "A database error occurred.", "/admin/applications")
		return
	}
	total, err := h.Events.CountByFilter(ctx, lq.filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to count audit events", err, "A database error occurred.", "/admin/applications")
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, toItem(e))
	}

	templates.Render(w, r, "audit_list", listData{
		Title:      "Audit trail",
		Items:      items,
		Category:   lq.category,
		EventType:  lq.eventType,
		Subject:    lq.subject,
		StartDate:  lq.startDate,
		EndDate:    lq.endDate,
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(lq.category),
		pageInfo:   newPageInfo(lq.page, total, len(items)),
	})
}
