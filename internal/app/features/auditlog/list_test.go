package auditlog

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseListQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/admin/audit?category=auth&event_type=logout&start_date=2025-03-01&end_date=2025-03-02&page=3", nil)
	lq := parseListQuery(req)

	if lq.page != 3 || lq.filter.Offset != 2*pageSize || lq.filter.Limit != pageSize {
		t.Errorf("paging = page %d offset %d limit %d", lq.page, lq.filter.Offset, lq.filter.Limit)
	}
	if lq.filter.Category != audit.CategoryAuth || lq.filter.EventType != audit.EventLogout {
		t.Errorf("filter = %+v", lq.filter)
	}
	if lq.filter.StartTime == nil || !lq.filter.StartTime.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", lq.filter.StartTime)
	}
	if lq.filter.EndTime == nil || !lq.filter.EndTime.Equal(time.Date(2025, 3, 2, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("end = %v", lq.filter.EndTime)
	}
}

func TestParseListQuery_Defaults(t *testing.T) {
	lq := parseListQuery(httptest.NewRequest("GET", "/admin/audit?page=-2&start_date=yesterday", nil))

	if lq.page != 1 || lq.filter.Offset != 0 {
		t.Errorf("page = %d offset = %d", lq.page, lq.filter.Offset)
	}
	if lq.filter.StartTime != nil {
		t.Error("bad start_date should be ignored")
	}
}

func TestParseListQuery_TenantSubject(t *testing.T) {
	id := primitive.NewObjectID()

	lq := parseListQuery(httptest.NewRequest("GET", "/admin/audit?category=tenant&subject="+id.Hex(), nil))
	if lq.filter.TenantID == nil || *lq.filter.TenantID != id || lq.filter.SubjectID != "" {
		t.Errorf("tenant subject filter = %+v", lq.filter)
	}

	lq = parseListQuery(httptest.NewRequest("GET", "/admin/audit?category=review&subject="+id.Hex(), nil))
	if lq.filter.TenantID != nil || lq.filter.SubjectID != id.Hex() {
		t.Errorf("review subject filter = %+v", lq.filter)
	}
}

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		page      int
		total     int64
		wantPages int
		hasPrev   bool
		hasNext   bool
	}{
		{1, 0, 1, false, false},
		{1, pageSize, 1, false, false},
		{1, pageSize + 1, 2, false, true},
		{2, 3 * pageSize, 3, true, true},
		{3, 3 * pageSize, 3, true, false},
	}
	for _, tt := range tests {
		pi := newPageInfo(tt.page, tt.total, 0)
		if pi.TotalPages != tt.wantPages || pi.HasPrev != tt.hasPrev || pi.HasNext != tt.hasNext {
			t.Errorf("newPageInfo(%d, %d) = %+v", tt.page, tt.total, pi)
		}
	}
}

func TestEventTypesForCategory(t *testing.T) {
	all := eventTypesForCategory("")
	sum := len(eventTypesForCategory(audit.CategoryAuth)) +
		len(eventTypesForCategory(audit.CategoryReview)) +
		len(eventTypesForCategory(audit.CategoryTenant))
	if len(all) != sum {
		t.Errorf("all = %d, sum of categories = %d", len(all), sum)
	}
	if eventTypesForCategory("bogus") != nil {
		t.Error("unknown category should have no event types")
	}
}
