package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/store/audit"
	"github.com/dalemusser/partnerportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	appID := primitive.NewObjectID().Hex()
	event := audit.Event{
		Category:  audit.CategoryReview,
		EventType: audit.EventApplicationApproved,
		ActorID:   "admin-1",
		SubjectID: appID,
		IP:        "192.168.1.1",
		Success:   true,
		Details:   map[string]string{"company": "Acme"},
	}

	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetBySubject(ctx, appID, 10)
	if err != nil {
		t.Fatalf("GetBySubject failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].Details["company"] != "Acme" {
		t.Errorf("expected details to round-trip, got %v", events[0].Details)
	}
}

func TestStore_Log_AutoSetsTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before := time.Now().Add(-time.Second)
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	after := time.Now().Add(time.Second)

	events, err := store.Query(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Timestamp.Before(before) || events[0].Timestamp.After(after) {
		t.Errorf("expected timestamp to be set to current time, got %v", events[0].Timestamp)
	}
}

func TestStore_LogMany_SkipsDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	batch := []audit.Event{
		{ID: id, Category: audit.CategoryTenant, EventType: audit.EventTenantCreated, Success: true},
		{Category: audit.CategoryTenant, EventType: audit.EventTenantUpdated, Success: true},
	}
	if err := store.LogMany(ctx, batch); err != nil {
		t.Fatalf("LogMany failed: %v", err)
	}

	// Redelivery of the same batch (e.g. consumer crashed before trimming)
	if err := store.LogMany(ctx, batch[:1]); err != nil {
		t.Fatalf("LogMany redelivery should be a no-op, got %v", err)
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryTenant})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenantID := primitive.NewObjectID()
	now := time.Now().UTC()
	events := []audit.Event{
		{Timestamp: now.Add(-3 * time.Hour), Category: audit.CategoryReview, EventType: audit.EventInvitationIssued, TenantID: &tenantID, Success: true},
		{Timestamp: now.Add(-2 * time.Hour), Category: audit.CategoryReview, EventType: audit.EventInvitationFailed, TenantID: &tenantID},
		{Timestamp: now.Add(-1 * time.Hour), Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"by tenant", audit.QueryFilter{TenantID: &tenantID}, 2},
		{"by category", audit.QueryFilter{Category: audit.CategoryAuth}, 1},
		{"by event type", audit.QueryFilter{EventType: audit.EventInvitationFailed}, 1},
		{"by window", audit.QueryFilter{StartTime: ptr(now.Add(-150 * time.Minute))}, 2},
		{"limit", audit.QueryFilter{Limit: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}

	got, _ := store.Query(ctx, audit.QueryFilter{})
	if len(got) == 3 && got[0].EventType != audit.EventLoginSuccess {
		t.Errorf("expected newest first, got %s", got[0].EventType)
	}
}

func ptr(t time.Time) *time.Time { return &t }
