// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth   = "auth"
	CategoryReview = "review"
	CategoryTenant = "tenant"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedUserDisabled  = "login_failed_user_disabled"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventLogout                   = "logout"
	EventLandingResolved          = "landing_resolved"
)

// Review event types
const (
	EventApplicationSubmitted = "application_submitted"
	EventApplicationApproved  = "application_approved"
	EventApplicationRejected  = "application_rejected"
	EventBulkDecision         = "bulk_decision"
	EventInvitationIssued     = "invitation_issued"
	EventInvitationFailed     = "invitation_failed"
)

// Tenant event types
const (
	EventTenantCreated            = "tenant_created"
	EventTenantUpdated            = "tenant_updated"
	EventTenantProvisioningFailed = "tenant_provisioning_failed"
)

// Event represents an audit event. It is JSON-encoded while queued in the
// outbox and BSON-encoded once persisted.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	TenantID  *primitive.ObjectID `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Who
	ActorID   string `bson:"actor_id,omitempty" json:"actor_id,omitempty"`     // admin user or identity
	SubjectID string `bson:"subject_id,omitempty" json:"subject_id,omitempty"` // application, tenant or identity acted on

	// Context
	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	TenantID  *primitive.ObjectID
	SubjectID string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

func stamp(e *Event) {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	stamp(&event)
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// LogMany records a batch of events. Insertion is unordered; events already
// stored under the same ID are skipped.
func (s *Store) LogMany(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]interface{}, len(events))
	for i := range events {
		stamp(&events[i])
		docs[i] = events[i]
	}
	_, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && onlyDuplicates(err) {
		return nil
	}
	return err
}

func onlyDuplicates(err error) bool {
	bwe, ok := err.(mongo.BulkWriteException)
	if !ok || len(bwe.WriteErrors) == 0 || bwe.WriteConcernError != nil {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return true
}

func buildQuery(filter QueryFilter) bson.M {
	query := bson.M{}
	if filter.TenantID != nil {
		query["tenant_id"] = filter.TenantID
	}
	if filter.SubjectID != "" {
		query["subject_id"] = filter.SubjectID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(filter))
}

// GetBySubject retrieves recent audit events for an application, tenant or identity.
func (s *Store) GetBySubject(ctx context.Context, subjectID string, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{SubjectID: subjectID, Limit: limit})
}
