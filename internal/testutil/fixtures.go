package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// CreateTenant inserts a tenant with the given name and status.
func (f *Fixtures) CreateTenant(ctx context.Context, name, status string) models.Tenant {
	f.t.Helper()

	now := time.Now().UTC()
	tn := models.Tenant{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("tenants").InsertOne(ctx, tn); err != nil {
		f.t.Fatalf("failed to create test tenant: %v", err)
	}
	return tn
}

// CreateApplication inserts a pending application submitted at the given time.
func (f *Fixtures) CreateApplication(ctx context.Context, company, email, phone string, submittedAt time.Time) models.Application {
	f.t.Helper()

	app := models.Application{
		ID:            primitive.NewObjectID(),
		CompanyName:   company,
		CompanyNameCI: text.Fold(company),
		ContactName:   "Contact " + company,
		Email:         email,
		Phone:         phone,
		Status:        models.ApplicationPending,
		SubmittedAt:   submittedAt.UTC(),
	}
	if _, err := f.db.Collection("applications").InsertOne(ctx, app); err != nil {
		f.t.Fatalf("failed to create test application: %v", err)
	}
	return app
}

// CreateMembership links an identity to a tenant.
func (f *Fixtures) CreateMembership(ctx context.Context, identityID string, tenantID primitive.ObjectID, status string, createdAt time.Time) models.Membership {
	f.t.Helper()

	m := models.Membership{
		ID:         primitive.NewObjectID(),
		IdentityID: identityID,
		TenantID:   tenantID,
		Role:       "owner",
		Status:     status,
		CreatedAt:  createdAt.UTC(),
	}
	if _, err := f.db.Collection("memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// SetDefaultTenant stores a default-tenant hint on an identity's profile.
func (f *Fixtures) SetDefaultTenant(ctx context.Context, identityID string, tenantID primitive.ObjectID) {
	f.t.Helper()

	p := models.Profile{IdentityID: identityID, DefaultTenantID: &tenantID, UpdatedAt: time.Now().UTC()}
	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
}
