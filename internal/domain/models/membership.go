package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership statuses.
const (
	MembershipActive    = "active"
	MembershipInvited   = "invited"
	MembershipSuspended = "suspended"
)

// Membership links an identity-provider identity to a tenant.
// An identity may hold several memberships; routing after login picks the
// earliest active one unless the identity's profile names a default tenant.
type Membership struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IdentityID string             `bson:"identity_id" json:"identity_id"` // opaque id from the identity provider
	TenantID   primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	Role       string             `bson:"role" json:"role"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// Profile holds per-identity preferences kept alongside the identity.
type Profile struct {
	IdentityID      string              `bson:"_id" json:"identity_id"`
	DefaultTenantID *primitive.ObjectID `bson:"default_tenant_id,omitempty" json:"default_tenant_id,omitempty"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updated_at"`
}
