package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tenant statuses.
const (
	TenantPending   = "pending"
	TenantApproved  = "approved"
	TenantActive    = "active"
	TenantSuspended = "suspended"
)

// Tenant is a company-level workspace in the portal.
//
// Tenants are created implicitly when an invitation is issued for a company
// name that does not exist yet. They are never hard-deleted; lifecycle is
// carried entirely by Status.
type Tenant struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	// Name is the natural key used when auto-creating tenants (exact match).
	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"name_ci"` // folded, search/sort only

	Status string `bson:"status" json:"status"`

	// Settings
	Currency string `bson:"currency,omitempty" json:"currency,omitempty"`
	Locale   string `bson:"locale,omitempty" json:"locale,omitempty"`

	// Approval metadata
	Approved   bool       `bson:"approved" json:"approved"`
	ApprovedAt *time.Time `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	ApprovedBy string     `bson:"approved_by,omitempty" json:"approved_by,omitempty"`

	// ProvisioningFailed marks a tenant created during an invitation issuance
	// that then failed; such tenants are left pending for reconciliation.
	ProvisioningFailed bool `bson:"provisioning_failed,omitempty" json:"provisioning_failed,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether members of the tenant may enter its workspace.
func (t Tenant) IsActive() bool {
	return t.Status == TenantActive || t.Status == TenantApproved
}
