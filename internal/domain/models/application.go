package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application statuses.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// Application is an inbound partner application awaiting review.
//
// Status only changes through a Review Console decision; there is no
// history beyond ReviewedAt being overwritten.
type Application struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	CompanyName   string `bson:"company_name" json:"company_name"`
	CompanyNameCI string `bson:"company_name_ci" json:"-"`
	ContactName   string `bson:"contact_name" json:"contact_name"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string `bson:"phone,omitempty" json:"phone,omitempty"`
	Notes         string `bson:"notes,omitempty" json:"notes,omitempty"`

	// Document slots (storage paths)
	RegistrationDocPath string `bson:"registration_doc_path,omitempty" json:"registration_doc_path,omitempty"`
	TaxDocPath          string `bson:"tax_doc_path,omitempty" json:"tax_doc_path,omitempty"`

	Status      string     `bson:"status" json:"status"`
	SubmittedAt time.Time  `bson:"submitted_at" json:"submitted_at"`
	ReviewedBy  string     `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`

	// Last invitation issued from the console (informational).
	LastInviteKind string     `bson:"last_invite_kind,omitempty" json:"last_invite_kind,omitempty"`
	LastInvitedAt  *time.Time `bson:"last_invited_at,omitempty" json:"last_invited_at,omitempty"`
}

// DocPaths returns the non-empty document paths of the application.
func (a Application) DocPaths() []string {
	var out []string
	if a.RegistrationDocPath != "" {
		out = append(out, a.RegistrationDocPath)
	}
	if a.TaxDocPath != "" {
		out = append(out, a.TaxDocPath)
	}
	return out
}
