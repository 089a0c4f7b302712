package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FallbackInvitation is a self-issued, HMAC-signed invitation used when the
// identity provider's native invite is unavailable. It is consumed once by
// the redemption flow, which also checks ExpiresAt.
type FallbackInvitation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	Role      string             `bson:"role" json:"role"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Token     string             `bson:"token" json:"-"`
	Signature string             `bson:"signature" json:"-"`
	Code      string             `bson:"code" json:"-"` // token.signature
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`

	ConsumedAt *time.Time `bson:"consumed_at,omitempty" json:"consumed_at,omitempty"`
}
