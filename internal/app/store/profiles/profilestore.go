// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"time"

	"github.com/dalemusser/partnerportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// DefaultTenant returns the identity's default-tenant hint.
// ok is false when there is no profile or no hint.
func (s *Store) DefaultTenant(ctx context.Context, identityID string) (primitive.ObjectID, bool, error) {
	var p models.Profile
	err := s.c.FindOne(ctx, bson.M{"_id": identityID}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return primitive.NilObjectID, false, nil
		}
		return primitive.NilObjectID, false, err
	}
	if p.DefaultTenantID == nil || p.DefaultTenantID.IsZero() {
		return primitive.NilObjectID, false, nil
	}
	return *p.DefaultTenantID, true, nil
}

// SetDefaultTenant upserts the identity's default-tenant hint.
func (s *Store) SetDefaultTenant(ctx context.Context, identityID string, tenantID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, identityID,
		bson.M{"$set": bson.M{"default_tenant_id": tenantID, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	return err
}
