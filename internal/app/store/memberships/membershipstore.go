// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/partnerportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("memberships")}
}

var (
	ErrNotFound            = errors.New("membership not found")
	ErrDuplicateMembership = errors.New("identity is already a member of this tenant")
	errBadStatus           = errors.New(`status must be "active"|"invited"|"suspended"`)
)

// Add creates a membership for identityID in tenantID.
func (s *Store) Add(ctx context.Context, identityID string, tenantID primitive.ObjectID, role, status string) (models.Membership, error) {
	switch status {
	case models.MembershipActive, models.MembershipInvited, models.MembershipSuspended:
	default:
		return models.Membership{}, errBadStatus
	}
	m := models.Membership{
		ID:         primitive.NewObjectID(),
		IdentityID: identityID,
		TenantID:   tenantID,
		Role:       role,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Membership{}, ErrDuplicateMembership
		}
		return models.Membership{}, err
	}
	return m, nil
}

// EarliestActive returns the oldest active membership of identityID.
func (s *Store) EarliestActive(ctx context.Context, identityID string) (models.Membership, error) {
	var m models.Membership
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	err := s.c.FindOne(ctx, bson.M{
		"identity_id": identityID,
		"status":      models.MembershipActive,
	}, opts).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Membership{}, ErrNotFound
		}
		return models.Membership{}, err
	}
	return m, nil
}

// ListByTenant returns all memberships of a tenant, oldest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID primitive.ObjectID) ([]models.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
