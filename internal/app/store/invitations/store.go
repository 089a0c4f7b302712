// internal/app/store/invitations/store.go
package invitations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/partnerportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no invitation has the given code.
	ErrNotFound = errors.New("invitation not found")
	// ErrDuplicateCode is returned when an invitation code collides.
	ErrDuplicateCode = errors.New("invitation code already exists")
)

// Store persists fallback invitations. Redemption happens outside this
// service; records are only written and read here.
type Store struct {
	c *mongo.Collection
}

// New creates a new Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("fallback_invitations")}
}

// Insert writes a fallback invitation.
func (s *Store) Insert(ctx context.Context, inv models.FallbackInvitation) (models.FallbackInvitation, error) {
	if inv.ID.IsZero() {
		inv.ID = primitive.NewObjectID()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.FallbackInvitation{}, ErrDuplicateCode
		}
		return models.FallbackInvitation{}, fmt.Errorf("insert invitation: %w", err)
	}
	return inv, nil
}

// GetByCode loads an invitation by its public code.
func (s *Store) GetByCode(ctx context.Context, code string) (models.FallbackInvitation, error) {
	var inv models.FallbackInvitation
	if err := s.c.FindOne(ctx, bson.M{"code": code}).Decode(&inv); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.FallbackInvitation{}, ErrNotFound
		}
		return models.FallbackInvitation{}, err
	}
	return inv, nil
}

// ListByTenant returns the most recent invitations for a tenant.
func (s *Store) ListByTenant(ctx context.Context, tenantID primitive.ObjectID, limit int64) ([]models.FallbackInvitation, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.FallbackInvitation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
