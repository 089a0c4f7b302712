// internal/app/store/tenants/tenantstore.go
package tenantstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound      = errors.New("tenant not found")
	ErrInvalidStatus = errors.New("invalid tenant status")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tenants")}
}

// ValidStatus reports whether s is a known tenant status.
func ValidStatus(s string) bool {
	switch s {
	case models.TenantPending, models.TenantApproved, models.TenantActive, models.TenantSuspended:
		return true
	}
	return false
}

// Create inserts a new tenant. Status defaults to pending.
func (s *Store) Create(ctx context.Context, t models.Tenant) (models.Tenant, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.NameCI = text.Fold(t.Name)
	if t.Status == "" {
		t.Status = models.TenantPending
	}
	if !ValidStatus(t.Status) {
		return models.Tenant{}, ErrInvalidStatus
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Tenant{}, err
	}
	return t, nil
}

// GetByID retrieves a tenant by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Tenant, error) {
	var t models.Tenant
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Tenant{}, ErrNotFound
		}
		return models.Tenant{}, err
	}
	return t, nil
}

// FindByName returns the oldest tenant whose name equals name exactly.
// No case folding or trimming is applied.
func (s *Store) FindByName(ctx context.Context, name string) (models.Tenant, error) {
	var t models.Tenant
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	err := s.c.FindOne(ctx, bson.M{"name": name}, opts).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Tenant{}, ErrNotFound
		}
		return models.Tenant{}, err
	}
	return t, nil
}

// Settings are the admin-editable tenant attributes.
type Settings struct {
	Status   string
	Currency string
	Locale   string
}

// UpdateSettings applies admin edits. Approval metadata (approved_at,
// approved_by) is written only when the stored status moves into approved
// or active; later edits keep the original approver.
func (s *Store) UpdateSettings(ctx context.Context, id primitive.ObjectID, in Settings, actor string) error {
	if in.Status != "" && !ValidStatus(in.Status) {
		return ErrInvalidStatus
	}
	now := time.Now().UTC()
	set := bson.M{
		"currency":   in.Currency,
		"locale":     in.Locale,
		"updated_at": now,
	}
	if in.Status != "" {
		set["status"] = in.Status
		set["approved"] = isApprovedStatus(in.Status)
	}

	var before models.Tenant
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}

	if in.Status == "" || !isApprovedStatus(in.Status) || isApprovedStatus(before.Status) {
		return nil
	}
	_, err = s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"approved_at":         now,
		"approved_by":         actor,
		"provisioning_failed": false,
	}})
	return err
}

func isApprovedStatus(status string) bool {
	return status == models.TenantApproved || status == models.TenantActive
}

// MarkProvisioningFailed flags a tenant whose provisioning did not complete.
func (s *Store) MarkProvisioningFailed(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"provisioning_failed": true,
		"updated_at":          time.Now().UTC(),
	}})
	return err
}

// ListFilter narrows List results.
type ListFilter struct {
	Search string // prefix match on folded name
	Status string
	Limit  int64
}

// List returns tenants ordered by folded name.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Tenant, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if q := text.Fold(f.Search); q != "" {
		hi := q + "\uffff"
		filter["name_ci"] = bson.M{"$gte": q, "$lt": hi}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Tenant
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
