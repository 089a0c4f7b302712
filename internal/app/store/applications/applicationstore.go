// internal/app/store/applications/applicationstore.go
package applicationstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
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
	ErrNotFound      = errors.New("application not found")
	ErrInvalidStatus = errors.New("invalid application status")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("applications")}
}

// Sort keys accepted by List.
const (
	SortCompany   = "company"
	SortPhone     = "phone"
	SortStatus    = "status"
	SortSubmitted = "submitted"
)

// Filter describes a List query.
type Filter struct {
	Search string // case-insensitive substring over phone, company, contact, email
	Status string // "", "all", or an application status
	Sort   string
	Desc   bool
	Limit  int64
}

// Create inserts a new pending application.
func (s *Store) Create(ctx context.Context, a models.Application) (models.Application, error) {
	a.ID = primitive.NewObjectID()
	a.CompanyNameCI = text.Fold(a.CompanyName)
	a.Status = models.ApplicationPending
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Application{}, err
	}
	return a, nil
}

// GetByID loads an application.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Application, error) {
	var a models.Application
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Application{}, ErrNotFound
		}
		return models.Application{}, err
	}
	return a, nil
}

func validDecision(status string) bool {
	return status == models.ApplicationApproved || status == models.ApplicationRejected
}

// SetStatus records a review decision on one application.
// Last write wins; no prior-status check is made.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status, reviewer string, at time.Time) error {
	if !validDecision(status) {
		return ErrInvalidStatus
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": reviewSet(status, reviewer, at)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatusMany applies one decision to every listed application in a single
// update and returns the number matched.
func (s *Store) SetStatusMany(ctx context.Context, ids []primitive.ObjectID, status, reviewer string, at time.Time) (int64, error) {
	if !validDecision(status) {
		return 0, ErrInvalidStatus
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": reviewSet(status, reviewer, at)})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func reviewSet(status, reviewer string, at time.Time) bson.M {
	set := bson.M{
		"status":      status,
		"reviewed_at": at.UTC(),
	}
	if reviewer != "" {
		set["reviewed_by"] = reviewer
	}
	return set
}

// MarkInvited records the kind and time of the latest invitation.
func (s *Store) MarkInvited(ctx context.Context, id primitive.ObjectID, kind string, at time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"last_invite_kind": kind,
		"last_invited_at":  at.UTC(),
	}})
	return err
}

// List returns applications matching f, ordered by the database on the
// requested key. Callers needing a total order apply their own tie-break.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Application, error) {
	filter := bson.M{}
	switch f.Status {
	case "", "all":
	case models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected:
		filter["status"] = f.Status
	default:
		return nil, ErrInvalidStatus
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"phone": re},
			bson.M{"company_name": re},
			bson.M{"contact_name": re},
			bson.M{"email": re},
		}
	}

	dir := 1
	if f.Desc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: SortField(f.Sort), Value: dir}, {Key: "_id", Value: dir}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Application
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SortField maps a List sort key to its document field.
// Unknown keys sort by submission time.
func SortField(key string) string {
	switch key {
	case SortCompany:
		return "company_name_ci"
	case SortPhone:
		return "phone"
	case SortStatus:
		return "status"
	default:
		return "submitted_at"
	}
}
