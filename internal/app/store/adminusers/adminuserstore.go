package adminuserstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/system/auth"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for admin passwords.
const BcryptCost = 12

// Account statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

var (
	ErrNotFound       = errors.New("admin user not found")
	ErrDuplicateEmail = errors.New("an admin with this email already exists")
	ErrWrongPassword  = errors.New("wrong password")
	ErrDisabled       = errors.New("admin user is disabled")
	errBadRole        = errors.New(`role must be "superadmin"|"admin"|"reviewer"`)
	errNoPassword     = errors.New("password is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("admin_users")}
}

func validRole(role string) bool {
	switch role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer:
		return true
	}
	return false
}

// Create hashes password and inserts the user.
func (s *Store) Create(ctx context.Context, u models.AdminUser, password string) (models.AdminUser, error) {
	if !validRole(u.Role) {
		return models.AdminUser{}, errBadRole
	}
	if password == "" {
		return models.AdminUser{}, errNoPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return models.AdminUser{}, err
	}

	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.Email = strings.TrimSpace(u.Email)
	u.EmailCI = text.Fold(u.Email)
	u.FullName = strings.TrimSpace(u.FullName)
	u.PasswordHash = string(hash)
	if u.Status == "" {
		u.Status = StatusActive
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.AdminUser{}, ErrDuplicateEmail
		}
		return models.AdminUser{}, err
	}
	return u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.AdminUser, error) {
	var u models.AdminUser
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(strings.TrimSpace(email))}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return models.AdminUser{}, ErrNotFound
	}
	return u, err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.AdminUser, error) {
	var u models.AdminUser
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return models.AdminUser{}, ErrNotFound
	}
	return u, err
}

// Authenticate checks credentials. The returned user is populated for
// ErrWrongPassword and ErrDisabled so callers can audit the attempt.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.AdminUser, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return models.AdminUser{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return u, ErrWrongPassword
	}
	if u.Status == StatusDisabled {
		return u, ErrDisabled
	}
	return u, nil
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureSuperAdmin creates the bootstrap superadmin when no account with
// that email exists. It reports whether a user was created.
func (s *Store) EnsureSuperAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" {
		return false, nil
	}
	_, err := s.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	_, err = s.Create(ctx, models.AdminUser{
		Email:    email,
		FullName: "Super Admin",
		Role:     models.RoleSuperAdmin,
	}, password)
	if errors.Is(err, ErrDuplicateEmail) {
		return false, nil
	}
	return err == nil, err
}

// Fetcher implements auth.UserFetcher against admin_users.
type Fetcher struct {
	store *Store
}

func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{store: New(db)}
}

// FetchUser returns nil for unknown, disabled, or unreadable users.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.store.GetByID(ctx, oid)
	if err != nil || u.Status == StatusDisabled {
		return nil
	}
	return &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
}
