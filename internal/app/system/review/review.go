// Package review implements the Review Console's operations on partner
// applications: listing, single decisions and bulk decisions.
package review

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	applicationstore "github.com/dalemusser/partnerportal/internal/app/store/applications"
	"github.com/dalemusser/partnerportal/internal/app/system/auditlog"
	"github.com/dalemusser/partnerportal/internal/app/system/inputval"
	"github.com/dalemusser/partnerportal/internal/app/system/invitation"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrInvalidDecision = errors.New("invalid decision")
	ErrNoSelection     = errors.New("no applications selected")
	// ErrNotApproved rejects a resend for an application that was never
	// approved. It matches ErrInvalidDecision.
	ErrNotApproved = fmt.Errorf("%w: resend requires an approved application", ErrInvalidDecision)
	// ErrInvitation wraps a failed issuance after the decision was recorded.
	ErrInvitation = errors.New("invitation failed")
)

// Applications is the application store surface the console uses.
type Applications interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Application, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status, reviewer string, at time.Time) error
	SetStatusMany(ctx context.Context, ids []primitive.ObjectID, status, reviewer string, at time.Time) (int64, error)
	MarkInvited(ctx context.Context, id primitive.ObjectID, kind string, at time.Time) error
	List(ctx context.Context, f applicationstore.Filter) ([]models.Application, error)
}

// Issuer issues one invitation per call.
type Issuer interface {
	Issue(ctx context.Context, req invitation.Request) (invitation.Result, error)
}

// Outcome describes a completed single decision.
type Outcome struct {
	Decision    string
	Application models.Application
	// Invitation is nil for rejections.
	Invitation *invitation.Result
}

// Service is safe for concurrent use.
type Service struct {
	apps   Applications
	issuer Issuer
	audit  *auditlog.Logger
	log    *zap.Logger
	now    func() time.Time
}

func New(apps Applications, issuer Issuer, audit *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{apps: apps, issuer: issuer, audit: audit, log: logger, now: time.Now}
}

// Get loads one application.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (models.Application, error) {
	return s.apps.GetByID(ctx, id)
}

// Decide applies one decision. Approve records the decision before issuing,
// so an issuance failure leaves the application approved and returns
// ErrInvitation; the reviewer can then resend.
func (s *Service) Decide(ctx context.Context, actor string, id primitive.ObjectID, decision string) (Outcome, error) {
	if !inputval.IsValidDecision(decision) {
		return Outcome{}, ErrInvalidDecision
	}
	out := Outcome{Decision: decision}

	if decision != inputval.DecisionResend {
		if err := s.apps.SetStatus(ctx, id, decision, actor, s.now()); err != nil {
			return out, err
		}
		s.audit.ApplicationDecided(ctx, actor, id, decision)
	}

	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return out, err
	}
	out.Application = app

	if decision == inputval.DecisionRejected {
		return out, nil
	}
	if decision == inputval.DecisionResend && app.Status != models.ApplicationApproved {
		return out, ErrNotApproved
	}

	res, err := s.issuer.Issue(ctx, invitation.Request{
		CompanyName: app.CompanyName,
		Email:       app.Email,
		Phone:       app.Phone,
		ActorID:     actor,
	})
	if err != nil {
		s.log.Error("invitation issuance failed",
			zap.String("application_id", id.Hex()),
			zap.String("decision", decision),
			zap.Error(err))
		return out, fmt.Errorf("%w: %w", ErrInvitation, err)
	}
	out.Invitation = &res

	if err := s.apps.MarkInvited(ctx, id, string(res.Kind), s.now()); err != nil {
		s.log.Warn("could not record invitation on application",
			zap.String("application_id", id.Hex()),
			zap.Error(err))
	}
	return out, nil
}

// BulkDecide applies decision to every id in one update and returns how
// many applications matched. It never issues invitations.
func (s *Service) BulkDecide(ctx context.Context, actor string, ids []primitive.ObjectID, decision string) (int64, error) {
	if !inputval.IsValidBulkDecision(decision) {
		return 0, ErrInvalidDecision
	}
	if len(ids) == 0 {
		return 0, ErrNoSelection
	}
	n, err := s.apps.SetStatusMany(ctx, ids, decision, actor, s.now())
	if err != nil {
		return 0, err
	}
	s.audit.BulkDecision(ctx, actor, decision, len(ids), n)
	return n, nil
}

// Query is a console list request.
type Query struct {
	Search string
	Status string
	Sort   string // company | phone | status | submitted (default)
	Desc   bool
	Limit  int64
}

// List returns matching applications in a total order on (sort key, id).
// Descending results are the exact reverse of ascending ones.
func (s *Service) List(ctx context.Context, q Query) ([]models.Application, error) {
	apps, err := s.apps.List(ctx, applicationstore.Filter{
		Search: q.Search,
		Status: q.Status,
		Sort:   q.Sort,
		Desc:   q.Desc,
		Limit:  q.Limit,
	})
	if err != nil {
		return nil, err
	}
	SortApplications(apps, q.Sort, q.Desc)
	return apps, nil
}

// SortApplications orders apps ascending by key with an id tie-break and
// reverses the result when desc is set.
func SortApplications(apps []models.Application, key string, desc bool) {
	cmpKey := keyCompare(key)
	slices.SortStableFunc(apps, func(a, b models.Application) int {
		if c := cmpKey(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.ID.Hex(), b.ID.Hex())
	})
	if desc {
		slices.Reverse(apps)
	}
}

func keyCompare(key string) func(a, b models.Application) int {
	switch key {
	case applicationstore.SortCompany:
		return func(a, b models.Application) int {
			return strings.Compare(companyKey(a), companyKey(b))
		}
	case applicationstore.SortPhone:
		return func(a, b models.Application) int { return strings.Compare(a.Phone, b.Phone) }
	case applicationstore.SortStatus:
		return func(a, b models.Application) int { return strings.Compare(a.Status, b.Status) }
	default:
		return func(a, b models.Application) int { return a.SubmittedAt.Compare(b.SubmittedAt) }
	}
}

func companyKey(a models.Application) string {
	if a.CompanyNameCI != "" {
		return a.CompanyNameCI
	}
	return strings.ToLower(a.CompanyName)
}
