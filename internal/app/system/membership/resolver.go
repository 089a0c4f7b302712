// Package membership decides where a signed-in partner identity lands:
// which tenant it belongs to and whether that tenant's workspace is open.
package membership

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// State is the routing outcome for an identity.
type State string

const (
	StateWorkspace    State = "workspace"     // tenant approved or active
	StateActivate     State = "activate"      // tenant pending
	StateSuspended    State = "suspended"     // tenant suspended
	StateNoMembership State = "no_membership" // contact support
)

// Source records how the tenant was found.
type Source string

const (
	SourceProfile    Source = "profile"
	SourceMembership Source = "membership"
	SourceNone       Source = "none"
)

// Resolution is the result of Resolve.
type Resolution struct {
	State    State
	TenantID primitive.ObjectID
	Source   Source
	Tenant   *models.Tenant
}

type Profiles interface {
	DefaultTenant(ctx context.Context, identityID string) (primitive.ObjectID, bool, error)
}

type Memberships interface {
	EarliestActive(ctx context.Context, identityID string) (models.Membership, error)
}

type Tenants interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Tenant, error)
}

// Config bounds the lookup retry. Memberships are attached asynchronously
// after a first sign-in, so a miss is retried a few times before giving up.
type Config struct {
	Attempts uint
	Delay    time.Duration
}

const (
	DefaultAttempts = 3
	DefaultDelay    = 400 * time.Millisecond
)

// Resolver is safe for concurrent use.
type Resolver struct {
	profiles    Profiles
	memberships Memberships
	tenants     Tenants
	log         *zap.Logger
	cfg         Config
}

func NewResolver(p Profiles, m Memberships, t Tenants, logger *zap.Logger, cfg Config) *Resolver {
	if cfg.Attempts == 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	return &Resolver{profiles: p, memberships: m, tenants: t, log: logger, cfg: cfg}
}

var errNothingYet = errors.New("no tenant found yet")

type found struct {
	tenant models.Tenant
	source Source
}

// Resolve finds the identity's tenant: the profile's default-tenant hint
// first, otherwise the earliest-created active membership. Lookup errors are
// logged and count as a miss. The only error returned is ctx's.
func (rs *Resolver) Resolve(ctx context.Context, identityID string) (Resolution, error) {
	f, err := backoff.Retry(ctx, func() (found, error) {
		if f, ok := rs.lookup(ctx, identityID); ok {
			return f, nil
		}
		return found{}, errNothingYet
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(rs.cfg.Delay)),
		backoff.WithMaxTries(rs.cfg.Attempts),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Resolution{}, ctxErr
		}
		return Resolution{State: StateNoMembership, Source: SourceNone}, nil
	}

	t := f.tenant
	return Resolution{
		State:    stateFor(t),
		TenantID: t.ID,
		Source:   f.source,
		Tenant:   &t,
	}, nil
}

func (rs *Resolver) lookup(ctx context.Context, identityID string) (found, bool) {
	hint, ok, err := rs.profiles.DefaultTenant(ctx, identityID)
	if err != nil {
		rs.log.Warn("profile lookup failed", zap.String("identity_id", identityID), zap.Error(err))
	}
	if ok {
		t, err := rs.tenants.GetByID(ctx, hint)
		if err == nil {
			return found{tenant: t, source: SourceProfile}, true
		}
		rs.log.Warn("default tenant unreadable; trying memberships",
			zap.String("identity_id", identityID),
			zap.String("tenant_id", hint.Hex()),
			zap.Error(err))
	}

	m, err := rs.memberships.EarliestActive(ctx, identityID)
	if err != nil {
		rs.log.Debug("no active membership", zap.String("identity_id", identityID), zap.Error(err))
		return found{}, false
	}
	t, err := rs.tenants.GetByID(ctx, m.TenantID)
	if err != nil {
		rs.log.Warn("membership tenant unreadable",
			zap.String("identity_id", identityID),
			zap.String("tenant_id", m.TenantID.Hex()),
			zap.Error(err))
		return found{}, false
	}
	return found{tenant: t, source: SourceMembership}, true
}

// stateFor maps a tenant to a routing state. Unknown statuses are treated
// like pending.
func stateFor(t models.Tenant) State {
	switch {
	case t.IsActive():
		return StateWorkspace
	case t.Status == models.TenantSuspended:
		return StateSuspended
	default:
		return StateActivate
	}
}
