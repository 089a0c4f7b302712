// Package invitation provisions a tenant for an approved company and issues
// exactly one redeemable invitation for it, preferring the identity
// provider's native invite and falling back to a self-signed code.
package invitation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	tenantstore "github.com/dalemusser/partnerportal/internal/app/store/tenants"
	"github.com/dalemusser/partnerportal/internal/app/system/auditlog"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultExpiry is the lifetime of a fallback invitation.
const DefaultExpiry = 7 * 24 * time.Hour

// DefaultRole is granted when the request does not name one.
const DefaultRole = "owner"

// InsecureDevSecret is used when no signing secret is configured. Startup
// rejects it outside dev.
const InsecureDevSecret = "dev-insecure-invite-secret"

var (
	ErrMissingCompany = errors.New("company name is required")
	// ErrTenantProvisioning wraps a failure to look up or create the tenant.
	ErrTenantProvisioning = errors.New("tenant provisioning failed")
	// ErrFallbackInsert wraps a failure to persist the fallback invitation.
	ErrFallbackInsert = errors.New("fallback invitation insert failed")
)

// Kind tags which branch produced an invitation.
type Kind string

const (
	KindNative   Kind = "native"
	KindFallback Kind = "fallback"
)

// Result is the outcome of a successful Issue. A failed issuance is reported
// through the error return instead.
type Result struct {
	Kind     Kind
	URL      string // link to hand to the invitee
	TenantID primitive.ObjectID

	// TenantCreated is true when this call created the tenant.
	TenantCreated bool

	// Fallback only.
	Code      string
	ExpiresAt time.Time
}

// Request names the company and contact to invite.
type Request struct {
	CompanyName string
	Email       string
	Phone       string
	Role        string
	ActorID     string // admin issuing the invitation, for audit
}

// Tenants is the subset of the tenant directory the issuer needs.
type Tenants interface {
	FindByName(ctx context.Context, name string) (models.Tenant, error)
	Create(ctx context.Context, t models.Tenant) (models.Tenant, error)
	MarkProvisioningFailed(ctx context.Context, id primitive.ObjectID) error
}

// Store persists fallback invitations.
type Store interface {
	Insert(ctx context.Context, inv models.FallbackInvitation) (models.FallbackInvitation, error)
}

// Provider is the identity provider's admin surface.
type Provider interface {
	InviteUserByEmail(ctx context.Context, email string, metadata map[string]string, redirectTo string) error
	GenerateLink(ctx context.Context, linkType, email, redirectTo string) (string, error)
}

// Config carries everything the issuer would otherwise read from the
// environment.
type Config struct {
	BaseURL       string // e.g. https://portal.example.com
	SigningSecret string
	Expiry        time.Duration
	Now           func() time.Time
}

// Issuer runs the provisioning workflow. It is safe for concurrent use.
type Issuer struct {
	tenants  Tenants
	store    Store
	provider Provider // optional
	audit    *auditlog.Logger
	log      *zap.Logger
	cfg      Config
}

// New builds an Issuer. provider may be nil, in which case every invitation
// takes the fallback path.
func New(tenants Tenants, store Store, provider Provider, audit *auditlog.Logger, logger *zap.Logger, cfg Config) *Issuer {
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SigningSecret == "" {
		cfg.SigningSecret = InsecureDevSecret
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Issuer{
		tenants:  tenants,
		store:    store,
		provider: provider,
		audit:    audit,
		log:      logger,
		cfg:      cfg,
	}
}

var tracer = otel.Tracer("github.com/dalemusser/partnerportal/internal/app/system/invitation")

// Issue ensures a tenant named req.CompanyName exists and returns a single
// invitation for it. Every call issues a new invitation; earlier ones stay
// valid.
func (is *Issuer) Issue(ctx context.Context, req Request) (res Result, err error) {
	ctx, span := tracer.Start(ctx, "invitation.Issue")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			is.audit.InvitationFailed(ctx, req.ActorID, req.CompanyName, err)
		} else {
			span.SetAttributes(attribute.String("invitation.kind", string(res.Kind)))
		}
		span.End()
	}()

	if req.CompanyName == "" {
		return Result{}, ErrMissingCompany
	}
	if req.Role == "" {
		req.Role = DefaultRole
	}
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)

	tenant, created, err := is.ensureTenant(ctx, req.CompanyName)
	if err != nil {
		return Result{}, err
	}
	res = Result{TenantID: tenant.ID, TenantCreated: created}

	if email != "" && is.provider != nil {
		if link, ok := is.tryNative(ctx, tenant.ID, email, req.Role); ok {
			res.Kind = KindNative
			res.URL = link
			is.audit.InvitationIssued(ctx, req.ActorID, tenant.ID, string(KindNative), email)
			return res, nil
		}
	}

	now := is.cfg.Now().UTC()
	token, sig, code := NewCode(is.cfg.SigningSecret)
	inv := models.FallbackInvitation{
		TenantID:  tenant.ID,
		Role:      req.Role,
		Email:     email,
		Phone:     phone,
		Token:     token,
		Signature: sig,
		Code:      code,
		ExpiresAt: now.Add(is.cfg.Expiry),
		CreatedAt: now,
	}
	if _, err := is.store.Insert(ctx, inv); err != nil {
		if created {
			is.compensate(ctx, tenant.ID, err)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrFallbackInsert, err)
	}

	res.Kind = KindFallback
	res.Code = code
	res.ExpiresAt = inv.ExpiresAt
	res.URL = is.cfg.BaseURL + "/invite/accept?code=" + url.QueryEscape(code)

	recipient := email
	if recipient == "" {
		recipient = phone
	}
	is.audit.InvitationIssued(ctx, req.ActorID, tenant.ID, string(KindFallback), recipient)
	return res, nil
}

func (is *Issuer) ensureTenant(ctx context.Context, name string) (models.Tenant, bool, error) {
	t, err := is.tenants.FindByName(ctx, name)
	if err == nil {
		return t, false, nil
	}
	if !errors.Is(err, tenantstore.ErrNotFound) {
		return models.Tenant{}, false, fmt.Errorf("%w: lookup %q: %w", ErrTenantProvisioning, name, err)
	}

	t, err = is.tenants.Create(ctx, models.Tenant{Name: name, Status: models.TenantPending})
	if err != nil {
		return models.Tenant{}, false, fmt.Errorf("%w: create %q: %w", ErrTenantProvisioning, name, err)
	}
	is.log.Info("tenant created for invitation",
		zap.String("tenant_id", t.ID.Hex()),
		zap.String("name", name))
	is.audit.TenantCreated(ctx, t.ID, name)
	return t, true, nil
}

// tryNative attempts the provider invite and then a copyable magic link.
// Any failure is logged and reported as !ok so the caller falls back.
func (is *Issuer) tryNative(ctx context.Context, tenantID primitive.ObjectID, email, role string) (string, bool) {
	redirect := is.cfg.BaseURL + "/auth/landing"
	meta := map[string]string{"tenant_id": tenantID.Hex(), "role": role}
	span := trace.SpanFromContext(ctx)

	if err := is.provider.InviteUserByEmail(ctx, email, meta, redirect); err != nil {
		span.AddEvent("native invite failed", trace.WithAttributes(attribute.String("error", err.Error())))
		is.log.Warn("native invite failed; using fallback",
			zap.String("tenant_id", tenantID.Hex()),
			zap.Error(err))
		return "", false
	}

	link, err := is.provider.GenerateLink(ctx, "magiclink", email, redirect)
	if err != nil {
		span.AddEvent("link generation failed", trace.WithAttributes(attribute.String("error", err.Error())))
		is.log.Warn("invite link generation failed; using fallback",
			zap.String("tenant_id", tenantID.Hex()),
			zap.Error(err))
		return "", false
	}
	if link == "" {
		return "", false
	}
	return link, true
}

// compensate flags a tenant created by a failed issuance. The tenant stays
// pending and is picked up by reconciliation.
func (is *Issuer) compensate(ctx context.Context, tenantID primitive.ObjectID, cause error) {
	if err := is.tenants.MarkProvisioningFailed(ctx, tenantID); err != nil {
		is.log.Error("failed to flag orphaned tenant",
			zap.String("tenant_id", tenantID.Hex()),
			zap.Error(err))
		return
	}
	is.log.Warn("tenant flagged after failed invitation",
		zap.String("tenant_id", tenantID.Hex()),
		zap.Error(cause))
	is.audit.TenantProvisioningFailed(ctx, tenantID, cause)
}
