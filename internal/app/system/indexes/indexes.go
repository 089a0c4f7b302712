// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup (and by testutil.SetupTestDB). Each ensure*
function is idempotent. Errors are aggregated so any problem is visible and
startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, c := range []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"tenants", ensureTenants},
		{"applications", ensureApplications},
		{"memberships", ensureMemberships},
		{"fallback_invitations", ensureFallbackInvitations},
		{"admin_users", ensureAdminUsers},
		{"audit_events", ensureAuditEvents},
	} {
		if err := c.fn(ctx, db); err != nil {
			problems = append(problems, c.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureTenants(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("tenants"), []mongo.IndexModel{
		// Exact-name lookup during invitation issuance. Not unique: two admins
		// approving the same company concurrently may both create a tenant.
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("idx_tenant_name")},
		{Keys: bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("idx_tenant_nameci__id")},
		{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("idx_tenant_status")},
	})
}

func ensureApplications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("applications"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "submitted_at", Value: -1}, {Key: "_id", Value: -1}}, Options: options.Index().SetName("idx_app_submitted__id")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "submitted_at", Value: -1}}, Options: options.Index().SetName("idx_app_status_submitted")},
		{Keys: bson.D{{Key: "company_name_ci", Value: 1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("idx_app_companyci__id")},
	})
}

func ensureMemberships(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("memberships"), []mongo.IndexModel{
		// Resolver: earliest active membership per identity.
		{Keys: bson.D{{Key: "identity_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("idx_membership_identity_status_created")},
		{Keys: bson.D{{Key: "identity_id", Value: 1}, {Key: "tenant_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_membership_identity_tenant")},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("idx_membership_tenant_created")},
	})
}

func ensureFallbackInvitations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("fallback_invitations"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_invite_code")},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_invite_tenant_created")},
	})
}

func ensureAdminUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("admin_users"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "email_ci", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_admin_emailci")},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}, Options: options.Index().SetName("idx_audit_ts")},
		{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "timestamp", Value: -1}}, Options: options.Index().SetName("idx_audit_subject_ts")},
	})
}

// Mongo/DocDB returns IndexOptionsConflict (or IndexKeySpecsConflict) when an
// index with the same keys already exists under a different name or options.
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "IndexOptionsConflict") || strings.Contains(s, "IndexKeySpecsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	for _, m := range models {
		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}
		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				zap.L().Warn("index exists with different options; keeping existing",
					zap.String("collection", coll.Name()),
					zap.String("name", name),
					zap.Error(err))
				continue
			}
			errs = append(errs, name+": "+err.Error())
			continue
		}
		zap.L().Debug("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
