package bootstrap

import (
	"context"
	"strings"
	"testing"

	adminuserstore "github.com/dalemusser/partnerportal/internal/app/store/adminusers"
	"github.com/dalemusser/partnerportal/internal/app/system/invitation"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/dalemusser/partnerportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureSuperAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "superadmin@test.com", "s3cret-pass", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.AdminUser
	if err := db.Collection("admin_users").FindOne(ctx, bson.M{"email": "superadmin@test.com"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if user.Role != models.RoleSuperAdmin {
		t.Errorf("expected role 'superadmin', got %q", user.Role)
	}
	if user.Status != adminuserstore.StatusActive {
		t.Errorf("expected status 'active', got %q", user.Status)
	}

	if _, err := adminuserstore.New(db).Authenticate(ctx, "SuperAdmin@test.com", "s3cret-pass"); err != nil {
		t.Errorf("superadmin cannot sign in: %v", err)
	}
}

func TestEnsureSuperAdmin_LeavesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := adminuserstore.New(db)
	existing, err := store.Create(ctx, models.AdminUser{
		Email:    "boss@test.com",
		FullName: "Boss",
		Role:     models.RoleAdmin,
	}, "original-pass")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "boss@test.com", "other-pass", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	got, err := store.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("role changed to %q", got.Role)
	}
	if _, err := store.Authenticate(ctx, "boss@test.com", "original-pass"); err != nil {
		t.Errorf("password changed: %v", err)
	}

	n, err := db.Collection("admin_users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 admin user, got %d", n)
	}
}

func TestEnsureSuperAdmin_NoEmailIsNoop(t *testing.T) {
	if err := ensureSuperAdmin(context.Background(), DBDeps{}, "", "ignored", testLogger()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func devConfig() AppConfig {
	return AppConfig{
		SessionKey:          devSessionKey,
		BaseURL:             "http://localhost:3000",
		InviteSigningSecret: invitation.InsecureDevSecret,
		StorageType:         "local",
		StorageLocalPath:    "./uploads",
		ResolverAttempts:    3,
		SuperAdminEmail:     "root@test.com",
		SuperAdminPassword:  devSuperAdminPassword,
	}
}

func TestValidateApp_DevAcceptsDefaults(t *testing.T) {
	if err := validateApp(false, devConfig()); err != nil {
		t.Fatalf("dev defaults rejected: %v", err)
	}
}

func TestValidateApp_ProdRejectsInsecureDefaults(t *testing.T) {
	err := validateApp(true, devConfig())
	if err == nil {
		t.Fatal("expected prod to reject dev defaults")
	}
	for _, want := range []string{"session_key", "invite_signing_secret", "idp_jwt_secret", "superadmin_password", "https"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidateApp_ProdAcceptsStrongConfig(t *testing.T) {
	cfg := devConfig()
	cfg.SessionKey = strings.Repeat("k", 48)
	cfg.InviteSigningSecret = strings.Repeat("s", 48)
	cfg.IdPJWTSecret = "jwt-secret"
	cfg.SuperAdminPassword = "a-real-password"
	cfg.BaseURL = "https://portal.example.com"

	if err := validateApp(true, cfg); err != nil {
		t.Fatalf("strong prod config rejected: %v", err)
	}
}

func TestValidateApp_Storage(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"s3 complete", func(c *AppConfig) { c.StorageType, c.StorageBucket, c.StorageS3Region = "s3", "docs", "us-east-1" }, false},
		{"s3 missing bucket", func(c *AppConfig) { c.StorageType, c.StorageS3Region = "s3", "us-east-1" }, true},
		{"local missing path", func(c *AppConfig) { c.StorageLocalPath = "" }, true},
		{"unknown type", func(c *AppConfig) { c.StorageType = "ftp" }, true},
		{"zero attempts", func(c *AppConfig) { c.ResolverAttempts = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := devConfig()
			tt.mutate(&cfg)
			err := validateApp(false, cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
