package tenantstore_test

import (
	"testing"

	tenantstore "github.com/dalemusser/partnerportal/internal/app/store/tenants"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/dalemusser/partnerportal/internal/testutil"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tenantstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Tenant{Name: "Acme Ltd"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.NameCI != text.Fold("Acme Ltd") {
		t.Errorf("NameCI = %q, want folded name", created.NameCI)
	}
	if created.Status != models.TenantPending {
		t.Errorf("expected status pending, got %q", created.Status)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Create_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tenantstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Tenant{Name: "X", Status: "bogus"}); err != tenantstore.ErrInvalidStatus {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestStore_FindByName_Exact(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := tenantstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	want := fixtures.CreateTenant(ctx, "Acme Ltd", models.TenantActive)

	got, err := store.FindByName(ctx, "Acme Ltd")
	if err != nil {
		t.Fatalf("FindByName failed: %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("FindByName returned %s, want %s", got.ID.Hex(), want.ID.Hex())
	}

	for _, variant := range []string{"acme ltd", "Acme Ltd ", "ACME LTD"} {
		if _, err := store.FindByName(ctx, variant); err != tenantstore.ErrNotFound {
			t.Errorf("FindByName(%q): expected ErrNotFound, got %v", variant, err)
		}
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tenantstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != tenantstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateSettings_Approval(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := tenantstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tn := fixtures.CreateTenant(ctx, "Globex", models.TenantPending)

	err := store.UpdateSettings(ctx, tn.ID, tenantstore.Settings{
		Status:   models.TenantApproved,
		Currency: "EUR",
		Locale:   "de-DE",
	}, "admin-1")
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	got, err := store.GetByID(ctx, tn.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Approved || got.ApprovedAt == nil || got.ApprovedBy != "admin-1" {
		t.Errorf("approval metadata not recorded: %+v", got)
	}
	if got.Currency != "EUR" || got.Locale != "de-DE" {
		t.Errorf("settings not saved: currency=%q locale=%q", got.Currency, got.Locale)
	}

	if err := store.UpdateSettings(ctx, primitive.NewObjectID(), tenantstore.Settings{}, "x"); err != tenantstore.ErrNotFound {
		t.Errorf("expected ErrNotFound for missing tenant, got %v", err)
	}
}

func TestStore_UpdateSettings_KeepsOriginalApprover(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := tenantstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tn := fixtures.CreateTenant(ctx, "Initech", models.TenantPending)
	if err := store.UpdateSettings(ctx, tn.ID, tenantstore.Settings{Status: models.TenantApproved, Currency: "USD"}, "approver"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	approved, _ := store.GetByID(ctx, tn.ID)

	// Currency edit, then promotion from approved to active: neither is a
	// new approval.
	if err := store.UpdateSettings(ctx, tn.ID, tenantstore.Settings{Status: models.TenantApproved, Currency: "EUR"}, "editor"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := store.UpdateSettings(ctx, tn.ID, tenantstore.Settings{Status: models.TenantActive, Currency: "EUR"}, "editor"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	got, _ := store.GetByID(ctx, tn.ID)
	if got.ApprovedBy != "approver" {
		t.Errorf("ApprovedBy = %q, want approver", got.ApprovedBy)
	}
	if got.ApprovedAt == nil || approved.ApprovedAt == nil || !got.ApprovedAt.Equal(*approved.ApprovedAt) {
		t.Errorf("ApprovedAt changed: %v -> %v", approved.ApprovedAt, got.ApprovedAt)
	}
	if got.Currency != "EUR" || got.Status != models.TenantActive {
		t.Errorf("edit not saved: %+v", got)
	}

	// Suspend and re-approve records the new approver.
	_ = store.UpdateSettings(ctx, tn.ID, tenantstore.Settings{Status: models.TenantSuspended}, "editor")
	got, _ = store.GetByID(ctx, tn.ID)
	if got.Approved {
		t.Error("suspended tenant still approved")
	}
	_ = store.UpdateSettings(ctx, tn.ID, tenantstore.Settings{Status: models.TenantActive}, "second-approver")
	got, _ = store.GetByID(ctx, tn.ID)
	if !got.Approved || got.ApprovedBy != "second-approver" {
		t.Errorf("re-approval not recorded: %+v", got)
	}
}

func TestStore_MarkProvisioningFailed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := tenantstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tn := fixtures.CreateTenant(ctx, "Initech", models.TenantPending)
	if err := store.MarkProvisioningFailed(ctx, tn.ID); err != nil {
		t.Fatalf("MarkProvisioningFailed failed: %v", err)
	}
	got, _ := store.GetByID(ctx, tn.ID)
	if !got.ProvisioningFailed {
		t.Error("expected provisioning_failed to be set")
	}
	if got.Status != models.TenantPending {
		t.Errorf("status changed to %q", got.Status)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := tenantstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateTenant(ctx, "Beta", models.TenantActive)
	fixtures.CreateTenant(ctx, "alpha", models.TenantPending)
	fixtures.CreateTenant(ctx, "Alpine", models.TenantActive)

	all, err := store.List(ctx, tenantstore.ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].Name != "alpha" || all[2].Name != "Beta" {
		t.Errorf("unexpected order: %+v", all)
	}

	al, _ := store.List(ctx, tenantstore.ListFilter{Search: "AL", Status: models.TenantActive})
	if len(al) != 1 || al[0].Name != "Alpine" {
		t.Errorf("filtered list = %+v, want [Alpine]", al)
	}
}
