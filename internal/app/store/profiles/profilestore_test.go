package profilestore_test

import (
	"testing"

	profilestore "github.com/dalemusser/partnerportal/internal/app/store/profiles"
	"github.com/dalemusser/partnerportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_DefaultTenant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, ok, err := store.DefaultTenant(ctx, "user-1"); err != nil || ok {
		t.Fatalf("expected no hint, got ok=%v err=%v", ok, err)
	}

	tid := primitive.NewObjectID()
	if err := store.SetDefaultTenant(ctx, "user-1", tid); err != nil {
		t.Fatalf("SetDefaultTenant failed: %v", err)
	}
	got, ok, err := store.DefaultTenant(ctx, "user-1")
	if err != nil || !ok {
		t.Fatalf("expected hint, got ok=%v err=%v", ok, err)
	}
	if got != tid {
		t.Errorf("DefaultTenant = %s, want %s", got.Hex(), tid.Hex())
	}

	// second set overwrites
	tid2 := primitive.NewObjectID()
	_ = store.SetDefaultTenant(ctx, "user-1", tid2)
	got, _, _ = store.DefaultTenant(ctx, "user-1")
	if got != tid2 {
		t.Errorf("DefaultTenant after overwrite = %s, want %s", got.Hex(), tid2.Hex())
	}
}
