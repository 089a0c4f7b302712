package indexes_test

import (
	"testing"

	"github.com/dalemusser/partnerportal/internal/app/system/indexes"
	"github.com/dalemusser/partnerportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t) // already ran EnsureAll once
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesInviteCodeIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection("fallback_invitations").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	found := false
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		if idx["name"] == "uniq_invite_code" {
			found = true
			if u, _ := idx["unique"].(bool); !u {
				t.Error("expected uniq_invite_code to be unique")
			}
		}
	}
	if !found {
		t.Error("expected uniq_invite_code index on fallback_invitations")
	}
}
