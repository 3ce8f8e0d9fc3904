package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/pawclinic-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "usertokenrepo@example.com")
	now := time.Now().UTC()

	session := func(access string, ttl time.Duration) *types.UserToken {
		tok := &types.UserToken{UserID: u.ID, AccessToken: access, RefreshToken: "r-" + access, ExpiresAt: now.Add(ttl)}
		if err := repo.Create(dbc, tok); err != nil {
			t.Fatalf("Create %s: %v", access, err)
		}
		if tok.ID == uuid.Nil {
			t.Fatalf("Create: expected id to be assigned")
		}
		return tok
	}

	first := session("a-1", time.Hour)
	if got, err := repo.FindByAccessToken(dbc, "a-1"); err != nil || got == nil || got.ID != first.ID {
		t.Fatalf("FindByAccessToken: got=%v err=%v", got, err)
	}
	if got, err := repo.FindByRefreshToken(dbc, "r-a-1"); err != nil || got == nil || got.ID != first.ID {
		t.Fatalf("FindByRefreshToken: got=%v err=%v", got, err)
	}
	if got, err := repo.FindByAccessToken(dbc, "missing"); err != nil || got != nil {
		t.Fatalf("miss: got=%v err=%v", got, err)
	}
	if got, err := repo.FindByRefreshToken(dbc, ""); err != nil || got != nil {
		t.Fatalf("empty: got=%v err=%v", got, err)
	}

	if err := repo.Revoke(dbc, first.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if got, _ := repo.FindByAccessToken(dbc, "a-1"); got != nil {
		t.Fatalf("revoked token still found")
	}
	// Token strings are reusable once revoked.
	session("a-1", time.Hour)

	expired := session("a-2", -time.Minute)
	session("a-3", time.Hour)
	n, err := repo.DeleteExpired(dbc, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: err=%v n=%d", err, n)
	}
	if got, _ := repo.FindByAccessToken(dbc, expired.AccessToken); got != nil {
		t.Fatalf("expired token survived the sweep")
	}

	if n, err := repo.RevokeUser(dbc, u.ID); err != nil || n != 2 {
		t.Fatalf("RevokeUser: n=%d err=%v", n, err)
	}
}
