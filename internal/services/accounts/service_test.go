package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/readstack/catalog/internal/catalog"
	"github.com/readstack/catalog/internal/storage/memory"
)

func newService(ttl time.Duration) (*Service, *memory.Store) {
	store := memory.New()
	return New(store, store, []byte("test-secret"), ttl, nil), store
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "alice", "s3cret", "Alice", "Archer", catalog.PermRenew)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.PasswordHash == "s3cret" || user.PasswordHash == "" {
		t.Fatalf("password stored in the clear")
	}
	if !user.HasPermission(catalog.PermRenew) {
		t.Fatalf("permission not recorded")
	}

	if _, err := svc.CreateUser(ctx, "alice", "other", "", ""); err == nil {
		t.Fatalf("expected duplicate username to fail")
	}
	if _, err := svc.CreateUser(ctx, "", "pw", "", ""); err == nil {
		t.Fatalf("expected empty username to fail")
	}
	if _, err := svc.CreateUser(ctx, "bob", "", "", ""); err == nil {
		t.Fatalf("expected empty password to fail")
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "alice", "s3cret", "", ""); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for wrong password, got %v", err)
	}
	// Unknown usernames fail the same way as wrong passwords.
	if _, err := svc.Authenticate(ctx, "nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "alice", "s3cret", "", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	user, token, err := svc.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != created.ID || token == "" {
		t.Fatalf("unexpected login result")
	}

	resolved, err := svc.UserFromToken(ctx, token)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if resolved.Username != "alice" {
		t.Fatalf("wrong user resolved: %q", resolved.Username)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.UserFromToken(ctx, token); err == nil {
		t.Fatalf("expected revoked token to be rejected")
	}

	// Logging out twice is a no-op.
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("repeat logout: %v", err)
	}
}

func TestTokenFromAnotherSecretRejected(t *testing.T) {
	svc, _ := newService(time.Hour)
	other := New(memory.New(), memory.New(), []byte("a-different-secret"), time.Hour, nil)
	ctx := context.Background()

	if _, err := other.CreateUser(ctx, "alice", "s3cret", "", ""); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, token, err := other.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.UserFromToken(ctx, token); err == nil {
		t.Fatalf("expected token signed elsewhere to be rejected")
	}
}

func TestExpiredSessionRejectedAndPurged(t *testing.T) {
	svc, store := newService(time.Millisecond)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "alice", "s3cret", "", ""); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, token, err := svc.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := svc.UserFromToken(ctx, token); err == nil {
		t.Fatalf("expected expired session to be rejected")
	}

	removed, err := svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 purged session, got %d", removed)
	}

	// The session row is gone, so the token cannot come back.
	if _, err := store.GetSessionByTokenHash(ctx, hashToken(token)); err == nil {
		t.Fatalf("expected session row to be deleted")
	}
}

func TestGrant(t *testing.T) {
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "alice", "s3cret", "", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	granted, err := svc.Grant(ctx, user.ID, catalog.PermRenew, catalog.PermViewAllLoans)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !granted.HasPermission(catalog.PermRenew) || !granted.HasPermission(catalog.PermViewAllLoans) {
		t.Fatalf("permissions not granted: %v", granted.Permissions)
	}

	// Granting the same permission twice does not duplicate it.
	again, err := svc.Grant(ctx, user.ID, catalog.PermRenew)
	if err != nil {
		t.Fatalf("regrant: %v", err)
	}
	if len(again.Permissions) != 2 {
		t.Fatalf("expected 2 permissions, got %v", again.Permissions)
	}

	if _, err := svc.Grant(ctx, 999, catalog.PermRenew); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}
