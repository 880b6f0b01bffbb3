package accounts

import (
	"context"
	"testing"
	"time"
)

func TestJanitorSweepsExpiredSessions(t *testing.T) {
	svc, store := newService(time.Millisecond)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "alice", "s3cret", "", ""); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, token, err := svc.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	janitor := NewJanitor(svc, time.Millisecond, nil)
	if janitor.Name() != "session-janitor" {
		t.Fatalf("unexpected name %q", janitor.Name())
	}
	if err := janitor.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := store.GetSessionByTokenHash(ctx, hashToken(token)); err != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("janitor never removed the expired session")
		}
		time.Sleep(2 * time.Millisecond)
	}

	if err := janitor.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := janitor.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
