package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gotd/td/tg"

	logx "tgmarkup/pkg/logx"
	"tgmarkup/pkg/peer"
)

func openTest(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "db", "peers.db"), TTL: ttl}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, d := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: d}, logx.Logger{})
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = %v, %v", d, st, err)
		}
	}
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver should fail")
	}
	if _, err := Open(Config{Driver: "sqlite"}, logx.Nop()); err == nil {
		t.Fatal("missing path should fail")
	}
}

func TestPutAndResolve(t *testing.T) {
	t.Parallel()
	st := openTest(t, 0)
	ctx := context.Background()
	if err := st.PutUser(ctx, peer.User{ID: 42, AccessHash: 7, Username: "@Alice"}); err != nil {
		t.Fatalf("PutUser: %v", err)
	}

	for _, ref := range []string{"42", "@alice", "ALICE", "https://t.me/alice"} {
		got, err := st.ResolveUser(ctx, ref)
		if err != nil {
			t.Fatalf("ResolveUser(%q): %v", ref, err)
		}
		u, ok := got.(*tg.InputUser)
		if !ok || u.UserID != 42 || u.AccessHash != 7 {
			t.Fatalf("ResolveUser(%q) = %#v", ref, got)
		}
	}
	if got, err := st.ResolveUser(ctx, "me"); err != nil {
		t.Fatalf("ResolveUser(me): %v", err)
	} else if _, ok := got.(*tg.InputUserSelf); !ok {
		t.Fatalf("ResolveUser(me) = %T", got)
	}
	if name, ok := st.Username(42); !ok || name != "alice" {
		t.Fatalf("Username(42) = %q, %v", name, ok)
	}

	_, err := st.ResolveUser(ctx, "@bob")
	var rerr *peer.ResolutionError
	if !errors.As(err, &rerr) || !errors.Is(err, peer.ErrNotFound) || rerr.Ref != "@bob" {
		t.Fatalf("ResolveUser(@bob) err = %v", err)
	}
	if _, err := st.ResolveUser(ctx, "-5"); !errors.Is(err, peer.ErrBadRef) {
		t.Fatalf("ResolveUser(-5) err = %v", err)
	}
	if err := st.PutUser(ctx, peer.User{ID: 0}); err == nil {
		t.Fatal("PutUser with id 0 should fail")
	}
}

func TestUsernameMoves(t *testing.T) {
	t.Parallel()
	st := openTest(t, 0)
	ctx := context.Background()
	if err := st.PutUser(ctx, peer.User{ID: 1, AccessHash: 1, Username: "shared"}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutUser(ctx, peer.User{ID: 2, AccessHash: 2, Username: "shared"}); err != nil {
		t.Fatalf("second PutUser: %v", err)
	}
	got, err := st.ResolveUser(ctx, "@shared")
	if err != nil {
		t.Fatal(err)
	}
	if got.(*tg.InputUser).UserID != 2 {
		t.Fatalf("@shared resolved to %#v, want user 2", got)
	}
	if _, ok := st.Username(1); ok {
		t.Fatal("user 1 kept a username it lost")
	}
	if _, err := st.ResolveUser(ctx, "1"); err != nil {
		t.Fatalf("user 1 should still resolve by id: %v", err)
	}
}

func TestTTLAndPrune(t *testing.T) {
	t.Parallel()
	st := openTest(t, time.Hour)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	st.now = func() time.Time { return base }
	if err := st.PutUser(ctx, peer.User{ID: 1, AccessHash: 1, Username: "old"}); err != nil {
		t.Fatal(err)
	}
	st.now = func() time.Time { return base.Add(50 * time.Minute) }
	if err := st.PutUser(ctx, peer.User{ID: 2, AccessHash: 2, Username: "fresh"}); err != nil {
		t.Fatal(err)
	}

	st.now = func() time.Time { return base.Add(90 * time.Minute) }
	if _, err := st.ResolveUser(ctx, "@old"); !errors.Is(err, peer.ErrNotFound) {
		t.Fatalf("expired peer err = %v, want ErrNotFound", err)
	}
	if _, err := st.ResolveUser(ctx, "@fresh"); err != nil {
		t.Fatalf("fresh peer: %v", err)
	}

	n, err := st.PruneExpired(ctx, st.now())
	if err != nil || n != 1 {
		t.Fatalf("PruneExpired = %d, %v; want 1", n, err)
	}
	if n, _ := st.PruneExpired(ctx, st.now()); n != 0 {
		t.Fatalf("second prune removed %d rows", n)
	}
}

func TestNilStore(t *testing.T) {
	t.Parallel()
	var st *Store
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := st.PruneExpired(context.Background(), time.Now()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("PruneExpired err = %v", err)
	}
	if _, err := st.ResolveUser(context.Background(), "@xy"); !errors.Is(err, peer.ErrNotFound) {
		t.Fatalf("ResolveUser err = %v", err)
	}
	var r peer.Resolver = peer.Chain{peer.NewStatic(), st}
	if _, err := r.ResolveUser(context.Background(), "me"); err != nil {
		t.Fatalf("chain self: %v", err)
	}
}
