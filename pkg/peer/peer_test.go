package peer

import (
	"context"
	"errors"
	"testing"

	"github.com/gotd/td/tg"
)

func TestParseRef(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		kind RefKind
		name string
		id   int64
	}{
		{in: "", kind: RefSelf},
		{in: "Me", kind: RefSelf},
		{in: " self ", kind: RefSelf},
		{in: "@GameBot", kind: RefUsername, name: "gamebot"},
		{in: "gamebot", kind: RefUsername, name: "gamebot"},
		{in: "https://t.me/Game_Bot", kind: RefUsername, name: "game_bot"},
		{in: "777000", kind: RefID, id: 777000},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRef(tt.in)
			if err != nil {
				t.Fatalf("ParseRef(%q) error: %v", tt.in, err)
			}
			if got.Kind != tt.kind || got.Username != tt.name || got.ID != tt.id {
				t.Fatalf("ParseRef(%q) = %+v, want kind=%d name=%q id=%d", tt.in, got, tt.kind, tt.name, tt.id)
			}
		})
	}
}

func TestParseRefInvalid(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"-5", "0", "@", "1abc", "bad name", "x!"} {
		if _, err := ParseRef(in); !errors.Is(err, ErrBadRef) {
			t.Fatalf("ParseRef(%q) err = %v, want ErrBadRef", in, err)
		}
	}
}

func TestInputUser(t *testing.T) {
	t.Parallel()
	u, err := InputUser(&tg.InputPeerUser{UserID: 10, AccessHash: 20})
	if err != nil {
		t.Fatalf("InputUser error: %v", err)
	}
	iu, ok := u.(*tg.InputUser)
	if !ok || iu.UserID != 10 || iu.AccessHash != 20 {
		t.Fatalf("InputUser = %#v", u)
	}

	if u, _ := InputUser(&tg.InputPeerSelf{}); u == nil {
		t.Fatal("expected self user")
	} else if _, ok := u.(*tg.InputUserSelf); !ok {
		t.Fatalf("InputUser(self) = %T", u)
	}

	_, err = InputUser(&tg.InputPeerChat{ChatID: 1})
	var rerr *ResolutionError
	if !errors.As(err, &rerr) || !errors.Is(err, ErrNotUser) {
		t.Fatalf("InputUser(chat) err = %v, want ResolutionError(ErrNotUser)", err)
	}
}

func TestCheckUser(t *testing.T) {
	t.Parallel()
	if err := CheckUser(&tg.InputUserSelf{}); err != nil {
		t.Fatalf("CheckUser(self) = %v", err)
	}
	if err := CheckUser(&tg.InputUserEmpty{}); !errors.Is(err, ErrNotUser) {
		t.Fatalf("CheckUser(empty) = %v, want ErrNotUser", err)
	}
	if err := CheckUser(nil); !errors.Is(err, ErrNotUser) {
		t.Fatalf("CheckUser(nil) = %v, want ErrNotUser", err)
	}
}

func TestStaticAndChain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := NewStatic(User{ID: 1, AccessHash: 11, Username: "@Alice"})
	b := NewStatic(User{ID: 2, AccessHash: 22, Username: "bob"})

	u, err := a.ResolveUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ResolveUser error: %v", err)
	}
	if iu := u.(*tg.InputUser); iu.UserID != 1 || iu.AccessHash != 11 {
		t.Fatalf("ResolveUser(alice) = %+v", iu)
	}
	if name, ok := a.Username(1); !ok || name != "Alice" {
		t.Fatalf("Username(1) = %q, %v", name, ok)
	}

	chain := Chain{a, nil, b}
	u, err = chain.ResolveUser(ctx, "2")
	if err != nil {
		t.Fatalf("chain ResolveUser error: %v", err)
	}
	if iu := u.(*tg.InputUser); iu.UserID != 2 {
		t.Fatalf("chain resolved %d, want 2", iu.UserID)
	}

	if _, err := chain.ResolveUser(ctx, "@carol"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("chain ResolveUser(carol) err = %v, want ErrNotFound", err)
	}
	if _, err := chain.ResolveUser(ctx, "bad name"); !errors.Is(err, ErrBadRef) {
		t.Fatalf("chain stops on non-NotFound errors, got %v", err)
	}
}
