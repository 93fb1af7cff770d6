package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/gotd/td/tg"

	"tgmarkup/internal/config"
	"tgmarkup/pkg/botapi"
	"tgmarkup/pkg/button"
	"tgmarkup/pkg/markup"
	"tgmarkup/pkg/peer"
)

func ptr(v bool) *bool { return &v }

func testConfig() *config.Config {
	return &config.Config{
		Peers: []config.PeerConfig{{ID: 42, AccessHash: 7, Username: "alice"}},
		Keyboards: map[string]config.KeyboardConfig{
			"Main": {Rows: [][]config.ButtonConfig{
				{{Type: "text", Text: "Help", Resize: ptr(true)}},
				{{Type: "location", Text: "Where"}, {Type: "phone", Text: "Phone", SingleUse: ptr(true)}},
				{{Type: "poll", Text: "Quiz", Quiz: true}},
			}},
			"links": {InlineOnly: true, Rows: [][]config.ButtonConfig{
				{{Type: "callback", Text: "Ping", Data: "ping"}, {Type: "url", Text: "Site", URL: "https://example.com"}},
				{{Type: "mention", Text: "Alice", User: "@alice"}, {Type: "auth", Text: "Login", URL: "https://login.test", Bot: "me", WriteAccess: true}},
				{{Type: "switch_inline", Text: "Share", Query: "q", SamePeer: true}, {Type: "buy", Text: "Pay"}, {Type: "game", Text: "Play"}},
			}},
			"hide":  {Clear: &config.ClearConfig{Selective: true}},
			"reply": {ForceReply: &config.ForceReplyConfig{SingleUse: true, Placeholder: "answer"}},
		},
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()
	c, err := FromConfig(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if got, want := c.Names(), []string{"hide", "links", "main", "reply"}; !slices.Equal(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}

	main, ok := c.Get(" MAIN ")
	if !ok {
		t.Fatal("Get is not case-insensitive")
	}
	kb, ok := main.Markup.(*tg.ReplyKeyboardMarkup)
	if !ok || len(kb.Rows) != 3 || !kb.Resize || !kb.SingleUse || kb.Selective {
		t.Fatalf("main = %#v", main.Markup)
	}
	poll := kb.Rows[2].Buttons[0].(*tg.KeyboardButtonRequestPoll)
	if quiz, ok := poll.GetQuiz(); !ok || !quiz {
		t.Fatal("poll lost the quiz flag")
	}

	links, _ := c.Get("links")
	in, ok := links.Markup.(*tg.ReplyInlineMarkup)
	if !ok || !links.InlineOnly {
		t.Fatalf("links = %T", links.Markup)
	}
	if cb := in.Rows[0].Buttons[0].(*tg.KeyboardButtonCallback); string(cb.Data) != "ping" {
		t.Fatalf("callback data = %q", cb.Data)
	}
	profile := in.Rows[1].Buttons[0].(*tg.InputKeyboardButtonUserProfile)
	if u, ok := profile.UserID.(*tg.InputUser); !ok || u.UserID != 42 || u.AccessHash != 7 {
		t.Fatalf("mention user = %#v", profile.UserID)
	}
	auth := in.Rows[1].Buttons[1].(*tg.InputKeyboardButtonURLAuth)
	if _, ok := auth.Bot.(*tg.InputUserSelf); !ok || !auth.RequestWriteAccess {
		t.Fatalf("auth = %#v", auth)
	}

	hide, _ := c.Get("hide")
	if h, ok := hide.Markup.(*tg.ReplyKeyboardHide); !ok || !h.Selective {
		t.Fatalf("hide = %#v", hide.Markup)
	}
	reply, _ := c.Get("reply")
	if fr, ok := reply.Markup.(*tg.ReplyKeyboardForceReply); !ok || fr.Placeholder != "answer" {
		t.Fatalf("reply = %#v", reply.Markup)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) reported ok")
	}
}

func TestCompileCallbackDefaultsToText(t *testing.T) {
	t.Parallel()
	c, err := Compile(context.Background(), map[string]config.KeyboardConfig{
		"k": {Rows: [][]config.ButtonConfig{{{Type: "callback", Text: "yes"}}}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	kb, _ := c.Get("k")
	b := markup.Buttons(kb.Markup)[0].(*tg.KeyboardButtonCallback)
	if string(b.Data) != "yes" {
		t.Fatalf("data = %q", b.Data)
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", button.MaxCallbackData+1)
	tests := []struct {
		name   string
		kb     config.KeyboardConfig
		is     error
		row    int
		button int
	}{
		{
			name: "mixed",
			kb:   config.KeyboardConfig{Rows: [][]config.ButtonConfig{{{Type: "text", Text: "a"}, {Type: "url", Text: "b"}}}},
			is:   markup.ErrMixedCategories, row: -1, button: -1,
		},
		{
			name: "inline only",
			kb:   config.KeyboardConfig{InlineOnly: true, Rows: [][]config.ButtonConfig{{{Type: "text", Text: "a"}}}},
			is:   markup.ErrInlineOnly, row: -1, button: -1,
		},
		{
			name: "data too long",
			kb:   config.KeyboardConfig{Rows: [][]config.ButtonConfig{{{Type: "url", Text: "a"}}, {{Type: "callback", Text: "b", Data: long}}}},
			is:   button.ErrDataTooLong, row: 1, button: 0,
		},
		{
			name: "unknown user",
			kb:   config.KeyboardConfig{Rows: [][]config.ButtonConfig{{{Type: "mention", Text: "x", User: "@nobody"}}}},
			is:   peer.ErrNotFound, row: 0, button: 0,
		},
		{
			name: "unknown type",
			kb:   config.KeyboardConfig{Rows: [][]config.ButtonConfig{{{Type: "text", Text: "a"}, {Type: "laser"}}}},
			is:   errUnknownType, row: 0, button: 1,
		},
		{
			name: "empty",
			kb:   config.KeyboardConfig{Rows: [][]config.ButtonConfig{{}}},
			is:   markup.ErrNoButtons, row: -1, button: -1,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := FromConfig(context.Background(), &config.Config{
				Keyboards: map[string]config.KeyboardConfig{tt.name: tt.kb},
			}, nil)
			if c != nil {
				t.Fatal("catalog returned with an error")
			}
			var kerr *KeyboardError
			if !errors.As(err, &kerr) || !errors.Is(err, tt.is) {
				t.Fatalf("err = %v, want %v", err, tt.is)
			}
			if kerr.Keyboard != tt.name || kerr.Row != tt.row || kerr.Button != tt.button {
				t.Fatalf("location = %q %d/%d, want %q %d/%d", kerr.Keyboard, kerr.Row, kerr.Button, tt.name, tt.row, tt.button)
			}
		})
	}
}

func TestCompileReportsAll(t *testing.T) {
	t.Parallel()
	_, err := Compile(context.Background(), map[string]config.KeyboardConfig{
		"a":  {Rows: [][]config.ButtonConfig{{{Type: "laser"}}}},
		"b":  {Rows: [][]config.ButtonConfig{{{Type: "text"}, {Type: "buy"}}}},
		"ok": {Clear: &config.ClearConfig{}},
	}, nil)
	if err == nil {
		t.Fatal("Compile succeeded")
	}
	msg := err.Error()
	if !strings.Contains(msg, `keyboard "a"`) || !strings.Contains(msg, `keyboard "b"`) || strings.Contains(msg, `"ok"`) {
		t.Fatalf("err = %q", msg)
	}
}

func TestResolverOrder(t *testing.T) {
	t.Parallel()
	store := peer.NewStatic(peer.User{ID: 42, AccessHash: 999, Username: "alice"}, peer.User{ID: 5, AccessHash: 5, Username: "bob"})
	r := Resolver(testConfig(), store)
	ctx := context.Background()

	u, err := r.ResolveUser(ctx, "@alice")
	if err != nil || u.(*tg.InputUser).AccessHash != 7 {
		t.Fatalf("pinned peer should win: %#v, %v", u, err)
	}
	u, err = r.ResolveUser(ctx, "@bob")
	if err != nil || u.(*tg.InputUser).UserID != 5 {
		t.Fatalf("store fallback: %#v, %v", u, err)
	}
	if _, err := r.ResolveUser(ctx, "@carol"); !errors.Is(err, peer.ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestCompileSelfMentionConverts(t *testing.T) {
	t.Parallel()
	kbs := map[string]config.KeyboardConfig{
		"me": {InlineOnly: true, Rows: [][]config.ButtonConfig{{{Type: "mention", Text: "Me"}}}},
	}
	cat, err := Compile(context.Background(), kbs, button.NewFactory(peer.NewStatic()))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	kb, _ := cat.Get("me")
	rm, err := botapi.Convert(kb.Markup, botapi.WithSelfID(5))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := rm.InlineKeyboard[0][0].URL; got != "tg://user?id=5" {
		t.Fatalf("URL = %q", got)
	}
}
