package botapi

import (
	"errors"
	"testing"

	"github.com/gotd/td/tg"
	tele "gopkg.in/telebot.v4"

	"tgmarkup/pkg/button"
	"tgmarkup/pkg/markup"
	"tgmarkup/pkg/peer"
)

func TestConvertNil(t *testing.T) {
	t.Parallel()
	rm, err := Convert(nil)
	if err != nil || rm != nil {
		t.Fatalf("Convert(nil) = %v, %v", rm, err)
	}
}

func TestConvertInline(t *testing.T) {
	t.Parallel()
	cb, err := button.Inline("Yes", "confirm:yes")
	if err != nil {
		t.Fatal(err)
	}
	bot := &tg.InputUser{UserID: 77, AccessHash: 1}
	auth, err := button.Auth("Login", button.AuthURL("https://x.test"), button.AuthBot(bot), button.AuthWriteAccess(true))
	if err != nil {
		t.Fatal(err)
	}
	mention, err := button.Mention("Alice", &tg.InputUser{UserID: 42})
	if err != nil {
		t.Fatal(err)
	}

	m := markup.MustBuild(markup.Grid{
		{cb, button.URL("Site", "https://x.test")},
		{button.SwitchInline("Here", "q", true), button.SwitchInline("Elsewhere", "q", false)},
		{auth, mention},
		{button.Buy("Pay"), button.Game("Play")},
	}, true)

	rm, err := Convert(m, WithUsernames(peer.NewStatic(peer.User{ID: 77, Username: "loginbot"})))
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if len(rm.InlineKeyboard) != 4 || len(rm.ReplyKeyboard) != 0 {
		t.Fatalf("rows inline=%d reply=%d", len(rm.InlineKeyboard), len(rm.ReplyKeyboard))
	}
	kb := rm.InlineKeyboard
	if kb[0][0].Data != "confirm:yes" || kb[0][1].URL != "https://x.test" {
		t.Fatalf("row 0 = %+v", kb[0])
	}
	if kb[1][0].InlineQueryChat != "q" || kb[1][1].InlineQuery != "q" {
		t.Fatalf("row 1 = %+v", kb[1])
	}
	login := kb[2][0].Login
	if login == nil || login.URL != "https://x.test" || login.Username != "loginbot" || !login.WriteAccess {
		t.Fatalf("login = %+v", login)
	}
	if kb[2][1].URL != "tg://user?id=42" {
		t.Fatalf("mention URL = %q", kb[2][1].URL)
	}
	if !kb[3][0].Pay || kb[3][1].CallbackGame == nil {
		t.Fatalf("row 3 = %+v", kb[3])
	}
}

func TestConvertKeyboard(t *testing.T) {
	t.Parallel()
	m := markup.MustBuild(markup.Grid{
		{button.Text("A", button.Resize(true)), button.RequestLocation("Loc")},
		{button.RequestPhone("Phone", button.SingleUse(true)), button.RequestPoll("Quiz", true), button.RequestPoll("Poll", false)},
	}, false)
	rm, err := Convert(m)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if !rm.ResizeKeyboard || !rm.OneTimeKeyboard || rm.Selective {
		t.Fatalf("flags = resize:%v once:%v selective:%v", rm.ResizeKeyboard, rm.OneTimeKeyboard, rm.Selective)
	}
	r := rm.ReplyKeyboard
	if r[0][0].Text != "A" || !r[0][1].Location || !r[1][0].Contact {
		t.Fatalf("reply rows = %+v", r)
	}
	if r[1][1].Poll != tele.PollQuiz || r[1][2].Poll != tele.PollAny {
		t.Fatalf("poll types = %q %q", r[1][1].Poll, r[1][2].Poll)
	}
}

func TestConvertDirectives(t *testing.T) {
	t.Parallel()
	rm, err := Convert(button.Clear(true))
	if err != nil || !rm.RemoveKeyboard || !rm.Selective {
		t.Fatalf("Convert(clear) = %+v, %v", rm, err)
	}
	rm, err = Convert(button.ForceReply(true, false, "type here"))
	if err != nil || !rm.ForceReply || rm.Placeholder != "type here" {
		t.Fatalf("Convert(force reply) = %+v, %v", rm, err)
	}
}

func TestConvertErrors(t *testing.T) {
	t.Parallel()
	bad, err := button.Inline("bin", []byte{0xff, 0xfe})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Convert(markup.MustBuild(markup.Single(bad), true)); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("binary callback err = %v, want ErrInvalidData", err)
	}

	self, err := button.Mention("me", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Convert(markup.MustBuild(markup.Single(self), true)); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("self mention err = %v, want ErrUnsupported", err)
	}

	peerBtn := button.Raw(&tg.KeyboardButtonRequestPeer{Text: "pick"})
	if _, err := Convert(markup.MustBuild(markup.Single(peerBtn), false)); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("request peer err = %v, want ErrUnsupported", err)
	}
}

func TestConvertSelfMention(t *testing.T) {
	t.Parallel()
	self, err := button.Mention("me", nil)
	if err != nil {
		t.Fatal(err)
	}
	m := markup.MustBuild(markup.Single(self), true)

	rm, err := Convert(m, WithSelfID(99))
	if err != nil {
		t.Fatalf("Convert with self id: %v", err)
	}
	if got := rm.InlineKeyboard[0][0].URL; got != "tg://user?id=99" {
		t.Fatalf("self URL = %q", got)
	}
	if err := Check(m); err != nil {
		t.Fatalf("Check(self mention) = %v", err)
	}

	peerBtn := button.Raw(&tg.KeyboardButtonRequestPeer{Text: "pick"})
	if err := Check(markup.MustBuild(markup.Single(peerBtn), false)); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Check(request peer) = %v, want ErrUnsupported", err)
	}
}
