// Package botapi converts MTProto reply markup into Bot API markup.
//
// Layouts are built once with package markup and can then be sent either
// through an MTProto client or, after Convert, through a bot token with
// telebot.
package botapi

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gotd/td/tg"
	tele "gopkg.in/telebot.v4"
)

var (
	ErrUnsupported = errors.New("botapi: button has no Bot API equivalent")
	ErrInvalidData = errors.New("botapi: callback data is not valid UTF-8")
)

// UsernameSource looks up bot usernames for login buttons.
type UsernameSource interface {
	Username(userID int64) (string, bool)
}

type Option func(*converter)

// WithUsernames resolves the bot of login-auth buttons to a username.
// Without it, login buttons target the sending bot.
func WithUsernames(src UsernameSource) Option {
	return func(c *converter) { c.usernames = src }
}

// WithSelfID sets the user id of the sending bot. Profile buttons that point
// at self need it, since the Bot API has no self reference.
func WithSelfID(id int64) Option {
	return func(c *converter) { c.selfID = id }
}

type converter struct {
	usernames UsernameSource
	selfID    int64
	// anySelf accepts self profiles without a known id; set by Check.
	anySelf bool
}

// Check reports whether m can be converted once the sending bot is known.
// Profile buttons pointing at self pass; everything else is checked as
// Convert would.
func Check(m tg.ReplyMarkupClass) error {
	_, err := Convert(m, func(c *converter) { c.anySelf = true })
	return err
}

// Convert maps m onto telebot's ReplyMarkup. A nil markup converts to nil.
func Convert(m tg.ReplyMarkupClass, opts ...Option) (*tele.ReplyMarkup, error) {
	c := &converter{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	switch v := m.(type) {
	case nil:
		return nil, nil
	case *tg.ReplyInlineMarkup:
		rows := make([][]tele.InlineButton, 0, len(v.Rows))
		for i, row := range v.Rows {
			out := make([]tele.InlineButton, 0, len(row.Buttons))
			for j, b := range row.Buttons {
				ib, err := c.inline(b)
				if err != nil {
					return nil, fmt.Errorf("row %d button %d: %w", i, j, err)
				}
				out = append(out, ib)
			}
			rows = append(rows, out)
		}
		return &tele.ReplyMarkup{InlineKeyboard: rows}, nil
	case *tg.ReplyKeyboardMarkup:
		rows := make([][]tele.ReplyButton, 0, len(v.Rows))
		for i, row := range v.Rows {
			out := make([]tele.ReplyButton, 0, len(row.Buttons))
			for j, b := range row.Buttons {
				rb, err := reply(b)
				if err != nil {
					return nil, fmt.Errorf("row %d button %d: %w", i, j, err)
				}
				out = append(out, rb)
			}
			rows = append(rows, out)
		}
		return &tele.ReplyMarkup{
			ReplyKeyboard:   rows,
			ResizeKeyboard:  v.Resize,
			OneTimeKeyboard: v.SingleUse,
			Selective:       v.Selective,
			Placeholder:     v.Placeholder,
		}, nil
	case *tg.ReplyKeyboardHide:
		return &tele.ReplyMarkup{RemoveKeyboard: true, Selective: v.Selective}, nil
	case *tg.ReplyKeyboardForceReply:
		return &tele.ReplyMarkup{ForceReply: true, Selective: v.Selective, Placeholder: v.Placeholder}, nil
	default:
		return nil, fmt.Errorf("%w: markup %T", ErrUnsupported, m)
	}
}

func (c *converter) inline(b tg.KeyboardButtonClass) (tele.InlineButton, error) {
	switch v := b.(type) {
	case *tg.KeyboardButtonCallback:
		if !utf8.Valid(v.Data) {
			return tele.InlineButton{}, ErrInvalidData
		}
		return tele.InlineButton{Text: v.Text, Data: string(v.Data)}, nil
	case *tg.KeyboardButtonURL:
		return tele.InlineButton{Text: v.Text, URL: v.URL}, nil
	case *tg.KeyboardButtonSwitchInline:
		if v.SamePeer {
			return tele.InlineButton{Text: v.Text, InlineQueryChat: v.Query}, nil
		}
		return tele.InlineButton{Text: v.Text, InlineQuery: v.Query}, nil
	case *tg.InputKeyboardButtonURLAuth:
		return tele.InlineButton{Text: v.Text, Login: &tele.Login{
			URL:         v.URL,
			Text:        v.FwdText,
			Username:    c.botUsername(v.Bot),
			WriteAccess: v.RequestWriteAccess,
		}}, nil
	case *tg.KeyboardButtonURLAuth:
		return tele.InlineButton{Text: v.Text, Login: &tele.Login{URL: v.URL, Text: v.FwdText}}, nil
	case *tg.InputKeyboardButtonUserProfile:
		switch u := v.UserID.(type) {
		case *tg.InputUser:
			return tele.InlineButton{Text: v.Text, URL: profileURL(u.UserID)}, nil
		case *tg.InputUserSelf:
			if c.selfID == 0 && !c.anySelf {
				return tele.InlineButton{}, fmt.Errorf("%w: profile of self without a bot id", ErrUnsupported)
			}
			return tele.InlineButton{Text: v.Text, URL: profileURL(c.selfID)}, nil
		default:
			return tele.InlineButton{}, fmt.Errorf("%w: profile of %T", ErrUnsupported, v.UserID)
		}
	case *tg.KeyboardButtonUserProfile:
		return tele.InlineButton{Text: v.Text, URL: profileURL(v.UserID)}, nil
	case *tg.KeyboardButtonBuy:
		return tele.InlineButton{Text: v.Text, Pay: true}, nil
	case *tg.KeyboardButtonGame:
		return tele.InlineButton{Text: v.Text, CallbackGame: &tele.CallbackGame{}}, nil
	case *tg.KeyboardButtonWebView:
		return tele.InlineButton{Text: v.Text, WebApp: &tele.WebApp{URL: v.URL}}, nil
	default:
		return tele.InlineButton{}, fmt.Errorf("%w: %T", ErrUnsupported, b)
	}
}

func reply(b tg.KeyboardButtonClass) (tele.ReplyButton, error) {
	switch v := b.(type) {
	case *tg.KeyboardButton:
		return tele.ReplyButton{Text: v.Text}, nil
	case *tg.KeyboardButtonRequestGeoLocation:
		return tele.ReplyButton{Text: v.Text, Location: true}, nil
	case *tg.KeyboardButtonRequestPhone:
		return tele.ReplyButton{Text: v.Text, Contact: true}, nil
	case *tg.KeyboardButtonRequestPoll:
		poll := tele.PollAny
		if quiz, ok := v.GetQuiz(); ok {
			poll = tele.PollRegular
			if quiz {
				poll = tele.PollQuiz
			}
		}
		return tele.ReplyButton{Text: v.Text, Poll: poll}, nil
	case *tg.KeyboardButtonSimpleWebView:
		return tele.ReplyButton{Text: v.Text, WebApp: &tele.WebApp{URL: v.URL}}, nil
	default:
		return tele.ReplyButton{}, fmt.Errorf("%w: %T", ErrUnsupported, b)
	}
}

func (c *converter) botUsername(bot tg.InputUserClass) string {
	u, ok := bot.(*tg.InputUser)
	if !ok || c.usernames == nil {
		return ""
	}
	name, _ := c.usernames.Username(u.UserID)
	return name
}

func profileURL(id int64) string {
	return fmt.Sprintf("tg://user?id=%d", id)
}
