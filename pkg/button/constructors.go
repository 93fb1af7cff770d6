package button

import (
	"fmt"

	"github.com/gotd/td/tg"

	"tgmarkup/pkg/peer"
)

// Inline creates an inline callback button. The server sends data back
// verbatim when the button is pressed.
//
// data may be nil (the label is used), []byte, string or any value, which
// is formatted with fmt.Sprint. Empty data also falls back to the label.
// The encoded payload must fit in MaxCallbackData bytes.
func Inline(text string, data any) (*Button, error) {
	payload, err := callbackData(text, data)
	if err != nil {
		return nil, err
	}
	return newButton(&tg.KeyboardButtonCallback{Text: text, Data: payload}, nil), nil
}

func callbackData(text string, data any) ([]byte, error) {
	var b []byte
	switch v := data.(type) {
	case nil:
	case []byte:
		b = append([]byte(nil), v...)
	case string:
		b = []byte(v)
	default:
		b = []byte(fmt.Sprint(v))
	}
	if len(b) == 0 {
		b = []byte(text)
	}
	if len(b) > MaxCallbackData {
		return nil, Invalid("data", ErrDataTooLong, "%d bytes, limit %d", len(b), MaxCallbackData)
	}
	return b, nil
}

// SwitchInline creates an inline button that opens an inline query for the
// bot, pre-filled with query. With samePeer the query opens in the current
// chat instead of asking the user to pick one.
func SwitchInline(text, query string, samePeer bool) *Button {
	return newButton(&tg.KeyboardButtonSwitchInline{Text: text, Query: query, SamePeer: samePeer}, nil)
}

// URL creates an inline link button. An empty url uses the label as URL.
func URL(text, url string) *Button {
	if url == "" {
		url = text
	}
	return newButton(&tg.KeyboardButtonURL{Text: text, URL: url}, nil)
}

type AuthOption func(*tg.InputKeyboardButtonURLAuth)

// AuthURL sets the login URL. It must be on the domain configured for the bot.
func AuthURL(url string) AuthOption {
	return func(b *tg.InputKeyboardButtonURLAuth) { b.URL = url }
}

// AuthBot sets the bot that asks for authorization. Defaults to the current account.
func AuthBot(bot tg.InputUserClass) AuthOption {
	return func(b *tg.InputKeyboardButtonURLAuth) { b.Bot = bot }
}

// AuthWriteAccess asks for permission to message the user.
func AuthWriteAccess(v bool) AuthOption {
	return func(b *tg.InputKeyboardButtonURLAuth) { b.SetRequestWriteAccess(v) }
}

// AuthForwardText sets the label shown when the message is forwarded.
func AuthForwardText(text string) AuthOption {
	return func(b *tg.InputKeyboardButtonURLAuth) {
		if text != "" {
			b.SetFwdText(text)
		}
	}
}

// Auth creates an inline login-authorization button.
// Without AuthURL the label is used as URL.
func Auth(text string, opts ...AuthOption) (*Button, error) {
	b := &tg.InputKeyboardButtonURLAuth{Text: text}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.URL == "" {
		b.URL = text
	}
	if b.Bot == nil {
		b.Bot = &tg.InputUserSelf{}
	}
	if err := peer.CheckUser(b.Bot); err != nil {
		return nil, err
	}
	return newButton(b, nil), nil
}

// Mention creates an inline button that opens the profile of user.
// A nil user means the current account.
func Mention(text string, user tg.InputUserClass) (*Button, error) {
	if user == nil {
		user = &tg.InputUserSelf{}
	}
	if err := peer.CheckUser(user); err != nil {
		return nil, err
	}
	return newButton(&tg.InputKeyboardButtonUserProfile{Text: text, UserID: user}, nil), nil
}

// Text creates a keyboard button. Pressing it sends its label as a message.
func Text(text string, hints ...Hint) *Button {
	return newButton(&tg.KeyboardButton{Text: text}, hints)
}

// RequestLocation creates a keyboard button that shares the user's location.
func RequestLocation(text string, hints ...Hint) *Button {
	return newButton(&tg.KeyboardButtonRequestGeoLocation{Text: text}, hints)
}

// RequestPhone creates a keyboard button that shares the user's phone number.
func RequestPhone(text string, hints ...Hint) *Button {
	return newButton(&tg.KeyboardButtonRequestPhone{Text: text}, hints)
}

// RequestPoll creates a keyboard button that opens the poll creation screen.
// With forceQuiz the user can only create a quiz; otherwise they choose.
func RequestPoll(text string, forceQuiz bool, hints ...Hint) *Button {
	p := &tg.KeyboardButtonRequestPoll{Text: text}
	if forceQuiz {
		p.SetQuiz(true)
	}
	return newButton(p, hints)
}

// Buy creates the pay button of an invoice message. It must be the first button.
func Buy(text string) *Button {
	return newButton(&tg.KeyboardButtonBuy{Text: text}, nil)
}

// Game creates the play button of a game message. It must be the first button.
func Game(text string) *Button {
	return newButton(&tg.KeyboardButtonGame{Text: text}, nil)
}

// Clear removes the reply keyboard once the message is sent.
// It is a complete markup and cannot be combined with buttons.
func Clear(selective bool) *tg.ReplyKeyboardHide {
	return &tg.ReplyKeyboardHide{Selective: selective}
}

// ForceReply makes clients open the reply interface for the message.
// It is a complete markup and cannot be combined with buttons.
func ForceReply(singleUse, selective bool, placeholder string) *tg.ReplyKeyboardForceReply {
	m := &tg.ReplyKeyboardForceReply{SingleUse: singleUse, Selective: selective}
	if placeholder != "" {
		m.SetPlaceholder(placeholder)
	}
	return m
}
