package button

import "github.com/gotd/td/tg"

type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryInline
	CategoryKeyboard
)

func (c Category) String() string {
	switch c {
	case CategoryInline:
		return "inline"
	case CategoryKeyboard:
		return "keyboard"
	default:
		return "unknown"
	}
}

// CategoryOf classifies a low-level button by its kind.
// Kinds this package does not know about are CategoryUnknown.
func CategoryOf(b tg.KeyboardButtonClass) Category {
	switch b.(type) {
	case *tg.KeyboardButtonCallback,
		*tg.KeyboardButtonSwitchInline,
		*tg.KeyboardButtonURL,
		*tg.KeyboardButtonURLAuth,
		*tg.InputKeyboardButtonURLAuth,
		*tg.KeyboardButtonUserProfile,
		*tg.InputKeyboardButtonUserProfile,
		*tg.KeyboardButtonBuy,
		*tg.KeyboardButtonGame,
		*tg.KeyboardButtonWebView:
		return CategoryInline
	case *tg.KeyboardButton,
		*tg.KeyboardButtonRequestGeoLocation,
		*tg.KeyboardButtonRequestPhone,
		*tg.KeyboardButtonRequestPoll,
		*tg.KeyboardButtonSimpleWebView,
		*tg.KeyboardButtonRequestPeer:
		return CategoryKeyboard
	default:
		return CategoryUnknown
	}
}
