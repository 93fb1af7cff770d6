// Package button defines reply-markup button descriptors.
//
// A Button wraps one MTProto keyboard button (tg.KeyboardButtonClass) and the
// optional keyboard-wide display hints (resize, single use, selective) that
// only matter for reply keyboards. Buttons are created through the named
// constructors (Inline, URL, Text, RequestPoll, ...) and are immutable.
//
// Two categories exist and can never be mixed in one markup:
//   - inline buttons, attached under the message
//   - keyboard buttons, replacing the user's input keyboard
package button

import "github.com/gotd/td/tg"

// Flag is an optional boolean hint.
type Flag uint8

const (
	Unset Flag = iota
	False
	True
)

func flagOf(v bool) Flag {
	if v {
		return True
	}
	return False
}

// IsSet reports whether the hint was given explicitly.
func (f Flag) IsSet() bool { return f != Unset }

// Bool returns the hint value; Unset reads as false.
func (f Flag) Bool() bool { return f == True }

// Hint configures a keyboard-wide display option on a keyboard button.
type Hint func(*Button)

// Resize asks clients to shrink the keyboard when there are few buttons.
func Resize(v bool) Hint { return func(b *Button) { b.resize = flagOf(v) } }

// SingleUse hides the keyboard after one press.
func SingleUse(v bool) Hint { return func(b *Button) { b.singleUse = flagOf(v) } }

// Selective shows the keyboard only to mentioned users or the replied-to sender.
func Selective(v bool) Hint { return func(b *Button) { b.selective = flagOf(v) } }

// Button is an immutable button descriptor.
type Button struct {
	payload tg.KeyboardButtonClass

	resize    Flag
	singleUse Flag
	selective Flag
}

func newButton(payload tg.KeyboardButtonClass, hints []Hint) *Button {
	b := &Button{payload: payload}
	for _, h := range hints {
		if h != nil {
			h(b)
		}
	}
	return b
}

// Raw wraps an already-built low-level button, e.g. one taken from a
// received message, so it can be laid out next to constructed buttons.
func Raw(payload tg.KeyboardButtonClass, hints ...Hint) *Button {
	return newButton(payload, hints)
}

// Payload returns the wire-level button. Callers must not modify it.
func (b *Button) Payload() tg.KeyboardButtonClass {
	if b == nil {
		return nil
	}
	return b.payload
}

// Text returns the button label.
func (b *Button) Text() string {
	if b == nil || b.payload == nil {
		return ""
	}
	return b.payload.GetText()
}

func (b *Button) Category() Category {
	if b == nil {
		return CategoryUnknown
	}
	return CategoryOf(b.payload)
}

func (b *Button) Resize() Flag    { return b.resize }
func (b *Button) SingleUse() Flag { return b.singleUse }
func (b *Button) Selective() Flag { return b.selective }
