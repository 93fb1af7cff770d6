// Package markup assembles button descriptors into MTProto reply markup.
//
// Build validates that all buttons share one category and produces either
// *tg.ReplyInlineMarkup or *tg.ReplyKeyboardMarkup. It is pure and safe for
// concurrent use.
package markup

import (
	"fmt"

	"github.com/gotd/td/tg"

	"tgmarkup/pkg/button"
)

// Aliases so callers can match Build errors without importing button.
var (
	ErrInlineOnly      = button.ErrInlineOnly
	ErrMixedCategories = button.ErrMixedCategories
	ErrNoButtons       = button.ErrNoButtons
)

// Build turns l into a single reply markup.
//
// A nil or empty layout yields (nil, nil). Prebuilt markup is returned as-is.
// Otherwise buttons are walked row by row, left to right: nil entries and
// unknown kinds are dropped, empty rows are omitted, and every explicit
// resize/single-use/selective hint overrides the previous one.
//
// With inlineOnly, any keyboard button is an error. Mixing inline and
// keyboard buttons is always an error, and so is a non-empty layout where no
// button survives.
func Build(l Layout, inlineOnly bool) (tg.ReplyMarkupClass, error) {
	var rows [][]*button.Button
	switch v := l.(type) {
	case nil:
		return nil, nil
	case Prebuilt:
		return v.Markup, nil
	case *Prebuilt:
		if v == nil {
			return nil, nil
		}
		return v.Markup, nil
	case SingleButton:
		rows = v.rows()
	case FlatRow:
		rows = v.rows()
	case Grid:
		rows = v.rows()
	default:
		return nil, fmt.Errorf("markup: unsupported layout %T", l)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var (
		acc      hints
		inline   bool
		keyboard bool
		out      = make([]tg.KeyboardButtonRow, 0, len(rows))
	)
	for _, row := range rows {
		current := make([]tg.KeyboardButtonClass, 0, len(row))
		for _, b := range row {
			if b == nil || b.Payload() == nil {
				continue
			}
			acc.merge(b)

			switch button.CategoryOf(b.Payload()) {
			case button.CategoryInline:
				inline = true
			case button.CategoryKeyboard:
				keyboard = true
			default:
				continue
			}
			current = append(current, b.Payload())
		}
		if len(current) > 0 {
			out = append(out, tg.KeyboardButtonRow{Buttons: current})
		}
	}

	switch {
	case inlineOnly && keyboard:
		return nil, button.Invalid("buttons", ErrInlineOnly, "found keyboard buttons")
	case inline && keyboard:
		return nil, button.Invalid("buttons", ErrMixedCategories, "layout has both kinds")
	case inline:
		return &tg.ReplyInlineMarkup{Rows: out}, nil
	case keyboard:
		return &tg.ReplyKeyboardMarkup{
			Resize:    acc.resize.Bool(),
			SingleUse: acc.singleUse.Bool(),
			Selective: acc.selective.Bool(),
			Rows:      out,
		}, nil
	default:
		return nil, button.Invalid("buttons", ErrNoButtons, "%d rows given, none usable", len(rows))
	}
}

type hints struct {
	resize    button.Flag
	singleUse button.Flag
	selective button.Flag
}

func (h *hints) merge(b *button.Button) {
	if f := b.Resize(); f.IsSet() {
		h.resize = f
	}
	if f := b.SingleUse(); f.IsSet() {
		h.singleUse = f
	}
	if f := b.Selective(); f.IsSet() {
		h.selective = f
	}
}

// MustBuild is like Build but panics on error. Use it for static layouts.
func MustBuild(l Layout, inlineOnly bool) tg.ReplyMarkupClass {
	m, err := Build(l, inlineOnly)
	if err != nil {
		panic(err)
	}
	return m
}

// Buttons returns the buttons of m in row-major order.
// Directives (hide, force reply) have none.
func Buttons(m tg.ReplyMarkupClass) []tg.KeyboardButtonClass {
	var rows []tg.KeyboardButtonRow
	switch v := m.(type) {
	case *tg.ReplyInlineMarkup:
		rows = v.Rows
	case *tg.ReplyKeyboardMarkup:
		rows = v.Rows
	default:
		return nil
	}
	var out []tg.KeyboardButtonClass
	for _, r := range rows {
		out = append(out, r.Buttons...)
	}
	return out
}
