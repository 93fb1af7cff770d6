package markup

import (
	"github.com/gotd/td/tg"

	"tgmarkup/pkg/button"
)

// Layout is the input of Build. It is a closed set:
// SingleButton, FlatRow, Grid and Prebuilt.
type Layout interface {
	isLayout()
}

// SingleButton lays out one button in one row.
type SingleButton struct {
	Button *button.Button
}

// FlatRow lays out one button per row, in order.
type FlatRow []*button.Button

// Grid lays out explicit rows.
type Grid [][]*button.Button

// Prebuilt wraps a markup that is already built. Build returns it unchanged.
type Prebuilt struct {
	Markup tg.ReplyMarkupClass
}

func (SingleButton) isLayout() {}
func (FlatRow) isLayout()      {}
func (Grid) isLayout()         {}
func (Prebuilt) isLayout()     {}

// Single is shorthand for SingleButton{b}.
func Single(b *button.Button) Layout { return SingleButton{Button: b} }

// Rows is shorthand for a Grid built from variadic rows.
func Rows(rows ...[]*button.Button) Layout { return Grid(rows) }

// Row is shorthand for a slice of buttons, for use with Rows.
func Row(bs ...*button.Button) []*button.Button { return bs }

func (l SingleButton) rows() [][]*button.Button {
	if l.Button == nil {
		return nil
	}
	return [][]*button.Button{{l.Button}}
}

func (l FlatRow) rows() [][]*button.Button {
	out := make([][]*button.Button, 0, len(l))
	for _, b := range l {
		out = append(out, []*button.Button{b})
	}
	return out
}

func (l Grid) rows() [][]*button.Button { return l }
