package tgui

import (
	"github.com/gotd/td/tg"

	"tgmarkup/pkg/button"
	"tgmarkup/pkg/markup"
)

// Keyboard collects button rows. Nil buttons are dropped when built.
type Keyboard struct {
	rows [][]*button.Button
}

func NewKeyboard() *Keyboard { return &Keyboard{} }

// Row appends one row.
func (k *Keyboard) Row(btns ...*button.Button) *Keyboard {
	k.rows = append(k.rows, btns)
	return k
}

// Rows appends several rows, e.g. the output of Split.
func (k *Keyboard) Rows(rows ...[]*button.Button) *Keyboard {
	k.rows = append(k.rows, rows...)
	return k
}

func (k *Keyboard) Layout() markup.Layout {
	if k == nil {
		return nil
	}
	return markup.Grid(k.rows)
}

// Markup builds the rows. An empty keyboard yields nil.
func (k *Keyboard) Markup(inlineOnly bool) (tg.ReplyMarkupClass, error) {
	return markup.Build(k.Layout(), inlineOnly)
}

// Split lays buttons out n per row.
func Split(n int, btns []*button.Button) [][]*button.Button {
	if n <= 0 {
		n = 1
	}
	rows := make([][]*button.Button, 0, (len(btns)+n-1)/n)
	for len(btns) > 0 {
		m := min(n, len(btns))
		rows = append(rows, btns[:m:m])
		btns = btns[m:]
	}
	return rows
}

// Confirm is a single row with yes and no.
func Confirm(yes, no *button.Button) *Keyboard {
	return NewKeyboard().Row(yes, no)
}
