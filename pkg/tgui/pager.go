package tgui

import (
	"fmt"
	"strconv"

	"tgmarkup/pkg/button"
)

// Page describes one 0-based page of a slice.
type Page struct {
	Index, Size, Total int
	From, To           int // half-open range into the slice
}

func (p Page) Pages() int {
	if p.Total <= 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

func (p Page) HasPrev() bool { return p.Index > 0 }
func (p Page) HasNext() bool { return p.To < p.Total }

// Label renders e.g. "Page 2/3 • 11–20 of 25".
func (p Page) Label() string {
	if p.Total <= 0 {
		return "Page 1/1"
	}
	return fmt.Sprintf("Page %d/%d • %d–%d of %d", p.Index+1, p.Pages(), p.From+1, p.To, p.Total)
}

// Paginate returns the items of page index (clamped) and its description.
// A size <= 0 means 10.
func Paginate[T any](items []T, index, size int) ([]T, Page) {
	if size <= 0 {
		size = 10
	}
	p := Page{Size: size, Total: len(items)}
	p.Index = min(max(index, 0), p.Pages()-1)
	p.From = min(p.Index*size, p.Total)
	p.To = min(p.From+size, p.Total)
	return items[p.From:p.To], p
}

// Pager renders prev/next rows whose callback data is
// Data(plugin, action, <page index>).
type Pager struct {
	Plugin, Action string
	PrevText       string
	NextText       string
}

// Row returns the navigation row for p, or nil when there is one page.
func (pg Pager) Row(p Page) ([]*button.Button, error) {
	prev, next := pg.PrevText, pg.NextText
	if prev == "" {
		prev = "« Prev"
	}
	if next == "" {
		next = "Next »"
	}
	var row []*button.Button
	if p.HasPrev() {
		b, err := CallbackButton(prev, pg.Plugin, pg.Action, strconv.Itoa(p.Index-1))
		if err != nil {
			return nil, err
		}
		row = append(row, b)
	}
	if p.HasNext() {
		b, err := CallbackButton(next, pg.Plugin, pg.Action, strconv.Itoa(p.Index+1))
		if err != nil {
			return nil, err
		}
		row = append(row, b)
	}
	return row, nil
}
