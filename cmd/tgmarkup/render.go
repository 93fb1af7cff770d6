package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gotd/td/tg"

	"tgmarkup/internal/catalog"
	"tgmarkup/pkg/botapi"
)

const (
	formatMTProto = "mtproto"
	formatBotAPI  = "botapi"
)

type buttonView struct {
	Type   string                 `json:"type"`
	Button tg.KeyboardButtonClass `json:"button"`
}

// markupView keeps constructor names, which plain JSON of tg types drops.
type markupView struct {
	Keyboard    string         `json:"keyboard"`
	Type        string         `json:"type"`
	Resize      bool           `json:"resize,omitempty"`
	SingleUse   bool           `json:"single_use,omitempty"`
	Selective   bool           `json:"selective,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Rows        [][]buttonView `json:"rows,omitempty"`
}

// render prints kb. selfID is the bot's user id, used by botapi output for
// profile buttons that point at the bot itself.
func render(w io.Writer, kb catalog.Keyboard, format string, selfID int64) error {
	var v any
	switch format {
	case "", formatMTProto:
		v = mtprotoView(kb)
	case formatBotAPI:
		rm, err := botapi.Convert(kb.Markup, botapi.WithSelfID(selfID))
		if err != nil {
			return fmt.Errorf("keyboard %q: %w", kb.Name, err)
		}
		v = rm
	default:
		return fmt.Errorf("unknown format %q (want %s or %s)", format, formatMTProto, formatBotAPI)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func mtprotoView(kb catalog.Keyboard) markupView {
	out := markupView{Keyboard: kb.Name, Type: kind(kb.Markup)}
	var rows []tg.KeyboardButtonRow
	switch m := kb.Markup.(type) {
	case *tg.ReplyInlineMarkup:
		rows = m.Rows
	case *tg.ReplyKeyboardMarkup:
		rows = m.Rows
		out.Resize, out.SingleUse, out.Selective, out.Placeholder = m.Resize, m.SingleUse, m.Selective, m.Placeholder
	case *tg.ReplyKeyboardHide:
		out.Selective = m.Selective
	case *tg.ReplyKeyboardForceReply:
		out.SingleUse, out.Selective, out.Placeholder = m.SingleUse, m.Selective, m.Placeholder
	}
	for _, r := range rows {
		row := make([]buttonView, 0, len(r.Buttons))
		for _, b := range r.Buttons {
			row = append(row, buttonView{Type: b.TypeName(), Button: b})
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func kind(m tg.ReplyMarkupClass) string {
	if m == nil {
		return "none"
	}
	return m.TypeName()
}
