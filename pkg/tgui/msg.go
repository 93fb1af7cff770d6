package tgui

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/gotd/td/tg"

	"tgmarkup/internal/transport"
)

// Message is rendered text plus send options. More holds follow-up texts
// (long pre blocks) that are sent after the first message without markup.
type Message struct {
	Text string
	Opt  *transport.SendOptions
	More []string
}

func (m Message) options() *transport.SendOptions {
	if m.Opt == nil {
		return &transport.SendOptions{}
	}
	return m.Opt
}

// Send sends the message and its follow-ups. Markup rides on the first one.
func (m Message) Send(ctx context.Context, ad transport.Adapter, to transport.ChatTarget) (transport.MessageRef, error) {
	opt := m.options()
	ref, err := ad.SendText(ctx, to, m.Text, opt)
	if err != nil {
		return ref, err
	}
	return ref, m.sendMore(ctx, ad, to, opt)
}

// Edit replaces the text of ref. Follow-ups are sent as new messages.
func (m Message) Edit(ctx context.Context, ad transport.Adapter, ref transport.MessageRef) error {
	opt := m.options()
	if err := ad.EditText(ctx, ref, m.Text, opt); err != nil {
		return err
	}
	return m.sendMore(ctx, ad, transport.ChatTarget{ChatID: ref.ChatID, ThreadID: ref.ThreadID}, opt)
}

func (m Message) sendMore(ctx context.Context, ad transport.Adapter, to transport.ChatTarget, opt *transport.SendOptions) error {
	plain := *opt
	plain.Markup = nil
	for _, t := range m.More {
		if strings.TrimSpace(t) == "" {
			continue
		}
		if _, err := ad.SendText(ctx, to, t, &plain); err != nil {
			return err
		}
	}
	return nil
}

// Builder assembles a Message line by line. Defaults: HTML, no preview.
type Builder struct {
	parseMode      string
	disablePreview bool
	markup         tg.ReplyMarkupClass
	err            error
	lines          []string
	more           []string
}

func New() *Builder {
	return &Builder{parseMode: "HTML", disablePreview: true}
}

// ParseMode sets "HTML", "Markdown" or "" for plain text.
func (b *Builder) ParseMode(mode string) *Builder {
	b.parseMode = strings.TrimSpace(mode)
	return b
}

func (b *Builder) DisablePreview(v bool) *Builder {
	b.disablePreview = v
	return b
}

func (b *Builder) html() bool { return strings.EqualFold(b.parseMode, "HTML") }

// Markup attaches already built markup (nil detaches).
func (b *Builder) Markup(m tg.ReplyMarkupClass) *Builder {
	b.markup = m
	return b
}

// Keyboard builds kb and attaches it. A build error surfaces from Build.
func (b *Builder) Keyboard(kb *Keyboard, inlineOnly bool) *Builder {
	m, err := kb.Markup(inlineOnly)
	if err != nil {
		b.err = err
		return b
	}
	b.markup = m
	return b
}

func (b *Builder) esc(s string) string {
	if b.html() {
		return Esc(s).String()
	}
	return s
}

func (b *Builder) bold(s string) string {
	if b.html() {
		return B(s).String()
	}
	return s
}

// Title adds a bold line with an optional emoji in front.
func (b *Builder) Title(emoji, title string) *Builder {
	emoji, title = strings.TrimSpace(emoji), strings.TrimSpace(title)
	if title == "" {
		return b
	}
	line := b.bold(title)
	if emoji != "" {
		line = b.esc(emoji) + " " + line
	}
	b.lines = append(b.lines, line)
	return b
}

// Line adds one escaped line. Blank input adds an empty line.
func (b *Builder) Line(s string) *Builder {
	if strings.TrimSpace(s) == "" {
		s = ""
	}
	b.lines = append(b.lines, b.esc(s))
	return b
}

// RawLine adds a line without escaping.
func (b *Builder) RawLine(s string) *Builder {
	b.lines = append(b.lines, s)
	return b
}

func (b *Builder) Blank() *Builder { return b.Line("") }

func (b *Builder) Bullets(items ...string) *Builder {
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			b.Line("• " + it)
		}
	}
	return b
}

// KV adds "• key: value" with a bold key in HTML mode.
func (b *Builder) KV(key, value string) *Builder {
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if key == "" {
		return b
	}
	line := "• " + b.bold(key)
	if value != "" {
		line += ": " + b.esc(value)
	}
	b.lines = append(b.lines, line)
	return b
}

func (b *Builder) Code(s string) *Builder {
	if s = strings.TrimSpace(s); s == "" {
		return b
	}
	if b.html() {
		b.lines = append(b.lines, Code(s).String())
	} else {
		b.lines = append(b.lines, s)
	}
	return b
}

// PreMulti adds a pre block split into chunks of at most limit runes
// (default 3500) including tags. Chunks after the first become follow-up
// messages. Cuts prefer a newline in the last two thirds of a chunk.
func (b *Builder) PreMulti(code string, limit int) *Builder {
	code = strings.TrimRight(code, "\n")
	if code == "" {
		return b
	}
	if !b.html() {
		b.lines = append(b.lines, code)
		return b
	}
	if limit <= 0 {
		limit = 3500
	}
	const overhead = len("<pre><code></code></pre>")
	eff := max(limit-overhead, 128)

	first := true
	for code != "" {
		end, runes, lastNL, nlRunes := 0, 0, -1, 0
		for end < len(code) && runes < eff {
			r, size := utf8.DecodeRuneInString(code[end:])
			end += size
			runes++
			if r == '\n' {
				lastNL, nlRunes = end, runes
			}
		}
		if end < len(code) && lastNL != -1 && nlRunes >= eff/3 {
			end = lastNL
		}
		chunk := Pre(strings.TrimRight(code[:end], "\n")).String()
		if first {
			b.lines = append(b.lines, chunk)
			first = false
		} else {
			b.more = append(b.more, chunk)
		}
		code = strings.TrimLeft(code[end:], "\n")
	}
	return b
}

// Build returns the message, or the first markup error.
func (b *Builder) Build() (Message, error) {
	if b.err != nil {
		return Message{}, b.err
	}
	opt := &transport.SendOptions{ParseMode: b.parseMode, DisablePreview: b.disablePreview, Markup: b.markup}
	return Message{
		Text: strings.Trim(strings.Join(b.lines, "\n"), "\n"),
		Opt:  opt,
		More: append([]string(nil), b.more...),
	}, nil
}
