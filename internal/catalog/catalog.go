// Package catalog compiles the keyboards declared in config into ready
// reply markup.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gotd/td/tg"

	"tgmarkup/internal/config"
	"tgmarkup/pkg/botapi"
	"tgmarkup/pkg/button"
	"tgmarkup/pkg/markup"
	"tgmarkup/pkg/peer"
)

// KeyboardError locates a compile failure. Row and Button are -1 when the
// failure concerns the whole keyboard.
type KeyboardError struct {
	Keyboard string
	Row      int
	Button   int
	Err      error
}

func (e *KeyboardError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("catalog: keyboard %q: %v", e.Keyboard, e.Err)
	}
	return fmt.Sprintf("catalog: keyboard %q row %d button %d: %v", e.Keyboard, e.Row, e.Button, e.Err)
}

func (e *KeyboardError) Unwrap() error { return e.Err }

var errUnknownType = errors.New("unknown button type")

// Keyboard is one compiled entry.
type Keyboard struct {
	Name       string
	InlineOnly bool
	Markup     tg.ReplyMarkupClass
}

// Catalog is an immutable set of compiled keyboards.
type Catalog struct {
	byName map[string]Keyboard
	names  []string
}

func (c *Catalog) Get(name string) (Keyboard, bool) {
	if c == nil {
		return Keyboard{}, false
	}
	kb, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return kb, ok
}

// Names returns keyboard names in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.names)
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Compile builds every keyboard. All failures are reported together; no
// partial catalog is returned. Names are case-insensitive.
func Compile(ctx context.Context, kbs map[string]config.KeyboardConfig, f *button.Factory) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Keyboard, len(kbs))}
	var errs []error
	for name, kc := range kbs {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := c.byName[key]; dup || key == "" {
			errs = append(errs, &KeyboardError{Keyboard: name, Row: -1, Button: -1, Err: errors.New("empty or duplicate name")})
			continue
		}
		m, err := compileKeyboard(ctx, name, kc, f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.byName[key] = Keyboard{Name: key, InlineOnly: kc.InlineOnly, Markup: m}
		c.names = append(c.names, key)
	}
	if len(errs) > 0 {
		slices.SortFunc(errs, func(a, b error) int { return strings.Compare(a.Error(), b.Error()) })
		return nil, errors.Join(errs...)
	}
	slices.Sort(c.names)
	return c, nil
}

func compileKeyboard(ctx context.Context, name string, kc config.KeyboardConfig, f *button.Factory) (tg.ReplyMarkupClass, error) {
	switch {
	case kc.Clear != nil:
		return button.Clear(kc.Clear.Selective), nil
	case kc.ForceReply != nil:
		fr := kc.ForceReply
		return button.ForceReply(fr.SingleUse, fr.Selective, fr.Placeholder), nil
	}

	grid := make(markup.Grid, 0, len(kc.Rows))
	for i, row := range kc.Rows {
		out := make([]*button.Button, 0, len(row))
		for j, bc := range row {
			b, err := compileButton(ctx, bc, f)
			if err != nil {
				return nil, &KeyboardError{Keyboard: name, Row: i, Button: j, Err: err}
			}
			out = append(out, b)
		}
		grid = append(grid, out)
	}
	m, err := markup.Build(grid, kc.InlineOnly)
	if err != nil {
		return nil, &KeyboardError{Keyboard: name, Row: -1, Button: -1, Err: err}
	}
	if m == nil {
		return nil, &KeyboardError{Keyboard: name, Row: -1, Button: -1, Err: markup.ErrNoButtons}
	}
	// The bot sends through the Bot API, so the keyboard must convert.
	if err := botapi.Check(m); err != nil {
		return nil, &KeyboardError{Keyboard: name, Row: -1, Button: -1, Err: err}
	}
	return m, nil
}

func compileButton(ctx context.Context, bc config.ButtonConfig, f *button.Factory) (*button.Button, error) {
	hints := hintsOf(bc)
	switch strings.ToLower(strings.TrimSpace(bc.Type)) {
	case "callback":
		var data any
		if bc.Data != "" {
			data = bc.Data
		}
		return button.Inline(bc.Text, data)
	case "switch_inline":
		return button.SwitchInline(bc.Text, bc.Query, bc.SamePeer), nil
	case "url":
		return button.URL(bc.Text, bc.URL), nil
	case "auth":
		var opts []button.AuthOption
		if bc.WriteAccess {
			opts = append(opts, button.AuthWriteAccess(true))
		}
		if bc.FwdText != "" {
			opts = append(opts, button.AuthForwardText(bc.FwdText))
		}
		return f.Auth(ctx, bc.Text, bc.URL, bc.Bot, opts...)
	case "mention":
		return f.Mention(ctx, bc.Text, bc.User)
	case "text":
		return button.Text(bc.Text, hints...), nil
	case "location":
		return button.RequestLocation(bc.Text, hints...), nil
	case "phone":
		return button.RequestPhone(bc.Text, hints...), nil
	case "poll":
		return button.RequestPoll(bc.Text, bc.Quiz, hints...), nil
	case "buy":
		return button.Buy(bc.Text), nil
	case "game":
		return button.Game(bc.Text), nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownType, bc.Type)
	}
}

func hintsOf(bc config.ButtonConfig) []button.Hint {
	var hints []button.Hint
	if bc.Resize != nil {
		hints = append(hints, button.Resize(*bc.Resize))
	}
	if bc.SingleUse != nil {
		hints = append(hints, button.SingleUse(*bc.SingleUse))
	}
	if bc.Selective != nil {
		hints = append(hints, button.Selective(*bc.Selective))
	}
	return hints
}

// Resolver returns the resolver keyboards use: users pinned in cfg first,
// then store (which may be nil).
func Resolver(cfg *config.Config, store peer.Resolver) peer.Resolver {
	var users []peer.User
	if cfg != nil {
		for _, p := range cfg.Peers {
			users = append(users, peer.User{ID: p.ID, AccessHash: p.AccessHash, Username: p.Username})
		}
	}
	return peer.Chain{peer.NewStatic(users...), store}
}

// FromConfig compiles cfg.Keyboards against Resolver(cfg, store).
func FromConfig(ctx context.Context, cfg *config.Config, store peer.Resolver) (*Catalog, error) {
	if cfg == nil {
		return nil, errors.New("catalog: nil config")
	}
	return Compile(ctx, cfg.Keyboards, button.NewFactory(Resolver(cfg, store)))
}
