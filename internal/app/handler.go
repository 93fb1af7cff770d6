package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gotd/td/tg"

	"tgmarkup/internal/catalog"
	"tgmarkup/internal/transport"
	"tgmarkup/pkg/button"
	logx "tgmarkup/pkg/logx"
	"tgmarkup/pkg/markup"
	"tgmarkup/pkg/peer"
	"tgmarkup/pkg/tgui"
)

const (
	kbPlugin      = "kb"
	listPageSize  = 8
	updateTimeout = 15 * time.Second
	// Telegram caps callback answers at 200 characters.
	answerLimit = 190
)

// peerRecorder remembers who talked to the bot so keyboards can reference
// them by username.
type peerRecorder interface {
	PutUser(ctx context.Context, u peer.User) error
}

// Handler serves the /kb command and callback presses.
type Handler struct {
	log    logx.Logger
	ad     transport.Adapter
	peers  peerRecorder
	tokens *tgui.TokenStore
	handle UpdateFunc

	cat    atomic.Pointer[catalog.Catalog]
	owners atomic.Pointer[map[int64]struct{}]
}

func NewHandler(log logx.Logger, ad transport.Adapter, peers peerRecorder) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	h := &Handler{log: log, ad: ad, peers: peers, tokens: tgui.NewTokenStore()}
	h.handle = Chain(h.route, MWPanicRecover(log), MWRequestLog(log), MWTimeout(updateTimeout))
	h.SetOwners(nil)
	return h
}

func (h *Handler) SetCatalog(c *catalog.Catalog) { h.cat.Store(c) }

func (h *Handler) Catalog() *catalog.Catalog { return h.cat.Load() }

// SetOwners restricts /kb to ids. An empty list allows everyone.
func (h *Handler) SetOwners(ids []int64) {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	h.owners.Store(&m)
}

func (h *Handler) allowed(userID int64) bool {
	m := *h.owners.Load()
	if len(m) == 0 {
		return true
	}
	_, ok := m[userID]
	return ok
}

// Commands is the bot command menu.
func (h *Handler) Commands() []transport.BotCommand {
	return []transport.BotCommand{
		{Command: "kb", Description: "Show a keyboard, or list them"},
		{Command: "help", Description: "How to use this bot"},
	}
}

// DispatchLoop handles updates until ctx is done.
func (h *Handler) DispatchLoop(ctx context.Context, updates <-chan transport.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if err := h.Handle(ctx, up); err != nil && !errors.Is(err, context.Canceled) {
				h.log.Warn("update failed", logx.String("kind", string(up.Kind)), logx.Err(err))
			}
		}
	}
}

// Handle runs one update with panic recovery, a timeout and request logging.
func (h *Handler) Handle(ctx context.Context, up transport.Update) error {
	return h.handle(ctx, up)
}

func (h *Handler) route(ctx context.Context, up transport.Update) error {
	switch up.Kind {
	case transport.UpdateMessage:
		if up.Message == nil {
			return nil
		}
		h.remember(ctx, up.Message.FromID, up.Message.FromUsername)
		return h.onMessage(ctx, up.Message)
	case transport.UpdateCallback:
		if up.Callback == nil {
			return nil
		}
		h.remember(ctx, up.Callback.FromID, up.Callback.FromUsername)
		return h.onCallback(ctx, up.Callback)
	}
	return nil
}

func (h *Handler) remember(ctx context.Context, id int64, username string) {
	if h.peers == nil || id <= 0 || username == "" {
		return
	}
	if err := h.peers.PutUser(ctx, peer.User{ID: id, Username: username}); err != nil {
		h.log.Debug("peer not recorded", logx.Int64("user_id", id), logx.Err(err))
	}
}

// parseCommand splits "/kb@bot main" into ("kb", "main").
func parseCommand(text string) (cmd, arg string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	cmd, arg, _ = strings.Cut(text[1:], " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(arg), cmd != ""
}

func (h *Handler) onMessage(ctx context.Context, m *transport.Message) error {
	cmd, arg, ok := parseCommand(m.Text)
	if !ok {
		return nil
	}
	to := transport.ChatTarget{ChatID: m.ChatID, ThreadID: m.ThreadID}

	var (
		msg tgui.Message
		err error
	)
	switch cmd {
	case "start", "help":
		msg, err = tgui.New().
			Title("⌨️", "Keyboard preview").
			Line("/kb lists the configured keyboards.").
			Line("/kb <name> sends one of them.").
			Build()
	case "kb":
		if !h.allowed(m.FromID) {
			h.log.Debug("kb denied", logx.Int64("user_id", m.FromID))
			return nil
		}
		if arg == "" {
			msg, err = h.listMessage(0)
		} else {
			msg, err = h.keyboardMessage(arg)
		}
	default:
		return nil
	}
	if err != nil {
		return err
	}
	_, err = msg.Send(ctx, h.ad, to)
	return err
}

func (h *Handler) onCallback(ctx context.Context, cb *transport.Callback) error {
	plugin, action, payload, ok := tgui.Parse(cb.Data)
	if !ok || plugin != kbPlugin {
		return h.ad.AnswerCallback(ctx, cb.ID, tgui.TruncRunes("Pressed: "+cb.Data, answerLimit))
	}
	if !h.allowed(cb.FromID) {
		return h.ad.AnswerCallback(ctx, cb.ID, "Not allowed")
	}

	switch action {
	case "show", "showtok":
		name := payload
		if action == "showtok" {
			if err := h.tokens.GetJSON(payload, &name); err != nil {
				return h.ad.AnswerCallback(ctx, cb.ID, "This button expired, send /kb again")
			}
		}
		msg, err := h.keyboardMessage(name)
		if err != nil {
			return err
		}
		if _, err := msg.Send(ctx, h.ad, transport.ChatTarget{ChatID: cb.ChatID, ThreadID: cb.ThreadID}); err != nil {
			return err
		}
	case "list":
		page, _ := strconv.Atoi(payload)
		msg, err := h.listMessage(page)
		if err != nil {
			return err
		}
		ref := transport.MessageRef{ChatID: cb.ChatID, ThreadID: cb.ThreadID, MessageID: cb.MessageID}
		if err := msg.Edit(ctx, h.ad, ref); err != nil {
			return err
		}
	default:
		return h.ad.AnswerCallback(ctx, cb.ID, tgui.TruncRunes("Pressed: "+cb.Data, answerLimit))
	}
	return h.ad.AnswerCallback(ctx, cb.ID, "")
}

func (h *Handler) listMessage(page int) (tgui.Message, error) {
	var names []string
	if c := h.Catalog(); c != nil {
		names = c.Names()
	}
	b := tgui.New().Title("⌨️", "Keyboards")
	if len(names) == 0 {
		return b.Line("No keyboards configured.").Build()
	}

	sub, p := tgui.Paginate(names, page, listPageSize)
	btns := make([]*button.Button, 0, len(sub))
	for _, name := range sub {
		btn, err := tgui.CallbackButton(name, kbPlugin, "show", name)
		if errors.Is(err, button.ErrDataTooLong) {
			btn, err = h.tokens.StoredButton(name, kbPlugin, "showtok", name)
		}
		if err != nil {
			return tgui.Message{}, err
		}
		btns = append(btns, btn)
	}
	nav, err := tgui.Pager{Plugin: kbPlugin, Action: "list"}.Row(p)
	if err != nil {
		return tgui.Message{}, err
	}
	kb := tgui.NewKeyboard().Rows(tgui.Split(2, btns)...).Row(nav...)
	return b.Line(p.Label()).Keyboard(kb, true).Build()
}

func (h *Handler) keyboardMessage(name string) (tgui.Message, error) {
	c := h.Catalog()
	if c == nil {
		return tgui.New().Line("No keyboards configured.").Build()
	}
	kb, ok := c.Get(name)
	if !ok {
		return tgui.New().Line(fmt.Sprintf("Unknown keyboard %q. Send /kb for the list.", tgui.TruncRunes(name, 64))).Build()
	}
	return tgui.New().
		Title("⌨️", kb.Name).
		Line(describe(kb.Markup)).
		Markup(kb.Markup).
		Build()
}

func describe(m tg.ReplyMarkupClass) string {
	switch v := m.(type) {
	case *tg.ReplyInlineMarkup:
		return fmt.Sprintf("Inline keyboard, %d rows, %d buttons.", len(v.Rows), len(markup.Buttons(m)))
	case *tg.ReplyKeyboardMarkup:
		return fmt.Sprintf("Reply keyboard, %d rows, %d buttons.", len(v.Rows), len(markup.Buttons(m)))
	case *tg.ReplyKeyboardHide:
		return "Removes the reply keyboard."
	case *tg.ReplyKeyboardForceReply:
		return "Asks for a reply."
	default:
		return "Empty keyboard."
	}
}
