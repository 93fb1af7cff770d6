package markup

import (
	"errors"
	"testing"

	"github.com/gotd/td/tg"

	"tgmarkup/pkg/button"
)

func mustInline(t *testing.T, text string) *button.Button {
	t.Helper()
	b, err := button.Inline(text, nil)
	if err != nil {
		t.Fatalf("Inline(%q): %v", text, err)
	}
	return b
}

func rowTexts(rows []tg.KeyboardButtonRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		texts := make([]string, 0, len(r.Buttons))
		for _, b := range r.Buttons {
			texts = append(texts, b.GetText())
		}
		out = append(out, texts)
	}
	return out
}

func equalRows(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()
	for name, l := range map[string]Layout{
		"nil":          nil,
		"empty flat":   FlatRow{},
		"empty grid":   Grid{},
		"nil single":   SingleButton{},
		"nil prebuilt": Prebuilt{},
	} {
		m, err := Build(l, false)
		if err != nil || m != nil {
			t.Fatalf("%s: Build = %v, %v; want nil, nil", name, m, err)
		}
	}
}

func TestBuildPrebuiltPassThrough(t *testing.T) {
	t.Parallel()
	built := &tg.ReplyInlineMarkup{}
	hide := button.Clear(true)
	for _, in := range []tg.ReplyMarkupClass{built, hide} {
		got, err := Build(Prebuilt{Markup: in}, true)
		if err != nil {
			t.Fatalf("Build(prebuilt) error: %v", err)
		}
		if got != in {
			t.Fatalf("Build(prebuilt) returned %p, want same object %p", got, in)
		}
	}
}

func TestBuildGridRows(t *testing.T) {
	t.Parallel()
	m, err := Build(Grid{
		{button.Text("A")},
		{button.Text("B"), button.Text("C")},
	}, false)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	kb, ok := m.(*tg.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("Build = %T, want *tg.ReplyKeyboardMarkup", m)
	}
	want := [][]string{{"A"}, {"B", "C"}}
	if got := rowTexts(kb.Rows); !equalRows(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
}

func TestBuildShapes(t *testing.T) {
	t.Parallel()
	a, b := mustInline(t, "a"), mustInline(t, "b")
	tests := []struct {
		name string
		in   Layout
		want [][]string
	}{
		{name: "single", in: Single(a), want: [][]string{{"a"}}},
		{name: "flat", in: FlatRow{a, b}, want: [][]string{{"a"}, {"b"}}},
		{name: "rows helper", in: Rows(Row(a, b)), want: [][]string{{"a", "b"}}},
		{name: "drops nil and empty rows", in: Grid{{nil}, {a, nil}, {}, {b}}, want: [][]string{{"a"}, {"b"}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Build(tt.in, true)
			if err != nil {
				t.Fatalf("Build error: %v", err)
			}
			im, ok := m.(*tg.ReplyInlineMarkup)
			if !ok {
				t.Fatalf("Build = %T, want inline markup", m)
			}
			if got := rowTexts(im.Rows); !equalRows(got, tt.want) {
				t.Fatalf("rows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildMixedFails(t *testing.T) {
	t.Parallel()
	in := mustInline(t, "in")
	kb := button.Text("kb")
	for _, l := range []Layout{FlatRow{in, kb}, FlatRow{kb, in}, Grid{{kb, in}}} {
		_, err := Build(l, false)
		var verr *button.ValidationError
		if !errors.As(err, &verr) || !errors.Is(err, ErrMixedCategories) {
			t.Fatalf("Build(%v) err = %v, want ErrMixedCategories", l, err)
		}
	}
}

func TestBuildInlineOnly(t *testing.T) {
	t.Parallel()
	m, err := Build(Single(button.URL("Open", "http://x")), true)
	if err != nil {
		t.Fatalf("Build(url, inlineOnly) error: %v", err)
	}
	if _, ok := m.(*tg.ReplyInlineMarkup); !ok {
		t.Fatalf("Build = %T", m)
	}

	_, err = Build(Single(button.Text("A")), true)
	if !errors.Is(err, ErrInlineOnly) {
		t.Fatalf("Build(text, inlineOnly) err = %v, want ErrInlineOnly", err)
	}

	// inline-only is reported before mixing.
	_, err = Build(FlatRow{mustInline(t, "x"), button.Text("A")}, true)
	if !errors.Is(err, ErrInlineOnly) {
		t.Fatalf("mixed with inlineOnly err = %v, want ErrInlineOnly", err)
	}
}

func TestBuildHints(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                         string
		in                           Layout
		resize, singleUse, selective bool
	}{
		{
			name:   "explicit true survives unset",
			in:     FlatRow{button.Text("A", button.Resize(true)), button.Text("B")},
			resize: true,
		},
		{
			name: "last explicit wins",
			in: Grid{
				{button.Text("A", button.Resize(true), button.SingleUse(true))},
				{button.Text("B", button.Resize(false))},
			},
			singleUse: true,
		},
		{
			name:      "hints gathered across rows",
			in:        Grid{{button.Text("A", button.Selective(true))}, {button.RequestPhone("P", button.SingleUse(true))}},
			singleUse: true,
			selective: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Build(tt.in, false)
			if err != nil {
				t.Fatalf("Build error: %v", err)
			}
			kb := m.(*tg.ReplyKeyboardMarkup)
			if kb.Resize != tt.resize || kb.SingleUse != tt.singleUse || kb.Selective != tt.selective {
				t.Fatalf("hints = resize:%v single:%v selective:%v, want %v %v %v",
					kb.Resize, kb.SingleUse, kb.Selective, tt.resize, tt.singleUse, tt.selective)
			}
		})
	}
}

func TestBuildNoSurvivors(t *testing.T) {
	t.Parallel()
	for _, l := range []Layout{FlatRow{nil}, Grid{{}}, Grid{{button.Raw(nil)}}} {
		if _, err := Build(l, false); !errors.Is(err, ErrNoButtons) {
			t.Fatalf("Build(%v) err = %v, want ErrNoButtons", l, err)
		}
	}
}

func TestBuildRawAndMention(t *testing.T) {
	t.Parallel()
	mention, err := button.Mention("me", nil)
	if err != nil {
		t.Fatal(err)
	}
	received := button.Raw(&tg.KeyboardButtonURLAuth{Text: "auth", URL: "https://x.test", ButtonID: 1})
	m, err := Build(FlatRow{mention, received}, true)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if got := len(Buttons(m)); got != 2 {
		t.Fatalf("Buttons = %d, want 2", got)
	}
}

func TestMustBuildPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("MustBuild did not panic")
		}
	}()
	MustBuild(FlatRow{mustInline(t, "x"), button.Text("y")}, false)
}

func TestButtonsOfDirective(t *testing.T) {
	t.Parallel()
	if got := Buttons(button.ForceReply(false, false, "")); got != nil {
		t.Fatalf("Buttons(force reply) = %v, want nil", got)
	}
}
