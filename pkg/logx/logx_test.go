package logx

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"loud":    LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestZeroAndNop(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero Logger should report IsZero")
	}
	l.Info("dropped", String("k", "v"))
	if Nop().IsZero() {
		t.Fatal("Nop should not be zero")
	}
	if Nop().Enabled(LevelError) {
		t.Fatal("Nop should not enable any level")
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	svc, log := New(Config{Level: "debug", File: FileConfig{Enabled: true, Path: path}}, nil)
	log.With(String("component", "test")).Info("hello", Int("rows", 2), Err(errors.New("boom")))
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(b))), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, b)
	}
	if m["message"] != "hello" || m["component"] != "test" || m["err"] != "boom" || m["rows"] != float64(2) {
		t.Fatalf("log line = %v", m)
	}
	if c, _ := m["caller"].(string); !strings.HasPrefix(c, "logx_test.go:") {
		t.Fatalf("caller = %q", c)
	}
}

func TestApplyChangesLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	svc, log := New(Config{Level: "error", File: FileConfig{Enabled: true, Path: path}}, nil)
	defer svc.Close()
	if log.Enabled(LevelInfo) {
		t.Fatal("info should be disabled at error level")
	}
	svc.Apply(Config{Level: "debug", File: FileConfig{Enabled: true, Path: path}})
	if !log.Enabled(LevelDebug) {
		t.Fatal("logger did not follow Apply")
	}
}

func TestApplySwapsFileWithoutLoss(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.log"), filepath.Join(dir, "b.log")}
	cfgFor := func(i int) Config {
		return Config{Level: "info", File: FileConfig{Enabled: true, Path: paths[i%2]}}
	}
	svc, log := New(cfgFor(0), nil)

	const writers, perWriter = 4, 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				log.Info("line", Int("i", i))
			}
		}()
	}
	for i := 1; i <= 20; i++ {
		svc.Apply(cfgFor(i))
	}
	wg.Wait()
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	total := 0
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		total += strings.Count(string(b), "\n")
	}
	if want := writers * perWriter; total != want {
		t.Fatalf("logged %d lines across files, want %d", total, want)
	}
}

type chanSender chan string

func (c chanSender) SendLog(_ context.Context, chatID int64, text string) error {
	if chatID != 9 {
		return errors.New("wrong chat")
	}
	c <- text
	return nil
}

func TestChatSink(t *testing.T) {
	out := make(chanSender, 4)
	svc, log := New(Config{
		Level: "info",
		File:  FileConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "x.log")},
		Chat:  ChatConfig{Enabled: true, ChatID: 9, MinLevel: "warn", RatePerSec: 10},
	}, out)
	defer svc.Close()

	log.Info("quiet")
	log.Warn("loud", String("keyboard", "main"))

	select {
	case got := <-out:
		if !strings.HasPrefix(got, "[WARN] loud") || !strings.Contains(got, "- keyboard=main") {
			t.Fatalf("chat line = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no chat line delivered")
	}
	select {
	case got := <-out:
		t.Fatalf("unexpected second line %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFormatChatLine(t *testing.T) {
	t.Parallel()
	got := formatChatLine([]byte(`{"level":"error","time":"x","message":"failed","b":"2","a":1}`))
	want := "[ERROR] failed\n- a=1\n- b=2"
	if got != want {
		t.Fatalf("formatChatLine = %q, want %q", got, want)
	}
	if got := formatChatLine([]byte("  plain text \n")); got != "plain text" {
		t.Fatalf("non-JSON = %q", got)
	}
	long := strings.Repeat("x", chatMaxLen+50)
	if got := formatChatLine([]byte(long)); len(got) != chatMaxLen || !strings.HasSuffix(got, "...") {
		t.Fatalf("long line len = %d", len(got))
	}
}
