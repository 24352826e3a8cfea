package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"DashSync/internal/collector"
	"DashSync/internal/command"
	"DashSync/internal/dashboard"
	"DashSync/internal/mode"
	"DashSync/internal/model"
	"DashSync/internal/position"
	"DashSync/internal/view"
)

// fakeBotAPI serves getUpdates once and records sendMessage texts.
type fakeBotAPI struct {
	mu      sync.Mutex
	sent    []string
	updates string
	served  bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.sent = append(f.sent, body["text"])
		f.mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		f.mu.Lock()
		first := !f.served
		f.served = true
		f.mu.Unlock()
		if first {
			w.Write([]byte(f.updates))
			return
		}
		w.Write([]byte(`{"ok":true,"result":[]}`))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBotAPI) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newTestNotifier(t *testing.T, api *fakeBotAPI) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("tok", "42", "")
	n.APIBase = srv.URL
	return n
}

func TestTelegram_Send(t *testing.T) {
	api := &fakeBotAPI{}
	n := newTestNotifier(t, api)
	if err := n.Send("hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := api.Sent(); len(got) != 1 || got[0] != "hello" {
		t.Errorf("unexpected sent messages: %v", got)
	}
}

func TestTelegram_PollingFiltersChatAndReplies(t *testing.T) {
	api := &fakeBotAPI{updates: `{"ok":true,"result":[
		{"update_id":1,"message":{"text":"/status","chat":{"id":42}}},
		{"update_id":2,"message":{"text":"/close","chat":{"id":999}}}
	]}`}
	n := newTestNotifier(t, api)

	var mu sync.Mutex
	var got []string
	handler := func(cmd string) string {
		mu.Lock()
		got = append(got, cmd)
		mu.Unlock()
		return "reply:" + cmd
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &http.Client{Timeout: 2 * time.Second}
	next, err := n.pollOnce(ctx, client, 0, handler)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if next != 3 {
		t.Errorf("expected offset 3, got %d", next)
	}
	if len(got) != 1 || got[0] != "/status" {
		t.Errorf("only the configured chat should be handled, got %v", got)
	}
	if sent := api.Sent(); len(sent) != 1 || sent[0] != "reply:/status" {
		t.Errorf("unexpected replies: %v", sent)
	}
}

type stubFrames struct{ f view.Frame }

func (s stubFrames) Frame() view.Frame { return s.f }

type stubDispatcher struct {
	last command.Command
	err  error
}

func (s *stubDispatcher) Dispatch(_ context.Context, cmd command.Command) (*command.Result, error) {
	s.last = cmd
	if s.err != nil {
		return nil, s.err
	}
	return &command.Result{Command: cmd, Message: "done"}, nil
}

type stubModes struct{ err error }

func (s stubModes) Switch(_ context.Context, target model.TradingMode) (*mode.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !target.Valid() {
		return nil, errors.New("invalid trading mode")
	}
	return &mode.Result{From: model.ModeDemo, To: target}, nil
}

func TestCommandHandler(t *testing.T) {
	disp := &stubDispatcher{}
	frames := stubFrames{view.Frame{BotStatus: "RUNNING", Mode: "demo", Symbol: "BBB", SymbolLocked: true, Signal: view.SignalLong}}
	h := NewCommandHandler(context.Background(), frames, disp, stubModes{})

	if out := h("/status"); !strings.Contains(out, "RUNNING") || !strings.Contains(out, "BBB 🔒") {
		t.Errorf("status reply: %q", out)
	}
	if out := h("/leverage 15"); out != "✅ done" || disp.last.Kind != command.SetLeverage || disp.last.Leverage != 15 {
		t.Errorf("leverage: %q %+v", out, disp.last)
	}
	if out := h("/long@DashBot"); out != "✅ done" || disp.last.Kind != command.OpenLong {
		t.Errorf("long: %q %+v", out, disp.last)
	}
	if out := h("/leverage ten"); !strings.HasPrefix(out, "❌") {
		t.Errorf("expected parse error, got %q", out)
	}
	if out := h("/mode REAL"); !strings.Contains(out, "real") {
		t.Errorf("mode: %q", out)
	}
	if out := h("/dance"); !strings.Contains(out, "/help") {
		t.Errorf("unknown: %q", out)
	}

	disp.err = &collector.RemoteError{Status: 400, Message: "No open position"}
	if out := h("/close"); out != "❌ No open position" {
		t.Errorf("remote rejection must be verbatim: %q", out)
	}

	busy := NewCommandHandler(context.Background(), frames, disp, stubModes{err: mode.ErrTransitionInProgress})
	if out := busy("/mode demo"); !strings.Contains(out, "already in progress") {
		t.Errorf("busy mode: %q", out)
	}
}

func TestFormatPositionEvent(t *testing.T) {
	now := time.Now()
	open := position.State{Phase: position.Open, ID: "p1", Side: model.SideShort, LockedSymbol: "BBB", EntryPrice: 10, Notional: 100, OpenedAt: now.Add(-90 * time.Second), UnrealizedPnL: -1.25}

	msg := FormatPositionEvent(dashboard.PositionEvent{Transition: position.TransitionOpened, Next: open, Mode: model.ModeDemo})
	if !strings.Contains(msg, "SHORT opened") || !strings.Contains(msg, "BBB") {
		t.Errorf("opened message: %q", msg)
	}
	msg = FormatPositionEvent(dashboard.PositionEvent{Transition: position.TransitionClosed, Prev: open, At: now})
	if !strings.Contains(msg, "closed") || !strings.Contains(msg, "-$1.25") || !strings.Contains(msg, "1m 30s") {
		t.Errorf("closed message: %q", msg)
	}
	if FormatPositionEvent(dashboard.PositionEvent{Transition: position.TransitionUpdated}) != "" {
		t.Error("updates are not announced")
	}
}
