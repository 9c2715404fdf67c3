package dispatch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/skiptow/dispatch/core/model"
	"github.com/skiptow/dispatch/infra/logger"
)

type fakeRegistry struct {
	tokens map[string][]string
	errs   map[string]error
}

func (f *fakeRegistry) Tokens(_ context.Context, userID string) ([]string, error) {
	if err := f.errs[userID]; err != nil {
		return nil, err
	}
	return f.tokens[userID], nil
}

type fakeSender struct {
	mu    sync.Mutex
	calls []sentCall
	err   error
}

type sentCall struct {
	msg    model.Notification
	tokens []string
}

func (f *fakeSender) SendMulticast(_ context.Context, n model.Notification, tokens []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sentCall{msg: n, tokens: tokens})
	return f.err
}

func newDispatcher(t *testing.T, reg *fakeRegistry, snd *fakeSender) *Dispatcher {
	t.Helper()
	d, err := New(reg, snd, logger.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	return d
}

func TestSendUnionsRecipientTokens(t *testing.T) {
	reg := &fakeRegistry{tokens: map[string][]string{
		"u1": {"t1", "t2"},
		"u2": {"t3"},
	}}
	snd := &fakeSender{}
	d := newDispatcher(t, reg, snd)

	err := d.Send(context.Background(), Delivery{
		Kind:       "new_request",
		Recipients: []string{"u1", "u2"},
		Message:    model.Notification{Title: "New Service Request"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(snd.calls) != 1 {
		t.Fatalf("expected one multicast call, got %d", len(snd.calls))
	}
	got := append([]string(nil), snd.calls[0].tokens...)
	sort.Strings(got)
	want := []string{"t1", "t2", "t3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tokens = %v, want %v", got, want)
		}
	}
}

func TestSendZeroTokensIsNoop(t *testing.T) {
	reg := &fakeRegistry{tokens: map[string][]string{}}
	snd := &fakeSender{}
	d := newDispatcher(t, reg, snd)

	err := d.Send(context.Background(), Delivery{Kind: "update", Recipients: []string{"u1"}})
	if err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if len(snd.calls) != 0 {
		t.Fatalf("sender should not be called with zero tokens")
	}
}

func TestSendSkipsFailedLookups(t *testing.T) {
	reg := &fakeRegistry{
		tokens: map[string][]string{"ok": {"t1"}},
		errs:   map[string]error{"bad": errors.New("not found")},
	}
	snd := &fakeSender{}
	d := newDispatcher(t, reg, snd)

	err := d.Send(context.Background(), Delivery{Kind: "k", Recipients: []string{"bad", "ok"}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(snd.calls) != 1 || len(snd.calls[0].tokens) != 1 {
		t.Fatalf("expected delivery to the remaining recipient, got %+v", snd.calls)
	}
}

func TestSendAllSettlesAllDeliveries(t *testing.T) {
	reg := &fakeRegistry{tokens: map[string][]string{"u1": {"t1"}}}
	snd := &fakeSender{err: errors.New("transport down")}
	d := newDispatcher(t, reg, snd)

	deliveries := []Delivery{
		{Kind: "a", Recipients: []string{"u1"}},
		{Kind: "b", Recipients: []string{"u1"}},
		{Kind: "c", Recipients: []string{"u1"}},
	}
	err := d.SendAll(context.Background(), deliveries)
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	// Every delivery was attempted despite the failures.
	if len(snd.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(snd.calls))
	}
}

func TestNewValidatesParameters(t *testing.T) {
	if _, err := New(nil, &fakeSender{}, logger.NopLogger{}, nil); err == nil {
		t.Error("nil registry accepted")
	}
	if _, err := New(&fakeRegistry{}, nil, logger.NopLogger{}, nil); err == nil {
		t.Error("nil sender accepted")
	}
}
