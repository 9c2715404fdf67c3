package sweeps

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/skiptow/dispatch/core/dispatch"
	"github.com/skiptow/dispatch/core/model"
	"github.com/skiptow/dispatch/infra/logger"
)

type fakeStore struct {
	overdue  []model.Invoice
	stale    []model.Invoice
	inactive []model.User

	messages  map[string][]model.StoredMessage
	notices   map[string][]model.StoredMessage
	cancelled []string
	reset     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages: make(map[string][]model.StoredMessage),
		notices:  make(map[string][]model.StoredMessage),
	}
}

func (f *fakeStore) User(context.Context, string) (model.User, bool, error) {
	return model.User{}, false, nil
}
func (f *fakeStore) ActiveMechanics(context.Context) ([]model.User, error) { return nil, nil }
func (f *fakeStore) Invoice(context.Context, string) (model.Invoice, bool, error) {
	return model.Invoice{}, false, nil
}
func (f *fakeStore) ResetBroadcast(context.Context, string, []string) error { return nil }
func (f *fakeStore) OverdueInvoices(context.Context) ([]model.Invoice, error) {
	return f.overdue, nil
}
func (f *fakeStore) StalePendingInvoices(_ context.Context, cutoff time.Time) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, inv := range f.stale {
		if inv.CreatedAt.Before(cutoff) {
			out = append(out, inv)
		}
	}
	return out, nil
}
func (f *fakeStore) CancelInvoice(_ context.Context, id, _ string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}
func (f *fakeStore) InactiveMechanics(_ context.Context, cutoff time.Time) ([]model.User, error) {
	var out []model.User
	for _, u := range f.inactive {
		if u.LastActiveAt.Before(cutoff) {
			out = append(out, u)
		}
	}
	return out, nil
}
func (f *fakeStore) DeactivateMechanic(_ context.Context, id string) error {
	f.reset = append(f.reset, id)
	return nil
}
func (f *fakeStore) AddCustomerMessage(_ context.Context, id string, msg model.StoredMessage) error {
	f.messages[id] = append(f.messages[id], msg)
	return nil
}
func (f *fakeStore) AddMechanicNotice(_ context.Context, id string, msg model.StoredMessage) error {
	f.notices[id] = append(f.notices[id], msg)
	return nil
}

type fakeNotifier struct {
	deliveries []dispatch.Delivery
}

func (f *fakeNotifier) Send(_ context.Context, dl dispatch.Delivery) error {
	f.deliveries = append(f.deliveries, dl)
	return nil
}

func newSweeper(t *testing.T, st *fakeStore, n *fakeNotifier, now time.Time) *Sweeper {
	t.Helper()
	s, err := New(st, n, logger.NopLogger{}, nil, Config{})
	if err != nil {
		t.Fatalf("sweeper: %v", err)
	}
	s.now = func() time.Time { return now }
	return s
}

func TestPaymentReminders(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := newFakeStore()
	st.overdue = []model.Invoice{
		{ID: "fresh", CustomerID: "c1", InvoiceNumber: "INV-1", CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "old", CustomerID: "c2", CreatedAt: now.AddDate(0, 0, -40)},
		{ID: "orphan", CreatedAt: now.AddDate(0, 0, -10)}, // no customer
	}
	n := &fakeNotifier{}
	s := newSweeper(t, st, n, now)

	if err := s.PaymentReminders(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(st.messages["c1"]) != 1 || len(st.messages["c2"]) != 1 {
		t.Fatalf("durable messages missing: %+v", st.messages)
	}
	if got := st.messages["c1"][0].Body; !strings.Contains(got, "INV-1") || strings.Contains(got, "immediately") {
		t.Errorf("fresh reminder body = %q", got)
	}
	// Past the escalation threshold the wording hardens and the invoice
	// number falls back to the document ID.
	if got := st.messages["c2"][0].Body; !strings.Contains(got, "immediately") || !strings.Contains(got, "old") {
		t.Errorf("escalated reminder body = %q", got)
	}
	if len(n.deliveries) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(n.deliveries))
	}
}

func TestCancelStaleInvoices(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := newFakeStore()
	st.stale = []model.Invoice{
		{ID: "ancient", InvoiceStatus: "pending", CreatedAt: now.AddDate(0, 0, -50)},
		{ID: "recent", InvoiceStatus: "pending", CreatedAt: now.AddDate(0, 0, -10)},
	}
	s := newSweeper(t, st, &fakeNotifier{}, now)

	if err := s.CancelStaleInvoices(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(st.cancelled) != 1 || st.cancelled[0] != "ancient" {
		t.Fatalf("cancelled = %v, want [ancient]", st.cancelled)
	}
}

func TestResetInactiveMechanics(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := newFakeStore()
	st.inactive = []model.User{
		{ID: "idle", Role: model.RoleMechanic, IsActive: true, LastActiveAt: now.AddDate(0, 0, -8)},
		{ID: "busy", Role: model.RoleMechanic, IsActive: true, LastActiveAt: now.AddDate(0, 0, -2)},
	}
	s := newSweeper(t, st, &fakeNotifier{}, now)

	if err := s.ResetInactiveMechanics(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(st.reset) != 1 || st.reset[0] != "idle" {
		t.Fatalf("reset = %v, want [idle]", st.reset)
	}
	if len(st.notices["idle"]) != 1 || st.notices["idle"][0].Title != "Status Auto-Reset" {
		t.Fatalf("notice missing: %+v", st.notices)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.IntervalHours != 24 || cfg.StaleInvoiceDays != 42 || cfg.InactiveMechanicDays != 7 || cfg.OverdueEscalationDays != 37 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	bad := Config{IntervalHours: -1}
	if err := bad.Validate(); err == nil {
		t.Error("negative interval accepted")
	}
}
