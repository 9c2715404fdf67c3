// Package sweeps implements the periodic maintenance jobs: payment
// reminders, stale-invoice cancellation and inactive-mechanic reset. Each
// sweep is a time-threshold scan that degrades per document: one failing
// record is logged and skipped, never aborting the rest of the run.
package sweeps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skiptow/dispatch/core/dispatch"
	"github.com/skiptow/dispatch/core/logger"
	"github.com/skiptow/dispatch/core/metrics"
	"github.com/skiptow/dispatch/core/model"
	"github.com/skiptow/dispatch/core/store"
)

const (
	staleCancellationReason = "Auto-cancelled after 6 weeks of inactivity."
	autoResetTitle          = "Status Auto-Reset"
	autoResetBody           = "Your status was auto-reset due to inactivity."
)

// Notifier pushes a notification to its recipients. Implemented by
// dispatch.Dispatcher.
type Notifier interface {
	Send(ctx context.Context, dl dispatch.Delivery) error
}

// Config defines the sweep thresholds.
type Config struct {
	// IntervalHours is the period between sweep runs.
	IntervalHours int `json:"interval_hours"`
	// StaleInvoiceDays is the age after which a pending invoice is cancelled.
	StaleInvoiceDays int `json:"stale_invoice_days"`
	// InactiveMechanicDays is the idle time after which a mechanic is reset.
	InactiveMechanicDays int `json:"inactive_mechanic_days"`
	// OverdueEscalationDays is the invoice age that hardens the reminder tone.
	OverdueEscalationDays int `json:"overdue_escalation_days"`
}

// SetDefaults applies the production thresholds.
func (c *Config) SetDefaults() {
	if c.IntervalHours == 0 {
		c.IntervalHours = 24
	}
	if c.StaleInvoiceDays == 0 {
		c.StaleInvoiceDays = 42
	}
	if c.InactiveMechanicDays == 0 {
		c.InactiveMechanicDays = 7
	}
	if c.OverdueEscalationDays == 0 {
		c.OverdueEscalationDays = 37
	}
}

// Validate checks the thresholds are usable.
func (c Config) Validate() error {
	if c.IntervalHours < 0 || c.StaleInvoiceDays < 0 || c.InactiveMechanicDays < 0 || c.OverdueEscalationDays < 0 {
		return fmt.Errorf("sweep thresholds must not be negative")
	}
	return nil
}

// Sweeper runs the maintenance jobs against the store.
type Sweeper struct {
	store    store.Store
	notifier Notifier
	log      logger.Logger
	sink     metrics.MetricsSink
	cfg      Config
	now      func() time.Time
}

// New creates a Sweeper. A nil sink disables metrics.
func New(st store.Store, notifier Notifier, log logger.Logger, sink metrics.MetricsSink, cfg Config) (*Sweeper, error) {
	if st == nil || notifier == nil || log == nil {
		return nil, fmt.Errorf("sweeps: nil parameter provided to New")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sweeper{store: st, notifier: notifier, log: log, sink: sink, cfg: cfg, now: time.Now}, nil
}

// RunAll executes every sweep once. The sweeps are independent; errors are
// collected and joined.
func (s *Sweeper) RunAll(ctx context.Context) error {
	return errors.Join(
		s.PaymentReminders(ctx),
		s.CancelStaleInvoices(ctx),
		s.ResetInactiveMechanics(ctx),
	)
}

// PaymentReminders sends a reminder for every overdue invoice: a durable
// message in the customer's inbox plus a push to their devices. Invoices
// older than the escalation threshold get the firmer wording.
func (s *Sweeper) PaymentReminders(ctx context.Context) error {
	invoices, err := s.store.OverdueInvoices(ctx)
	if err != nil {
		return fmt.Errorf("query overdue invoices: %w", err)
	}

	now := s.now()
	var affected, failed int
	for _, inv := range invoices {
		if inv.CustomerID == "" {
			continue
		}
		body := fmt.Sprintf("Invoice #%s is overdue. Please pay as soon as possible.", inv.Number())
		if !inv.CreatedAt.IsZero() {
			age := now.Sub(inv.CreatedAt)
			if age > time.Duration(s.cfg.OverdueEscalationDays)*24*time.Hour {
				body = fmt.Sprintf("Invoice #%s is over 30 days overdue. Please pay immediately.", inv.Number())
			}
		}
		msg := model.StoredMessage{Title: "Payment Reminder", Body: body}
		if err := s.store.AddCustomerMessage(ctx, inv.CustomerID, msg); err != nil {
			s.log.Errorf("reminder for %s: %v", inv.ID, err)
			failed++
			continue
		}
		if err := s.notifier.Send(ctx, dispatch.Delivery{
			Kind:       "payment_reminder",
			Recipients: []string{inv.CustomerID},
			Message:    model.Notification{Title: msg.Title, Body: msg.Body},
		}); err != nil {
			s.log.Errorf("reminder push for %s: %v", inv.ID, err)
			failed++
			continue
		}
		affected++
	}
	s.record("payment_reminders", len(invoices), affected, failed)
	return nil
}

// CancelStaleInvoices cancels pending invoices past the stale threshold.
func (s *Sweeper) CancelStaleInvoices(ctx context.Context) error {
	cutoff := s.now().Add(-time.Duration(s.cfg.StaleInvoiceDays) * 24 * time.Hour)
	invoices, err := s.store.StalePendingInvoices(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale invoices: %w", err)
	}

	var affected, failed int
	for _, inv := range invoices {
		if err := s.store.CancelInvoice(ctx, inv.ID, staleCancellationReason); err != nil {
			s.log.Errorf("cancel %s: %v", inv.ID, err)
			failed++
			continue
		}
		affected++
	}
	s.record("stale_invoices", len(invoices), affected, failed)
	return nil
}

// ResetInactiveMechanics deactivates mechanics idle past the threshold and
// leaves them an unread notice explaining why.
func (s *Sweeper) ResetInactiveMechanics(ctx context.Context) error {
	cutoff := s.now().Add(-time.Duration(s.cfg.InactiveMechanicDays) * 24 * time.Hour)
	mechanics, err := s.store.InactiveMechanics(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query inactive mechanics: %w", err)
	}

	var affected, failed int
	for _, m := range mechanics {
		if err := s.store.DeactivateMechanic(ctx, m.ID); err != nil {
			s.log.Errorf("deactivate %s: %v", m.ID, err)
			failed++
			continue
		}
		notice := model.StoredMessage{Title: autoResetTitle, Body: autoResetBody}
		if err := s.store.AddMechanicNotice(ctx, m.ID, notice); err != nil {
			s.log.Errorf("notice for %s: %v", m.ID, err)
			failed++
			continue
		}
		affected++
	}
	s.record("inactive_mechanics", len(mechanics), affected, failed)
	return nil
}

func (s *Sweeper) record(name string, scanned, affected, failed int) {
	if rec, ok := s.sink.(metrics.SweepRecorder); ok {
		ev := metrics.SweepEvent{Sweep: name, Scanned: scanned, Affected: affected, Errors: failed, Time: s.now()}
		if err := rec.RecordSweep(ev); err != nil {
			s.log.Errorf("metrics error: %v", err)
		}
	}
}
