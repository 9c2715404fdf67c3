// Package dispatch resolves notification recipients to their device tokens
// and fans messages out through the multicast sender.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skiptow/dispatch/core/logger"
	"github.com/skiptow/dispatch/core/metrics"
	"github.com/skiptow/dispatch/core/model"
	"github.com/skiptow/dispatch/core/store"
)

// Sender is the multicast notification collaborator. Individual token
// failures are the sender's concern; only the overall call result is
// inspected here.
type Sender interface {
	SendMulticast(ctx context.Context, n model.Notification, tokens []string) error
}

// Delivery couples one logical notification with its recipients.
type Delivery struct {
	Kind       string // event label recorded with metrics
	Recipients []string
	Message    model.Notification
}

// Dispatcher performs token resolution and fan-out.
type Dispatcher struct {
	registry store.TokenRegistry
	sender   Sender
	log      logger.Logger
	sink     metrics.MetricsSink
}

// New creates a Dispatcher. A nil sink disables metrics.
func New(registry store.TokenRegistry, sender Sender, log logger.Logger, sink metrics.MetricsSink) (*Dispatcher, error) {
	if registry == nil || sender == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to New")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Dispatcher{registry: registry, sender: sender, log: log, sink: sink}, nil
}

// Send resolves the tokens of every recipient concurrently, unions them into
// a single multicast call and delivers the message. A recipient whose token
// lookup fails is skipped without affecting the others; an empty union is a
// silent no-op.
func (d *Dispatcher) Send(ctx context.Context, dl Delivery) error {
	start := time.Now()
	dispatchID := uuid.NewString()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		tokens []string
	)
	for _, id := range dl.Recipients {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			ts, err := d.registry.Tokens(ctx, userID)
			if err != nil {
				d.log.Warnf("token lookup for %s failed: %v", userID, err)
				return
			}
			mu.Lock()
			tokens = append(tokens, ts...)
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	ev := metrics.NotificationEvent{
		DispatchID: dispatchID,
		Kind:       dl.Kind,
		Recipients: len(dl.Recipients),
		Tokens:     len(tokens),
		Time:       start,
	}

	if len(tokens) == 0 {
		d.log.Debugf("%s: no tokens for %d recipients, skipping send", dl.Kind, len(dl.Recipients))
		d.record(ev)
		return nil
	}

	err := d.sender.SendMulticast(ctx, dl.Message, tokens)
	ev.Latency = time.Since(start)
	ev.Delivered = err == nil
	if err != nil {
		ev.Error = err.Error()
		d.record(ev)
		return fmt.Errorf("send %s: %w", dl.Kind, err)
	}
	d.log.Infof("sent %s to %d tokens", dl.Kind, len(tokens))
	d.record(ev)
	return nil
}

// SendAll delivers independent notifications concurrently and waits for all
// of them to settle. A failed delivery never blocks the others; errors are
// collected and returned joined so the invocation can surface the failure
// after every dispatch has been attempted.
func (d *Dispatcher) SendAll(ctx context.Context, deliveries []Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, dl := range deliveries {
		wg.Add(1)
		go func(dl Delivery) {
			defer wg.Done()
			if err := d.Send(ctx, dl); err != nil {
				d.log.Errorf("dispatch %s failed: %v", dl.Kind, err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(dl)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (d *Dispatcher) record(ev metrics.NotificationEvent) {
	if err := d.sink.RecordNotification([]metrics.NotificationEvent{ev}); err != nil {
		d.log.Errorf("metrics error: %v", err)
	}
}
