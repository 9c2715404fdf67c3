// Package reactor contains the event handlers that react to entity changes:
// candidate selection and broadcast fan-out on invoice creation, transition
// notifications on invoice updates, and message push-through. Handlers are
// tolerant of missing or malformed snapshots and re-delivered events.
package reactor

import (
	"context"
	"fmt"
	"sync"

	"github.com/skiptow/dispatch/core/dispatch"
	"github.com/skiptow/dispatch/core/events"
	"github.com/skiptow/dispatch/core/logger"
	"github.com/skiptow/dispatch/core/match"
	"github.com/skiptow/dispatch/core/model"
	"github.com/skiptow/dispatch/core/store"
)

// Notifier performs fan-out delivery. Implemented by dispatch.Dispatcher.
type Notifier interface {
	Send(ctx context.Context, dl dispatch.Delivery) error
	SendAll(ctx context.Context, deliveries []dispatch.Delivery) error
}

// Reactor wires the store and the notifier into the event handlers.
type Reactor struct {
	store    store.Store
	notifier Notifier
	log      logger.Logger
}

// New creates a Reactor.
func New(st store.Store, notifier Notifier, log logger.Logger) (*Reactor, error) {
	if st == nil || notifier == nil || log == nil {
		return nil, fmt.Errorf("reactor: nil parameter provided to New")
	}
	return &Reactor{store: st, notifier: notifier, log: log}, nil
}

// InvoiceCreated handles a newly created service request. For an open
// request it computes the candidate set, establishes the broadcast round on
// the invoice in a single atomic update, and notifies the candidates; for a
// pre-assigned request it notifies that mechanic directly.
func (r *Reactor) InvoiceCreated(ctx context.Context, ev events.InvoiceCreated) error {
	if len(ev.Data) == 0 {
		return nil
	}
	inv := model.DecodeInvoice(ev.InvoiceID, ev.Data)
	if inv.CustomerID == "" {
		return nil
	}

	customerName := "customer"
	if cust, ok, err := r.store.User(ctx, inv.CustomerID); err != nil {
		return fmt.Errorf("read customer %s: %w", inv.CustomerID, err)
	} else if ok && cust.Username != "" {
		customerName = cust.Username
	}

	broadcast := inv.Assignment.Open()
	var candidates []string
	if broadcast {
		pool, err := r.store.ActiveMechanics(ctx)
		if err != nil {
			return fmt.Errorf("query mechanics: %w", err)
		}
		candidates = match.SelectCandidates(inv.Location, inv.Assignment, pool)
		// The round must be established before anyone can respond to it,
		// and exactly once: only the creation handler resets the ledger.
		if err := r.store.ResetBroadcast(ctx, inv.ID, candidates); err != nil {
			return fmt.Errorf("reset broadcast round: %w", err)
		}
		r.log.Infof("invoice %s: broadcasting to %d candidates", inv.ID, len(candidates))
	} else {
		id, _ := inv.Assignment.Assigned()
		candidates = []string{id}
	}

	recipients := r.deliverableProviders(ctx, candidates)
	if len(recipients) == 0 {
		return nil
	}

	body := fmt.Sprintf("You’ve received a new service request from %s.", customerName)
	if broadcast {
		body = "New nearby service request!"
	}
	return r.notifier.Send(ctx, dispatch.Delivery{
		Kind:       "new_request",
		Recipients: recipients,
		Message:    model.Notification{Title: "New Service Request", Body: body},
	})
}

// InvoiceUpdated compares the before and after snapshots and dispatches the
// customer notifications implied by the qualifying transitions. Independent
// notifications go out concurrently; one failure does not block the rest.
func (r *Reactor) InvoiceUpdated(ctx context.Context, ev events.InvoiceUpdated) error {
	if len(ev.Before) == 0 || len(ev.After) == 0 {
		return nil
	}
	before := model.DecodeInvoice(ev.InvoiceID, ev.Before)
	after := model.DecodeInvoice(ev.InvoiceID, ev.After)
	if after.CustomerID == "" {
		return nil
	}

	transitions := match.ComputeTransitions(before, after)
	if len(transitions) == 0 {
		return nil
	}

	deliveries := make([]dispatch.Delivery, 0, len(transitions))
	for _, tr := range transitions {
		deliveries = append(deliveries, dispatch.Delivery{
			Kind:       string(tr.Kind),
			Recipients: []string{after.CustomerID},
			Message:    notificationFor(tr),
		})
	}
	return r.notifier.SendAll(ctx, deliveries)
}

// UserMessageCreated pushes a durable in-app message to the user's devices
// unless the message opted out of push delivery.
func (r *Reactor) UserMessageCreated(ctx context.Context, ev events.UserMessageCreated) error {
	if len(ev.Data) == 0 {
		return nil
	}
	if push, ok := ev.Data["sendFcm"].(bool); ok && !push {
		return nil
	}
	title, _ := ev.Data["title"].(string)
	if title == "" {
		title = "New Message"
	}
	body, _ := ev.Data["body"].(string)
	return r.notifier.Send(ctx, dispatch.Delivery{
		Kind:       "user_message",
		Recipients: []string{ev.UserID},
		Message:    model.Notification{Title: title, Body: body},
	})
}

// InvoiceMessageCreated routes a chat message on a service request to the
// counterpart of the author and pushes a tap-to-reply notification.
func (r *Reactor) InvoiceMessageCreated(ctx context.Context, ev events.InvoiceMessageCreated) error {
	if len(ev.Data) == 0 || ev.InvoiceID == "" {
		return nil
	}
	fromUserID, _ := ev.Data["fromUserId"].(string)
	if fromUserID == "" {
		return nil
	}

	inv, ok, err := r.store.Invoice(ctx, ev.InvoiceID)
	if err != nil {
		return fmt.Errorf("read invoice %s: %w", ev.InvoiceID, err)
	}
	if !ok {
		return nil
	}

	mechanicID, _ := inv.Assignment.Assigned()
	var recipientID string
	switch fromUserID {
	case mechanicID:
		recipientID = inv.CustomerID
	case inv.CustomerID:
		recipientID = mechanicID
	}
	if recipientID == "" {
		return nil
	}

	recipient, ok, err := r.store.User(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("read recipient %s: %w", recipientID, err)
	}
	if !ok || recipient.Role == model.RoleAdmin {
		return nil
	}

	return r.notifier.Send(ctx, dispatch.Delivery{
		Kind:       "invoice_message",
		Recipients: []string{recipientID},
		Message: model.Notification{
			Title: "New Message in Service Request",
			Body:  "Tap to reply.",
			Data:  map[string]string{"invoiceId": ev.InvoiceID, "type": "invoiceMessage"},
		},
	})
}

// deliverableProviders re-checks each candidate at delivery time and drops
// the ones that are missing, inactive, unavailable or admins. Lookups run
// concurrently; pool order is preserved.
func (r *Reactor) deliverableProviders(ctx context.Context, ids []string) []string {
	keep := make([]bool, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			u, ok, err := r.store.User(ctx, id)
			if err != nil {
				r.log.Warnf("read provider %s: %v", id, err)
				return
			}
			if !ok || !u.IsActive || u.Unavailable || u.Role == model.RoleAdmin {
				return
			}
			keep[i] = true
		}(i, id)
	}
	wg.Wait()

	var out []string
	for i, id := range ids {
		if keep[i] {
			out = append(out, id)
		}
	}
	return out
}

func notificationFor(tr match.Transition) model.Notification {
	switch tr.Kind {
	case match.TransitionPaymentStatus:
		return model.Notification{
			Title: "Invoice Update",
			Body:  fmt.Sprintf("Your invoice %s is now marked as %s.", tr.InvoiceNumber, tr.PaymentStatus),
		}
	case match.TransitionMechanicAccepted:
		return model.Notification{
			Title: "Mechanic Accepted",
			Body:  fmt.Sprintf("%s accepted your request.", tr.MechanicName),
		}
	case match.TransitionAllDeclined:
		return model.Notification{
			Title: "Service Request Update",
			Body:  "All nearby mechanics declined your request.",
		}
	}
	return model.Notification{}
}
