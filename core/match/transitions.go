package match

import "github.com/skiptow/dispatch/core/model"

// TransitionKind identifies a customer-facing state change of a service
// request.
type TransitionKind string

const (
	// TransitionPaymentStatus fires when the payment status changes.
	TransitionPaymentStatus TransitionKind = "payment_status"
	// TransitionMechanicAccepted fires when a mechanic accepts the request.
	TransitionMechanicAccepted TransitionKind = "mechanic_accepted"
	// TransitionAllDeclined fires when the last outstanding candidate of a
	// broadcast round answers and nobody took the request.
	TransitionAllDeclined TransitionKind = "all_declined"
)

// Transition is one qualifying state change between two snapshots of the
// same request.
type Transition struct {
	Kind          TransitionKind
	PaymentStatus string // new payment status, for TransitionPaymentStatus
	InvoiceNumber string
	MechanicName  string // accepting mechanic, for TransitionMechanicAccepted
}

// ComputeTransitions diffs two snapshots of a request and returns the
// transitions that warrant a customer notification. It is evaluated on every
// update event, so each condition compares before against after to fire
// exactly once per qualifying change.
//
// The all-declined condition is guarded by the responded-ledger length: it
// fires only on the update that first makes the ledger cover the candidate
// set. No-op rewrites with an unchanged ledger do not re-fire, which keeps
// redelivered events idempotent without a separate already-notified flag.
func ComputeTransitions(before, after model.Invoice) []Transition {
	var out []Transition

	if before.PaymentStatus != after.PaymentStatus {
		out = append(out, Transition{
			Kind:          TransitionPaymentStatus,
			PaymentStatus: after.PaymentStatus,
			InvoiceNumber: after.Number(),
		})
	}

	if before.MechanicAccepted != after.MechanicAccepted {
		name := after.MechanicUsername
		if name == "" {
			name = "Mechanic"
		}
		out = append(out, Transition{Kind: TransitionMechanicAccepted, MechanicName: name})
	}

	if after.Assignment.Open() &&
		len(after.Candidates) > 0 &&
		len(after.Responded) == len(after.Candidates) &&
		len(after.Responded) != len(before.Responded) {
		out = append(out, Transition{Kind: TransitionAllDeclined})
	}

	return out
}
