// Package store defines the document-store and token-registry interfaces the
// core depends on. The Firestore implementation lives under infra/firestore;
// tests substitute in-memory fakes.
package store

import (
	"context"
	"time"

	"github.com/skiptow/dispatch/core/model"
)

// Store is the document store collaborator. Reads return an existence flag
// instead of an error for missing documents.
type Store interface {
	// User fetches a single user profile.
	User(ctx context.Context, id string) (model.User, bool, error)
	// ActiveMechanics returns all users with role mechanic and isActive true.
	// Finer eligibility filtering happens in core/match.
	ActiveMechanics(ctx context.Context) ([]model.User, error)
	// Invoice fetches a single service request.
	Invoice(ctx context.Context, id string) (model.Invoice, bool, error)
	// ResetBroadcast establishes a new broadcast round on the invoice:
	// mechanicId cleared, candidate list set, responded ledger emptied.
	// The three fields must be written in one atomic update.
	ResetBroadcast(ctx context.Context, invoiceID string, candidates []string) error
	// OverdueInvoices returns invoices whose payment status is overdue.
	OverdueInvoices(ctx context.Context) ([]model.Invoice, error)
	// StalePendingInvoices returns pending invoices created before cutoff.
	StalePendingInvoices(ctx context.Context, cutoff time.Time) ([]model.Invoice, error)
	// CancelInvoice marks the invoice cancelled with the given reason.
	CancelInvoice(ctx context.Context, invoiceID, reason string) error
	// InactiveMechanics returns active mechanics idle since before cutoff.
	InactiveMechanics(ctx context.Context, cutoff time.Time) ([]model.User, error)
	// DeactivateMechanic clears the mechanic's isActive flag.
	DeactivateMechanic(ctx context.Context, mechanicID string) error
	// AddCustomerMessage appends a durable message to the customer's
	// message subcollection.
	AddCustomerMessage(ctx context.Context, customerID string, msg model.StoredMessage) error
	// AddMechanicNotice appends a notice to the mechanic's notification
	// subcollection.
	AddMechanicNotice(ctx context.Context, mechanicID string, msg model.StoredMessage) error
}

// TokenRegistry resolves a user's registered device tokens. An empty result
// is valid, not an error.
type TokenRegistry interface {
	Tokens(ctx context.Context, userID string) ([]string, error)
}
