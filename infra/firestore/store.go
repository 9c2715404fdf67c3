// Package firestore implements the document store, the token registry and
// the entity change feed on Cloud Firestore.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/skiptow/dispatch/core/logger"
	"github.com/skiptow/dispatch/core/model"
)

const (
	usersCollection             = "users"
	invoicesCollection          = "invoices"
	tokensCollection            = "tokens"
	notificationsCollection     = "notifications"
	mechanicNoticesCollection   = "notifications_mechanics"
	messagesSubcollection       = "messages"
	mechanicNoticeSubcollection = "notifications"
)

// Store implements core/store.Store and core/store.TokenRegistry on a
// Firestore client.
type Store struct {
	client *firestore.Client
	log    logger.Logger
}

// NewStore wraps an initialized Firestore client.
func NewStore(client *firestore.Client, log logger.Logger) (*Store, error) {
	if client == nil || log == nil {
		return nil, fmt.Errorf("firestore: nil parameter provided to NewStore")
	}
	return &Store{client: client, log: log}, nil
}

// User fetches a single user profile.
func (s *Store) User(ctx context.Context, id string) (model.User, bool, error) {
	snap, err := s.client.Collection(usersCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, fmt.Errorf("get user %s: %w", id, err)
	}
	return model.DecodeUser(snap.Ref.ID, snap.Data()), true, nil
}

// ActiveMechanics queries all active mechanic profiles.
func (s *Store) ActiveMechanics(ctx context.Context) ([]model.User, error) {
	q := s.client.Collection(usersCollection).
		Where("role", "==", string(model.RoleMechanic)).
		Where("isActive", "==", true)
	return s.collectUsers(ctx, q)
}

// InactiveMechanics queries active mechanics idle since before cutoff.
func (s *Store) InactiveMechanics(ctx context.Context, cutoff time.Time) ([]model.User, error) {
	q := s.client.Collection(usersCollection).
		Where("role", "==", string(model.RoleMechanic)).
		Where("isActive", "==", true).
		Where("lastActiveAt", "<", cutoff)
	return s.collectUsers(ctx, q)
}

// DeactivateMechanic clears the mechanic's isActive flag.
func (s *Store) DeactivateMechanic(ctx context.Context, mechanicID string) error {
	_, err := s.client.Collection(usersCollection).Doc(mechanicID).Update(ctx, []firestore.Update{
		{Path: "isActive", Value: false},
	})
	if err != nil {
		return fmt.Errorf("deactivate mechanic %s: %w", mechanicID, err)
	}
	return nil
}

// Invoice fetches a single service request.
func (s *Store) Invoice(ctx context.Context, id string) (model.Invoice, bool, error) {
	snap, err := s.client.Collection(invoicesCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return model.Invoice{}, false, nil
	}
	if err != nil {
		return model.Invoice{}, false, fmt.Errorf("get invoice %s: %w", id, err)
	}
	return model.DecodeInvoice(snap.Ref.ID, snap.Data()), true, nil
}

// ResetBroadcast establishes the broadcast round in a single update so no
// reader can observe candidates without the cleared assignment and ledger.
func (s *Store) ResetBroadcast(ctx context.Context, invoiceID string, candidates []string) error {
	if candidates == nil {
		candidates = []string{}
	}
	_, err := s.client.Collection(invoicesCollection).Doc(invoiceID).Update(ctx, []firestore.Update{
		{Path: "mechanicId", Value: nil},
		{Path: "mechanicCandidates", Value: candidates},
		{Path: "mechanicResponded", Value: []string{}},
	})
	if err != nil {
		return fmt.Errorf("reset broadcast on %s: %w", invoiceID, err)
	}
	return nil
}

// OverdueInvoices queries invoices whose payment status is overdue.
func (s *Store) OverdueInvoices(ctx context.Context) ([]model.Invoice, error) {
	q := s.client.Collection(invoicesCollection).Where("paymentStatus", "==", "overdue")
	return s.collectInvoices(ctx, q)
}

// StalePendingInvoices queries pending invoices created before cutoff.
func (s *Store) StalePendingInvoices(ctx context.Context, cutoff time.Time) ([]model.Invoice, error) {
	q := s.client.Collection(invoicesCollection).
		Where("invoiceStatus", "==", "pending").
		Where("createdAt", "<", cutoff)
	return s.collectInvoices(ctx, q)
}

// CancelInvoice marks the invoice cancelled with the given reason.
func (s *Store) CancelInvoice(ctx context.Context, invoiceID, reason string) error {
	_, err := s.client.Collection(invoicesCollection).Doc(invoiceID).Update(ctx, []firestore.Update{
		{Path: "invoiceStatus", Value: "cancelled"},
		{Path: "status", Value: "cancelled"},
		{Path: "adminOverride", Value: true},
		{Path: "cancellationReason", Value: reason},
	})
	if err != nil {
		return fmt.Errorf("cancel invoice %s: %w", invoiceID, err)
	}
	return nil
}

// AddCustomerMessage appends a durable message for the customer with a
// server-side timestamp.
func (s *Store) AddCustomerMessage(ctx context.Context, customerID string, msg model.StoredMessage) error {
	col := s.client.Collection(notificationsCollection).Doc(customerID).Collection(messagesSubcollection)
	_, _, err := col.Add(ctx, map[string]any{
		"title":     msg.Title,
		"body":      msg.Body,
		"timestamp": firestore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("add message for %s: %w", customerID, err)
	}
	return nil
}

// AddMechanicNotice appends an unread notice for the mechanic.
func (s *Store) AddMechanicNotice(ctx context.Context, mechanicID string, msg model.StoredMessage) error {
	col := s.client.Collection(mechanicNoticesCollection).Doc(mechanicID).Collection(mechanicNoticeSubcollection)
	_, _, err := col.Add(ctx, map[string]any{
		"title":     msg.Title,
		"message":   msg.Body,
		"timestamp": firestore.ServerTimestamp,
		"read":      false,
	})
	if err != nil {
		return fmt.Errorf("add notice for %s: %w", mechanicID, err)
	}
	return nil
}

// Tokens lists the user's registered device tokens. The token subcollection
// uses the token string as document ID, so only IDs are read.
func (s *Store) Tokens(ctx context.Context, userID string) ([]string, error) {
	iter := s.client.Collection(usersCollection).Doc(userID).Collection(tokensCollection).Documents(ctx)
	defer iter.Stop()
	var tokens []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list tokens for %s: %w", userID, err)
		}
		tokens = append(tokens, doc.Ref.ID)
	}
	return tokens, nil
}

func (s *Store) collectUsers(ctx context.Context, q firestore.Query) ([]model.User, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()
	var users []model.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query users: %w", err)
		}
		users = append(users, model.DecodeUser(doc.Ref.ID, doc.Data()))
	}
	return users, nil
}

func (s *Store) collectInvoices(ctx context.Context, q firestore.Query) ([]model.Invoice, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()
	var invoices []model.Invoice
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query invoices: %w", err)
		}
		invoices = append(invoices, model.DecodeInvoice(doc.Ref.ID, doc.Data()))
	}
	return invoices, nil
}
