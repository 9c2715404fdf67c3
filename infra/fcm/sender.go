// Package fcm implements the multicast notification sender on Firebase
// Cloud Messaging.
package fcm

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"github.com/skiptow/dispatch/core/logger"
	"github.com/skiptow/dispatch/core/model"
)

// Sender delivers notifications through an FCM messaging client.
type Sender struct {
	client *messaging.Client
	log    logger.Logger
}

// NewSender wraps an initialized messaging client.
func NewSender(client *messaging.Client, log logger.Logger) (*Sender, error) {
	if client == nil || log == nil {
		return nil, fmt.Errorf("fcm: nil parameter provided to NewSender")
	}
	return &Sender{client: client, log: log}, nil
}

// SendMulticast delivers the notification to every token in one multicast
// call. Delivery is best effort: per-token failures are logged and do not
// fail the call, only a transport-level error does.
func (s *Sender) SendMulticast(ctx context.Context, n model.Notification, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	}
	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return fmt.Errorf("fcm multicast: %w", err)
	}
	if resp.FailureCount > 0 {
		s.log.Warnf("multicast: %d ok, %d failed", resp.SuccessCount, resp.FailureCount)
	}
	return nil
}
