// Package events defines the entity change events consumed by the reactors.
// Snapshots are raw field maps: decoding, and tolerance of malformed data,
// is the reactors' job. The producers under infra synthesize these from the
// store's change feed.
package events

// InvoiceCreated signals a newly created service request.
type InvoiceCreated struct {
	InvoiceID string
	Data      map[string]any
}

// InvoiceUpdated signals a field mutation on a service request, carrying the
// before and after snapshots of the same document.
type InvoiceUpdated struct {
	InvoiceID string
	Before    map[string]any
	After     map[string]any
}

// UserMessageCreated signals a durable message appended for a user.
type UserMessageCreated struct {
	UserID    string
	MessageID string
	Data      map[string]any
}

// InvoiceMessageCreated signals a chat message appended under a service
// request.
type InvoiceMessageCreated struct {
	InvoiceID string
	MessageID string
	Data      map[string]any
}
