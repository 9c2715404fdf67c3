package firestore

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/skiptow/dispatch/core/events"
	"github.com/skiptow/dispatch/core/logger"
	"github.com/skiptow/dispatch/internal/eventbus"
)

// ChangeFeed watches the store and publishes entity change events on the
// bus. Update events need a before snapshot, which the listener API does not
// deliver, so the feed keeps the last seen data per document and diffs
// against it.
//
// The initial listen result replays every existing document; those are only
// cached, never published, so a process restart does not re-trigger the
// creation handlers.
type ChangeFeed struct {
	client *firestore.Client
	bus    eventbus.EventBus
	log    logger.Logger

	mu   sync.Mutex
	seen map[string]map[string]any
}

// NewChangeFeed creates a ChangeFeed publishing to the given bus.
func NewChangeFeed(client *firestore.Client, bus eventbus.EventBus, log logger.Logger) (*ChangeFeed, error) {
	if client == nil || bus == nil || log == nil {
		return nil, fmt.Errorf("firestore: nil parameter provided to NewChangeFeed")
	}
	return &ChangeFeed{
		client: client,
		bus:    bus,
		log:    log,
		seen:   make(map[string]map[string]any),
	}, nil
}

// Run starts the listeners and blocks until the context is cancelled.
func (f *ChangeFeed) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.watchInvoices(ctx)
	}()
	go func() {
		defer wg.Done()
		f.watchMessages(ctx)
	}()
	wg.Wait()
	return nil
}

func (f *ChangeFeed) watchInvoices(ctx context.Context) {
	it := f.client.Collection(invoicesCollection).Snapshots(ctx)
	defer it.Stop()
	initial := true
	for {
		qsnap, err := it.Next()
		if err != nil {
			if status.Code(err) != codes.Canceled {
				f.log.Errorf("invoice listener: %v", err)
			}
			return
		}
		for _, ch := range qsnap.Changes {
			f.handleInvoiceChange(ch, initial)
		}
		initial = false
	}
}

func (f *ChangeFeed) handleInvoiceChange(ch firestore.DocumentChange, initial bool) {
	id := ch.Doc.Ref.ID
	key := ch.Doc.Ref.Path
	data := ch.Doc.Data()

	switch ch.Kind {
	case firestore.DocumentAdded:
		f.remember(key, data)
		if initial {
			return
		}
		f.bus.Publish(events.InvoiceCreated{InvoiceID: id, Data: data})
	case firestore.DocumentModified:
		before := f.remember(key, data)
		f.bus.Publish(events.InvoiceUpdated{InvoiceID: id, Before: before, After: data})
	case firestore.DocumentRemoved:
		f.forget(key)
	}
}

// watchMessages listens on the messages collection group, which covers both
// invoice chat messages and durable user messages; the parent path tells
// them apart.
func (f *ChangeFeed) watchMessages(ctx context.Context) {
	it := f.client.CollectionGroup(messagesSubcollection).Snapshots(ctx)
	defer it.Stop()
	initial := true
	for {
		qsnap, err := it.Next()
		if err != nil {
			if status.Code(err) != codes.Canceled {
				f.log.Errorf("message listener: %v", err)
			}
			return
		}
		for _, ch := range qsnap.Changes {
			if ch.Kind != firestore.DocumentAdded || initial {
				continue
			}
			f.publishMessage(ch.Doc)
		}
		initial = false
	}
}

func (f *ChangeFeed) publishMessage(doc *firestore.DocumentSnapshot) {
	parent := doc.Ref.Parent.Parent
	if parent == nil || parent.Parent == nil {
		return
	}
	switch parent.Parent.ID {
	case invoicesCollection:
		f.bus.Publish(events.InvoiceMessageCreated{
			InvoiceID: parent.ID,
			MessageID: doc.Ref.ID,
			Data:      doc.Data(),
		})
	case notificationsCollection:
		f.bus.Publish(events.UserMessageCreated{
			UserID:    parent.ID,
			MessageID: doc.Ref.ID,
			Data:      doc.Data(),
		})
	}
}

func (f *ChangeFeed) remember(key string, data map[string]any) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	before := f.seen[key]
	f.seen[key] = data
	return before
}

func (f *ChangeFeed) forget(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, key)
}
