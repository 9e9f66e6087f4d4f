package filerecords

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// restartDelay is how long the broker waits before reopening a failed
// change stream.
const restartDelay = 5 * time.Second

// folderRef identifies one project folder for subscription matching.
type folderRef struct {
	ProjectID primitive.ObjectID
	FolderKey string
}

// Broker fans a single collection-wide change stream out to per-folder
// subscribers. Subscribers receive coalesced wake-up signals, not events:
// a signal means "the folder may have changed, re-read it".
type Broker struct {
	store  *Store
	logger *zap.Logger

	mu   sync.Mutex
	subs map[folderRef]map[chan struct{}]struct{}
}

// NewBroker creates a broker over the store's collection. Run must be
// called for signals to flow.
func NewBroker(store *Store, logger *zap.Logger) *Broker {
	return &Broker{
		store:  store,
		logger: logger,
		subs:   make(map[folderRef]map[chan struct{}]struct{}),
	}
}

// Subscribe registers interest in one project folder. The returned channel
// receives a signal whenever a record in that folder changes. Call the
// returned cancel function to unsubscribe.
func (b *Broker) Subscribe(projectID primitive.ObjectID, folderKey string) (<-chan struct{}, func()) {
	ref := folderRef{ProjectID: projectID, FolderKey: folderKey}
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	if b.subs[ref] == nil {
		b.subs[ref] = make(map[chan struct{}]struct{})
	}
	b.subs[ref][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[ref]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, ref)
			}
		}
	}
	return ch, cancel
}

// Run watches the collection until ctx is cancelled, reopening the stream
// after failures. Intended to run from a background goroutine started at
// app startup.
func (b *Broker) Run(ctx context.Context) {
	for {
		if err := b.watch(ctx); err != nil && ctx.Err() == nil {
			b.logger.Warn("file record change stream failed, restarting", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(restartDelay):
		}
	}
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	FullDocument  *struct {
		ProjectID primitive.ObjectID `bson:"project_id"`
		FolderKey string             `bson:"folder_key"`
	} `bson:"fullDocument"`
}

func (b *Broker) watch(ctx context.Context) error {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := b.store.Collection().Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return err
	}
	defer stream.Close(ctx)

	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			b.logger.Warn("failed to decode change event", zap.Error(err))
			continue
		}
		b.dispatch(ev)
	}
	return stream.Err()
}

// dispatch signals the subscribers matching the event. Delete events carry
// no document, so every subscriber is woken; a spurious re-read is cheaper
// than a stale listing.
func (b *Broker) dispatch(ev changeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ev.FullDocument == nil {
		for _, set := range b.subs {
			signalAll(set)
		}
		return
	}

	ref := folderRef{ProjectID: ev.FullDocument.ProjectID, FolderKey: ev.FullDocument.FolderKey}
	if set, ok := b.subs[ref]; ok {
		signalAll(set)
	}
}

func signalAll(set map[chan struct{}]struct{}) {
	for ch := range set {
		select {
		case ch <- struct{}{}:
		default: // signal already pending, coalesce
		}
	}
}

// subscriberCount reports how many channels are registered, for tests.
func (b *Broker) subscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, set := range b.subs {
		n += len(set)
	}
	return n
}
