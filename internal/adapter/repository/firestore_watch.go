package repository

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"matchmate/internal/domain/repository"
	"matchmate/pkg/logger"
)

type firestoreSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *firestoreSubscription) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}

// watchDocument runs fn for the current state of ref and every later change.
// Missing documents are delivered as snapshots whose Exists() is false.
func watchDocument(ctx context.Context, ref *firestore.DocumentRef, fn func(*firestore.DocumentSnapshot)) repository.Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &firestoreSubscription{cancel: cancel, done: make(chan struct{})}
	it := ref.Snapshots(ctx)

	go func() {
		defer close(sub.done)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				logWatchEnd(ctx, ref.Path, err)
				return
			}
			fn(snap)
		}
	}()
	return sub
}

// watchQuery runs fn with the full result set of q on every change.
func watchQuery(ctx context.Context, name string, q firestore.Query, fn func([]*firestore.DocumentSnapshot)) repository.Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &firestoreSubscription{cancel: cancel, done: make(chan struct{})}
	it := q.Snapshots(ctx)

	go func() {
		defer close(sub.done)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				logWatchEnd(ctx, name, err)
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				logger.Error("Failed to read snapshot of %s: %v", name, err)
				continue
			}
			fn(docs)
		}
	}()
	return sub
}

func logWatchEnd(ctx context.Context, name string, err error) {
	if ctx.Err() != nil || status.Code(err) == codes.Canceled {
		return
	}
	logger.Error("Listener on %s stopped: %v", name, err)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
