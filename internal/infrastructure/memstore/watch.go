package memstore

import (
	"context"
	"sync"
)

// Watch is a live listener on a collection or a single document.
type Watch struct {
	collection string
	id         string

	signal chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Watch calls fn once right away and again after every committed change to
// collection (or only to collection/id when id is not empty). Changes that
// land while fn is running are coalesced into a single further call. The
// listener ends when ctx is cancelled or Stop is called.
func (s *Store) Watch(ctx context.Context, collection, id string, fn func()) *Watch {
	ctx, cancel := context.WithCancel(ctx)
	w := &Watch{
		collection: collection,
		id:         id,
		signal:     make(chan struct{}, 1),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	w.signal <- struct{}{}

	s.watchMu.Lock()
	s.watchers[w] = struct{}{}
	s.watchMu.Unlock()

	go func() {
		defer close(w.done)
		defer func() {
			s.watchMu.Lock()
			delete(s.watchers, w)
			s.watchMu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.signal:
			}
			// Stop may have raced with the signal.
			if ctx.Err() != nil {
				return
			}
			fn()
		}
	}()
	return w
}

// Stop ends the listener and waits until fn is no longer running. It must
// not be called from fn.
func (w *Watch) Stop() {
	w.once.Do(w.cancel)
	<-w.done
}

func (w *Watch) matches(key docKey) bool {
	return w.collection == key.collection && (w.id == "" || w.id == key.id)
}

func (s *Store) notify(changed []docKey) {
	if len(changed) == 0 {
		return
	}
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for w := range s.watchers {
		for _, key := range changed {
			if !w.matches(key) {
				continue
			}
			select {
			case w.signal <- struct{}{}:
			default:
			}
			break
		}
	}
}
