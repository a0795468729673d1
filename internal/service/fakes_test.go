package service

import (
	"context"
	"sync"
	"sync/atomic"

	"bookshelf/internal/model"
	"bookshelf/internal/notify"
	"bookshelf/internal/store/memstore"
)

// testStore counts availability writes so tests can check the book is
// flipped exactly once.
type testStore struct {
	*memstore.Store
	availabilityWrites atomic.Int32
}

func newTestStore() *testStore {
	return &testStore{Store: memstore.New()}
}

func (s *testStore) SetBookAvailability(ctx context.Context, bookID string, available bool) error {
	s.availabilityWrites.Add(1)
	return s.Store.SetBookAvailability(ctx, bookID, available)
}

func (s *testStore) order(id string) (model.Order, bool) {
	all, _ := s.ListOrders(context.Background(), model.Page{Limit: model.MaxPageLimit})
	for _, o := range all {
		if o.ID == id {
			return o, true
		}
	}
	return model.Order{}, false
}

type sentNotification struct {
	To   string
	Kind notify.Kind
	Data map[string]any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, to string, kind notify.Kind, data map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{To: to, Kind: kind, Data: data})
}

func (n *recordingNotifier) kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Kind, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}
	return out
}
