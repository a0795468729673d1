package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/model"
	"bookshelf/internal/notify"
	"bookshelf/internal/validate"
)

type orderFixture struct {
	svc      *OrderService
	store    *testStore
	notifier *recordingNotifier
	user     *model.User
	other    *model.User
	book     *model.Book
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	ctx := context.Background()

	st := newTestStore()
	n := &recordingNotifier{}
	f := &orderFixture{
		svc:      NewOrderService(st, st, st, n, validate.New(), 0),
		store:    st,
		notifier: n,
		user:     &model.User{UserID: "ana01", Name: "Ana", Email: "ana@x.com"},
		other:    &model.User{UserID: "bob01", Name: "Bob", Email: "bob@x.com"},
		book:     &model.Book{BookID: "dune1", Name: "Dune", IsAvailable: true},
	}
	require.NoError(t, st.CreateUser(ctx, f.user))
	require.NoError(t, st.CreateUser(ctx, f.other))
	require.NoError(t, st.CreateBook(ctx, f.book))
	return f
}

func (f *orderFixture) bookAvailable(t *testing.T) bool {
	t.Helper()
	b, err := f.store.BookByBookID(context.Background(), f.book.BookID)
	require.NoError(t, err)
	return b.IsAvailable
}

func TestOrderCreate(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	order, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.True(t, order.Pending())
	assert.Equal(t, f.user.UserID, order.UserID)
	assert.Equal(t, now.Add(7*24*time.Hour), order.Until)

	past := now.Add(-48 * time.Hour)
	order, err = f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID, Until: &past})
	require.NoError(t, err)
	assert.Equal(t, past, order.Until)

	mine, err := f.svc.ListMine(ctx, f.user)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := f.svc.ListMine(ctx, f.other)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestOrderCreateUnknownBook(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	_, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: "nope1"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Create(ctx, f.user, CreateOrderInput{})
	var verr *validate.Error
	assert.ErrorAs(t, err, &verr)

	all, err := f.svc.List(ctx, model.Page{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOrderAcceptAndComplete(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	order, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID})
	require.NoError(t, err)

	accepted, err := f.svc.Accept(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, accepted.IsAccepted)
	assert.False(t, accepted.IsCancelled)
	assert.False(t, f.bookAvailable(t))

	require.Len(t, f.notifier.sent, 1)
	sent := f.notifier.sent[0]
	assert.Equal(t, notify.KindOrderAccepted, sent.Kind)
	assert.Equal(t, "ana@x.com", sent.To)
	assert.Equal(t, "Dune", sent.Data["book"])

	res, err := f.svc.Complete(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted)

	all, err := f.svc.List(ctx, model.Page{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOrderCancelThenAccept(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	order, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID})
	require.NoError(t, err)

	res, err := f.svc.Cancel(ctx, f.user, order.ID)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.True(t, res.Order.IsCancelled)
	assert.Equal(t, []notify.Kind{notify.KindOrderRejected}, f.notifier.kinds())

	_, err = f.svc.Accept(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, f.bookAvailable(t))
	assert.Zero(t, f.store.availabilityWrites.Load())
	assert.Len(t, f.notifier.sent, 1)
}

func TestOrderAcceptThenCancel(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	order, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID})
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, order.ID)
	require.NoError(t, err)

	res, err := f.svc.Cancel(ctx, f.user, order.ID)
	require.NoError(t, err)
	assert.False(t, res.Cancelled)
	assert.Nil(t, res.Order)

	stored, ok := f.store.order(order.ID)
	require.True(t, ok)
	assert.False(t, stored.IsCancelled)
	assert.True(t, stored.IsAccepted)
	assert.Equal(t, []notify.Kind{notify.KindOrderAccepted}, f.notifier.kinds())
}

func TestOrderCancelForeign(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	order, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID})
	require.NoError(t, err)

	res, err := f.svc.Cancel(ctx, f.other, order.ID)
	require.NoError(t, err)
	assert.False(t, res.Cancelled)
	stored, ok := f.store.order(order.ID)
	require.True(t, ok)
	assert.True(t, stored.Pending())
}

func TestOrderCompleteUnaccepted(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	order, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID})
	require.NoError(t, err)

	res, err := f.svc.Complete(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted)

	res, err = f.svc.Complete(ctx, order.ID)
	require.NoError(t, err)
	assert.Zero(t, res.Deleted)
}

func TestOrderConcurrentAccept(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	order, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID})
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Accept(ctx, order.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, ErrNotFound), err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int32(1), f.store.availabilityWrites.Load())
	assert.False(t, f.bookAvailable(t))
}

func TestOrderListPaging(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		f.svc.now = func() time.Time { return at }
		_, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID})
		require.NoError(t, err)
	}

	page, err := f.svc.List(ctx, model.Page{})
	require.NoError(t, err)
	assert.Len(t, page, model.DefaultPageLimit)
	assert.Equal(t, base, page[0].DateCreated)

	page, err = f.svc.List(ctx, model.Page{Skip: 20, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page, 5)
	assert.Equal(t, base.Add(20*time.Minute), page[0].DateCreated)
}

func TestRemindOverdue(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	base := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	accept := func(until time.Time) {
		t.Helper()
		u := until
		order, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID, Until: &u})
		require.NoError(t, err)
		_, err = f.svc.Accept(ctx, order.ID)
		require.NoError(t, err)
	}
	accept(base.Add(1 * time.Hour))
	accept(base.Add(2 * time.Hour))
	accept(base.Add(3 * time.Hour))
	accept(base.Add(48 * time.Hour))

	pending := base.Add(90 * time.Minute)
	_, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID, Until: &pending})
	require.NoError(t, err)

	f.notifier.sent = nil
	sent, err := f.svc.RemindOverdue(ctx, base, base.Add(24*time.Hour), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, []notify.Kind{notify.KindOrderOverdue, notify.KindOrderOverdue, notify.KindOrderOverdue}, f.notifier.kinds())
	assert.Equal(t, "Dune", f.notifier.sent[0].Data["book"])
	assert.Equal(t, "2026-10-19", f.notifier.sent[0].Data["until"])
}

func TestRemindOverdueSharedDeadline(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	deadline := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	want := map[string]bool{}
	for i := 0; i < 3; i++ {
		order, err := f.svc.Create(ctx, f.user, CreateOrderInput{BookID: f.book.BookID, Until: &deadline})
		require.NoError(t, err)
		_, err = f.svc.Accept(ctx, order.ID)
		require.NoError(t, err)
		want[order.ID] = true
	}

	f.notifier.sent = nil
	sent, err := f.svc.RemindOverdue(ctx, deadline.Add(-time.Hour), deadline.Add(time.Hour), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)

	got := map[string]bool{}
	for _, n := range f.notifier.sent {
		assert.Equal(t, notify.KindOrderOverdue, n.Kind)
		got[n.Data["orderID"].(string)] = true
	}
	assert.Equal(t, want, got)
}
