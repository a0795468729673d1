// Package storetest checks a store.Store implementation against the
// behaviour the services rely on. Backends call Run from their tests.
package storetest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/model"
	"bookshelf/internal/store"
)

// Run executes every check against st. The checks create their own
// records with random identifiers, so st may already hold data.
func Run(t *testing.T, st store.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, st) })
	t.Run("books", func(t *testing.T) { testBooks(t, st) })
	t.Run("order transitions", func(t *testing.T) { testOrderTransitions(t, st) })
	t.Run("concurrent accept", func(t *testing.T) { testConcurrentAccept(t, st) })
	t.Run("order listings", func(t *testing.T) { testOrderListings(t, st) })
	t.Run("overdue paging", func(t *testing.T) { testOverduePaging(t, st) })
	t.Run("unknown ids", func(t *testing.T) { testUnknownIDs(t, st) })
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
}

func newUser(t *testing.T, st store.Store) *model.User {
	t.Helper()
	id := shortID()
	u := &model.User{
		UserID:       id,
		Name:         "user-" + id,
		Email:        id + "@example.com",
		PasswordHash: []byte("hash"),
		DateCreated:  time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func newBook(t *testing.T, st store.Store) *model.Book {
	t.Helper()
	b := &model.Book{
		BookID:      shortID(),
		Name:        "Dune",
		Author:      "Frank Herbert",
		Image:       "dune.png",
		Genre:       "sci-fi",
		IsAvailable: true,
		DateCreated: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, st.CreateBook(context.Background(), b))
	require.NotEmpty(t, b.ID)
	return b
}

func newOrder(t *testing.T, st store.Store, userID, bookID string, until time.Time) *model.Order {
	t.Helper()
	o := &model.Order{
		UserID:      userID,
		BookID:      bookID,
		Until:       until.UTC().Truncate(time.Millisecond),
		DateCreated: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, st.CreateOrder(context.Background(), o))
	require.NotEmpty(t, o.ID)
	return o
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := newUser(t, st)

	dup := &model.User{UserID: shortID(), Name: "dup", Email: u.Email, PasswordHash: []byte("x"), DateCreated: time.Now()}
	assert.ErrorIs(t, st.CreateUser(ctx, dup), store.ErrDuplicate)

	byEmail, err := st.UserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, byEmail.UserID)
	assert.Equal(t, []byte("hash"), byEmail.PasswordHash)

	byID, err := st.UserByUserID(ctx, u.UserID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)
	assert.False(t, byID.IsAdmin)

	_, err = st.UserByEmail(ctx, "nobody-"+shortID()+"@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	promoted, err := st.SetAdmin(ctx, u.UserID, true)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)

	_, err = st.SetAdmin(ctx, "zz"+shortID(), true)
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.True(t, containsUser(all, u.UserID))
}

func containsUser(users []model.User, userID string) bool {
	for _, u := range users {
		if u.UserID == userID {
			return true
		}
	}
	return false
}

func testBooks(t *testing.T, st store.Store) {
	ctx := context.Background()
	b := newBook(t, st)

	dup := *b
	dup.ID = ""
	assert.ErrorIs(t, st.CreateBook(ctx, &dup), store.ErrDuplicate)

	got, err := st.BookByBookID(ctx, b.BookID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Name)
	assert.True(t, got.IsAvailable)

	require.NoError(t, st.SetBookAvailability(ctx, b.BookID, false))
	got, err = st.BookByBookID(ctx, b.BookID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)

	assert.ErrorIs(t, st.SetBookAvailability(ctx, "zz"+shortID(), false), store.ErrNotFound)

	books, err := st.ListBooks(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, books)
}

func testOrderTransitions(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := newUser(t, st)
	other := newUser(t, st)
	b := newBook(t, st)
	until := time.Now().Add(7 * 24 * time.Hour)

	// cancel, then accept
	o := newOrder(t, st, u.UserID, b.BookID, until)
	_, err := st.CancelOrder(ctx, o.ID, other.UserID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	cancelled, err := st.CancelOrder(ctx, o.ID, u.UserID)
	require.NoError(t, err)
	assert.True(t, cancelled.IsCancelled)
	assert.False(t, cancelled.IsAccepted)

	_, err = st.AcceptOrder(ctx, o.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// accept, then cancel
	o = newOrder(t, st, u.UserID, b.BookID, until)
	accepted, err := st.AcceptOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, accepted.IsAccepted)
	assert.False(t, accepted.IsCancelled)

	_, err = st.AcceptOrder(ctx, o.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.CancelOrder(ctx, o.ID, u.UserID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := st.DeleteOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = st.DeleteOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testConcurrentAccept(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := newUser(t, st)
	b := newBook(t, st)
	o := newOrder(t, st, u.UserID, b.BookID, time.Now().Add(time.Hour))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := st.AcceptOrder(ctx, o.ID); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func testOrderListings(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := newUser(t, st)
	b := newBook(t, st)

	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	first := newOrder(t, st, u.UserID, b.BookID, base)
	second := newOrder(t, st, u.UserID, b.BookID, base.Add(10*time.Minute))
	third := newOrder(t, st, u.UserID, b.BookID, base.Add(20*time.Minute))
	pending := newOrder(t, st, u.UserID, b.BookID, base.Add(5*time.Minute))
	for _, o := range []*model.Order{first, second, third} {
		_, err := st.AcceptOrder(ctx, o.ID)
		require.NoError(t, err)
	}

	mine, err := st.OrdersByUser(ctx, u.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 4)

	page, err := st.ListOrders(ctx, model.Page{Skip: 0, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	overdue, err := st.OverdueOrders(ctx, base, base.Add(15*time.Minute), "", 100)
	require.NoError(t, err)
	ids := make([]string, 0, len(overdue))
	for _, o := range overdue {
		ids = append(ids, o.ID)
	}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
	assert.NotContains(t, ids, third.ID)
	assert.NotContains(t, ids, pending.ID)
}

func testUnknownIDs(t *testing.T, st store.Store) {
	ctx := context.Background()

	for _, id := range []string{"not-an-id", uuid.NewString(), "0123456789abcdef01234567"} {
		_, err := st.AcceptOrder(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound, id)
		_, err = st.CancelOrder(ctx, id, "ana01")
		assert.ErrorIs(t, err, store.ErrNotFound, id)
		n, err := st.DeleteOrder(ctx, id)
		require.NoError(t, err, id)
		assert.Zero(t, n, id)
	}
}

func testOverduePaging(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := newUser(t, st)
	b := newBook(t, st)

	// a window no other check writes into
	deadline := time.Now().Add(-72 * time.Hour).UTC().Truncate(time.Second)
	want := map[string]bool{}
	for i := 0; i < 3; i++ {
		o := newOrder(t, st, u.UserID, b.BookID, deadline)
		_, err := st.AcceptOrder(ctx, o.ID)
		require.NoError(t, err)
		want[o.ID] = true
	}

	from, to := deadline.Add(-time.Second), deadline.Add(time.Second)
	got := map[string]bool{}
	afterID := ""
	for pages := 0; pages < 5; pages++ {
		batch, err := st.OverdueOrders(ctx, from, to, afterID, 2)
		require.NoError(t, err)
		for _, o := range batch {
			if want[o.ID] {
				assert.False(t, got[o.ID], "order %s returned twice", o.ID)
				got[o.ID] = true
			}
		}
		if len(batch) < 2 {
			break
		}
		last := batch[len(batch)-1]
		from, afterID = last.Until, last.ID
	}
	assert.Equal(t, want, got)
}
