package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/model"
	"bookshelf/internal/notify"
	"bookshelf/internal/service"
	"bookshelf/internal/store/memstore"
	"bookshelf/internal/token"
	"bookshelf/internal/validate"
)

type testAPI struct {
	t      *testing.T
	router http.Handler
	store  *memstore.Store
	queue  *notify.MemoryQueue
}

func newTestAPI(t *testing.T, opts RouterOptions) *testAPI {
	t.Helper()

	st := memstore.New()
	queue := notify.NewMemoryQueue(64)
	templates, err := notify.NewTemplates()
	require.NoError(t, err)
	dispatcher := notify.NewDispatcher(queue, templates)
	v := validate.New()

	if opts.LoginRPS == 0 {
		opts.LoginRPS = 100
		opts.LoginBurst = 100
	}

	svc := Services{
		Auth:   service.NewAuthService(st, token.NewCodec("handler-secret", time.Hour), v, dispatcher),
		Users:  service.NewUserService(st),
		Books:  service.NewBookService(st, v),
		Orders: service.NewOrderService(st, st, st, dispatcher, v, 0),
	}
	return &testAPI{t: t, router: NewRouter(svc, opts), store: st, queue: queue}
}

func (a *testAPI) do(method, path, tok string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) register(name, email string) (model.User, string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "Secret1!",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[registerResponse](a.t, rec)
	require.NotNil(a.t, res.User)
	return *res.User, res.Token
}

func (a *testAPI) registerAdmin(name, email string) (model.User, string) {
	a.t.Helper()
	user, tok := a.register(name, email)
	_, err := a.store.SetAdmin(context.Background(), user.UserID, true)
	require.NoError(a.t, err)
	user.IsAdmin = true
	return user, tok
}

func (a *testAPI) createBook(adminToken, name string) model.Book {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/books/new", adminToken, map[string]string{
		"name": name, "author": "Frank Herbert", "image": "dune.png", "genre": "sci-fi",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Book](a.t, rec)
}

func TestRegisterLoginMe(t *testing.T) {
	api := newTestAPI(t, RouterOptions{})

	user, _ := api.register("ana", "ana@x.com")
	assert.Len(t, user.UserID, 5)
	assert.False(t, user.IsAdmin)

	rec := api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@x.com", "password": "Secret1!"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[loginResponse](t, rec)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "Bearer "+login.Token, rec.Header().Get("Authorization"))

	rec = api.do(http.MethodGet, "/auth", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[model.User](t, rec)
	assert.Equal(t, user.UserID, me.UserID)
	assert.NotContains(t, rec.Body.String(), "password")

	msg, err := api.queue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", msg.To)
}

func TestRegisterErrors(t *testing.T) {
	api := newTestAPI(t, RouterOptions{})
	api.register("ana", "ana@x.com")

	rec := api.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": "ana2", "email": "ana@x.com", "password": "Secret1!",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": "bob", "email": "not-an-email", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Len(t, body.Errors, 2)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("{"))
	raw := httptest.NewRecorder()
	api.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestLoginFailures(t *testing.T) {
	api := newTestAPI(t, RouterOptions{LoginRPS: 0.001, LoginBurst: 2})
	api.register("ana", "ana@x.com")

	rec := api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@x.com", "password": "Wrong1!x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "nobody@x.com", "password": "Secret1!"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@x.com", "password": "Secret1!"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuthGate(t *testing.T) {
	api := newTestAPI(t, RouterOptions{})
	_, memberToken := api.register("ana", "ana@x.com")

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/orders/my", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/orders/my", "garbage", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/orders", memberToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/users", memberToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/books/new", memberToken, map[string]string{}).Code)

	req := httptest.NewRequest(http.MethodGet, "/auth", nil)
	req.Header.Set("x-auth-token", memberToken)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderLifecycle(t *testing.T) {
	api := newTestAPI(t, RouterOptions{})
	_, adminToken := api.registerAdmin("root", "root@x.com")
	member, memberToken := api.register("ana", "ana@x.com")

	book := api.createBook(adminToken, "Dune")
	assert.True(t, book.IsAvailable)
	assert.Len(t, book.BookID, 5)

	rec := api.do(http.MethodPost, "/orders/new", memberToken, map[string]string{"bookId": "nope1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, "/orders/new", memberToken, map[string]string{"bookId": book.BookID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[model.Order](t, rec)
	assert.Equal(t, member.UserID, order.UserID)
	assert.True(t, order.Pending())
	assert.WithinDuration(t, time.Now().Add(model.DefaultLoanPeriod), order.Until, time.Minute)

	rec = api.do(http.MethodGet, "/orders/my", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Order](t, rec), 1)

	rec = api.do(http.MethodPut, "/orders/"+order.ID+"/accept", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[model.Order](t, rec).IsAccepted)

	rec = api.do(http.MethodGet, "/books/"+book.BookID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[model.Book](t, rec).IsAvailable)

	rec = api.do(http.MethodPut, "/orders/"+order.ID+"/cancel", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[service.CancelResult](t, rec).Cancelled)

	rec = api.do(http.MethodDelete, "/orders/"+order.ID+"/complete", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[service.RemoveResult](t, rec).Deleted)

	rec = api.do(http.MethodGet, "/orders", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.Order](t, rec))
}

func TestCancelThenAccept(t *testing.T) {
	api := newTestAPI(t, RouterOptions{})
	_, adminToken := api.registerAdmin("root", "root@x.com")
	_, memberToken := api.register("ana", "ana@x.com")
	book := api.createBook(adminToken, "Dune")

	rec := api.do(http.MethodPost, "/orders/new", memberToken, map[string]string{"bookId": book.BookID})
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decode[model.Order](t, rec)

	rec = api.do(http.MethodPut, "/orders/"+order.ID+"/cancel", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[service.CancelResult](t, rec)
	assert.True(t, res.Cancelled)
	require.NotNil(t, res.Order)
	assert.True(t, res.Order.IsCancelled)

	rec = api.do(http.MethodPut, "/orders/"+order.ID+"/accept", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/books/"+book.BookID, "", nil)
	assert.True(t, decode[model.Book](t, rec).IsAvailable)
}

func TestListOrdersPaging(t *testing.T) {
	api := newTestAPI(t, RouterOptions{})
	_, adminToken := api.registerAdmin("root", "root@x.com")
	_, memberToken := api.register("ana", "ana@x.com")
	book := api.createBook(adminToken, "Dune")

	for i := 0; i < 3; i++ {
		rec := api.do(http.MethodPost, "/orders/new", memberToken, map[string]string{"bookId": book.BookID})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := api.do(http.MethodGet, "/orders?skip=1&limit=1", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Order](t, rec), 1)

	rec = api.do(http.MethodGet, "/orders?skip=-1&limit=abc", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode[errorBody](t, rec).Errors, 2)
}

func TestUsersEndpoints(t *testing.T) {
	api := newTestAPI(t, RouterOptions{})
	_, adminToken := api.registerAdmin("root", "root@x.com")
	member, memberToken := api.register("ana", "ana@x.com")

	rec := api.do(http.MethodGet, "/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.User](t, rec), 2)

	rec = api.do(http.MethodGet, "/users/"+member.UserID, memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, member.Email, decode[model.User](t, rec).Email)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/users/zzzzz", memberToken, nil).Code)

	rec = api.do(http.MethodPut, "/users/"+member.UserID+"/admin", adminToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, "/users/"+member.UserID+"/admin", adminToken, map[string]any{"isAdmin": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.User](t, rec).IsAdmin)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/orders", memberToken, nil).Code)
}

func TestBooksValidation(t *testing.T) {
	api := newTestAPI(t, RouterOptions{})
	_, adminToken := api.registerAdmin("root", "root@x.com")

	rec := api.do(http.MethodPost, "/books/new", adminToken, map[string]string{
		"name": "Dune", "author": "Frank Herbert", "image": "dune.png", "genre": "poetry",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "genre", body.Errors[0].Field)

	rec = api.do(http.MethodPost, "/books/new", adminToken, map[string]any{
		"name": "Emma", "author": "Jane Austen", "image": "emma.png", "genre": "romance", "isAvailable": false,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, decode[model.Book](t, rec).IsAvailable)

	rec = api.do(http.MethodGet, "/books", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Book](t, rec), 1)
}

func TestCatchAll(t *testing.T) {
	api := newTestAPI(t, RouterOptions{})

	rec := api.do(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = api.do(http.MethodPatch, "/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
