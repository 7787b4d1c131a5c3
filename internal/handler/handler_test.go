package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tresh-api/internal/logging"
	"github.com/iliyamo/tresh-api/internal/middleware"
	"github.com/iliyamo/tresh-api/internal/model"
	"github.com/iliyamo/tresh-api/internal/repository"
	"github.com/iliyamo/tresh-api/internal/service"
)

type stubAuth struct {
	res       model.AuthResult
	err       error
	gotEmail  string
	gotToken  string
	gotUserID string
}

func (s *stubAuth) Register(_ context.Context, email, _, _ string) (model.AuthResult, error) {
	s.gotEmail = email
	return s.res, s.err
}

func (s *stubAuth) Login(_ context.Context, email, _ string) (model.AuthResult, error) {
	s.gotEmail = email
	return s.res, s.err
}

func (s *stubAuth) Refresh(_ context.Context, token, _ string) (model.AuthResult, error) {
	s.gotToken = token
	return s.res, s.err
}

func (s *stubAuth) Logout(_ context.Context, _ string) error { return s.err }

func (s *stubAuth) LogoutAll(_ context.Context, userID string) (int64, error) {
	s.gotUserID = userID
	return 1, s.err
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func authEcho(a Authenticator) *echo.Echo {
	e := newEcho()
	h := NewAuthHandler(a, logging.Nop())
	e.POST("/register", h.Register)
	e.POST("/login", h.Login)
	e.POST("/refresh-token", h.RefreshToken)
	e.POST("/logout", h.Logout)
	e.POST("/logout-all", h.LogoutAll, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxUserID, "u-1")
			return next(c)
		}
	})
	return e
}

func TestAuthHandler_Success(t *testing.T) {
	ok := model.AuthResult{Token: "jwt", RefreshToken: "rt", IsSuccess: true, Errors: []string{}}
	stub := &stubAuth{res: ok}
	e := authEcho(stub)

	rec := postJSON(e, "/register", `{"username":"alice","email":"a@x.com","password":"secret123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"jwt","refreshToken":"rt","isSuccess":true,"errors":[]}`, rec.Body.String())
	assert.Equal(t, "a@x.com", stub.gotEmail)

	rec = postJSON(e, "/login", `{"email":"a@x.com","password":"secret123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(e, "/refresh-token", `{"token":"old","refreshToken":"rt"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "old", stub.gotToken)

	rec = postJSON(e, "/logout", `{"refreshToken":"rt"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = postJSON(e, "/logout-all", ``)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u-1", stub.gotUserID)
}

func TestAuthHandler_InvalidPayload(t *testing.T) {
	e := authEcho(&stubAuth{})

	for path, body := range map[string]string{
		"/register":      `{not json`,
		"/login":         `{"email":"a@x.com"}`,
		"/refresh-token": `{"token":"only"}`,
		"/logout":        `{not json`,
	} {
		rec := postJSON(e, path, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.JSONEq(t, `{"token":"","refreshToken":"","isSuccess":false,"errors":["Invalid payload"]}`, rec.Body.String(), path)
	}
}

func TestAuthHandler_RegisterFieldErrors(t *testing.T) {
	stub := &stubAuth{}
	e := authEcho(stub)

	rec := postJSON(e, "/register", `{"email":"not-an-email","password":"x","username":"u"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"token":"","refreshToken":"","isSuccess":false,"errors":["email must be a valid email"]}`, rec.Body.String())

	rec = postJSON(e, "/register", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"token":"","refreshToken":"","isSuccess":false,"errors":["username is required","password is required"]}`, rec.Body.String())
}

func TestAuthHandler_FailureKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{service.ErrEmailInUse, http.StatusBadRequest, "Email already in use"},
		{service.ErrInvalidCredentials, http.StatusBadRequest, "Invalid login request"},
		{service.ErrNotYetExpired, http.StatusBadRequest, "Token has not yet expired"},
		{service.ErrUnknownToken, http.StatusBadRequest, "Token does not exist"},
		{service.ErrTokenAlreadyUsed, http.StatusBadRequest, "Token has been used"},
		{service.ErrTokenRevoked, http.StatusBadRequest, "Token has been revoked"},
		{service.ErrTokenMismatch, http.StatusBadRequest, "Token doesn't match"},
		{fmt.Errorf("%w: %w", service.ErrInvalidToken, errors.New("db")), http.StatusBadRequest, "Invalid token"},
		{errors.New("connection refused"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		e := authEcho(&stubAuth{err: tt.err})
		rec := postJSON(e, "/refresh-token", `{"token":"t","refreshToken":"r"}`)
		assert.Equal(t, tt.status, rec.Code, tt.msg)
		assert.Contains(t, rec.Body.String(), tt.msg)
		assert.Contains(t, rec.Body.String(), `"isSuccess":false`)
	}
}

type memItems struct {
	mu     sync.Mutex
	items  map[uint64]model.Item
	nextID uint64
	err    error
}

func newMemItems() *memItems { return &memItems{items: map[uint64]model.Item{}} }

func (m *memItems) List(context.Context) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []model.Item{}
	for i := uint64(1); i <= m.nextID; i++ {
		if it, ok := m.items[i]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memItems) GetByID(_ context.Context, id uint64) (*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	return &it, nil
}

func (m *memItems) Create(_ context.Context, it *model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	it.ID = m.nextID
	it.CreatedAt = time.Now().UTC()
	it.UpdatedAt = it.CreatedAt
	m.items[it.ID] = *it
	return nil
}

func (m *memItems) Update(_ context.Context, it *model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.ID]; !ok {
		return repository.ErrItemNotFound
	}
	m.items[it.ID] = *it
	return nil
}

func (m *memItems) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}

func todoEcho(items ItemStore) *echo.Echo {
	e := newEcho()
	h := NewTodoHandler(items, logging.Nop())
	g := e.Group("/api/todo")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return e
}

func send(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTodoHandler_CRUD(t *testing.T) {
	items := newMemItems()
	e := todoEcho(items)

	rec := send(e, http.MethodGet, "/api/todo", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = send(e, http.MethodPost, "/api/todo", `{"title":"milk","description":"buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/todo/1", rec.Header().Get(echo.HeaderLocation))
	assert.Contains(t, rec.Body.String(), `"title":"milk"`)

	rec = send(e, http.MethodPut, "/api/todo/1", `{"title":"milk","description":"buy oat milk","done":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":1`)

	rec = send(e, http.MethodGet, "/api/todo/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"done":true`)
	assert.Contains(t, rec.Body.String(), `"description":"buy oat milk"`)

	rec = send(e, http.MethodDelete, "/api/todo/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, send(e, http.MethodGet, "/api/todo/1", "").Code)
	assert.Equal(t, http.StatusNotFound, send(e, http.MethodDelete, "/api/todo/1", "").Code)
}

func TestTodoHandler_Validation(t *testing.T) {
	e := todoEcho(newMemItems())

	rec := send(e, http.MethodPost, "/api/todo", `{"title":"milk"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":["description is required"]}`, rec.Body.String())

	rec = send(e, http.MethodPut, "/api/todo/5", `{"description":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":["title is required"]}`, rec.Body.String())

	rec = send(e, http.MethodPut, "/api/todo/5", `{"title":"t","description":"d"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, http.StatusBadRequest, send(e, http.MethodGet, "/api/todo/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, send(e, http.MethodGet, "/api/todo/0", "").Code)
}

func TestTodoHandler_StoreError(t *testing.T) {
	items := newMemItems()
	items.err = errors.New("db down")
	e := todoEcho(items)

	rec := send(e, http.MethodGet, "/api/todo", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/up", Health(pingFunc(func(context.Context) error { return nil })))
	e.GET("/down", Health(pingFunc(func(context.Context) error { return errors.New("no db") })))

	rec := send(e, http.MethodGet, "/up", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, http.StatusServiceUnavailable, send(e, http.MethodGet, "/down", "").Code)
}
