package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/ast-secret-be/internal/models"
	"github.com/isdelr/ast-secret-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUsers returns a fixed user or error from every call.
type stubUsers struct {
	user models.User
	err  error
}

func (s stubUsers) CreateUser(string, bool, bool) (models.User, error) { return s.user, s.err }
func (s stubUsers) GetUserByID(string) (models.User, error)             { return s.user, s.err }
func (s stubUsers) GetUserByUsername(string) (models.User, error)       { return s.user, s.err }
func (s stubUsers) CleanExpiredUsers()                                  {}

func TestWriteErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{fmt.Errorf("%w: user x", services.ErrNotFound), http.StatusNotFound, "gone"},
		{fmt.Errorf("%w: username is required", services.ErrValidation), http.StatusBadRequest, "validation error: username is required"},
		{fmt.Errorf("%w: username \"a\" is taken", services.ErrConflict), http.StatusConflict, ""},
		{errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err, "gone")
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		if tc.body != "" {
			assert.Equal(t, tc.body, body["error"])
		}
	}
}

func TestUserHandlerHidesInternalErrors(t *testing.T) {
	h := NewUserHandler(stubUsers{err: errors.New("database is locked")})

	r := chi.NewRouter()
	r.Get("/users/{id}", h.Get)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/abc", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database is locked")
}

func TestUserHandlerCreateConflict(t *testing.T) {
	h := NewUserHandler(stubUsers{err: fmt.Errorf("%w: username taken", services.ErrConflict)})

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"username":"a"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestQueryInt(t *testing.T) {
	rec := httptest.NewRecorder()
	n, ok := queryInt(rec, httptest.NewRequest(http.MethodGet, "/?page=3", nil), "page", 1)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = queryInt(rec, httptest.NewRequest(http.MethodGet, "/", nil), "limit", 20)
	assert.True(t, ok)
	assert.Equal(t, 20, n)

	rec = httptest.NewRecorder()
	_, ok = queryInt(rec, httptest.NewRequest(http.MethodGet, "/?limit=ten", nil), "limit", 20)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckOrigin(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	strict := checkOrigin("http://localhost:3000")
	assert.True(t, strict(req("http://localhost:3000")))
	assert.True(t, strict(req("")))
	assert.False(t, strict(req("http://evil.example")))

	assert.True(t, checkOrigin("*")(req("http://anything.example")))
}
