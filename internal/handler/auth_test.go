package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/mathcode/internal/auth"
	"github.com/sakif/mathcode/internal/handler"
	"github.com/sakif/mathcode/internal/service"
)

func authRouter(t *testing.T, password string) http.Handler {
	t.Helper()
	passwords := auth.NewPasswordServiceWithCost(4)
	tokens, err := auth.NewTokenService("handler-test-secret-0123", time.Hour)
	require.NoError(t, err)

	hash := ""
	if password != "" {
		hash, err = passwords.Hash(password)
		require.NoError(t, err)
	}

	h := handler.NewAuthHandler(
		service.NewInstructorAuthService(hash, passwords, tokens, testLogger()), testLogger())

	r := chi.NewRouter()
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.With(auth.RequireAuth(tokens)).Get("/auth/me", h.HandleMe)
	return r
}

func tokenCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_LoginFlow(t *testing.T) {
	r := authRouter(t, "classroom-7")

	rr := do(t, r, http.MethodPost, "/auth/login", "application/json", `{"password":"classroom-7"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"subject":"instructor"}`, rr.Body.String())

	cookie := tokenCookie(rr)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.NotContains(t, rr.Body.String(), cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	r.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.JSONEq(t, `{"subject":"instructor"}`, me.Body.String())

	out := do(t, r, http.MethodPost, "/auth/logout", "", "")
	assert.Equal(t, http.StatusNoContent, out.Code)
	cleared := tokenCookie(out)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		rr := do(t, authRouter(t, "classroom-7"), http.MethodPost, "/auth/login",
			"application/json", `{"password":"classroom-8"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, tokenCookie(rr))
	})

	t.Run("login not configured", func(t *testing.T) {
		rr := do(t, authRouter(t, ""), http.MethodPost, "/auth/login",
			"application/json", `{"password":"anything"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := do(t, authRouter(t, "classroom-7"), http.MethodPost, "/auth/login",
			"application/json", `{"password":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("me without cookie", func(t *testing.T) {
		rr := do(t, authRouter(t, "classroom-7"), http.MethodGet, "/auth/me", "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.True(t, strings.Contains(rr.Body.String(), "instructor login required"))
	})
}
