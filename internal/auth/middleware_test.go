package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func protected(t *testing.T, ts *TokenService) http.Handler {
	t.Helper()
	return RequireAuth(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := SubjectFromContext(r.Context())
		if !ok {
			t.Error("SubjectFromContext() found nothing behind RequireAuth")
		}
		w.Write([]byte(subject))
	}))
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	valid, _ := ts.Generate(InstructorSubject)
	expired, _ := ts.GenerateWithDuration(InstructorSubject, -time.Minute)

	tests := []struct {
		name       string
		cookie     *http.Cookie
		wantStatus int
	}{
		{"no cookie", nil, http.StatusUnauthorized},
		{"garbage cookie", &http.Cookie{Name: CookieName, Value: "garbage"}, http.StatusUnauthorized},
		{"expired cookie", &http.Cookie{Name: CookieName, Value: expired}, http.StatusUnauthorized},
		{"valid cookie", &http.Cookie{Name: CookieName, Value: valid}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rr := httptest.NewRecorder()

			protected(t, ts).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && rr.Body.String() != InstructorSubject {
				t.Errorf("body = %q, want subject %q", rr.Body.String(), InstructorSubject)
			}
		})
	}
}

func TestTokenCookies(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()

	SetTokenCookie(rr, req, "abc", time.Hour)
	c := rr.Result().Cookies()[0]
	if c.Name != CookieName || c.Value != "abc" || !c.HttpOnly || !c.Secure || c.MaxAge != 3600 {
		t.Errorf("SetTokenCookie() cookie = %+v", c)
	}

	rr = httptest.NewRecorder()
	ClearTokenCookie(rr)
	c = rr.Result().Cookies()[0]
	if c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("ClearTokenCookie() cookie = %+v", c)
	}
}

func TestSubjectFromContext_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := SubjectFromContext(req.Context()); ok {
		t.Error("SubjectFromContext() on an anonymous request should report false")
	}
}
