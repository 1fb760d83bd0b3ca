package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/mathcode/internal/auth"
	"github.com/sakif/mathcode/internal/service"
)

// AuthHandler manages the instructor session.
//
//   - HandleLogin  → check the password, set the JWT cookie
//   - HandleLogout → clear the cookie
//   - HandleMe     → report who the cookie belongs to (behind RequireAuth)
//
// There are no student accounts; only the instructor logs in.
type AuthHandler struct {
	svc    *service.InstructorAuthService
	logger *slog.Logger
}

func NewAuthHandler(svc *service.InstructorAuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Subject string `json:"subject"`
}

// HandleLogin exchanges the instructor password for a session cookie.
//
// HTTP: POST /auth/login {"password": "..."}
//
// The token travels only in an HttpOnly cookie, never in the body, so page
// scripts cannot read it.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.svc.Login(r.Context(), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetTokenCookie(w, r, token, h.svc.TokenTTL())
	writeJSON(w, http.StatusOK, sessionResponse{Subject: auth.InstructorSubject})
}

// HandleLogout clears the session cookie. It always succeeds.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated subject.
//
// HTTP: GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	subject, _ := auth.SubjectFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{Subject: subject})
}
