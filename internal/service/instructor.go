package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/mathcode/internal/apperror"
	"github.com/sakif/mathcode/internal/auth"
)

// InstructorAuthService logs the single instructor account in.
type InstructorAuthService struct {
	passwordHash string
	passwords    *auth.PasswordService
	tokens       *auth.TokenService
	logger       *slog.Logger
}

// NewInstructorAuthService takes the bcrypt hash from configuration. An empty
// hash leaves login disabled.
func NewInstructorAuthService(
	passwordHash string,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *InstructorAuthService {
	return &InstructorAuthService{
		passwordHash: passwordHash,
		passwords:    passwords,
		tokens:       tokens,
		logger:       logger,
	}
}

// Login checks password and returns a signed token.
func (s *InstructorAuthService) Login(_ context.Context, password string) (string, error) {
	if s.passwordHash == "" {
		return "", apperror.Unavailable("instructor login")
	}

	if err := s.passwords.Verify(s.passwordHash, password); err != nil {
		if !errors.Is(err, auth.ErrInvalidPassword) {
			// A malformed hash in the config, not a wrong password.
			s.logger.Error("instructor password hash unusable", slog.String("error", err.Error()))
			return "", apperror.Unavailable("instructor login")
		}
		s.logger.Warn("instructor login rejected")
		return "", apperror.Unauthorized("invalid password")
	}

	token, err := s.tokens.Generate(auth.InstructorSubject)
	if err != nil {
		return "", fmt.Errorf("issuing instructor token: %w", err)
	}
	s.logger.Info("instructor logged in")
	return token, nil
}

// TokenTTL is the lifetime of issued tokens, used for the cookie max-age.
func (s *InstructorAuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}
