package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/mathcode/internal/apperror"
	"github.com/sakif/mathcode/internal/executor"
)

// ExecutionService runs student code through the configured backend.
type ExecutionService struct {
	exec   executor.Executor
	logger *slog.Logger
}

// NewExecutionService accepts a nil executor: the server still starts and
// serves lessons, and every run reports apperror.ErrUnavailable.
func NewExecutionService(exec executor.Executor, logger *slog.Logger) *ExecutionService {
	return &ExecutionService{exec: exec, logger: logger}
}

// Backend names the executor in use, or "none".
func (s *ExecutionService) Backend() string {
	if s.exec == nil {
		return "none"
	}
	return s.exec.Name()
}

// Run executes code. Empty code is allowed (it prints the no-output
// placeholder); oversized input is a validation error. A student program
// that raises is a successful call with Status == StatusError.
func (s *ExecutionService) Run(ctx context.Context, code, stdin string) (*executor.ExecutionResult, error) {
	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d bytes or less", MaxCodeLength))
	}
	if len(stdin) > MaxStdinLength {
		return nil, apperror.ValidationFailed("stdin",
			fmt.Sprintf("stdin must be %d bytes or less", MaxStdinLength))
	}
	if s.exec == nil {
		return nil, apperror.Unavailable("code execution")
	}

	res, err := s.exec.Execute(ctx, executor.ExecutionRequest{Code: code, Stdin: stdin})
	if err != nil {
		s.logger.Error("execution backend failed",
			slog.String("backend", s.exec.Name()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("running code: %w", apperror.Unavailable("code execution"))
	}

	s.logger.Info("code executed",
		slog.String("backend", s.exec.Name()),
		slog.String("status", string(res.Status)),
		slog.Duration("duration", res.Duration),
		slog.Int("code_bytes", len(code)),
	)
	return res, nil
}
