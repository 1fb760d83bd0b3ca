// Package executor defines the code execution sandbox contract shared by every
// lesson page: take the student's source text, run it in a fresh scope, and
// report either what it printed or the fault that stopped it.
//
// TWO KINDS OF FAILURE:
// A student program that raises (NameError, ZeroDivisionError, a SyntaxError...)
// is NOT a Go error. It is a normal result with Status == StatusError. The
// `error` return of Execute is reserved for the infrastructure itself failing:
// no interpreter on the host, the docker daemon going away, the caller's
// context being cancelled while waiting for a sandbox slot.
//
// Backends live in sub-packages (docker, local); both run the same Python
// harness (harness.py) so the observable behaviour is identical.
package executor

import (
	"context"
	"time"
)

// Placeholder is returned as the output of a successful run that printed nothing.
const Placeholder = "출력된 내용이 없습니다."

// Status is the terminal state of one execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ExecutionRequest represents a request to execute Python code.
// Code is not validated before execution; it may be empty or invalid.
type ExecutionRequest struct {
	Code  string `json:"code"`
	Stdin string `json:"stdin,omitempty"`
}

// ExecutionResult is the (output, status) pair produced by one run.
type ExecutionResult struct {
	Output   string        `json:"output"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the student program raised a fault.
func (r *ExecutionResult) Failed() bool {
	return r.Status == StatusError
}

// Executor runs student code in an isolated environment.
// Implementations must be safe for concurrent use; every call gets its own
// interpreter and output sink.
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)
	// Name identifies the backend in logs and health checks.
	Name() string
}
