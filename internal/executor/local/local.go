// Package local runs student code with a Python interpreter installed on the
// host. It is the fallback when no docker daemon is reachable (a classroom
// laptop, a CI runner) and gives the same results as the docker backend,
// minus the container resource ceilings.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sakif/mathcode/internal/executor"
)

// Default configuration values.
const (
	DefaultPython        = "python3"
	DefaultTimeout       = 5 * time.Second
	DefaultMaxConcurrent = 4
	DefaultMaxOutput     = 64 * 1024
)

// waitDelay is how long Wait keeps reading stdout after the interpreter has
// exited or been killed.
const waitDelay = 500 * time.Millisecond

// sandboxEnv is the whole environment a program sees. Nothing of the
// server's own environment is passed through besides PATH.
func sandboxEnv(home string) []string {
	lang := os.Getenv("LANG")
	if lang == "" {
		lang = "C.UTF-8"
	}
	return []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + home,
		"LANG=" + lang,
		"PYTHONIOENCODING=utf-8",
		"PYTHONDONTWRITEBYTECODE=1",
	}
}

// Config holds the configuration for host execution.
type Config struct {
	// Python is the interpreter binary, resolved through PATH.
	Python string
	// Timeout is the wall-clock ceiling of one run.
	Timeout time.Duration
	// MaxConcurrent bounds how many interpreters run at once.
	MaxConcurrent int64
	// MaxOutput caps the captured output in bytes (0 disables).
	MaxOutput int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Python:        DefaultPython,
		Timeout:       DefaultTimeout,
		MaxConcurrent: DefaultMaxConcurrent,
		MaxOutput:     DefaultMaxOutput,
	}
}

// Executor implements executor.Executor with one host subprocess per run.
type Executor struct {
	python string
	config Config
	slots  *semaphore.Weighted
	logger *slog.Logger
}

var _ executor.Executor = (*Executor)(nil)

// New resolves the interpreter and returns an Executor.
// It fails when the interpreter cannot be found, so callers can fall back
// or refuse to start.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	if cfg.Python == "" {
		cfg.Python = DefaultPython
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}

	path, err := exec.LookPath(cfg.Python)
	if err != nil {
		return nil, fmt.Errorf("local: python interpreter %q not found: %w", cfg.Python, err)
	}

	logger.Info("local executor ready",
		slog.String("python", path),
		slog.Int64("maxConcurrent", cfg.MaxConcurrent),
		slog.Duration("timeout", cfg.Timeout),
	)

	return &Executor{
		python: path,
		config: cfg,
		slots:  semaphore.NewWeighted(cfg.MaxConcurrent),
		logger: logger,
	}, nil
}

// Name implements executor.Executor.
func (e *Executor) Name() string { return "local" }

// Close is a no-op; it exists so both backends share a lifecycle.
func (e *Executor) Close() error { return nil }

// Execute runs req.Code through the harness in a fresh interpreter process.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	start := time.Now()

	if res := executor.Preflight(req.Code); res != nil {
		res.Duration = time.Since(start)
		return res, nil
	}

	// Wait for a free slot; a cancelled request gives up its place in line.
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("local: waiting for an execution slot: %w", err)
	}
	defer e.slots.Release(1)

	runCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	marker := executor.NewMarker()
	argv := executor.Command(e.python, req.Code, marker, e.config.MaxOutput)
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(req.Stdin)

	// An empty temp dir per run, so relative file writes don't land in our cwd.
	workDir, err := os.MkdirTemp("", "mathcode-run-*")
	if err != nil {
		return nil, fmt.Errorf("local: creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)
	cmd.Dir = workDir
	cmd.Env = sandboxEnv(workDir)

	// The interpreter leads its own process group so a timeout takes down
	// anything it spawned. WaitDelay stops a background child holding the
	// stdout pipe from stretching the run past the interpreter's exit.
	isolate(cmd)
	cmd.WaitDelay = waitDelay

	// stderr is discarded: faults come back in the harness report.
	stdout := &executor.TailBuffer{Limit: executor.ReportCeiling(e.config.MaxOutput)}
	cmd.Stdout = stdout

	runErr := cmd.Run()
	killGroup(cmd)
	out := stdout.String()

	if !executor.HasReport(out, marker) {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("local: run cancelled: %w", ctx.Err())
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			res := executor.TimedOut(e.config.Timeout)
			res.Duration = time.Since(start)
			return res, nil
		}
	}

	// Run's error also covers WaitDelay expiring after a clean exit, so the
	// exit status comes from the process state.
	if cmd.ProcessState == nil {
		return nil, fmt.Errorf("local: starting interpreter: %w", runErr)
	}
	exitCode := cmd.ProcessState.ExitCode()

	res := executor.Interpret(out, marker, exitCode, e.config.MaxOutput)
	res.Duration = time.Since(start)
	return res, nil
}
