// Package docker runs student code inside throwaway Docker containers.
//
// Each run takes a pre-warmed container from the pool, `docker exec`s the
// Python harness in it, and removes the container afterwards, so no state
// (files, imported modules, globals) survives from one student's run to the
// next.
package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/mathcode/internal/executor"
)

// Executor implements the executor.Executor interface using Docker.
type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pool   *Pool
}

var _ executor.Executor = (*Executor)(nil)

// New creates a new Docker Executor, pulls the image and starts the pool.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: creating client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Fail fast when no daemon is listening, before a long pull timeout.
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker: daemon unreachable: %w", err)
	}

	logger.Info("ensuring docker image is available", slog.String("image", cfg.Image))
	reader, err := cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker: pulling image %s: %w", cfg.Image, err)
	}
	// Drain to block until the pull completes.
	_, _ = io.Copy(io.Discard, reader)
	reader.Close()
	logger.Info("docker image is ready", slog.String("image", cfg.Image))

	exec := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
		pool:   NewPool(cli, cfg, logger),
	}
	exec.pool.Start()

	return exec, nil
}

// Name implements executor.Executor.
func (e *Executor) Name() string { return "docker" }

// Close shuts down the pool and the docker client.
func (e *Executor) Close() error {
	e.pool.Stop()
	return e.cli.Close()
}

// Execute runs req.Code through the harness in a fresh container.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	start := time.Now()

	if res := executor.Preflight(req.Code); res != nil {
		res.Duration = time.Since(start)
		return res, nil
	}

	containerID, err := e.pool.GetContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("docker: acquiring container: %w", err)
	}

	// The container is single-use: whatever the program did to it goes away.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			e.logger.Error("failed to remove container",
				slog.String("id", containerID),
				slog.String("error", err.Error()),
			)
		}
	}()

	executeCtx, executeCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer executeCancel()

	marker := executor.NewMarker()
	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, container.ExecOptions{
		AttachStdin:  req.Stdin != "",
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   "/tmp",
		Env:          []string{"PYTHONIOENCODING=utf-8", "PYTHONDONTWRITEBYTECODE=1"},
		Cmd:          executor.Command("python", req.Code, marker, e.config.MaxOutput),
	})
	if err != nil {
		return nil, fmt.Errorf("docker: creating exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("docker: attaching to exec: %w", err)
	}
	defer attachResp.Close()

	if req.Stdin != "" {
		if _, err := io.WriteString(attachResp.Conn, req.Stdin); err != nil {
			return nil, fmt.Errorf("docker: writing stdin: %w", err)
		}
		if err := attachResp.CloseWrite(); err != nil {
			return nil, fmt.Errorf("docker: closing stdin: %w", err)
		}
	}

	stdout := &executor.TailBuffer{Limit: executor.ReportCeiling(e.config.MaxOutput)}
	done := make(chan struct{})
	go func() {
		// stderr is discarded: faults come back in the harness report.
		_, _ = stdcopy.StdCopy(stdout, io.Discard, attachResp.Reader)
		close(done)
	}()

	select {
	case <-done:
	case <-executeCtx.Done():
		if ctx.Err() != nil {
			return nil, fmt.Errorf("docker: run cancelled: %w", ctx.Err())
		}
		// Closing the hijacked connection unblocks the copier before we return.
		attachResp.Close()
		<-done
		res := executor.TimedOut(e.config.Timeout)
		res.Duration = time.Since(start)
		return res, nil
	}

	exitCode := 0
	if inspect, err := e.cli.ContainerExecInspect(ctx, execResp.ID); err == nil {
		exitCode = inspect.ExitCode
	}

	res := executor.Interpret(stdout.String(), marker, exitCode, e.config.MaxOutput)
	res.Duration = time.Since(start)
	return res, nil
}
