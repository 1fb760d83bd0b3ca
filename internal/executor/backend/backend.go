// Package backend picks and constructs the execution backend described by
// the executor section of the config.
package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/mathcode/internal/config"
	"github.com/sakif/mathcode/internal/executor"
	"github.com/sakif/mathcode/internal/executor/docker"
	"github.com/sakif/mathcode/internal/executor/local"
)

// Backend is an Executor that owns resources (containers, client connections).
type Backend interface {
	executor.Executor
	io.Closer
}

// Open returns the configured backend.
//
//	docker → docker only, error if the daemon is unreachable
//	local  → host interpreter only
//	auto   → docker, falling back to the host interpreter
func Open(cfg config.ExecutorConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Backend {
	case "docker":
		d, err := docker.New(DockerConfig(cfg), logger)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "local":
		l, err := local.New(LocalConfig(cfg), logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "auto", "":
		d, dockerErr := docker.New(DockerConfig(cfg), logger)
		if dockerErr == nil {
			return d, nil
		}
		logger.Warn("docker executor unavailable, falling back to local interpreter",
			slog.String("error", dockerErr.Error()),
		)
		l, localErr := local.New(LocalConfig(cfg), logger)
		if localErr != nil {
			return nil, errors.Join(dockerErr, localErr)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("backend: unknown executor backend %q", cfg.Backend)
	}
}

// DockerConfig maps the executor config section onto docker.Config.
func DockerConfig(cfg config.ExecutorConfig) docker.Config {
	dc := docker.DefaultConfig()
	if cfg.Image != "" {
		dc.Image = cfg.Image
	}
	if cfg.MemoryMB > 0 {
		dc.MemoryLimit = cfg.MemoryMB * 1024 * 1024
	}
	if cfg.CPUs > 0 {
		dc.CPULimit = cfg.CPUs
	}
	if cfg.Pids > 0 {
		dc.PidsLimit = cfg.Pids
	}
	if cfg.PoolSize > 0 {
		dc.PoolSize = cfg.PoolSize
	}
	if cfg.Timeout > 0 {
		dc.Timeout = cfg.Timeout
	}
	dc.MaxOutput = cfg.MaxOutputBytes
	return dc
}

// LocalConfig maps the executor config section onto local.Config.
func LocalConfig(cfg config.ExecutorConfig) local.Config {
	lc := local.DefaultConfig()
	if cfg.Python != "" {
		lc.Python = cfg.Python
	}
	if cfg.Timeout > 0 {
		lc.Timeout = cfg.Timeout
	}
	if cfg.MaxConcurrent > 0 {
		lc.MaxConcurrent = cfg.MaxConcurrent
	}
	lc.MaxOutput = cfg.MaxOutputBytes
	return lc
}
