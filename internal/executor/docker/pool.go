package docker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// sandboxLabel marks containers owned by this service so they are easy to
// find (and reap) with `docker ps --filter label=mathcode.sandbox`.
const sandboxLabel = "mathcode.sandbox"

// Pool keeps PoolSize idle containers ready so a student's click does not
// pay for a container start.
type Pool struct {
	cli        *client.Client
	config     Config
	logger     *slog.Logger
	containers chan string
	done       chan struct{}
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewPool initializes a new container pool wrapper.
func NewPool(cli *client.Client, cfg Config, logger *slog.Logger) *Pool {
	size := cfg.PoolSize
	if size <= 0 {
		size = 1
	}
	return &Pool{
		cli:        cli,
		config:     cfg,
		logger:     logger,
		containers: make(chan string, size),
		done:       make(chan struct{}),
	}
}

// Start begins filling the pool in the background.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting sandbox container pool", slog.Int("poolSize", cap(p.containers)))
		p.wg.Add(1)
		go p.refill()
	})
}

// Stop shuts down the refill loop and removes every idle container.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("shutting down sandbox container pool")
		close(p.done)
		p.wg.Wait()

		for {
			select {
			case id := <-p.containers:
				p.removeContainer(id)
			default:
				return
			}
		}
	})
}

// GetContainer returns a ready container ID, blocking until one is
// available or ctx is done. The caller owns the container afterwards.
func (p *Pool) GetContainer(ctx context.Context) (string, error) {
	select {
	case id := <-p.containers:
		return id, nil
	case <-p.done:
		return "", fmt.Errorf("pool stopped")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refill keeps the channel at capacity until Stop is called.
func (p *Pool) refill() {
	defer p.wg.Done()

	backoff := time.Second
	for {
		select {
		case <-p.done:
			return
		default:
		}

		if len(p.containers) == cap(p.containers) {
			select {
			case <-p.done:
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		id, err := p.createContainer()
		if err != nil {
			p.logger.Error("failed to create sandbox container",
				slog.String("error", err.Error()),
				slog.Duration("retryIn", backoff),
			)
			select {
			case <-p.done:
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		select {
		case p.containers <- id:
		case <-p.done:
			p.removeContainer(id)
			return
		}
	}
}

// createContainer starts an idle, locked-down container running `sleep infinity`.
func (p *Pool) createContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var pids *int64
	if p.config.PidsLimit > 0 {
		limit := p.config.PidsLimit
		pids = &limit
	}

	hostConfig := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:     p.config.MemoryLimit,
			MemorySwap: p.config.MemoryLimit,
			NanoCPUs:   int64(p.config.CPULimit * 1e9),
			PidsLimit:  pids,
		},
		ReadonlyRootfs: true,
		// Students may write files (open('out.txt', 'w')); give them a small scratch area.
		Tmpfs: map[string]string{"/tmp": "rw,size=16m"},
	}

	resp, err := p.cli.ContainerCreate(ctx, &container.Config{
		Image:      p.config.Image,
		Cmd:        []string{"sleep", "infinity"},
		User:       "nobody",
		WorkingDir: "/tmp",
		Labels:     map[string]string{sandboxLabel: "true"},
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("creating container: %w", err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.removeContainer(resp.ID)
		return "", fmt.Errorf("starting container: %w", err)
	}

	return resp.ID, nil
}

// removeContainer force removes a container by ID.
func (p *Pool) removeContainer(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		p.logger.Warn("failed to remove sandbox container", slog.String("id", id), slog.String("error", err.Error()))
	}
}
