package docker

import "time"

// Config sizes the sandbox containers. Every limit applies per container,
// so the host budget is roughly PoolSize times each value.
type Config struct {
	Image       string        // must provide `python` on PATH
	MemoryLimit int64         // bytes; swap is disabled at the same value
	CPULimit    float64       // fractional CPUs
	PidsLimit   int64         // fork bombs stop here
	Timeout     time.Duration // wall clock for one run, container start excluded
	PoolSize    int           // pre-warmed containers kept ready
	MaxOutput   int           // captured output bytes; 0 means unbounded
}

// DefaultConfig is tuned for a classroom: small programs, many students,
// and loops that never end being the common failure.
func DefaultConfig() Config {
	return Config{
		Image:       "python:3.12-alpine",
		MemoryLimit: 128 << 20,
		CPULimit:    0.5,
		PidsLimit:   64,
		Timeout:     5 * time.Second,
		PoolSize:    3,
		MaxOutput:   64 << 10,
	}
}
