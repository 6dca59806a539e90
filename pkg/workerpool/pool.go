// Package workerpool tracks a fixed set of simulator instances, each reachable on its
// own port with its own user workspace, and hands them out to runs.
package workerpool

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/aretw0/bngenvs/internal/logging"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/ports"
)

const (
	// DefaultStartPort is the port of the first worker.
	DefaultStartPort = 58000
	// DefaultHost is where worker instances listen.
	DefaultHost = "localhost"
	// DefaultLeaseTTL bounds how long a crashed process can hold a distributed lease.
	DefaultLeaseTTL = 30 * time.Minute
)

// Worker is one allocatable simulator instance.
type Worker struct {
	Host string
	Port int
	// Path is the instance's user workspace, <user path>/port_<port>.
	Path string

	busy   atomic.Bool
	unlock ports.UnlockFunc
}

func newWorker(userPath, host string, port int) *Worker {
	return &Worker{
		Host: host,
		Port: port,
		Path: filepath.Join(userPath, fmt.Sprintf("port_%d", port)),
	}
}

func (w *Worker) String() string {
	return fmt.Sprintf("worker %s:%d (%s)", w.Host, w.Port, w.Path)
}

// Busy reports whether the worker is marked busy.
func (w *Worker) Busy() bool { return w.busy.Load() }

// SetBusy marks the worker busy. Callers of GetFreeWorker must do this right away.
func (w *Worker) SetBusy() { w.busy.Store(true) }

// SetFree marks the worker free.
func (w *Worker) SetFree() { w.busy.Store(false) }

// BeamNGConfig returns base bound to this worker's host, port and workspace.
func (w *Worker) BeamNGConfig(base domain.BeamNGConfig) domain.BeamNGConfig {
	base.Host = w.Host
	base.Port = w.Port
	base.User = w.Path
	return base
}

// WaitFunc sleeps for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Pool is a fixed set of workers. Busy flags are atomic, so one Pool may be shared by
// several goroutines through Acquire and Release.
type Pool struct {
	workers []*Worker
	host    string
	wait    WaitFunc
	backoff func() time.Duration
	locker  ports.DistributedLocker
	ttl     time.Duration
	logger  *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithHost sets the host every worker listens on.
func WithHost(host string) Option {
	return func(p *Pool) { p.host = host }
}

// WithWait replaces the sleep between polls.
func WithWait(fn WaitFunc) Option {
	return func(p *Pool) { p.wait = fn }
}

// WithBackoff replaces the randomized 1-2 s poll interval.
func WithBackoff(fn func() time.Duration) Option {
	return func(p *Pool) { p.backoff = fn }
}

// WithLocker leases workers through a distributed lock as well, so pools in separate
// processes never hand out the same instance.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(p *Pool) {
		p.locker = l
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// New creates n free workers on consecutive ports starting at startPort, or at
// DefaultStartPort when startPort is 0.
func New(userPath string, n int, startPort int, opts ...Option) *Pool {
	if startPort == 0 {
		startPort = DefaultStartPort
	}
	p := &Pool{
		host:    DefaultHost,
		wait:    sleep,
		backoff: jitter,
		ttl:     DefaultLeaseTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.workers = make([]*Worker, n)
	for i := range p.workers {
		p.workers[i] = newWorker(userPath, p.host, startPort+i)
	}
	return p
}

// Workers returns the workers in port order.
func (p *Pool) Workers() []*Worker {
	return append([]*Worker(nil), p.workers...)
}

// Len is the number of workers.
func (p *Pool) Len() int { return len(p.workers) }

// BusyCount is the number of workers currently marked busy.
func (p *Pool) BusyCount() int {
	n := 0
	for _, w := range p.workers {
		if w.Busy() {
			n++
		}
	}
	return n
}

// GetFreeWorker polls until some worker is not busy and returns it without marking it.
// There is no queue and no fairness between waiters.
func (p *Pool) GetFreeWorker(ctx context.Context) (*Worker, error) {
	for {
		for _, w := range p.workers {
			if !w.Busy() {
				return w, nil
			}
		}
		p.logger.Debug("pool busy, still looking for a worker", "workers", len(p.workers))
		if err := p.wait(ctx, p.backoff()); err != nil {
			return nil, err
		}
	}
}

// Acquire polls like GetFreeWorker but claims the worker atomically, and through the
// distributed locker when one is set. Release it when the run is over.
func (p *Pool) Acquire(ctx context.Context) (*Worker, error) {
	for {
		for _, w := range p.workers {
			if !w.busy.CompareAndSwap(false, true) {
				continue
			}
			if p.locker == nil {
				return w, nil
			}
			unlock, ok, err := p.locker.TryLock(ctx, p.leaseKey(w), p.ttl)
			if err != nil {
				w.SetFree()
				return nil, fmt.Errorf("failed to lease %s: %w", w, err)
			}
			if !ok {
				w.SetFree()
				continue
			}
			w.unlock = unlock
			return w, nil
		}
		p.logger.Debug("pool busy, still looking for a worker", "workers", len(p.workers))
		if err := p.wait(ctx, p.backoff()); err != nil {
			return nil, err
		}
	}
}

// Release frees a worker claimed by Acquire.
func (p *Pool) Release(ctx context.Context, w *Worker) error {
	var err error
	if w.unlock != nil {
		err = w.unlock(ctx)
		w.unlock = nil
	}
	w.SetFree()
	if err != nil {
		return fmt.Errorf("failed to release lease on %s: %w", w, err)
	}
	return nil
}

func (p *Pool) leaseKey(w *Worker) string {
	return fmt.Sprintf("worker:%s:%d", w.Host, w.Port)
}

func jitter() time.Duration {
	return time.Second + rand.N(time.Second)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
