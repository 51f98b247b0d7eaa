// Package jobs runs persistence work off the signaling path on a bounded
// worker pool with retries.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrNotRunning = errors.New("queue is not running")

type Config struct {
	Workers        int
	QueueSize      int
	MaxRetries     int
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration
	Timeout        time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:        2,
		QueueSize:      256,
		MaxRetries:     3,
		BaseRetryDelay: 200 * time.Millisecond,
		MaxRetryDelay:  5 * time.Second,
		Timeout:        5 * time.Second,
	}
}

// Task is one unit of persistence work. Run may be invoked more than once.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type Stats struct {
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
	Retried   uint64 `json:"retried"`
}

type Queue struct {
	cfg   Config
	tasks chan Task

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	processed atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	retried   atomic.Uint64
}

func NewQueue(cfg Config) *Queue {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseRetryDelay <= 0 {
		cfg.BaseRetryDelay = def.BaseRetryDelay
	}
	if cfg.MaxRetryDelay < cfg.BaseRetryDelay {
		cfg.MaxRetryDelay = cfg.BaseRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Queue{cfg: cfg}
}

// Start launches the workers. Cancelling ctx does not stop them; use Stop.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return fmt.Errorf("queue is already running")
	}
	q.running = true
	q.tasks = make(chan Task, q.cfg.QueueSize)

	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	q.cancel = cancel
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go func(id int) {
			defer q.wg.Done()
			q.work(workerCtx, id, q.tasks)
		}(i + 1)
	}
	log.Info().Str("module", "jobs").Int("workers", q.cfg.Workers).Int("queue_size", q.cfg.QueueSize).Msg("queue started")
	return nil
}

// Stop closes intake and drains queued tasks until ctx expires.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	close(q.tasks)
	cancel := q.cancel
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		cancel()
		log.Info().Str("module", "jobs").Msg("queue drained")
		return nil
	case <-ctx.Done():
		cancel()
		log.Warn().Str("module", "jobs").Msg("timeout draining queue")
		return ctx.Err()
	}
}

func (q *Queue) IsRunning() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.running
}

// Enqueue never blocks. It reports false when the task was dropped.
func (q *Queue) Enqueue(t Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		q.dropped.Add(1)
		log.Warn().Str("module", "jobs").Str("task", t.Name).Err(ErrNotRunning).Msg("task dropped")
		return false
	}
	select {
	case q.tasks <- t:
		return true
	default:
		q.dropped.Add(1)
		log.Warn().Str("module", "jobs").Str("task", t.Name).Msg("queue full, task dropped")
		return false
	}
}

func (q *Queue) Stats() Stats {
	return Stats{
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Dropped:   q.dropped.Load(),
		Retried:   q.retried.Load(),
	}
}

func (q *Queue) work(ctx context.Context, id int, tasks <-chan Task) {
	for t := range tasks {
		q.process(ctx, id, t)
	}
}

func (q *Queue) process(ctx context.Context, id int, t Task) {
	var err error
	for attempt := 0; attempt <= q.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			q.retried.Add(1)
			select {
			case <-ctx.Done():
				q.failed.Add(1)
				log.Error().Str("module", "jobs").Int("worker", id).Str("task", t.Name).Err(ctx.Err()).Msg("task abandoned")
				return
			case <-time.After(q.backoff(attempt)):
			}
		}
		runCtx, cancel := context.WithTimeout(ctx, q.cfg.Timeout)
		err = t.Run(runCtx)
		cancel()
		if err == nil {
			q.processed.Add(1)
			return
		}
		log.Warn().Str("module", "jobs").Int("worker", id).Str("task", t.Name).Int("attempt", attempt+1).Err(err).Msg("task attempt failed")
	}
	q.failed.Add(1)
	log.Error().Str("module", "jobs").Int("worker", id).Str("task", t.Name).Err(err).Msg("task failed")
}

// backoff returns base*2^(attempt-1), capped at MaxRetryDelay.
func (q *Queue) backoff(attempt int) time.Duration {
	d := q.cfg.BaseRetryDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= q.cfg.MaxRetryDelay {
			return q.cfg.MaxRetryDelay
		}
	}
	return d
}
