package exec

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/coregx/qbuild/internal/logger"
)

const pingTimeout = 5 * time.Second

// healthChecker pings the pool on an interval and remembers the last result.
type healthChecker struct {
	db       *sql.DB
	logger   logger.Logger
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu       sync.RWMutex
	lastErr  error
	lastPing time.Time
}

func newHealthChecker(db *sql.DB, log logger.Logger, interval time.Duration) *healthChecker {
	return &healthChecker{
		db:       db,
		logger:   log,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (h *healthChecker) start() {
	h.wg.Add(1)
	go h.run()
}

func (h *healthChecker) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.ping()
		case <-h.stop:
			return
		}
	}
}

func (h *healthChecker) ping() {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	err := h.db.PingContext(ctx)

	h.mu.Lock()
	h.lastErr = errors.Wrap(err, "health check")
	h.lastPing = time.Now()
	h.mu.Unlock()

	if err != nil {
		h.logger.Warn("database health check failed", "error", err, "interval", h.interval)
		return
	}
	h.logger.Debug("database health check passed", "interval", h.interval)
}

// shutdown stops the loop and waits for it. Later calls are no-ops.
func (h *healthChecker) shutdown() {
	h.stopOnce.Do(func() { close(h.stop) })
	h.wg.Wait()
}

func (h *healthChecker) status() (time.Time, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastPing, h.lastErr
}

// WithHealthCheck pings the pool every interval in the background until
// Close. A non-positive interval disables it.
func WithHealthCheck(interval time.Duration) Option {
	return func(r *Runner) {
		r.healthInterval = interval
	}
}

// Health returns the time and result of the last background ping. Without
// WithHealthCheck, or before the first tick, the time is zero.
func (r *Runner) Health() (time.Time, error) {
	if r.health == nil {
		return time.Time{}, nil
	}
	return r.health.status()
}

// Healthy reports whether the last background ping succeeded.
func (r *Runner) Healthy() bool {
	_, err := r.Health()
	return err == nil
}
