package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/store"
)

// Generator runs one generation attempt for an article. The pipeline runner
// satisfies it in production.
type Generator interface {
	Generate(ctx context.Context, articleID int64) (store.ClaimOutcome, error)
}

// Daemon owns the worker pool and the single-instance lock.
type Daemon struct {
	cfg       *config.Config
	store     *store.Store
	logger    *slog.Logger
	generator Generator

	lockPath string
	lock     *flock.Flock

	pollInterval  time.Duration
	errorInterval time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status reports daemon runtime information for the CLI.
type Status struct {
	Running      bool
	Queue        store.HealthSummary
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, generator Generator) (*Daemon, error) {
	if cfg == nil || st == nil || generator == nil {
		return nil, errors.New("daemon requires config, store, and generator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.DataDir, "scribed.lock")
	return &Daemon{
		cfg:           cfg,
		store:         st,
		logger:        logging.NewComponentLogger(logger, "daemon"),
		generator:     generator,
		lockPath:      lockPath,
		lock:          flock.New(lockPath),
		pollInterval:  secondsOrDefault(cfg.Workflow.QueuePollInterval, 1),
		errorInterval: secondsOrDefault(cfg.Workflow.ErrorRetryInterval, 1),
	}, nil
}

func secondsOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

// Start acquires the instance lock, requeues interrupted work, and launches
// the worker pool. It returns once the workers are running.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		return errors.New("another scribe daemon already holds the lock")
	}

	requeued, err := d.store.ResetStuckInProgress(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("requeue interrupted articles: %w", err)
	}
	if requeued > 0 {
		d.logger.Info("requeued interrupted articles", logging.Int64("count", requeued))
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	workers := d.cfg.Workflow.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(runCtx, i)
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.Int("workers", workers),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop cancels the workers, waits for in-flight attempts to finish, and
// releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release instance lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status summarizes runtime state for operator commands.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	health, err := d.store.Health(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Running:      d.running.Load(),
		Queue:        health,
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}, nil
}

// worker polls the queue and runs one attempt at a time. TryClaim inside the
// generator resolves races between workers picking up the same head item.
func (d *Daemon) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	logger := d.logger.With(logging.Int("worker", id))

	for {
		if ctx.Err() != nil {
			return
		}
		article, err := d.store.NextQueued(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("poll queue", logging.Error(err))
			if !sleepCtx(ctx, d.errorInterval) {
				return
			}
			continue
		}
		if article == nil {
			if !sleepCtx(ctx, d.pollInterval) {
				return
			}
			continue
		}

		outcome, err := d.generator.Generate(ctx, article.ID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			logger.Error("generation attempt failed",
				logging.Int64(logging.FieldArticleID, article.ID),
				logging.Error(err))
			if !sleepCtx(ctx, d.errorInterval) {
				return
			}
		case outcome != store.Claimed:
			// Another worker raced us to the claim; look for other work.
			if !sleepCtx(ctx, d.pollInterval) {
				return
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
