// internal/app/system/workers/periodic.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Periodic is a background worker that runs one job on a fixed interval.
type Periodic struct {
	name     string
	job      func(ctx context.Context)
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPeriodic creates a worker that calls job every interval. Each call gets
// a context bounded by timeout.
func NewPeriodic(name string, interval, timeout time.Duration, job func(ctx context.Context), logger *zap.Logger) *Periodic {
	return &Periodic{
		name:     name,
		job:      job,
		log:      logger,
		interval: interval,
		timeout:  timeout,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Periodic) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("worker started", zap.String("worker", w.name), zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. Calling Stop
// more than once is safe.
func (w *Periodic) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("worker stopped", zap.String("worker", w.name))
	})
}

func (w *Periodic) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *Periodic) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	w.job(ctx)
}
