package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Worker is a background job owned by the WorkerManager
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// HealthReporter is implemented by workers that can judge their own health
type HealthReporter interface {
	Health() WorkerHealth
}

// WorkerHealth is one worker's entry in the health report
type WorkerHealth struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// WorkerManager starts workers in registration order and stops them in reverse
type WorkerManager struct {
	logger *zap.Logger

	mu      sync.RWMutex
	workers []Worker
	started []Worker
	cancel  context.CancelFunc
}

// NewWorkerManager creates an empty manager
func NewWorkerManager(logger *zap.Logger) *WorkerManager {
	return &WorkerManager{logger: logger}
}

// Register adds a worker. Workers registered while running are picked up by the next StartAll.
func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workers = append(m.workers, w)
	m.logger.Info("Worker registered",
		zap.String("worker_name", w.Name()),
		zap.Int("total_workers", len(m.workers)))
}

// StartAll starts every registered worker. A worker that fails to start is
// logged and left out of the running set; the call only fails when the
// manager is already running.
func (m *WorkerManager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return fmt.Errorf("workers already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.started = m.started[:0]

	m.logger.Info("Starting workers", zap.Int("count", len(m.workers)))
	for _, w := range m.workers {
		if err := w.Start(runCtx); err != nil {
			m.logger.Error("Failed to start worker",
				zap.String("worker_name", w.Name()),
				zap.Error(err))
			continue
		}
		m.started = append(m.started, w)
		m.logger.Info("Worker started", zap.String("worker_name", w.Name()))
	}

	return nil
}

// StopAll cancels the shared context, then stops started workers last-first
func (m *WorkerManager) StopAll() error {
	m.mu.Lock()
	cancel := m.cancel
	started := m.started
	m.cancel = nil
	m.started = nil
	m.mu.Unlock()

	if cancel == nil {
		m.logger.Warn("Workers not running, nothing to stop")
		return nil
	}

	m.logger.Info("Stopping workers", zap.Int("count", len(started)))
	cancel()

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		w := started[i]
		if err := w.Stop(); err != nil {
			m.logger.Error("Failed to stop worker",
				zap.String("worker_name", w.Name()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
			continue
		}
		m.logger.Info("Worker stopped", zap.String("worker_name", w.Name()))
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to stop %d workers: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// Health reports every registered worker. Workers without a HealthReporter
// are healthy while started.
func (m *WorkerManager) Health() []WorkerHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	running := make(map[Worker]bool, len(m.started))
	for _, w := range m.started {
		running[w] = true
	}

	out := make([]WorkerHealth, 0, len(m.workers))
	for _, w := range m.workers {
		if r, ok := w.(HealthReporter); ok {
			out = append(out, r.Health())
			continue
		}
		h := WorkerHealth{Name: w.Name(), Running: running[w], Healthy: running[w]}
		if !h.Running {
			h.Message = "not running"
		}
		out = append(out, h)
	}
	return out
}

// GetWorkerCount returns the number of registered workers
func (m *WorkerManager) GetWorkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workers)
}

// IsRunning reports whether StartAll has run without a matching StopAll
func (m *WorkerManager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cancel != nil
}
