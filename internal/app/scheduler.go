package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/metrics"
)

// Sweeper удаляет простаивающие диалоги и возвращает их число
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	states   Sweeper
	maxIdle  time.Duration
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewScheduler создаёт планировщик очистки состояний диалогов
func NewScheduler(states Sweeper, maxIdle time.Duration, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	interval := maxIdle / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &Scheduler{
		states:   states,
		maxIdle:  maxIdle,
		interval: interval,
		metrics:  m,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("state_ttl", s.maxIdle))
	go s.runSweepTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

func (s *Scheduler) runSweepTask(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			s.logger.Info("State sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("State sweep task cancelled")
			return
		}
	}
}

// sweep удаляет диалоги без активности дольше maxIdle
func (s *Scheduler) sweep() int {
	removed := s.states.Sweep(s.maxIdle)
	s.metrics.ObserveSwept(removed)
	if removed > 0 {
		s.logger.Info("Expired idle conversations", zap.Int("removed", removed))
	}
	return removed
}
