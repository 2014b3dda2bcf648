package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/store"
)

const (
	rollupInterval = 6 * time.Hour
	rollupWindow   = 30 * 24 * time.Hour
)

// MetricsRollup periodically summarizes receive-side interaction counters
// per user, feeding the desirability calculator.
type MetricsRollup struct {
	store  *store.Store
	logger *logrus.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewMetricsRollup(st *store.Store, logger *logrus.Logger) *MetricsRollup {
	return &MetricsRollup{
		store:    st,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

func (m *MetricsRollup) Start() {
	m.wg.Add(1)
	go m.run()
	m.logger.Info("Metrics rollup started")
}

func (m *MetricsRollup) Stop() {
	close(m.stopChan)
	m.wg.Wait()
	m.logger.Info("Metrics rollup stopped")
}

func (m *MetricsRollup) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(rollupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.rollup()
		case <-m.stopChan:
			return
		}
	}
}

func (m *MetricsRollup) rollup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	rows, err := m.store.RollupMetrics(ctx, now.Add(-rollupWindow), now)
	if err != nil {
		m.logger.WithField("error", err).Error("Metrics rollup failed")
		return
	}
	m.logger.WithField("users", rows).Info("Metrics rollup complete")
}
