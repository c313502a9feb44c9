package database

import (
	"database/sql"
	"storefront/pkg/metrics"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PoolMonitor 定期把连接池状态写入指标，等待过多时告警
type PoolMonitor struct {
	db        *sql.DB
	collector *metrics.MetricsCollector
	log       *zap.Logger
	interval  time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
	lastWaits int64
}

func NewPoolMonitor(db *sql.DB, collector *metrics.MetricsCollector, log *zap.Logger, interval time.Duration) *PoolMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PoolMonitor{
		db:        db,
		collector: collector,
		log:       log,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

func (m *PoolMonitor) Start() {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.collect()
			case <-m.stopCh:
				return
			}
		}
	}()
}

func (m *PoolMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *PoolMonitor) collect() {
	stats := m.db.Stats()
	m.collector.UpdateDBConnections(stats.OpenConnections, stats.InUse)

	// 上个周期内出现连接等待
	if waits := stats.WaitCount - m.lastWaits; waits > 0 {
		m.log.Warn("database pool saturated",
			zap.Int64("waits", waits),
			zap.Int("open", stats.OpenConnections),
			zap.Int("in_use", stats.InUse),
			zap.Duration("wait_duration", stats.WaitDuration),
		)
	}
	m.lastWaits = stats.WaitCount
}
