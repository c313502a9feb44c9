package database

import (
	"storefront/pkg/metrics"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPoolMonitor_Collect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := NewPoolMonitor(db, metrics.NewMetricsCollector(prometheus.NewRegistry()), zap.NewNop(), 0)
	assert.NotPanics(t, m.collect)
	assert.Equal(t, int64(0), m.lastWaits)

	m.Start()
	m.Stop()
	m.Stop()
}
