package db

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolCollector exports the connection pool counters on /metrics:
// in-use connections, waits on an exhausted pool, acquisition timeouts and
// discarded connections. pgxpool maintains these atomically.
type PoolCollector struct {
	pool *pgxpool.Pool

	inUse     *prometheus.Desc
	waits     *prometheus.Desc
	timeouts  *prometheus.Desc
	discarded *prometheus.Desc
}

// NewPoolCollector builds a Prometheus collector over pool.Stat().
func NewPoolCollector(pool *pgxpool.Pool) *PoolCollector {
	return &PoolCollector{
		pool: pool,
		inUse: prometheus.NewDesc("skillboard_db_pool_in_use",
			"Connections currently held by requests.", nil, nil),
		waits: prometheus.NewDesc("skillboard_db_pool_waits_total",
			"Acquisitions that had to wait for a free pool slot.", nil, nil),
		timeouts: prometheus.NewDesc("skillboard_db_pool_timeouts_total",
			"Acquisitions cancelled before a slot became free.", nil, nil),
		discarded: prometheus.NewDesc("skillboard_db_pool_discarded_total",
			"Connections destroyed for exceeding max lifetime or idle time.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inUse
	ch <- c.waits
	ch <- c.timeouts
	ch <- c.discarded
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue,
		float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.waits, prometheus.CounterValue,
		float64(stat.EmptyAcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue,
		float64(stat.CanceledAcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.discarded, prometheus.CounterValue,
		float64(stat.MaxLifetimeDestroyCount()+stat.MaxIdleDestroyCount()))
}
