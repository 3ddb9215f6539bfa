package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-sync/internal/types"
)

// Update results recorded on argo_sync_updates_total.
const (
	resultApplied = "applied"
	resultStale   = "stale"
	resultIgnored = "ignored"
	resultInvalid = "invalid"
)

type metrics struct {
	updates         *prometheus.CounterVec
	fetchFailures   *prometheus.CounterVec
	reconnects      prometheus.Counter
	connectionState *prometheus.GaugeVec
	watchdogFires   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "argo_sync_updates_total",
				Help: "Updates received by the sync client, by resource, source and result.",
			},
			[]string{"resource", "source", "result"},
		),
		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "argo_sync_fetch_failures_total",
				Help: "Failed snapshot fetches, by resource.",
			},
			[]string{"resource"},
		),
		reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "argo_sync_reconnects_total",
				Help: "Push channel reconnection attempts.",
			},
		),
		connectionState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "argo_sync_connection_state",
				Help: "1 for the current push channel connection state, 0 otherwise.",
			},
			[]string{"state"},
		),
		watchdogFires: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "argo_sync_watchdog_fires_total",
				Help: "Times the staleness watchdog flagged the feed as degraded.",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.updates, m.fetchFailures, m.reconnects, m.connectionState, m.watchdogFires} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	m.setConnectionState(types.ConnectionDisconnected)

	return m, nil
}

func (m *metrics) update(kind types.ResourceKind, source types.UpdateSource, result string) {
	m.updates.WithLabelValues(string(kind), string(source), result).Inc()
}

func (m *metrics) fetchFailed(kind types.ResourceKind) {
	m.fetchFailures.WithLabelValues(string(kind)).Inc()
}

func (m *metrics) setConnectionState(state types.ConnectionState) {
	for _, s := range types.AllConnectionStates {
		value := 0.0
		if s == state {
			value = 1
		}

		m.connectionState.WithLabelValues(string(s)).Set(value)
	}
}
