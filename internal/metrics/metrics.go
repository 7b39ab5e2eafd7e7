package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionEvents counts state mutations by kind as they flow down the
	// re-render path.
	SessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_session_events_total",
		Help: "Session state mutations, labelled by event kind.",
	}, []string{"kind"})

	// WSClients tracks how many presentation clients are connected to the
	// render stream.
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "huddle_ws_clients",
		Help: "Connected websocket render-stream clients.",
	})
)

func ObserveEvent(kind string) {
	SessionEvents.WithLabelValues(kind).Inc()
}
