// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlineConnections prometheus.Gauge
	ActiveRooms       prometheus.Gauge
	MessagesReceived  prometheus.Counter
	MessagesDropped   *prometheus.CounterVec
	CommandsHandled   *prometheus.CounterVec
	TickLatency       prometheus.Histogram
	PhaseEntries      *prometheus.CounterVec
	Eliminations      *prometheus.CounterVec
	GamesOver         *prometheus.CounterVec
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlineConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_connections",
			Help:      "Number of open websocket connections",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of active rooms",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}),
		MessagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Inbound messages dropped before reaching a room",
		}, []string{"reason"}),
		CommandsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_handled_total",
			Help:      "Commands applied by rooms",
		}, []string{"kind"}),
		TickLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_latency_seconds",
			Help:      "Room tick processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		PhaseEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_entries_total",
			Help:      "Phases entered across all rooms",
		}, []string{"phase"}),
		Eliminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eliminations_total",
			Help:      "Participants turned Ascended",
		}, []string{"cause"}),
		GamesOver: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_over_total",
			Help:      "Finished games",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.OnlineConnections,
		m.ActiveRooms,
		m.MessagesReceived,
		m.MessagesDropped,
		m.CommandsHandled,
		m.TickLatency,
		m.PhaseEntries,
		m.Eliminations,
		m.GamesOver,
	)

	return m
}

// Monitor owns a registry and exposes it; it also satisfies room.Metrics.
type Monitor struct {
	metrics      *Metrics
	registry     *prometheus.Registry
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

var publishOnce sync.Once

func NewMonitor(namespace string) *Monitor {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Monitor{
		metrics:   NewMetrics(namespace, reg),
		registry:  reg,
		startTime: time.Now(),
	}

	// expvar names are process-global.
	publishOnce.Do(func() {
		expvar.Publish("uptime", expvar.Func(func() interface{} {
			return time.Since(m.startTime).Seconds()
		}))
		expvar.Publish("requests", expvar.Func(func() interface{} {
			return m.Requests()
		}))
	})
	return m
}

func (m *Monitor) Metrics() *Metrics { return m.metrics }

func (m *Monitor) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StartServer serves /metrics and /debug/vars on a separate address.
func (m *Monitor) StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/debug/vars", expvar.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go srv.ListenAndServe()
	return srv
}

func (m *Monitor) IncConnections() {
	m.metrics.OnlineConnections.Inc()
}

func (m *Monitor) DecConnections() {
	m.metrics.OnlineConnections.Dec()
}

func (m *Monitor) IncMessagesReceived() {
	m.metrics.MessagesReceived.Inc()
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) MessageDropped(reason string) {
	m.metrics.MessagesDropped.WithLabelValues(reason).Inc()
}

func (m *Monitor) Requests() int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.requestCount
}

// room.Metrics

func (m *Monitor) RoomOpened() {
	m.metrics.ActiveRooms.Inc()
}

func (m *Monitor) RoomClosed() {
	m.metrics.ActiveRooms.Dec()
}

func (m *Monitor) CommandHandled(kind string) {
	m.metrics.CommandsHandled.WithLabelValues(kind).Inc()
}

func (m *Monitor) TickObserved(d time.Duration) {
	m.metrics.TickLatency.Observe(d.Seconds())
}

func (m *Monitor) PhaseEntered(phase string) {
	m.metrics.PhaseEntries.WithLabelValues(phase).Inc()
}

func (m *Monitor) Eliminated(cause string) {
	m.metrics.Eliminations.WithLabelValues(cause).Inc()
}

func (m *Monitor) GameOver(reason string) {
	m.metrics.GamesOver.WithLabelValues(reason).Inc()
}
