package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the application.
type Metrics struct {
	AdminsCreated     prometheus.Counter
	ClientsCreated    prometheus.Counter
	PermissionDenials *prometheus.CounterVec
	SaveConflicts     prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AdminsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_admins_created_total",
			Help: "Total number of administrators created",
		}),
		ClientsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_clients_created_total",
			Help: "Total number of clients created",
		}),
		PermissionDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_permission_denials_total",
			Help: "Authorization failures by required permission",
		}, []string{"permission"}),
		SaveConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_save_conflicts_total",
			Help: "Optimistic concurrency conflicts detected at save",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custodia_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) IncrementAdminsCreated() {
	if m != nil {
		m.AdminsCreated.Inc()
	}
}

func (m *Metrics) IncrementClientsCreated() {
	if m != nil {
		m.ClientsCreated.Inc()
	}
}

func (m *Metrics) IncrementPermissionDenial(permission string) {
	if m != nil {
		m.PermissionDenials.WithLabelValues(permission).Inc()
	}
}

func (m *Metrics) IncrementSaveConflicts() {
	if m != nil {
		m.SaveConflicts.Inc()
	}
}

func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
	}
}
