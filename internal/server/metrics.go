package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters exported on /metrics
type Metrics struct {
	ScansIngested *prometheus.CounterVec
	ScansDeleted  prometheus.Counter
	Requests      *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScansIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutriscan",
			Name:      "scans_ingested_total",
			Help:      "Scan records persisted, by producer source.",
		}, []string{"source"}),
		ScansDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nutriscan",
			Name:      "scans_deleted_total",
			Help:      "Scan records deleted by their owner.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutriscan",
			Name:      "http_requests_total",
			Help:      "API responses by route and status code.",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(m.ScansIngested, m.ScansDeleted, m.Requests)
	return m
}

func (m *Metrics) observeRequest(r *http.Request, status int) {
	route := r.URL.Path
	if cur := mux.CurrentRoute(r); cur != nil {
		if tpl, err := cur.GetPathTemplate(); err == nil {
			route = tpl
		}
	}
	m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
