package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the dialogue engine.
type Metrics struct {
	registry *prometheus.Registry

	SessionsOpened prometheus.Counter
	SessionsClosed prometheus.Counter
	Transitions    *prometheus.CounterVec
	Fallbacks      *prometheus.CounterVec
	SessionTurns   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coach_sessions_opened_total",
			Help: "Total number of sessions opened (including re-opens).",
		}),
		SessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coach_sessions_closed_total",
			Help: "Total number of sessions closed.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_transitions_total",
			Help: "Total number of option selections, by resolved state.",
		}, []string{"state"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_fallbacks_total",
			Help: "Selections whose target is missing from the response table.",
		}, []string{"requested"}),
		SessionTurns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coach_session_turns",
			Help:    "Transcript length of sessions at close.",
			Buckets: []float64{1, 3, 5, 9, 15, 25, 51},
		}),
	}
	m.registry.MustRegister(m.SessionsOpened, m.SessionsClosed, m.Transitions, m.Fallbacks, m.SessionTurns)
	return m
}

// Registry exposes the registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOpen: func(_ context.Context, _ *domain.SessionEvent) {
			m.SessionsOpened.Inc()
		},
		OnClose: func(_ context.Context, e *domain.SessionEvent) {
			m.SessionsClosed.Inc()
			m.SessionTurns.Observe(float64(e.Turns))
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(e.Resolved).Inc()
		},
		OnFallback: func(_ context.Context, e *domain.TransitionEvent) {
			m.Fallbacks.WithLabelValues(e.Requested).Inc()
		},
	}
}
