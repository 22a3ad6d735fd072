package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas Prometheus del flujo de auth. Paquete standalone para evitar
// ciclos de import entre los adapters y la capa HTTP.

var (
	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Intentos de login por plataforma y resultado",
	}, []string{"platform", "outcome"})

	StateFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_state_failures_total",
		Help: "States rechazados (ausentes, consumidos o vencidos) por plataforma",
	}, []string{"platform"})

	SessionValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_session_validations_total",
		Help: "Verificaciones de sesión por resultado (valid|invalid|error)",
	}, []string{"outcome"})

	RelayResultsStored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_relay_results_stored_total",
		Help: "Resultados de login depositados en el relay cross-window",
	})

	RelayPollsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_relay_polls_total",
		Help: "Polls al relay por resultado (completed|pending)",
	}, []string{"outcome"})

	ProviderLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auth_provider_latency_ms",
		Help:    "Latencia del round-trip completo de Authenticate en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"platform"})
)

// RegisterAuth registers the auth metrics on the given registry (or default if nil).
func RegisterAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cs := []prometheus.Collector{
		LoginsTotal,
		StateFailuresTotal,
		SessionValidationsTotal,
		RelayResultsStored,
		RelayPollsTotal,
		ProviderLatency,
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
