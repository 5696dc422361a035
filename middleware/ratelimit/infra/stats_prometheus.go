package infra

import (
	"context"

	"admission-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore expõe as decisões como contador Prometheus.
//
// Labels: service, api, method, outcome (allowed|denied_global|denied_api).
// O label api vem da configuração de quem chama; com nomes livres a cardinalidade cresce.
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
}

func NewPrometheusStatsStore(reg prometheus.Registerer) (*PrometheusStatsStore, error) {
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "admission",
		Name:      "decisions_total",
		Help:      "Admission decisions by service, api, method and outcome.",
	}, []string{"service", "api", "method", "outcome"})

	if reg != nil {
		if err := reg.Register(decisions); err != nil {
			return nil, err
		}
	}
	return &PrometheusStatsStore{decisions: decisions}, nil
}

func outcome(ev domain.StatsEvent) string {
	switch {
	case ev.Allowed:
		return "allowed"
	case ev.Tier == domain.TierAPI:
		return "denied_api"
	default:
		return "denied_global"
	}
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.decisions.WithLabelValues(ev.Call.Service, ev.Call.API, ev.Call.Method, outcome(ev)).Inc()
	return nil
}

// Counter retorna o contador de uma combinação de labels (útil em testes).
func (s *PrometheusStatsStore) Counter(call domain.Call, outcome string) prometheus.Counter {
	return s.decisions.WithLabelValues(call.Service, call.API, call.Method, outcome)
}
