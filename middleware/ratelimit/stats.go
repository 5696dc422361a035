package ratelimit

import (
	"context"
	"time"

	"admission-gateway/middleware/ratelimit/domain"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// statsRecorder grava estatísticas em modo best-effort.
// Falhas (ex.: Redis fora) são logadas no máximo uma vez por intervalo.
type statsRecorder struct {
	stats  domain.StatsStore
	log    *zap.Logger
	errLog *rate.Sometimes
}

func newStatsRecorder(stats domain.StatsStore, log *zap.Logger) *statsRecorder {
	return &statsRecorder{
		stats:  stats,
		log:    log,
		errLog: &rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
}

func (s *statsRecorder) record(ctx context.Context, call domain.Call, dec domain.Decision, at time.Time) {
	if s.stats == nil {
		return
	}
	err := s.stats.Record(ctx, domain.StatsEvent{
		Call:    call,
		Allowed: dec.Allowed,
		Tier:    dec.Tier,
		At:      at,
	})
	if err != nil {
		s.errLog.Do(func() {
			s.log.Warn("failed to record admission stats", zap.Error(err))
		})
	}
}

func callFields(call domain.Call) []zap.Field {
	return []zap.Field{
		zap.String("service", call.Service),
		zap.String("api", call.API),
		zap.String("method", call.Method),
	}
}
