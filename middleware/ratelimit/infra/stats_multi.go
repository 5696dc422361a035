package infra

import (
	"context"
	"errors"

	"admission-gateway/middleware/ratelimit/domain"
)

// MultiStats repassa cada evento para todos os stores; os erros são agregados.
type MultiStats []domain.StatsStore

func (m MultiStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JoinStats monta um MultiStats ignorando nils; com um único store devolve ele mesmo.
func JoinStats(stores ...domain.StatsStore) domain.StatsStore {
	var out MultiStats
	for _, s := range stores {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}
