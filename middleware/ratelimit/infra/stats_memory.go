package infra

import (
	"context"
	"sync"

	"admission-gateway/middleware/ratelimit/domain"
)

type Counters struct {
	Allowed int64
	Denied  int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu        sync.Mutex
	total     Counters
	byService map[string]Counters
	byTier    map[domain.Tier]int64
	byCall    map[string]Counters

	trackCalls bool
}

type MemoryStatsOption func(*MemoryStatsStore)

// WithTrackCalls liga contadores por chamada (service:api:method).
// A cardinalidade cresce com os nomes de API vistos.
func WithTrackCalls(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackCalls = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byService: make(map[string]Counters),
		byTier:    make(map[domain.Tier]int64),
		byCall:    make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bump := func(c Counters) Counters {
		if ev.Allowed {
			c.Allowed++
		} else {
			c.Denied++
		}
		return c
	}

	s.total = bump(s.total)
	s.byService[ev.Call.Service] = bump(s.byService[ev.Call.Service])
	if !ev.Allowed {
		s.byTier[ev.Tier]++
	}
	if s.trackCalls {
		k := ev.Call.String()
		s.byCall[k] = bump(s.byCall[k])
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByService() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byService))
	for k, v := range s.byService {
		out[k] = v
	}
	return out
}

// DeniedByTier conta as rejeições por camada (global/api).
func (s *MemoryStatsStore) DeniedByTier() map[domain.Tier]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Tier]int64, len(s.byTier))
	for k, v := range s.byTier {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByCall() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byCall))
	for k, v := range s.byCall {
		out[k] = v
	}
	return out
}
