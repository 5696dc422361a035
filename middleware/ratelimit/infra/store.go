package infra

import (
	"sync"
	"time"

	"admission-gateway/middleware/ratelimit/domain"
)

// Store é a implementação em memória de domain.HitStore: logs de hits por escopo,
// agrupados pelo escopo global (service, method), com limpeza periódica de chaves ociosas.
type Store struct {
	mu           sync.Mutex
	entries      map[domain.Scope]*storeEntry
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

// storeEntry guarda o log global e os logs das APIs aninhadas.
// O mutex da entrada serializa as decisões desse escopo global.
type storeEntry struct {
	mu       sync.Mutex
	logs     map[domain.Scope]domain.HitLog
	lastSeen int64 // ms, instante da última decisão
	removed  bool
}

type StoreOption func(*Store)

// WithIdleTTL define depois de quanto tempo sem decisões um escopo é esquecido.
// Valores abaixo de domain.MaxWindow são elevados a ele: um escopo removido
// nunca pode ter hits ainda dentro da janela.
func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) { s.cleanupEvery = d }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entries:      make(map[domain.Scope]*storeEntry),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idleTTL < domain.MaxWindow {
		s.idleTTL = domain.MaxWindow
	}
	return s
}

func (s *Store) IdleTTL() time.Duration      { return s.idleTTL }
func (s *Store) CleanupEvery() time.Duration { return s.cleanupEvery }

// Do implementa domain.HitStore.
func (s *Store) Do(root domain.Scope, now int64, fn func(tx domain.HitTx)) {
	root = root.Global()
	for {
		ent := s.entry(root)

		ent.mu.Lock()
		if ent.removed {
			// a limpeza removeu a entrada entre o lookup e o lock; pega a nova.
			ent.mu.Unlock()
			continue
		}
		if now > ent.lastSeen {
			ent.lastSeen = now
		}
		fn(entryTx{ent})
		ent.mu.Unlock()
		return
	}
}

func (s *Store) entry(root domain.Scope) *storeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[root]; ok {
		return ent
	}
	ent := &storeEntry{logs: make(map[domain.Scope]domain.HitLog)}
	s.entries[root] = ent
	return ent
}

// Snapshot devolve uma cópia do log de um escopo, sem criar a chave.
func (s *Store) Snapshot(scope domain.Scope) (domain.HitLog, bool) {
	s.mu.Lock()
	ent, ok := s.entries[scope.Global()]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()
	log, ok := ent.logs[scope]
	if !ok {
		return nil, false
	}
	return append(domain.HitLog(nil), log...), true
}

// Len retorna quantos escopos globais estão registrados.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove os escopos globais (e suas APIs) sem decisões há mais de idleTTL.
// Retorna quantos foram removidos.
func (s *Store) Cleanup(now time.Time) int {
	cutoff := now.Add(-s.idleTTL).UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, ent := range s.entries {
		// TryLock: uma entrada em uso não está ociosa.
		if !ent.mu.TryLock() {
			continue
		}
		if ent.lastSeen <= cutoff {
			ent.removed = true
			delete(s.entries, k)
			removed++
		}
		ent.mu.Unlock()
	}
	return removed
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *Store) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				s.Cleanup(now)
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
// (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}

type entryTx struct {
	ent *storeEntry
}

func (tx entryTx) Hits(scope domain.Scope) domain.HitLog {
	log, ok := tx.ent.logs[scope]
	if !ok {
		log = domain.HitLog{}
		tx.ent.logs[scope] = log
	}
	return log
}

func (tx entryTx) Store(scope domain.Scope, log domain.HitLog) {
	tx.ent.logs[scope] = log
}

func (tx entryTx) Append(scope domain.Scope, at int64) {
	tx.ent.logs[scope] = append(tx.ent.logs[scope], at)
}
