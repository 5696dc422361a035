package domain

import (
	"context"
	"time"
)

// StatsEvent representa um evento de decisão do controle de admissão.
//
// Observação: cuidado com cardinalidade (ex.: nomes de API vindos do cliente podem
// explodir o número de séries/chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Call    Call
	Allowed bool
	Tier    Tier

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de decisão.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// Quem chama deve tratar erro como best-effort (não muda a decisão).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
