package domain

import "time"

// HitLog é o histórico de hits de um escopo, em milissegundos desde a epoch.
// Sempre em ordem não decrescente: hits novos são anexados com o instante da chamada.
type HitLog []int64

// Trim descarta os hits expirados (ts <= now - window).
//
// A varredura para no primeiro hit ainda dentro da janela: como o log é ordenado,
// nada depois dele pode estar expirado.
func (l HitLog) Trim(now int64, window time.Duration) HitLog {
	cutoff := now - window.Milliseconds()
	idx := 0
	for _, hit := range l {
		if hit > cutoff {
			break
		}
		idx++
	}
	return l[idx:]
}

// Admits decide se mais um hit cabe na janela e devolve o log já podado.
//
// Regra: admitido se len(podado) <= Limit. Ou seja, a janela pode conter Limit hits
// anteriores e ainda admitir mais um. O log podado deve ser gravado de volta
// independentemente do resultado.
func Admits(log HitLog, spec LimitSpec, now int64) (bool, HitLog) {
	trimmed := log.Trim(now, spec.Window)
	return len(trimmed) <= spec.Limit, trimmed
}

// RetryAfter calcula quanto falta para o escopo voltar a admitir,
// considerando um log já podado em now. Retorna 0 se já admite.
func RetryAfter(trimmed HitLog, spec LimitSpec, now int64) time.Duration {
	excess := len(trimmed) - spec.Limit
	if excess <= 0 {
		return 0
	}
	// precisam expirar `excess` hits; o último deles é trimmed[excess-1],
	// que expira quando now' - window >= ts.
	at := trimmed[excess-1] + spec.windowMillis()
	if at <= now {
		return 0
	}
	return time.Duration(at-now) * time.Millisecond
}

// HitTx dá acesso aos logs de um escopo global e das APIs dentro dele,
// enquanto o lock desse escopo está seguro.
type HitTx interface {
	// Hits retorna o log do escopo, criando (e registrando) um log vazio se não existir.
	Hits(scope Scope) HitLog
	// Store grava de volta um log podado.
	Store(scope Scope, log HitLog)
	// Append anexa um hit no fim do log, sem reordenar.
	Append(scope Scope, at int64)
}

// HitStore guarda os logs por escopo.
//
// Do executa fn com exclusão mútua sobre o escopo global root. Toda decisão toca
// exatamente um escopo global e escopos de API aninhados nele, então travar o
// global serializa todas as decisões que compartilham alguma chave.
type HitStore interface {
	Do(root Scope, now int64, fn func(tx HitTx))
}
