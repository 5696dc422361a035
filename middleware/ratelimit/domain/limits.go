package domain

import (
	"fmt"
	"time"
)

// Granularidades reconhecidas na configuração.
const (
	GranularitySecond = "second"
	GranularityMinute = "minute"
)

// MaxWindow é a maior janela que uma configuração válida pode declarar.
// Usado pela limpeza de chaves ociosas (nenhum hit mais antigo que isso conta).
const MaxWindow = time.Minute

// ParseGranularity converte a granularidade textual na duração da janela.
// Valores desconhecidos falham: uma janela não reconhecida nunca vira "sem limite".
func ParseGranularity(g string) (time.Duration, error) {
	switch g {
	case GranularitySecond:
		return time.Second, nil
	case GranularityMinute:
		return time.Minute, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
}

// LimitSpec: no máximo Limit chamadas admitidas por janela móvel de Window.
type LimitSpec struct {
	Limit  int
	Window time.Duration
}

func (s LimitSpec) windowMillis() int64 { return s.Window.Milliseconds() }

// ServiceLimits guarda os limites de um serviço.
//
// Global é indexado pelo método HTTP; APIs por nome da API e depois pelo método.
// Uma API ausente em APIs não tem restrição própria além do limite global.
type ServiceLimits struct {
	Global map[string]LimitSpec
	APIs   map[string]map[string]LimitSpec
}

// Limits é o modelo de configuração: serviço -> limites. Somente leitura depois de montado.
type Limits map[string]ServiceLimits
