package domain

// Camada de domínio do controle de admissão.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Call identifica uma chamada: serviço, API e método HTTP.
type Call struct {
	Service string
	API     string
	Method  string
}

// ParseCall aceita o identificador no formato "service:api:method".
// Os três campos são obrigatórios; o método é normalizado para maiúsculas.
func ParseCall(endpoint string) (Call, error) {
	parts := strings.Split(endpoint, ":")
	if len(parts) != 3 {
		return Call{}, fmt.Errorf("%w: %q: expected service:api:method", ErrInvalidCall, endpoint)
	}
	c := NewCall(parts[0], parts[1], parts[2])
	if err := c.Validate(); err != nil {
		return Call{}, err
	}
	return c, nil
}

// NewCall monta uma Call normalizada (espaços removidos, método em maiúsculas).
func NewCall(service, api, method string) Call {
	return Call{
		Service: strings.TrimSpace(service),
		API:     strings.TrimSpace(api),
		Method:  NormalizeMethod(method),
	}
}

// NormalizeMethod padroniza o nome do método HTTP.
func NormalizeMethod(m string) string { return strings.ToUpper(strings.TrimSpace(m)) }

func (c Call) Validate() error {
	switch {
	case c.Service == "":
		return fmt.Errorf("%w: empty service", ErrInvalidCall)
	case c.API == "":
		return fmt.Errorf("%w: empty api", ErrInvalidCall)
	case c.Method == "":
		return fmt.Errorf("%w: empty method", ErrInvalidCall)
	case strings.Contains(c.Service, ":") || strings.Contains(c.API, ":") || strings.Contains(c.Method, ":"):
		return fmt.Errorf("%w: field contains ':'", ErrInvalidCall)
	}
	return nil
}

func (c Call) String() string { return c.Service + ":" + c.API + ":" + c.Method }

// Scope é a chave de um bucket de limite.
//
// API vazia representa o escopo global (service, method); caso contrário é o
// escopo (service, api, method). Call.Validate garante que API nunca é vazia numa chamada.
type Scope struct {
	Service string
	API     string
	Method  string
}

func GlobalScope(service, method string) Scope {
	return Scope{Service: service, Method: method}
}

func APIScope(service, api, method string) Scope {
	return Scope{Service: service, API: api, Method: method}
}

func (s Scope) IsGlobal() bool { return s.API == "" }

// Global retorna o escopo global que contém s.
func (s Scope) Global() Scope { return GlobalScope(s.Service, s.Method) }

func (s Scope) String() string {
	if s.IsGlobal() {
		return s.Service + ":*:" + s.Method
	}
	return s.Service + ":" + s.API + ":" + s.Method
}

// Tier indica qual camada de limite decidiu a rejeição.
type Tier string

const (
	TierNone   Tier = ""
	TierGlobal Tier = "global"
	TierAPI    Tier = "api"
)

type Decision struct {
	Allowed bool
	// Tier é a camada que bloqueou. Se as duas bloquearem, vale a mais específica (API).
	Tier Tier
	// RetryAfter é o tempo até a janela voltar a admitir, se nenhuma outra chamada ocorrer.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// Dispatcher é o colaborador que executa a chamada depois de admitida.
type Dispatcher interface {
	Dispatch(ctx context.Context, call Call) error
}

type DispatcherFunc func(ctx context.Context, call Call) error

func (f DispatcherFunc) Dispatch(ctx context.Context, call Call) error { return f(ctx, call) }
