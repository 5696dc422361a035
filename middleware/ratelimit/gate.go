package ratelimit

import (
	"context"
	"time"

	"admission-gateway/middleware/ratelimit/application"
	"admission-gateway/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

type GateOptions struct {
	Service application.Service
	// Next é chamado apenas para chamadas admitidas. Pode ser nil.
	Next   domain.Dispatcher
	Stats  domain.StatsStore
	Logger *zap.Logger
	Now    func() time.Time
}

// Gate envolve um despachante de chamadas (sem HTTP) com o controle de admissão.
type Gate struct {
	svc  application.Service
	next domain.Dispatcher
	rec  *statsRecorder
	log  *zap.Logger
	now  func() time.Time
}

func NewGate(opts GateOptions) *Gate {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gate{
		svc:  opts.Service,
		next: opts.Next,
		rec:  newStatsRecorder(opts.Stats, opts.Logger),
		log:  opts.Logger,
		now:  opts.Now,
	}
}

// MakeRequest recebe o identificador "service:api:method".
//
// Retorna (false, nil) quando a chamada é limitada: isso não é uma falha.
// Erros são identificador inválido, escopo desconhecido ou o erro do próprio Next.
func (g *Gate) MakeRequest(ctx context.Context, endpoint string) (bool, error) {
	call, err := domain.ParseCall(endpoint)
	if err != nil {
		return false, err
	}
	return g.Request(ctx, call)
}

// Request é a variante estruturada de MakeRequest.
func (g *Gate) Request(ctx context.Context, call domain.Call) (bool, error) {
	at := g.now()
	dec, err := g.svc.Decide(call, at.UnixMilli())
	if err != nil {
		return false, err
	}
	g.rec.record(ctx, call, dec, at)

	if !dec.Allowed {
		g.log.Info("Rate Limited, call not allowed",
			append(callFields(call), zap.String("tier", string(dec.Tier)), zap.Duration("retry_after", dec.RetryAfter))...)
		return false, nil
	}

	g.log.Debug("Call allowed", callFields(call)...)
	if g.next == nil {
		return true, nil
	}
	return true, g.next.Dispatch(ctx, call)
}
