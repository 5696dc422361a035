package application

import (
	"admission-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de admissão em duas camadas (global + API).
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Limits domain.Limits
	Hits   domain.HitStore
}

// resolved são os limites que se aplicam a uma chamada.
type resolved struct {
	global    domain.LimitSpec
	api       domain.LimitSpec
	hasAPILim bool
}

// resolve busca os limites da chamada. Nenhum log é tocado antes disso dar certo.
func (s Service) resolve(call domain.Call) (resolved, error) {
	svc, ok := s.Limits[call.Service]
	if !ok {
		return resolved{}, &domain.UnknownServiceError{Service: call.Service}
	}
	global, ok := svc.Global[call.Method]
	if !ok {
		return resolved{}, &domain.UnknownMethodError{Service: call.Service, Method: call.Method}
	}

	r := resolved{global: global}
	methods, ok := svc.APIs[call.API]
	if !ok {
		// API sem limites próprios: só a camada global se aplica.
		return r, nil
	}
	api, ok := methods[call.Method]
	if !ok {
		return resolved{}, &domain.UnknownMethodError{Service: call.Service, API: call.API, Method: call.Method}
	}
	r.api, r.hasAPILim = api, true
	return r, nil
}

// Decide avalia a chamada no instante now (ms desde a epoch). A chamada é normalizada
// como em domain.NewCall.
//
// As duas camadas são avaliadas e, só se ambas admitirem, now é anexado aos dois logs.
// Os logs podados são gravados mesmo na rejeição. Rejeição não é erro: erros são
// apenas chamada inválida ou escopo ausente da configuração.
func (s Service) Decide(call domain.Call, now int64) (domain.Decision, error) {
	call = domain.NewCall(call.Service, call.API, call.Method)
	if err := call.Validate(); err != nil {
		return domain.Decision{}, err
	}
	if s.Hits == nil {
		return domain.Decision{}, domain.ErrNoHitStore
	}
	lim, err := s.resolve(call)
	if err != nil {
		return domain.Decision{}, err
	}

	globalScope := domain.GlobalScope(call.Service, call.Method)
	apiScope := domain.APIScope(call.Service, call.API, call.Method)

	var dec domain.Decision
	s.Hits.Do(globalScope, now, func(tx domain.HitTx) {
		globalOK, globalLog := domain.Admits(tx.Hits(globalScope), lim.global, now)
		tx.Store(globalScope, globalLog)

		apiOK, apiLog := true, domain.HitLog(nil)
		if lim.hasAPILim {
			apiOK, apiLog = domain.Admits(tx.Hits(apiScope), lim.api, now)
			tx.Store(apiScope, apiLog)
		}

		if globalOK && apiOK {
			tx.Append(globalScope, now)
			// API sem limite próprio não ganha log: ninguém o poda.
			if lim.hasAPILim {
				tx.Append(apiScope, now)
			}
			dec = domain.Decision{Allowed: true}
			return
		}

		dec = domain.Decision{Allowed: false, Tier: domain.TierGlobal}
		if !apiOK {
			dec.Tier = domain.TierAPI
		}
		dec.RetryAfter = max(
			domain.RetryAfter(globalLog, lim.global, now),
			domain.RetryAfter(apiLog, lim.api, now),
		)
	})
	return dec, nil
}
