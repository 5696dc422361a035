package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	"admission-gateway/middleware/ratelimit/domain"

	"github.com/go-chi/chi/v5"
)

// CallFunc extrai (service, api, method) da requisição.
type CallFunc func(r *http.Request) (domain.Call, error)

// DefaultCallFunc usa o header callHeader ("service:api:method") quando presente;
// senão os dois primeiros segmentos do path (/service/api/...) e o método HTTP.
//
// O método do header precisa ser o mesmo da requisição.
func DefaultCallFunc(callHeader string) CallFunc {
	return func(r *http.Request) (domain.Call, error) {
		if c, ok, err := headerCall(r, callHeader); ok || err != nil {
			return c, err
		}

		path := strings.Trim(r.URL.Path, "/")
		parts := strings.SplitN(path, "/", 3)
		if len(parts) < 2 {
			return domain.Call{}, fmt.Errorf("%w: path %q: expected /service/api", domain.ErrInvalidCall, r.URL.Path)
		}
		c := domain.NewCall(parts[0], parts[1], r.Method)
		if err := c.Validate(); err != nil {
			return domain.Call{}, err
		}
		return c, nil
	}
}

// ChiCallFunc lê os parâmetros {service} e {api} da rota chi.
// O middleware precisa rodar depois do roteamento (r.With(...)), senão os parâmetros estão vazios.
func ChiCallFunc(r *http.Request) (domain.Call, error) {
	c := domain.NewCall(chi.URLParam(r, "service"), chi.URLParam(r, "api"), r.Method)
	if err := c.Validate(); err != nil {
		return domain.Call{}, err
	}
	return c, nil
}

// ChiHeaderCallFunc decide sempre pela rota chi. O header callHeader, se enviado,
// só confirma a chamada: divergir da rota ou do método é ErrInvalidCall.
func ChiHeaderCallFunc(callHeader string) CallFunc {
	return func(r *http.Request) (domain.Call, error) {
		route, err := ChiCallFunc(r)
		if err != nil {
			return domain.Call{}, err
		}
		c, ok, err := headerCall(r, callHeader)
		if err != nil || !ok {
			return route, err
		}
		if c != route {
			return domain.Call{}, fmt.Errorf("%w: %s %q does not match route %s",
				domain.ErrInvalidCall, callHeader, c.String(), route.String())
		}
		return route, nil
	}
}

// headerCall lê o header; ok=false quando ele não foi configurado ou enviado.
func headerCall(r *http.Request, callHeader string) (domain.Call, bool, error) {
	if callHeader == "" {
		return domain.Call{}, false, nil
	}
	v := strings.TrimSpace(r.Header.Get(callHeader))
	if v == "" {
		return domain.Call{}, false, nil
	}
	c, err := domain.ParseCall(v)
	if err != nil {
		return domain.Call{}, false, err
	}
	if m := domain.NormalizeMethod(r.Method); c.Method != m {
		return domain.Call{}, false, fmt.Errorf("%w: %s method %q does not match request method %q",
			domain.ErrInvalidCall, callHeader, c.Method, m)
	}
	return c, true, nil
}
