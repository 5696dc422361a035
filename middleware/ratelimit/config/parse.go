package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"admission-gateway/middleware/ratelimit/domain"
)

// Parse valida a configuração bruta e monta domain.Limits.
// É pura e determinística; em caso de erro retorna *domain.ConfigError e nenhum modelo.
func Parse(raw Raw) (domain.Limits, error) {
	if len(raw.ServiceLimits) == 0 {
		return nil, configErr("serviceLimits", domain.ErrMissingField)
	}
	out := make(domain.Limits, len(raw.ServiceLimits))

	for i, rs := range raw.ServiceLimits {
		path := fmt.Sprintf("serviceLimits[%d]", i)

		name := strings.TrimSpace(rs.Service)
		if name == "" {
			return nil, configErr(path+".service", domain.ErrMissingField)
		}
		if _, dup := out[name]; dup {
			return nil, configErr(path+".service", fmt.Errorf("%w: service %q", domain.ErrDuplicate, name))
		}
		if len(rs.GlobalLimits) == 0 {
			return nil, configErr(path+".globalLimits", domain.ErrMissingField)
		}

		global, err := parseMethods(path+".globalLimits", rs.GlobalLimits)
		if err != nil {
			return nil, err
		}

		apis := make(map[string]map[string]domain.LimitSpec, len(rs.APILimits))
		for j, ra := range rs.APILimits {
			apiPath := fmt.Sprintf("%s.apiLimits[%d]", path, j)

			api := strings.TrimSpace(ra.API)
			if api == "" {
				return nil, configErr(apiPath+".api", domain.ErrMissingField)
			}
			if _, dup := apis[api]; dup {
				return nil, configErr(apiPath+".api", fmt.Errorf("%w: api %q", domain.ErrDuplicate, api))
			}
			if len(ra.Methods) == 0 {
				return nil, configErr(apiPath+".methods", domain.ErrMissingField)
			}
			methods, err := parseMethods(apiPath+".methods", ra.Methods)
			if err != nil {
				return nil, err
			}
			apis[api] = methods
		}

		out[name] = domain.ServiceLimits{Global: global, APIs: apis}
	}

	return out, nil
}

func parseMethods(path string, in map[string]RawLimit) (map[string]domain.LimitSpec, error) {
	out := make(map[string]domain.LimitSpec, len(in))
	// ordem fixa para que o erro reportado seja sempre o mesmo
	for _, method := range slices.Sorted(maps.Keys(in)) {
		rl := in[method]
		m := domain.NormalizeMethod(method)
		mPath := path + "." + method
		if m == "" {
			return nil, configErr(mPath, fmt.Errorf("%w: empty method name", domain.ErrMissingField))
		}
		if _, dup := out[m]; dup {
			return nil, configErr(mPath, fmt.Errorf("%w: method %q", domain.ErrDuplicate, m))
		}
		spec, err := parseLimit(mPath, rl)
		if err != nil {
			return nil, err
		}
		out[m] = spec
	}
	return out, nil
}

func parseLimit(path string, rl RawLimit) (domain.LimitSpec, error) {
	if rl.Limit == nil {
		return domain.LimitSpec{}, configErr(path+".limit", domain.ErrMissingField)
	}
	if *rl.Limit < 0 {
		return domain.LimitSpec{}, configErr(path+".limit", fmt.Errorf("%w: %d is negative", domain.ErrInvalidLimit, *rl.Limit))
	}
	g := rl.Granularity
	if g == "" {
		return domain.LimitSpec{}, configErr(path+".granularity", domain.ErrMissingField)
	}
	window, err := domain.ParseGranularity(g)
	if err != nil {
		return domain.LimitSpec{}, configErr(path+".granularity", err)
	}
	return domain.LimitSpec{Limit: *rl.Limit, Window: window}, nil
}

func configErr(path string, err error) error {
	return &domain.ConfigError{Path: path, Err: err}
}
