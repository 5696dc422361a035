package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig agrupa qualquer falha de configuração (ver ConfigError).
	ErrConfig             = errors.New("invalid rate limit config")
	ErrMissingField       = errors.New("missing required field")
	ErrInvalidLimit       = errors.New("invalid limit")
	ErrUnknownGranularity = errors.New("unknown granularity")
	ErrDuplicate          = errors.New("duplicate entry")

	ErrInvalidCall    = errors.New("invalid call identifier")
	ErrUnknownService = errors.New("unknown service")
	ErrUnknownMethod  = errors.New("unknown method")
	ErrNoHitStore     = errors.New("no hit store configured")
)

// ConfigError aponta o caminho do campo inválido na configuração bruta,
// ex.: serviceLimits[0].globalLimits.GET.granularity.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

type UnknownServiceError struct {
	Service string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q", e.Service)
}

func (e *UnknownServiceError) Is(target error) bool { return target == ErrUnknownService }

// UnknownMethodError: método sem limite configurado no escopo global (API vazia)
// ou numa API que declara limites próprios.
type UnknownMethodError struct {
	Service string
	API     string
	Method  string
}

func (e *UnknownMethodError) Error() string {
	if e.API == "" {
		return fmt.Sprintf("method %q has no global limit for service %q", e.Method, e.Service)
	}
	return fmt.Sprintf("method %q has no limit for api %q of service %q", e.Method, e.API, e.Service)
}

func (e *UnknownMethodError) Is(target error) bool { return target == ErrUnknownMethod }
