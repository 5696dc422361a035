package ratelimit

import (
	"errors"
	"net/http"
	"time"

	"admission-gateway/middleware/ratelimit/application"
	"admission-gateway/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

type Options struct {
	Service             application.Service
	Stats               domain.StatsStore
	CallFn              CallFunc
	CallHeader          string
	RejectStatus        int
	AddRateLimitHeaders bool
	Logger              *zap.Logger
	Now                 func() time.Time
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.CallFn == nil {
		opts.CallFn = DefaultCallFunc(opts.CallHeader)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	svc := opts.Service
	rec := newStatsRecorder(opts.Stats, opts.Logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			call, err := opts.CallFn(r)
			if err != nil {
				writeError(w, err)
				return
			}

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Call", call.String())
			}

			// now é amostrado uma vez e é a única referência de tempo da decisão.
			at := opts.Now()
			dec, err := svc.Decide(call, at.UnixMilli())
			if err != nil {
				opts.Logger.Debug("admission lookup failed", append(callFields(call), zap.Error(err))...)
				writeError(w, err)
				return
			}
			rec.record(r.Context(), call, dec, at)

			if !dec.Allowed {
				opts.Logger.Info("Rate Limited, call not allowed",
					append(callFields(call), zap.String("tier", string(dec.Tier)), zap.Duration("retry_after", dec.RetryAfter))...)
				if opts.AddRateLimitHeaders {
					w.Header().Set("X-RateLimit-Tier", string(dec.Tier))
				}
				w.Header().Set("Retry-After", retryAfterSeconds(dec.RetryAfter))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// statusFor traduz os erros de lookup para status HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCall):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownService):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownMethod):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := http.StatusText(status)
	if status != http.StatusInternalServerError {
		msg += ": " + err.Error()
	}
	http.Error(w, msg, status)
}
