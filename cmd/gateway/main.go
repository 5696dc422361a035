package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admission-gateway/middleware/ratelimit"
	"admission-gateway/middleware/ratelimit/application"
	"admission-gateway/middleware/ratelimit/config"
	"admission-gateway/middleware/ratelimit/domain"
	"admission-gateway/middleware/ratelimit/infra"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// .env.local tem prioridade sobre .env; variáveis já exportadas nunca são sobrescritas.
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}

	cfg, err := readConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.logLevel, cfg.logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		logger.Fatal("invalid UPSTREAM_URL", zap.Error(err))
	}

	limits, err := loadLimits(cfg.limitsFile)
	if err != nil {
		logger.Fatal("limits config error", zap.String("file", cfg.limitsFile), zap.Error(err))
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	store := infra.NewStore(
		infra.WithIdleTTL(cfg.hitsIdleTTL),
		infra.WithCleanupEvery(cfg.hitsCleanupEvery),
	)

	var stats []domain.StatsStore
	reg := prometheus.NewRegistry()
	if cfg.metricsEnabled {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		promStats, err := infra.NewPrometheusStatsStore(reg)
		if err != nil {
			logger.Fatal("metrics error", zap.Error(err))
		}
		stats = append(stats, promStats)
	}
	if cfg.rateStatsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.rateStatsRedisAddr,
			Password: cfg.rateStatsRedisPassword,
			DB:       cfg.rateStatsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			logger.Fatal("redis stats ping error", zap.Error(err))
		}

		stats = append(stats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.rateStatsPrefix),
			infra.WithStatsTTL(cfg.rateStatsTTL),
			infra.WithStatsBucket(cfg.rateStatsBucket),
			infra.WithStatsTrackCalls(cfg.rateStatsTrackCalls),
		))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	store.StartJanitor(ctx)

	admission := ratelimit.Middleware(ratelimit.Options{
		Service:             application.Service{Limits: limits, Hits: store},
		Stats:               infra.JoinStats(stats...),
		CallFn:              ratelimit.ChiHeaderCallFunc(cfg.callHeader),
		RejectStatus:        cfg.rejectStatus,
		AddRateLimitHeaders: cfg.addHeaders,
		Logger:              logger,
	})

	h := newRouter(routerDeps{
		proxy:          proxy,
		admission:      admission,
		rateEnabled:    cfg.rateEnabled,
		metricsEnabled: cfg.metricsEnabled,
		registry:       reg,
	})

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening",
		zap.String("addr", cfg.listenAddr),
		zap.String("upstream", target.String()),
		zap.Int("services", len(limits)))
	logger.Info("admission",
		zap.Bool("enabled", cfg.rateEnabled),
		zap.String("limitsFile", cfg.limitsFile),
		zap.String("callHeader", cfg.callHeader),
		zap.Int("rejectStatus", cfg.rejectStatus),
		zap.Duration("hitsIdleTTL", store.IdleTTL()),
		zap.Duration("hitsCleanupEvery", store.CleanupEvery()))
	logger.Info("stats",
		zap.Bool("metrics", cfg.metricsEnabled),
		zap.Bool("redis", cfg.rateStatsEnabled),
		zap.String("redisAddr", cfg.rateStatsRedisAddr),
		zap.String("bucket", cfg.rateStatsBucket),
		zap.Duration("ttl", cfg.rateStatsTTL),
		zap.Bool("trackCalls", cfg.rateStatsTrackCalls))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// loadLimits lê LIMITS_FILE ou, se vazio, usa os limites embutidos.
func loadLimits(path string) (domain.Limits, error) {
	if path == "" {
		return config.Parse(config.Default())
	}
	return config.Load(path)
}

type routerDeps struct {
	proxy          http.Handler
	admission      func(http.Handler) http.Handler
	rateEnabled    bool
	metricsEnabled bool
	registry       *prometheus.Registry
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if d.metricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	}

	// With: o middleware roda depois do match, então {service}/{api} já estão preenchidos.
	upstream := r.With()
	if d.rateEnabled {
		upstream = r.With(d.admission)
	}
	upstream.Handle("/{service}/{api}", d.proxy)
	upstream.Handle("/{service}/{api}/*", d.proxy)

	return r
}
