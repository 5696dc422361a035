package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"admission-gateway/middleware/ratelimit"
	"admission-gateway/middleware/ratelimit/application"
	"admission-gateway/middleware/ratelimit/config"
	"admission-gateway/middleware/ratelimit/domain"
	"admission-gateway/middleware/ratelimit/infra"

	"go.uber.org/zap"
)

func main() {
	// Exemplo: injetando o middleware diretamente no seu webserver (sem proxy)
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	limits, err := config.Parse(config.Default())
	if err != nil {
		logger.Fatal("limits config error", zap.Error(err))
	}

	store := infra.NewStore()
	stats := infra.NewMemoryStatsStore(infra.WithTrackCalls(true))
	svc := application.Service{Limits: limits, Hits: store}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	store.StartJanitor(ctx)

	if v, _ := strconv.ParseBool(os.Getenv("DEMO_REPLAY")); v {
		replay(ctx, svc, logger)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		total := stats.Total()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("allowed=" + strconv.FormatInt(total.Allowed, 10) +
			" denied=" + strconv.FormatInt(total.Denied, 10) + "\n"))
	})

	api := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))
	api = ratelimit.Middleware(ratelimit.Options{
		Service:             svc,
		Stats:               stats,
		CallHeader:          "X-Api-Endpoint", // ou vazio para usar /service/api
		AddRateLimitHeaders: true,
		Logger:              logger,
	})(api)
	mux.Handle("/", api)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

// replay dispara 12 chamadas GetOrderById na mesma janela usando o Gate:
// 11 passam (10 hits ainda cabem no limite 10/s) e a 12ª é limitada.
func replay(ctx context.Context, svc application.Service, logger *zap.Logger) {
	gate := ratelimit.NewGate(ratelimit.GateOptions{
		Service: svc,
		Next: domain.DispatcherFunc(func(_ context.Context, call domain.Call) error {
			logger.Info("dispatching", zap.String("call", call.String()))
			return nil
		}),
		Logger: logger,
	})

	for i := 0; i < 12; i++ {
		if _, err := gate.MakeRequest(ctx, "OrderService:GetOrderById:GET"); err != nil {
			logger.Error("replay failed", zap.Error(err))
			return
		}
	}
}
