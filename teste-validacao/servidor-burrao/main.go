package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Upstream falso para validar o gateway na mão:
//
//	UPSTREAM_URL=http://localhost:8081 go run ./cmd/gateway
//	curl -i localhost:8080/OrderService/GetOrderById
func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	r := chi.NewRouter()
	handle := func(w http.ResponseWriter, req *http.Request) {
		logger.Info("upstream hit",
			zap.String("service", chi.URLParam(req, "service")),
			zap.String("api", chi.URLParam(req, "api")),
			zap.String("method", req.Method))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(req.Method + " " + req.URL.Path + " ok\n"))
	}
	r.HandleFunc("/{service}/{api}", handle)
	r.HandleFunc("/{service}/{api}/*", handle)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}
	logger.Info("upstream listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
