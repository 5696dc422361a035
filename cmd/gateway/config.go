package main

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type config struct {
	listenAddr       string
	upstreamURL      string
	limitsFile       string
	rateEnabled      bool
	callHeader       string
	rejectStatus     int
	addHeaders       bool
	hitsIdleTTL      time.Duration
	hitsCleanupEvery time.Duration
	metricsEnabled   bool
	logLevel         string
	logFormat        string

	rateStatsEnabled       bool
	rateStatsRedisAddr     string
	rateStatsRedisPassword string
	rateStatsRedisDB       int
	rateStatsPrefix        string
	rateStatsTTL           time.Duration
	rateStatsBucket        string
	rateStatsTrackCalls    bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.limitsFile = os.Getenv("LIMITS_FILE")
	cfg.rateEnabled = getenvBoolDefault("RATE_ENABLED", true)
	cfg.callHeader = os.Getenv("CALL_HEADER")
	cfg.rejectStatus = getenvIntDefault("REJECT_STATUS", http.StatusTooManyRequests)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)
	cfg.hitsIdleTTL = getenvDurationDefault("HITS_IDLE_TTL", 15*time.Minute)
	cfg.hitsCleanupEvery = getenvDurationDefault("HITS_CLEANUP_EVERY", 2*time.Minute)
	cfg.metricsEnabled = getenvBoolDefault("METRICS_ENABLED", true)
	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.logFormat = getenvDefault("LOG_FORMAT", "json")

	cfg.rateStatsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.rateStatsRedisAddr = getenvDefault("RATE_STATS_REDIS_ADDR", "")
	cfg.rateStatsRedisPassword = os.Getenv("RATE_STATS_REDIS_PASSWORD")
	cfg.rateStatsRedisDB = getenvIntDefault("RATE_STATS_REDIS_DB", 0)
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "admission:stats")
	cfg.rateStatsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)
	cfg.rateStatsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.rateStatsTrackCalls = getenvBoolDefault("RATE_STATS_TRACK_CALLS", false)

	if cfg.rateStatsEnabled && strings.TrimSpace(cfg.rateStatsRedisAddr) == "" {
		return config{}, errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if cfg.rejectStatus < 400 || cfg.rejectStatus > 599 {
		return config{}, errors.New("REJECT_STATUS must be a 4xx or 5xx status")
	}
	if cfg.hitsCleanupEvery < 0 {
		return config{}, errors.New("HITS_CLEANUP_EVERY must be >= 0")
	}
	return cfg, nil
}

// newLogger monta o logger zap: format "json" (produção) ou "console" (desenvolvimento).
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	switch strings.ToLower(format) {
	case "console":
		zc = zap.NewDevelopmentConfig()
	case "json", "":
		zc = zap.NewProductionConfig()
	default:
		return nil, errors.New("LOG_FORMAT must be json or console")
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
