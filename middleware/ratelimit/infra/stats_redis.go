package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"admission-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix string
	// ttl aplica apenas em chaves de série temporal / por chamada.
	// total e por serviço são cumulativos e não expiram.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackCalls bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackCalls(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackCalls = track }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "admission:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// statsField é o campo do hash: allowed, denied:global ou denied:api.
func statsField(ev domain.StatsEvent) string {
	if ev.Allowed {
		return "allowed"
	}
	if ev.Tier == domain.TierNone {
		return "denied"
	}
	return "denied:" + string(ev.Tier)
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := statsField(ev)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	if svc := strings.TrimSpace(ev.Call.Service); svc != "" {
		pipe.HIncrBy(ctx, s.prefix+":service", svc+":"+field, 1)
	}

	if s.trackCalls && ev.Call.Validate() == nil {
		callKey := s.prefix + ":call:" + ev.Call.String()
		pipe.HIncrBy(ctx, callKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, callKey, s.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
