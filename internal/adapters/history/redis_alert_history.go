package history

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/platform/obs"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAlertHistory keeps the most recent alerts of each user in a capped list.
type RedisAlertHistory struct {
	rdb        *redis.Client
	maxPerUser int64
}

// NewRedisClient parses a redis:// or rediss:// URL and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	if opts.TLSConfig == nil && strings.HasPrefix(redisURL, "rediss://") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func NewRedisAlertHistory(rdb *redis.Client, maxPerUser int) *RedisAlertHistory {
	if maxPerUser < 1 {
		maxPerUser = 1
	}
	return &RedisAlertHistory{rdb: rdb, maxPerUser: int64(maxPerUser)}
}

func historyKey(userID string) string {
	return "sos:history:" + userID
}

func (r *RedisAlertHistory) RecordAlert(ctx context.Context, l domain.AlertLog) (err error) {
	defer obs.Time(ctx, "history.redis.RecordAlert")(&err)

	b, err := json.Marshal(toRecord(l))
	if err != nil {
		return fmt.Errorf("record alert: marshal: %w", err)
	}

	key := historyKey(l.UserID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, b)
		pipe.LTrim(ctx, key, 0, r.maxPerUser-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record alert: push %s: %w", key, err)
	}
	return nil
}

func (r *RedisAlertHistory) ListAlerts(ctx context.Context, userID string, limit int) (_ []domain.AlertLog, err error) {
	defer obs.Time(ctx, "history.redis.ListAlerts")(&err)

	if limit < 1 {
		return []domain.AlertLog{}, nil
	}

	key := historyKey(userID)
	items, err := r.rdb.LRange(ctx, key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list alerts: range %s: %w", key, err)
	}

	logs := make([]domain.AlertLog, 0, len(items))
	for i, item := range items {
		var rec alertRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("list alerts: decode entry %d of %s: %w", i, key, err)
		}
		logs = append(logs, rec.toDomain())
	}
	return logs, nil
}
