package main

import (
	"context"
	"database/sql"
	"sos-alert-service/internal/adapters/history"
	"sos-alert-service/internal/config"
	"sos-alert-service/internal/ports"

	"go.uber.org/zap"
)

// openHistory builds the configured alert history backend, adding the Kafka
// publisher as an extra sink when brokers are configured. The returned func
// releases every connection it opened.
func openHistory(ctx context.Context, cfg config.Config, sqlDB *sql.DB) (ports.AlertHistory, func(), error) {
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				zap.L().Warn("close alert history", zap.Error(err))
			}
		}
	}

	var h ports.AlertHistory
	switch cfg.History.Backend {
	case "redis":
		rdb, err := history.NewRedisClient(ctx, cfg.History.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, rdb.Close)
		h = history.NewRedisAlertHistory(rdb, cfg.History.RedisMax)
	default:
		h = history.NewPostgresAlertHistory(sqlDB)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := history.NewKafkaAlertPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, pub.Close)
		h = &history.FanoutRecorder{Primary: h, Extra: []ports.AlertRecorder{pub}}
	}

	return h, closeAll, nil
}
