// Package redis almacenamiento compartido del rate limiter entre réplicas.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

// ErrHealthcheckFailed el ping a Redis falló.
var ErrHealthcheckFailed = errors.New("redis: healthcheck fallido")

// Connect parsea REDIS_URL y verifica la conexión con Ping.
func Connect(ctx context.Context, url string, log *logger.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Component("redis").Info().Str("addr", opts.Addr).Msg("conectado a Redis")
	return client, nil
}

// Healthcheck función de ping para /health.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
