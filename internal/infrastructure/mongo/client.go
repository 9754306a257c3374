// Package mongo almacén documental opcional para los tokens SSO.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jhoicas/saas-dashboard/pkg/config"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

// ErrHealthcheckFailed el ping a MongoDB falló.
var ErrHealthcheckFailed = errors.New("mongo: healthcheck fallido")

const (
	connectAttempts = 3
	retryInterval   = 2 * time.Second
)

// Connect abre el cliente y verifica con Ping, reintentando algunas veces al arrancar.
func Connect(ctx context.Context, cfg config.MongoConfig, log *logger.Logger) (*mongo.Database, error) {
	log = log.Component("mongo")
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetConnectTimeout(10 * time.Second).
		SetMaxPoolSize(50).
		SetRetryWrites(true).
		SetRetryReads(true)

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client, err := mongo.Connect(opts)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				log.Info().Str("database", cfg.Database).Msg("conectado a MongoDB")
				return client.Database(cfg.Database), nil
			}
			_ = client.Disconnect(ctx)
		}
		lastErr = err
		log.Warn().Err(err).Int("intento", attempt).Msg("conexión a MongoDB fallida")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return nil, fmt.Errorf("conectar a MongoDB: %w", lastErr)
}

// Healthcheck función de ping para /health.
func Healthcheck(db *mongo.Database) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.Client().Ping(ctx, nil); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
