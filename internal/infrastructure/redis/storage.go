package redis

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var _ fiber.Storage = (*Storage)(nil)

const scanBatchSize = 500

// Storage implementa fiber.Storage sobre go-redis. Todas las claves llevan prefix,
// así Reset solo borra las propias y no hace FLUSHDB.
type Storage struct {
	db      redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// NewStorage envuelve el cliente. prefix suele ser "dashboard:limiter:".
func NewStorage(client redis.UniversalClient, prefix string) *Storage {
	return &Storage{db: client, prefix: prefix, timeout: 2 * time.Second}
}

func (s *Storage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get devuelve nil si la clave está vacía o no existe.
func (s *Storage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	val, err := s.db.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set exp = 0 significa sin vencimiento.
func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.db.Set(ctx, s.prefix+key, val, exp).Err()
}

// Delete ignora claves vacías.
func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.db.Del(ctx, s.prefix+key).Err()
}

// Reset borra las claves con el prefijo usando SCAN.
func (s *Storage) Reset() error {
	ctx := context.Background()
	var cursor uint64
	for {
		keys, next, err := s.db.Scan(ctx, cursor, s.prefix+"*", scanBatchSize).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.db.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close cierra el cliente subyacente.
func (s *Storage) Close() error {
	return s.db.Close()
}
