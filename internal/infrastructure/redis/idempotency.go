// Package redis almacena claves de idempotencia compartidas entre instancias del API.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/traslados-api/internal/application/transfer"
)

const defaultKeyPrefix = "idempotency:"

var _ transfer.IdempotencyStore = (*IdempotencyStore)(nil)

// Config conexión a Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// IdempotencyStore implementa transfer.IdempotencyStore con SETNX + TTL.
type IdempotencyStore struct {
	client    *goredis.Client
	keyPrefix string
}

// NewIdempotencyStore conecta y verifica con PING.
func NewIdempotencyStore(ctx context.Context, cfg Config) (*IdempotencyStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return NewIdempotencyStoreWithClient(client, ""), nil
}

// NewIdempotencyStoreWithClient usa un cliente existente (pruebas o cliente compartido).
func NewIdempotencyStoreWithClient(client *goredis.Client, keyPrefix string) *IdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &IdempotencyStore{client: client, keyPrefix: keyPrefix}
}

// Acquire reserva la clave de forma atómica. false = ya usada dentro del TTL.
func (s *IdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reservar clave de idempotencia: %w", err)
	}
	return ok, nil
}

// Release libera la clave para permitir el reintento.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("liberar clave de idempotencia: %w", err)
	}
	return nil
}

// Close cierra el cliente.
func (s *IdempotencyStore) Close() error {
	return s.client.Close()
}
