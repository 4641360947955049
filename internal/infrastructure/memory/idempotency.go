package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/traslados-api/internal/application/transfer"
)

// IdempotencyStore claves de idempotencia en memoria (una sola instancia).
// Las entradas vencidas se descartan al consultarlas.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{entries: make(map[string]time.Time), now: time.Now}
}

// Acquire devuelve false si la clave sigue vigente.
func (s *IdempotencyStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.entries[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	return true, nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

var _ transfer.IdempotencyStore = (*IdempotencyStore)(nil)
