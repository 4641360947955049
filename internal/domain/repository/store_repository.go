package repository

import (
	"context"

	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

// StoreRepository define el puerto de persistencia para sedes (DIP).
// GetByID devuelve (nil, nil) si la sede no existe.
type StoreRepository interface {
	Create(ctx context.Context, store *entity.Store) error
	GetByID(ctx context.Context, id string) (*entity.Store, error)
	List(ctx context.Context) ([]*entity.Store, error)
}
