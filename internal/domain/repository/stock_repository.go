package repository

import (
	"context"

	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por sede+producto.
// Get y GetForUpdate devuelven un stock en cero si no existe la fila.
type StockRepository interface {
	Get(ctx context.Context, productID, storeID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
}
