package repository

import (
	"context"

	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia para movimientos de stock.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByProduct(ctx context.Context, productID, storeID string, limit, offset int) ([]*entity.StockMovement, error)
}
