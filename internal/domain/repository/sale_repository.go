package repository

import (
	"context"

	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas entre sedes y sus pagos.
// GetByID devuelve (nil, nil) si la venta no existe.
type SaleRepository interface {
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	Update(ctx context.Context, sale *entity.Sale) error
	CreatePayment(ctx context.Context, payment *entity.Payment) error
	ListPayments(ctx context.Context, saleID string) ([]*entity.Payment, error)
	UpdatePayment(ctx context.Context, payment *entity.Payment) error
}
