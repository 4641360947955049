package repository

import (
	"context"

	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

// TransferFilter filtros del listado de traslados.
// StoreID coincide con la sede origen o destino; Status vacío = todos.
type TransferFilter struct {
	StoreID string
	Status  entity.TransferStatus
	Limit   int
	Offset  int
}

// TransferRepository define el puerto de persistencia para traslados y sus líneas.
// GetByID y GetForUpdate devuelven (nil, nil) si el traslado no existe.
type TransferRepository interface {
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, transfer *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error)
	// Update persiste la cabecera y el estado de recepción de cada línea.
	Update(ctx context.Context, transfer *entity.Transfer) error
	List(ctx context.Context, filter TransferFilter) ([]*entity.Transfer, int, error)
	// ReservedQuantity unidades comprometidas en traslados abiertos desde la sede, por sub-ubicación.
	ReservedQuantity(ctx context.Context, productID, storeID string) (map[entity.SubLocation]int, error)
}
