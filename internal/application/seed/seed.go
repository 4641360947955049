// Package seed carga sedes, productos y stock inicial de demostración.
// El stock inicial entra por el libro de stock (motivo "opening") para que quede en el historial.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/traslados-api/internal/application/transfer"
	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
	"github.com/jhoicas/traslados-api/internal/domain/repository"
)

// Sedes y productos de demostración (IDs fijos para poder repetir la carga).
const (
	StoreNorteID = "00000000-0000-0000-0000-000000000002"
	StoreSurID   = "00000000-0000-0000-0000-000000000003"

	ProductCamisaID   = "10000000-0000-0000-0000-000000000001"
	ProductPantalonID = "10000000-0000-0000-0000-000000000002"
	ProductChaquetaID = "10000000-0000-0000-0000-000000000003"
)

// Deps repositorios necesarios para la carga.
type Deps struct {
	Stores   repository.StoreRepository
	Products repository.ProductRepository
	Stock    *transfer.StockLedger
	TxRunner transfer.TxRunner
}

type openingStock struct {
	productID string
	storeID   string
	sub       entity.SubLocation
	qty       int
}

// Run crea los datos si no existen. Es idempotente: lo ya creado se omite.
func Run(ctx context.Context, deps Deps) error {
	now := time.Now()
	stores := []*entity.Store{
		{ID: entity.MainStoreID, Name: "Sede Principal", Address: "Cra 7 # 12-30", IsMain: true, Active: true},
		{ID: StoreNorteID, Name: "Sede Norte", Address: "Calle 140 # 15-20", Active: true},
		{ID: StoreSurID, Name: "Sede Sur", Address: "Av. 1 de Mayo # 40-10", Active: true},
	}
	for _, s := range stores {
		s.CreatedAt, s.UpdatedAt = now, now
		if err := deps.Stores.Create(ctx, s); err != nil && !errors.Is(err, domain.ErrDuplicate) {
			return fmt.Errorf("sede %s: %w", s.Name, err)
		}
	}

	products := []*entity.Product{
		{ID: ProductCamisaID, Name: "Camisa Oxford", Reference: "CAM-001", Price: decimal.NewFromInt(89900), Active: true},
		{ID: ProductPantalonID, Name: "Pantalón Chino", Reference: "PAN-002", Price: decimal.NewFromInt(129900), Active: true},
		{ID: ProductChaquetaID, Name: "Chaqueta Denim", Reference: "CHA-003", Price: decimal.NewFromInt(199900), Active: true},
	}
	created := make(map[string]bool)
	for _, p := range products {
		p.CreatedAt, p.UpdatedAt = now, now
		err := deps.Products.Create(ctx, p)
		switch {
		case err == nil:
			created[p.ID] = true
		case errors.Is(err, domain.ErrDuplicate):
		default:
			return fmt.Errorf("producto %s: %w", p.Reference, err)
		}
	}

	opening := []openingStock{
		{ProductCamisaID, entity.MainStoreID, entity.SubLocationWarehouse, 100},
		{ProductCamisaID, entity.MainStoreID, entity.SubLocationStore, 20},
		{ProductPantalonID, entity.MainStoreID, entity.SubLocationWarehouse, 60},
		{ProductChaquetaID, entity.MainStoreID, entity.SubLocationWarehouse, 25},
		{ProductCamisaID, StoreNorteID, entity.SubLocationStore, 10},
		{ProductPantalonID, StoreSurID, entity.SubLocationStore, 8},
	}
	// Solo se abre stock para productos recién creados; una segunda carga no duplica unidades.
	return deps.TxRunner.Run(ctx, func(ctx context.Context, repos transfer.Repositories) error {
		for _, o := range opening {
			if !created[o.productID] {
				continue
			}
			if _, err := deps.Stock.Adjust(ctx, repos, transfer.AdjustInput{
				ProductID:   o.productID,
				StoreID:     o.storeID,
				SubLocation: o.sub,
				Delta:       o.qty,
				Reason:      entity.MovementReasonOpening,
				Reference:   "seed",
				ActorID:     "system",
			}); err != nil {
				return fmt.Errorf("stock inicial %s: %w", o.productID, err)
			}
		}
		return nil
	})
}
