package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
	"github.com/jhoicas/traslados-api/internal/domain/repository"
)

// StockLedger único punto de modificación del stock: ningún ajuste puede dejar
// una sub-ubicación en negativo.
type StockLedger struct {
	stockRepo    repository.StockRepository
	movementRepo repository.StockMovementRepository
	transferRepo repository.TransferRepository
	now          func() time.Time
}

// NewStockLedger construye el libro de stock con repositorios de lectura (fuera de tx).
func NewStockLedger(
	stockRepo repository.StockRepository,
	movementRepo repository.StockMovementRepository,
	transferRepo repository.TransferRepository,
) *StockLedger {
	return &StockLedger{stockRepo: stockRepo, movementRepo: movementRepo, transferRepo: transferRepo, now: time.Now}
}

// AdjustInput ajuste de stock sobre una sub-ubicación.
type AdjustInput struct {
	ProductID   string
	StoreID     string
	SubLocation entity.SubLocation
	Delta       int
	Reason      string
	Reference   string
	ActorID     string
}

// Availability stock de un producto en una sede con lo comprometido en traslados abiertos.
// La cantidad en mano ya excluye lo comprometido (se descuenta al crear el traslado).
type Availability struct {
	ProductID string
	StoreID   string
	Warehouse int
	Store     int
	Total     int
	Reserved  map[entity.SubLocation]int
}

// GetQuantity cantidad actual en la sub-ubicación.
func (l *StockLedger) GetQuantity(ctx context.Context, productID, storeID string, sub entity.SubLocation) (int, error) {
	if !sub.IsValid() {
		return 0, domain.NewValidationError(nil, domain.CodeInvalidSubLocation, "sub-ubicación inválida %q", sub)
	}
	stock, err := l.stockRepo.Get(ctx, productID, storeID)
	if err != nil {
		return 0, err
	}
	return stock.Quantity(sub), nil
}

// Availability consulta stock en mano y reservas (unidades en tránsito desde la sede).
// Las dos lecturas son independientes y corren en paralelo.
func (l *StockLedger) Availability(ctx context.Context, productID, storeID string) (*Availability, error) {
	var (
		stock    *entity.Stock
		reserved map[entity.SubLocation]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stock, err = l.stockRepo.Get(gctx, productID, storeID)
		return err
	})
	g.Go(func() error {
		var err error
		reserved, err = l.transferRepo.ReservedQuantity(gctx, productID, storeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if reserved == nil {
		reserved = map[entity.SubLocation]int{}
	}
	return &Availability{
		ProductID: productID,
		StoreID:   storeID,
		Warehouse: stock.Warehouse,
		Store:     stock.Store,
		Total:     stock.Total(),
		Reserved:  reserved,
	}, nil
}

// Movements historial de movimientos de un producto en una sede, más reciente primero.
func (l *StockLedger) Movements(ctx context.Context, productID, storeID string, limit, offset int) ([]*entity.StockMovement, error) {
	return l.movementRepo.ListByProduct(ctx, productID, storeID, limit, offset)
}

// Adjust bloquea la fila (GetForUpdate), aplica el delta y registra el movimiento en la misma tx.
// Rechaza con ErrInsufficientStock si el resultado sería negativo.
func (l *StockLedger) Adjust(ctx context.Context, repos Repositories, in AdjustInput) (*entity.Stock, error) {
	if !in.SubLocation.IsValid() {
		return nil, domain.NewValidationError(nil, domain.CodeInvalidSubLocation, "sub-ubicación inválida %q", in.SubLocation)
	}
	if in.Delta == 0 {
		return nil, domain.NewValidationError(nil, domain.CodeInvalidQuantity, "el ajuste de stock no puede ser cero")
	}
	stock, err := repos.Stock.GetForUpdate(ctx, in.ProductID, in.StoreID)
	if err != nil {
		return nil, err
	}
	current := stock.Quantity(in.SubLocation)
	next := current + in.Delta
	if next < 0 {
		return nil, domain.NewValidationError(domain.ErrInsufficientStock, domain.CodeInsufficientStock,
			"stock insuficiente en %s: disponible %d, solicitado %d", in.SubLocation, current, -in.Delta)
	}
	now := l.now()
	stock.SetQuantity(in.SubLocation, next)
	stock.UpdatedAt = now
	if err := repos.Stock.Upsert(ctx, stock); err != nil {
		return nil, err
	}
	mov := &entity.StockMovement{
		ID:          uuid.New().String(),
		ProductID:   in.ProductID,
		StoreID:     in.StoreID,
		SubLocation: in.SubLocation,
		Delta:       in.Delta,
		Balance:     next,
		Reason:      in.Reason,
		Reference:   in.Reference,
		CreatedBy:   in.ActorID,
		CreatedAt:   now,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return stock, nil
}
