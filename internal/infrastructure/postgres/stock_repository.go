package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/traslados-api/internal/domain/entity"
	"github.com/jhoicas/traslados-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un producto en una sede.
func (r *StockRepo) Get(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	query := `
		SELECT product_id, store_id, warehouse, store, updated_at
		FROM stock WHERE product_id = $1 AND store_id = $2`
	return r.scanOne(ctx, query, productID, storeID)
}

// GetForUpdate crea la fila en cero si no existe y la bloquea (SELECT FOR UPDATE)
// hasta el fin de la transacción, para que dos traslados concurrentes no lean el mismo saldo.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	ensure := `
		INSERT INTO stock (product_id, store_id, warehouse, store, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (product_id, store_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, ensure, productID, storeID); err != nil {
		return nil, mapError("ensure stock row", err)
	}
	query := `
		SELECT product_id, store_id, warehouse, store, updated_at
		FROM stock WHERE product_id = $1 AND store_id = $2
		FOR UPDATE`
	return r.scanOne(ctx, query, productID, storeID)
}

// Upsert inserta o actualiza las cantidades (por producto y sede).
func (r *StockRepo) Upsert(ctx context.Context, s *entity.Stock) error {
	query := `
		INSERT INTO stock (product_id, store_id, warehouse, store, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id, store_id)
		DO UPDATE SET warehouse = EXCLUDED.warehouse, store = EXCLUDED.store, updated_at = EXCLUDED.updated_at`
	if _, err := r.q.Exec(ctx, query, s.ProductID, s.StoreID, s.Warehouse, s.Store, s.UpdatedAt); err != nil {
		return mapError("upsert stock", err)
	}
	return nil
}

func (r *StockRepo) scanOne(ctx context.Context, query, productID, storeID string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, productID, storeID).Scan(&s.ProductID, &s.StoreID, &s.Warehouse, &s.Store, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{ProductID: productID, StoreID: storeID}, nil
		}
		return nil, mapError("get stock", err)
	}
	return &s, nil
}
