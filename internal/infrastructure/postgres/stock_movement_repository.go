package postgres

import (
	"context"

	"github.com/jhoicas/traslados-api/internal/domain/entity"
	"github.com/jhoicas/traslados-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo historial de ajustes de stock sobre PostgreSQL.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, store_id, sub_location, delta, balance, reason, reference, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.StoreID, string(m.SubLocation), m.Delta, m.Balance,
		m.Reason, m.Reference, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return mapError("insert stock movement", err)
	}
	return nil
}

// ListByProduct movimientos de un producto (en una sede si storeID no es vacío), más reciente primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID, storeID string, limit, offset int) ([]*entity.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, product_id, store_id, sub_location, delta, balance, reason, reference, created_by, created_at
		FROM stock_movements
		WHERE product_id = $1 AND ($2 = '' OR store_id::text = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, productID, storeID, limit, offset)
	if err != nil {
		return nil, mapError("list stock movements", err)
	}
	defer rows.Close()
	var out []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var sub string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.StoreID, &sub, &m.Delta, &m.Balance,
			&m.Reason, &m.Reference, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, mapError("scan stock movement", err)
		}
		m.SubLocation = entity.SubLocation(sub)
		out = append(out, &m)
	}
	return out, rows.Err()
}
