package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
	"github.com/jhoicas/traslados-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas entre sedes y pagos sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func (r *SaleRepo) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('sale_number_seq')`).Scan(&n); err != nil {
		return 0, mapError("next sale number", err)
	}
	return n, nil
}

func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (id, number, seller_store_id, buyer_store_id, transfer_id, total, status,
			created_by, created_at, cancelled_by, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Number, s.SellerStoreID, s.BuyerStoreID, s.TransferID, s.Total, s.Status,
		s.CreatedBy, s.CreatedAt, s.CancelledBy, s.CancelledAt,
	)
	if err != nil {
		return mapError("insert sale", err)
	}
	itemQuery := `
		INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, subtotal, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, it := range s.Items {
		if _, err := r.q.Exec(ctx, itemQuery, it.ID, s.ID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal, i); err != nil {
			return mapError("insert sale item", err)
		}
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	query := `
		SELECT id, number, seller_store_id, buyer_store_id, transfer_id, total, status,
			created_by, created_at, cancelled_by, cancelled_at
		FROM sales WHERE id = $1`
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Number, &s.SellerStoreID, &s.BuyerStoreID, &s.TransferID, &s.Total, &s.Status,
		&s.CreatedBy, &s.CreatedAt, &s.CancelledBy, &s.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get sale", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, quantity, unit_price, subtotal
		FROM sale_items WHERE sale_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, mapError("get sale items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, mapError("scan sale item", err)
		}
		s.Items = append(s.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("get sale items", err)
	}
	return &s, nil
}

// Update actualiza estado y datos de cancelación.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE sales SET status = $2, cancelled_by = $3, cancelled_at = $4 WHERE id = $1`,
		s.ID, s.Status, s.CancelledBy, s.CancelledAt)
	if err != nil {
		return mapError("update sale", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("venta", s.ID)
	}
	return nil
}

func (r *SaleRepo) CreatePayment(ctx context.Context, p *entity.Payment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO payments (id, sale_id, method, amount, status, created_at, refunded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.SaleID, p.Method, p.Amount, p.Status, p.CreatedAt, p.RefundedAt)
	if err != nil {
		return mapError("insert payment", err)
	}
	return nil
}

func (r *SaleRepo) ListPayments(ctx context.Context, saleID string) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, method, amount, status, created_at, refunded_at
		FROM payments WHERE sale_id = $1 ORDER BY created_at, method`, saleID)
	if err != nil {
		return nil, mapError("list payments", err)
	}
	defer rows.Close()
	var out []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.SaleID, &p.Method, &p.Amount, &p.Status, &p.CreatedAt, &p.RefundedAt); err != nil {
			return nil, mapError("scan payment", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *SaleRepo) UpdatePayment(ctx context.Context, p *entity.Payment) error {
	tag, err := r.q.Exec(ctx, `UPDATE payments SET status = $2, refunded_at = $3 WHERE id = $1`, p.ID, p.Status, p.RefundedAt)
	if err != nil {
		return mapError("update payment", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("pago", p.ID)
	}
	return nil
}
