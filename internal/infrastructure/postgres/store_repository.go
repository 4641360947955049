package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/traslados-api/internal/domain/entity"
	"github.com/jhoicas/traslados-api/internal/domain/repository"
)

var _ repository.StoreRepository = (*StoreRepo)(nil)

// StoreRepo implementación de StoreRepository sobre PostgreSQL.
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador de sedes. Pasar pool o tx (Querier).
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

func (r *StoreRepo) Create(ctx context.Context, s *entity.Store) error {
	query := `
		INSERT INTO stores (id, name, address, is_main, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, s.ID, s.Name, s.Address, s.IsMain, s.Active, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return mapError("insert store", err)
	}
	return nil
}

func (r *StoreRepo) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	query := `
		SELECT id, name, address, is_main, active, created_at, updated_at
		FROM stores WHERE id = $1`
	var s entity.Store
	err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Address, &s.IsMain, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get store", err)
	}
	return &s, nil
}

// List devuelve todas las sedes, la principal primero.
func (r *StoreRepo) List(ctx context.Context) ([]*entity.Store, error) {
	query := `
		SELECT id, name, address, is_main, active, created_at, updated_at
		FROM stores ORDER BY is_main DESC, name`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, mapError("list stores", err)
	}
	defer rows.Close()
	var out []*entity.Store
	for rows.Next() {
		var s entity.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.IsMain, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, mapError("scan store", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
