package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadlock", &pgconn.PgError{Code: "40P01"}, domain.ErrConflict},
		{"serialización", &pgconn.PgError{Code: "40001"}, domain.ErrConflict},
		{"lock no disponible", fmt.Errorf("envuelto: %w", &pgconn.PgError{Code: "55P03"}), domain.ErrConflict},
		{"único", &pgconn.PgError{Code: "23505"}, domain.ErrDuplicate},
		{"check stock", &pgconn.PgError{Code: "23514", ConstraintName: "stock_warehouse_check"}, domain.ErrInsufficientStock},
		{"check otro", &pgconn.PgError{Code: "23514", ConstraintName: "transfers_check"}, domain.ErrInvalidInput},
		{"id no UUID", &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError("op", tt.err), tt.want)
		})
	}

	plain := errors.New("conexión cerrada")
	err := mapError("op", plain)
	assert.ErrorIs(t, err, plain)
	assert.False(t, errors.Is(err, domain.ErrConflict))
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", migrateURL("postgres://u:p@h:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://u@h/db", migrateURL("postgresql://u@h/db"))
	assert.Equal(t, "pgx5://ya", migrateURL("pgx5://ya"))
}

func TestReceiptColumns(t *testing.T) {
	qty, note, sub := receiptColumns(entity.NotYetReceived{})
	assert.Nil(t, qty)
	assert.Empty(t, note)
	assert.Nil(t, sub)

	qty, note, sub = receiptColumns(entity.Received{Quantity: 0, Note: "perdido", SubLocation: entity.SubLocationWarehouse})
	if assert.NotNil(t, qty) && assert.NotNil(t, sub) {
		assert.Equal(t, 0, *qty)
		assert.Equal(t, "warehouse", *sub)
	}
	assert.Equal(t, "perdido", note)
}
