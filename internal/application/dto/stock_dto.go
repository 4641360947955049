package dto

import (
	"time"

	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

// StockResponse stock de un producto en una sede y lo comprometido en traslados abiertos.
type StockResponse struct {
	ProductID string         `json:"product_id"`
	StoreID   string         `json:"store_id"`
	Warehouse int            `json:"warehouse"`
	Store     int            `json:"store"`
	Total     int            `json:"total"`
	Reserved  map[string]int `json:"reserved"`
}

// StockMovementResponse movimiento del historial de stock.
type StockMovementResponse struct {
	ID          string    `json:"id"`
	SubLocation string    `json:"sub_location"`
	Delta       int       `json:"delta"`
	Balance     int       `json:"balance"`
	Reason      string    `json:"reason"`
	Reference   string    `json:"reference,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromStockMovements traduce el historial.
func FromStockMovements(list []*entity.StockMovement) []StockMovementResponse {
	out := make([]StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, StockMovementResponse{
			ID:          m.ID,
			SubLocation: string(m.SubLocation),
			Delta:       m.Delta,
			Balance:     m.Balance,
			Reason:      m.Reason,
			Reference:   m.Reference,
			CreatedBy:   m.CreatedBy,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}
