package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/traslados-api/internal/application/dto"
	"github.com/jhoicas/traslados-api/internal/application/transfer"
)

const maxMovementsPage = 200

// StockHandler consultas de stock por sede (protegido).
type StockHandler struct {
	ledger *transfer.StockLedger
	log    zerolog.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *transfer.StockLedger, log zerolog.Logger) *StockHandler {
	return &StockHandler{ledger: ledger, log: log}
}

// Get godoc
// @Summary      Stock de un producto en una sede
// @Description  Cantidades en bodega y tienda, y lo comprometido en traslados abiertos desde la sede.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Param        store_id    path  string  true  "ID de la sede"
// @Success      200  {object}  dto.StockResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/{store_id} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	av, err := h.ledger.Availability(c.UserContext(), c.Params("product_id"), c.Params("store_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	reserved := make(map[string]int, len(av.Reserved))
	for sub, qty := range av.Reserved {
		reserved[string(sub)] = qty
	}
	return c.JSON(dto.StockResponse{
		ProductID: av.ProductID,
		StoreID:   av.StoreID,
		Warehouse: av.Warehouse,
		Store:     av.Store,
		Total:     av.Total,
		Reserved:  reserved,
	})
}

// Movements godoc
// @Summary      Historial de movimientos de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        store_id    path   string  true   "ID de la sede"
// @Param        limit       query  int     false  "máximo 200 (por defecto 50)"
// @Param        offset      query  int     false  "desplazamiento"
// @Success      200  {array}   dto.StockMovementResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/{store_id}/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > maxMovementsPage {
		limit = maxMovementsPage
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	list, err := h.ledger.Movements(c.UserContext(), c.Params("product_id"), c.Params("store_id"), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromStockMovements(list))
}
