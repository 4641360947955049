package transfer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

// Line línea solicitada al crear un traslado.
type Line struct {
	ProductID       string
	Quantity        int
	FromSubLocation entity.SubLocation
	UnitPrice       decimal.Decimal
}

// MoneyScale decimales admitidos en precios y pagos (columnas NUMERIC(14,2)).
const MoneyScale = 2

// fitsMoneyScale falso si el monto tiene más decimales de los que se persisten.
func fitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// Demand cantidad total requerida de un producto en una sub-ubicación de origen.
type Demand struct {
	ProductID   string
	SubLocation entity.SubLocation
	Quantity    int
}

// ValidateRequest valida la forma de la solicitud (sin consultar stock).
func ValidateRequest(fromStoreID, toStoreID string, lines []Line) error {
	if fromStoreID == "" || toStoreID == "" {
		return domain.NewValidationError(nil, domain.CodeSameStore, "sede origen y destino son obligatorias")
	}
	if fromStoreID == toStoreID {
		return domain.NewValidationError(nil, domain.CodeSameStore, "la sede origen y destino deben ser distintas")
	}
	if len(lines) == 0 {
		return domain.NewValidationError(nil, domain.CodeNoItems, "el traslado debe tener al menos un producto")
	}
	for i, l := range lines {
		if l.ProductID == "" {
			return domain.NewValidationError(nil, domain.CodeInvalidQuantity, "línea %d: producto obligatorio", i+1)
		}
		if l.Quantity <= 0 {
			return domain.NewValidationError(nil, domain.CodeInvalidQuantity,
				"línea %d: la cantidad solicitada debe ser mayor a 0 (recibido %d)", i+1, l.Quantity)
		}
		if !l.FromSubLocation.IsValid() {
			return domain.NewValidationError(nil, domain.CodeInvalidSubLocation,
				"línea %d: sub-ubicación de origen inválida %q", i+1, l.FromSubLocation)
		}
		if l.UnitPrice.IsNegative() {
			return domain.NewValidationError(nil, domain.CodeInvalidPrice, "línea %d: el precio no puede ser negativo", i+1)
		}
		if !fitsMoneyScale(l.UnitPrice) {
			return domain.NewValidationError(nil, domain.CodeInvalidPrice,
				"línea %d: el precio admite máximo %d decimales (recibido %s)", i+1, MoneyScale, l.UnitPrice.String())
		}
	}
	return nil
}

// AggregateDemand agrupa la cantidad requerida por (producto, sub-ubicación) en orden
// determinista, el mismo orden en que se bloquean las filas de stock.
func AggregateDemand(items []entity.TransferItem) []Demand {
	idx := make(map[Demand]int)
	var out []Demand
	for _, it := range items {
		key := Demand{ProductID: it.ProductID, SubLocation: it.FromSubLocation}
		if pos, ok := idx[key]; ok {
			out[pos].Quantity += it.RequestedQuantity
			continue
		}
		idx[key] = len(out)
		key.Quantity = it.RequestedQuantity
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].SubLocation < out[j].SubLocation
	})
	return out
}

// StockOrder índices 0..n-1 ordenados por (producto, sub-ubicación), el mismo orden de
// AggregateDemand: todo ajuste de stock de un traslado bloquea filas en este orden.
// Los empates conservan el orden original.
func StockOrder(n int, key func(i int) (string, entity.SubLocation)) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		pa, sa := key(idx[a])
		pb, sb := key(idx[b])
		if pa != pb {
			return pa < pb
		}
		return sa < sb
	})
	return idx
}

// CheckAvailability compara lo disponible con lo requerido. Nunca recorta la cantidad:
// si no alcanza, se rechaza.
func CheckAvailability(d Demand, productName string, available int) error {
	if available >= d.Quantity {
		return nil
	}
	return domain.NewValidationError(domain.ErrInsufficientStock, domain.CodeInsufficientStock,
		"stock insuficiente para %s en %s: disponible %d, solicitado %d",
		productName, d.SubLocation, available, d.Quantity)
}
