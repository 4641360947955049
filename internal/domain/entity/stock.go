package entity

import "time"

// SubLocation ubicación dentro de una sede.
type SubLocation string

const (
	SubLocationWarehouse SubLocation = "warehouse" // bodega
	SubLocationStore     SubLocation = "store"     // exhibición / piso de venta
)

// IsValid indica si la sub-ubicación es conocida.
func (s SubLocation) IsValid() bool {
	return s == SubLocationWarehouse || s == SubLocationStore
}

// Stock representa el stock de un producto en una sede, separado por sub-ubicación.
// Ambas cantidades son siempre >= 0.
type Stock struct {
	ProductID string
	StoreID   string
	Warehouse int
	Store     int
	UpdatedAt time.Time
}

// Total cantidad total en la sede (bodega + exhibición).
func (s *Stock) Total() int {
	return s.Warehouse + s.Store
}

// Quantity devuelve la cantidad en la sub-ubicación indicada.
func (s *Stock) Quantity(sub SubLocation) int {
	if sub == SubLocationWarehouse {
		return s.Warehouse
	}
	return s.Store
}

// SetQuantity fija la cantidad en la sub-ubicación indicada.
func (s *Stock) SetQuantity(sub SubLocation, qty int) {
	if sub == SubLocationWarehouse {
		s.Warehouse = qty
		return
	}
	s.Store = qty
}
