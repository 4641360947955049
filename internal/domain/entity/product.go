package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. Name y Reference se copian a las líneas
// de traslado como instantánea al momento de crearlas.
type Product struct {
	ID        string
	Name      string
	Reference string          // código/referencia visible en tienda
	Price     decimal.Decimal // precio de venta entre sedes por defecto
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
