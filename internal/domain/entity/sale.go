package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de venta.
const (
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

// Métodos y estados de pago.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"

	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// Sale venta entre sedes asociada a un traslado con precio.
type Sale struct {
	ID            string
	Number        int64
	SellerStoreID string // sede origen
	BuyerStoreID  string // sede destino
	TransferID    string
	Items         []SaleItem
	Total         decimal.Decimal
	Status        string
	CreatedBy     string
	CreatedAt     time.Time
	CancelledBy   string
	CancelledAt   *time.Time
}

// SaleItem detalle de la venta.
type SaleItem struct {
	ID        string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// Payment pago registrado contra una venta (efectivo o transferencia bancaria).
type Payment struct {
	ID         string
	SaleID     string
	Method     string
	Amount     decimal.Decimal
	Status     string
	CreatedAt  time.Time
	RefundedAt *time.Time
}
