package entity

import "time"

// Motivos de movimiento de stock.
const (
	MovementReasonOpening        = "opening"         // saldo inicial / carga
	MovementReasonTransferOut    = "transfer_out"    // salida por traslado (origen)
	MovementReasonTransferIn     = "transfer_in"     // entrada por recepción (destino)
	MovementReasonTransferCancel = "transfer_cancel" // reversa por cancelación (origen)
)

// StockMovement registro de auditoría de cada ajuste aplicado al stock.
type StockMovement struct {
	ID          string
	ProductID   string
	StoreID     string
	SubLocation SubLocation
	Delta       int // positivo entrada, negativo salida
	Balance     int // cantidad resultante en la sub-ubicación
	Reason      string
	Reference   string // ID del traslado
	CreatedBy   string // UserID
	CreatedAt   time.Time
}
