package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus estado de un traslado. Se deriva de las líneas; nunca lo fija el llamador.
type TransferStatus string

const (
	TransferStatusPending           TransferStatus = "pending"
	TransferStatusInTransit         TransferStatus = "in_transit"
	TransferStatusReceived          TransferStatus = "received"
	TransferStatusPartiallyReceived TransferStatus = "partially_received"
	TransferStatusCancelled         TransferStatus = "cancelled"
)

// IsValid indica si el estado es conocido.
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusPending, TransferStatusInTransit, TransferStatusReceived,
		TransferStatusPartiallyReceived, TransferStatusCancelled:
		return true
	}
	return false
}

// IsOpen indica si el traslado aún admite recepción o cancelación.
func (s TransferStatus) IsOpen() bool {
	return s == TransferStatusPending || s == TransferStatusInTransit
}

// ReceiptState estado de recepción de una línea: NotYetReceived o Received.
type ReceiptState interface {
	receiptState()
}

// NotYetReceived la línea aún no se ha recibido.
type NotYetReceived struct{}

// Received la línea se recibió con la cantidad indicada (puede ser menor a la solicitada).
type Received struct {
	Quantity    int
	Note        string
	SubLocation SubLocation // sub-ubicación destino elegida por quien recibe
}

func (NotYetReceived) receiptState() {}
func (Received) receiptState()       {}

// TransferItem línea de un traslado. ProductName y ProductReference son instantáneas.
type TransferItem struct {
	ID                string
	ProductID         string
	ProductName       string
	ProductReference  string
	RequestedQuantity int
	FromSubLocation   SubLocation
	UnitPrice         decimal.Decimal
	Receipt           ReceiptState
}

// ReceivedQuantity devuelve la cantidad recibida y si la línea ya fue recibida.
func (i *TransferItem) ReceivedQuantity() (int, bool) {
	if r, ok := i.Receipt.(Received); ok {
		return r.Quantity, true
	}
	return 0, false
}

// Subtotal precio unitario por cantidad solicitada.
func (i *TransferItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.RequestedQuantity)))
}

// Transfer orden de movimiento de stock entre dos sedes.
type Transfer struct {
	ID            string
	Number        int64 // consecutivo de visualización
	FromStoreID   string
	ToStoreID     string
	Description   string
	Items         []TransferItem
	Status        TransferStatus
	CreatedBy     string
	CreatedByName string
	CreatedAt     time.Time

	DispatchedBy string
	DispatchedAt *time.Time

	ReceivedBy     string
	ReceivedByName string
	ReceivedAt     *time.Time

	CancelReason string
	CancelledBy  string
	CancelledAt  *time.Time

	SaleID    *string // venta entre sedes asociada, si el traslado tiene precio
	UpdatedAt time.Time
}

// Code número legible del traslado (TRF-000042).
func (t *Transfer) Code() string {
	return fmt.Sprintf("TRF-%06d", t.Number)
}

// TotalValue suma de precio unitario por cantidad solicitada.
func (t *Transfer) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for i := range t.Items {
		total = total.Add(t.Items[i].Subtotal())
	}
	return total
}

// TotalRequested unidades solicitadas en todas las líneas.
func (t *Transfer) TotalRequested() int {
	n := 0
	for i := range t.Items {
		n += t.Items[i].RequestedQuantity
	}
	return n
}

// TotalReceived unidades recibidas en todas las líneas.
func (t *Transfer) TotalReceived() int {
	n := 0
	for i := range t.Items {
		if q, ok := t.Items[i].ReceivedQuantity(); ok {
			n += q
		}
	}
	return n
}

// ItemByID busca una línea por ID.
func (t *Transfer) ItemByID(id string) (*TransferItem, bool) {
	for i := range t.Items {
		if t.Items[i].ID == id {
			return &t.Items[i], true
		}
	}
	return nil, false
}

// Clone copia profunda (líneas y punteros de auditoría).
func (t *Transfer) Clone() *Transfer {
	if t == nil {
		return nil
	}
	c := *t
	c.Items = make([]TransferItem, len(t.Items))
	copy(c.Items, t.Items)
	c.DispatchedAt = cloneTime(t.DispatchedAt)
	c.ReceivedAt = cloneTime(t.ReceivedAt)
	c.CancelledAt = cloneTime(t.CancelledAt)
	if t.SaleID != nil {
		id := *t.SaleID
		c.SaleID = &id
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
