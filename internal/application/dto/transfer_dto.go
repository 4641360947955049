package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	FromStoreID string                `json:"from_store_id" validate:"required"`
	ToStoreID   string                `json:"to_store_id" validate:"required"`
	Description string                `json:"description,omitempty" validate:"max=500"`
	Items       []TransferItemRequest `json:"items" validate:"required,min=1,dive"`
	Payment     *PaymentRequest       `json:"payment,omitempty"`
}

// TransferItemRequest línea solicitada. unit_price omitido = precio del producto.
type TransferItemRequest struct {
	ProductID       string          `json:"product_id" validate:"required"`
	Quantity        int             `json:"quantity" validate:"gt=0"`
	FromSubLocation string          `json:"from_sub_location" validate:"required,oneof=warehouse store"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// PaymentRequest desglose del pago de la venta entre sedes.
type PaymentRequest struct {
	Cash     decimal.Decimal `json:"cash"`
	Transfer decimal.Decimal `json:"transfer"`
}

// ReceiveTransferRequest body para POST /api/transfers/:id/receive.
// Las líneas omitidas se reciben completas.
type ReceiveTransferRequest struct {
	SubLocation string               `json:"sub_location,omitempty" validate:"omitempty,oneof=warehouse store"`
	Items       []ReceiveItemRequest `json:"items" validate:"dive"`
}

// ReceiveItemRequest cantidad recibida de una línea. quantity_received omitido = completa.
type ReceiveItemRequest struct {
	ItemID           string `json:"item_id" validate:"required"`
	QuantityReceived *int   `json:"quantity_received,omitempty" validate:"omitempty,min=0"`
	Note             string `json:"note,omitempty" validate:"max=500"`
	SubLocation      string `json:"sub_location,omitempty" validate:"omitempty,oneof=warehouse store"`
}

// CancelTransferRequest body para POST /api/transfers/:id/cancel.
type CancelTransferRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListTransfersRequest query de GET /api/transfers.
type ListTransfersRequest struct {
	PageRequest
	StoreID string `query:"store_id"`
	Status  string `query:"status" validate:"omitempty,oneof=pending in_transit received partially_received cancelled"`
}

// TransferResponse traslado con sus líneas.
type TransferResponse struct {
	ID             string                 `json:"id"`
	Code           string                 `json:"code"`
	FromStoreID    string                 `json:"from_store_id"`
	ToStoreID      string                 `json:"to_store_id"`
	Description    string                 `json:"description,omitempty"`
	Status         string                 `json:"status"`
	Items          []TransferItemResponse `json:"items"`
	TotalValue     decimal.Decimal        `json:"total_value"`
	TotalRequested int                    `json:"total_requested"`
	TotalReceived  int                    `json:"total_received"`
	SaleID         *string                `json:"sale_id,omitempty"`
	CreatedBy      string                 `json:"created_by"`
	CreatedByName  string                 `json:"created_by_name,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	DispatchedAt   *time.Time             `json:"dispatched_at,omitempty"`
	ReceivedBy     string                 `json:"received_by,omitempty"`
	ReceivedByName string                 `json:"received_by_name,omitempty"`
	ReceivedAt     *time.Time             `json:"received_at,omitempty"`
	CancelReason   string                 `json:"cancel_reason,omitempty"`
	CancelledAt    *time.Time             `json:"cancelled_at,omitempty"`
}

// TransferItemResponse línea del traslado. received es false mientras no se haya recibido.
type TransferItemResponse struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	ProductName         string          `json:"product_name"`
	ProductReference    string          `json:"product_reference,omitempty"`
	RequestedQuantity   int             `json:"requested_quantity"`
	FromSubLocation     string          `json:"from_sub_location"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Received            bool            `json:"received"`
	QuantityReceived    *int            `json:"quantity_received,omitempty"`
	ReceivedNote        string          `json:"received_note,omitempty"`
	ReceivedSubLocation string          `json:"received_sub_location,omitempty"`
}

// TransferListResponse página de traslados.
type TransferListResponse struct {
	PageResponse
	Items []TransferResponse `json:"items"`
}

// CancelTransferResponse resultado de la cancelación.
type CancelTransferResponse struct {
	Success     bool             `json:"success"`
	TotalRefund decimal.Decimal  `json:"total_refund"`
	Transfer    TransferResponse `json:"transfer"`
}

// FromTransfer traduce la entidad a la respuesta HTTP.
func FromTransfer(t *entity.Transfer) TransferResponse {
	out := TransferResponse{
		ID:             t.ID,
		Code:           t.Code(),
		FromStoreID:    t.FromStoreID,
		ToStoreID:      t.ToStoreID,
		Description:    t.Description,
		Status:         string(t.Status),
		Items:          make([]TransferItemResponse, 0, len(t.Items)),
		TotalValue:     t.TotalValue(),
		TotalRequested: t.TotalRequested(),
		TotalReceived:  t.TotalReceived(),
		SaleID:         t.SaleID,
		CreatedBy:      t.CreatedBy,
		CreatedByName:  t.CreatedByName,
		CreatedAt:      t.CreatedAt,
		DispatchedAt:   t.DispatchedAt,
		ReceivedBy:     t.ReceivedBy,
		ReceivedByName: t.ReceivedByName,
		ReceivedAt:     t.ReceivedAt,
		CancelReason:   t.CancelReason,
		CancelledAt:    t.CancelledAt,
	}
	for i := range t.Items {
		it := &t.Items[i]
		item := TransferItemResponse{
			ID:                it.ID,
			ProductID:         it.ProductID,
			ProductName:       it.ProductName,
			ProductReference:  it.ProductReference,
			RequestedQuantity: it.RequestedQuantity,
			FromSubLocation:   string(it.FromSubLocation),
			UnitPrice:         it.UnitPrice,
			Subtotal:          it.Subtotal(),
		}
		if rec, ok := it.Receipt.(entity.Received); ok {
			qty := rec.Quantity
			item.Received = true
			item.QuantityReceived = &qty
			item.ReceivedNote = rec.Note
			item.ReceivedSubLocation = string(rec.SubLocation)
		}
		out.Items = append(out.Items, item)
	}
	return out
}
