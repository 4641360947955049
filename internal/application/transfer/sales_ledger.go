package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
	domtransfer "github.com/jhoicas/traslados-api/internal/domain/transfer"
)

// SalesLedger registra ventas entre sedes y sus pagos, y las reversa al cancelar.
type SalesLedger struct {
	tolerance decimal.Decimal
	now       func() time.Time
}

// NewSalesLedger construye el libro de ventas. tolerance es la diferencia máxima
// (exclusiva) entre pagos y total; cero usa la tolerancia por defecto.
func NewSalesLedger(tolerance decimal.Decimal) *SalesLedger {
	if !tolerance.IsPositive() {
		tolerance = domtransfer.DefaultPaymentTolerance
	}
	return &SalesLedger{tolerance: tolerance, now: time.Now}
}

// SaleItemInput detalle de venta.
type SaleItemInput struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// SaleInput venta asociada a un traslado.
type SaleInput struct {
	SellerStoreID string
	BuyerStoreID  string
	TransferID    string
	Items         []SaleItemInput
	Total         decimal.Decimal
	Payment       domtransfer.Payment
	ActorID       string
}

// CreateSale persiste la venta y un pago por cada monto distinto de cero.
// El total debe ser la suma de los detalles y el pago debe cuadrar con él.
func (l *SalesLedger) CreateSale(ctx context.Context, repos Repositories, in SaleInput) (string, error) {
	if len(in.Items) == 0 {
		return "", domain.NewValidationError(nil, domain.CodeNoItems, "la venta debe tener al menos un producto")
	}
	now := l.now()
	sale := &entity.Sale{
		ID:            uuid.New().String(),
		SellerStoreID: in.SellerStoreID,
		BuyerStoreID:  in.BuyerStoreID,
		TransferID:    in.TransferID,
		Status:        entity.SaleStatusCompleted,
		CreatedBy:     in.ActorID,
		CreatedAt:     now,
	}
	sum := decimal.Zero
	for _, it := range in.Items {
		subtotal := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum = sum.Add(subtotal)
		sale.Items = append(sale.Items, entity.SaleItem{
			ID:        uuid.New().String(),
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  subtotal,
		})
	}
	if !sum.Equal(in.Total) {
		return "", domain.NewValidationError(nil, domain.CodePaymentMismatch,
			"el total de la venta %s no coincide con la suma de los productos %s", in.Total.String(), sum.String())
	}
	if err := domtransfer.ReconcilePayment(in.Total, in.Payment, l.tolerance); err != nil {
		return "", err
	}
	sale.Total = in.Total

	number, err := repos.Sales.NextNumber(ctx)
	if err != nil {
		return "", err
	}
	sale.Number = number
	if err := repos.Sales.Create(ctx, sale); err != nil {
		return "", err
	}

	for _, p := range []struct {
		method string
		amount decimal.Decimal
	}{
		{entity.PaymentMethodCash, in.Payment.Cash},
		{entity.PaymentMethodTransfer, in.Payment.Transfer},
	} {
		if p.amount.IsZero() {
			continue
		}
		payment := &entity.Payment{
			ID:        uuid.New().String(),
			SaleID:    sale.ID,
			Method:    p.method,
			Amount:    p.amount,
			Status:    entity.PaymentStatusPaid,
			CreatedAt: now,
		}
		if err := repos.Sales.CreatePayment(ctx, payment); err != nil {
			return "", err
		}
	}
	return sale.ID, nil
}

// CancelSale marca la venta como cancelada y reembolsa sus pagos.
// Devuelve el total reembolsado (suma de los pagos vigentes).
func (l *SalesLedger) CancelSale(ctx context.Context, repos Repositories, saleID, actorID string) (decimal.Decimal, error) {
	sale, err := repos.Sales.GetByID(ctx, saleID)
	if err != nil {
		return decimal.Zero, err
	}
	if sale == nil {
		return decimal.Zero, domain.NotFound("venta", saleID)
	}
	if sale.Status == entity.SaleStatusCancelled {
		return decimal.Zero, domain.NewValidationError(domain.ErrInvalidTransition, domain.CodeTerminalTransfer,
			"la venta %d ya está cancelada", sale.Number)
	}
	now := l.now()
	sale.Status = entity.SaleStatusCancelled
	sale.CancelledBy = actorID
	sale.CancelledAt = &now
	if err := repos.Sales.Update(ctx, sale); err != nil {
		return decimal.Zero, err
	}

	payments, err := repos.Sales.ListPayments(ctx, saleID)
	if err != nil {
		return decimal.Zero, err
	}
	refund := decimal.Zero
	for _, p := range payments {
		if p.Status != entity.PaymentStatusPaid {
			continue
		}
		p.Status = entity.PaymentStatusRefunded
		p.RefundedAt = &now
		if err := repos.Sales.UpdatePayment(ctx, p); err != nil {
			return decimal.Zero, err
		}
		refund = refund.Add(p.Amount)
	}
	return refund, nil
}
