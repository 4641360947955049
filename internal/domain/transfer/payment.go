package transfer

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/traslados-api/internal/domain"
)

// DefaultPaymentTolerance diferencia máxima (exclusiva) admitida entre pagos y total.
var DefaultPaymentTolerance = decimal.NewFromInt(1)

// Payment desglose de pago de una venta entre sedes.
type Payment struct {
	Cash     decimal.Decimal
	Transfer decimal.Decimal
}

// Total efectivo + transferencia.
func (p Payment) Total() decimal.Decimal {
	return p.Cash.Add(p.Transfer)
}

// ReconcilePayment verifica que efectivo + transferencia cuadre con el total.
// La diferencia debe ser estrictamente menor a la tolerancia: 100.000 contra 100.001 se rechaza.
func ReconcilePayment(total decimal.Decimal, p Payment, tolerance decimal.Decimal) error {
	if p.Cash.IsNegative() || p.Transfer.IsNegative() {
		return domain.NewValidationError(nil, domain.CodePaymentMismatch, "los montos de pago no pueden ser negativos")
	}
	if !fitsMoneyScale(p.Cash) || !fitsMoneyScale(p.Transfer) {
		return domain.NewValidationError(nil, domain.CodePaymentMismatch,
			"los montos de pago admiten máximo %d decimales", MoneyScale)
	}
	diff := p.Total().Sub(total).Abs()
	if diff.GreaterThanOrEqual(tolerance) {
		return domain.NewValidationError(nil, domain.CodePaymentMismatch,
			"el pago (efectivo %s + transferencia %s = %s) no coincide con el total %s",
			p.Cash.String(), p.Transfer.String(), p.Total().String(), total.String())
	}
	return nil
}
