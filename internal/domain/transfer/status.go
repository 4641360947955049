package transfer

import (
	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

// DeriveStatus calcula el estado del traslado a partir de sus líneas y marcas de auditoría.
// Es la única fuente del estado: cancelado > recibido/parcial > en tránsito > pendiente.
func DeriveStatus(t *entity.Transfer) entity.TransferStatus {
	if t.CancelledAt != nil {
		return entity.TransferStatusCancelled
	}
	anyReceived := false
	complete := true
	for i := range t.Items {
		q, ok := t.Items[i].ReceivedQuantity()
		if !ok {
			complete = false
			continue
		}
		anyReceived = true
		if q < t.Items[i].RequestedQuantity {
			complete = false
		}
	}
	if anyReceived {
		if complete {
			return entity.TransferStatusReceived
		}
		return entity.TransferStatusPartiallyReceived
	}
	if t.DispatchedAt != nil {
		return entity.TransferStatusInTransit
	}
	return entity.TransferStatusPending
}

// EnsureOpen rechaza cualquier operación sobre un traslado en estado terminal.
func EnsureOpen(t *entity.Transfer) error {
	if t.Status.IsOpen() {
		return nil
	}
	return domain.NewValidationError(domain.ErrInvalidTransition, domain.CodeTerminalTransfer,
		"el traslado %s está en estado %s y no admite cambios", t.Code(), t.Status)
}

// EnsureDispatchable solo un traslado pendiente puede marcarse en tránsito.
func EnsureDispatchable(t *entity.Transfer) error {
	if t.Status == entity.TransferStatusPending {
		return nil
	}
	return domain.NewValidationError(domain.ErrInvalidTransition, domain.CodeTerminalTransfer,
		"solo un traslado pendiente puede despacharse (estado actual: %s)", t.Status)
}
