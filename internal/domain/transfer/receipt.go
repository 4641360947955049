package transfer

import (
	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

// ReceiptLine cantidad informada por quien recibe para una línea.
// Quantity nil significa recepción completa.
type ReceiptLine struct {
	ItemID      string
	Quantity    *int
	Note        string
	SubLocation entity.SubLocation
}

// PlannedReceipt recepción resuelta para una línea del traslado (mismo orden que Items).
type PlannedReceipt struct {
	ItemID    string
	ProductID string
	Received  entity.Received
}

// PlanReceipt concilia lo informado contra lo solicitado. Las líneas omitidas se reciben
// completas; ninguna puede superar lo solicitado y al menos una unidad debe recibirse.
func PlanReceipt(t *entity.Transfer, lines []ReceiptLine, defaultSub entity.SubLocation) ([]PlannedReceipt, error) {
	if defaultSub == "" {
		defaultSub = entity.SubLocationStore
	}
	if !defaultSub.IsValid() {
		return nil, domain.NewValidationError(nil, domain.CodeInvalidSubLocation, "sub-ubicación de destino inválida %q", defaultSub)
	}
	byItem := make(map[string]ReceiptLine, len(lines))
	for _, l := range lines {
		if _, ok := t.ItemByID(l.ItemID); !ok {
			return nil, domain.NewValidationError(nil, domain.CodeUnknownItem, "la línea %s no pertenece al traslado %s", l.ItemID, t.Code())
		}
		if _, dup := byItem[l.ItemID]; dup {
			return nil, domain.NewValidationError(nil, domain.CodeDuplicateItem, "la línea %s está repetida", l.ItemID)
		}
		if l.SubLocation != "" && !l.SubLocation.IsValid() {
			return nil, domain.NewValidationError(nil, domain.CodeInvalidSubLocation, "sub-ubicación de destino inválida %q", l.SubLocation)
		}
		byItem[l.ItemID] = l
	}

	plan := make([]PlannedReceipt, 0, len(t.Items))
	total := 0
	for _, it := range t.Items {
		rec := entity.Received{Quantity: it.RequestedQuantity, SubLocation: defaultSub}
		if l, ok := byItem[it.ID]; ok {
			if l.Quantity != nil {
				rec.Quantity = *l.Quantity
			}
			rec.Note = l.Note
			if l.SubLocation != "" {
				rec.SubLocation = l.SubLocation
			}
		}
		if rec.Quantity < 0 {
			return nil, domain.NewValidationError(nil, domain.CodeInvalidQuantity,
				"%s: la cantidad recibida no puede ser negativa", it.ProductName)
		}
		if rec.Quantity > it.RequestedQuantity {
			return nil, domain.NewValidationError(nil, domain.CodeOverReceipt,
				"%s: recibido %d supera lo solicitado %d", it.ProductName, rec.Quantity, it.RequestedQuantity)
		}
		total += rec.Quantity
		plan = append(plan, PlannedReceipt{ItemID: it.ID, ProductID: it.ProductID, Received: rec})
	}
	if total == 0 {
		return nil, domain.NewValidationError(nil, domain.CodeEmptyReceipt, "la recepción debe incluir al menos una unidad")
	}
	return plan, nil
}
