package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
	"github.com/jhoicas/traslados-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados y sus líneas sobre PostgreSQL. El estado de recepción de cada línea
// se guarda en columnas nulas (received_quantity NULL = aún no recibida).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `
	id, number, from_store_id, to_store_id, description, status,
	created_by, created_by_name, created_at, dispatched_by, dispatched_at,
	received_by, received_by_name, received_at, cancel_reason, cancelled_by, cancelled_at,
	sale_id, updated_at`

func (r *TransferRepo) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('transfer_number_seq')`).Scan(&n); err != nil {
		return 0, mapError("next transfer number", err)
	}
	return n, nil
}

func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Number, t.FromStoreID, t.ToStoreID, t.Description, string(t.Status),
		t.CreatedBy, t.CreatedByName, t.CreatedAt, t.DispatchedBy, t.DispatchedAt,
		t.ReceivedBy, t.ReceivedByName, t.ReceivedAt, t.CancelReason, t.CancelledBy, t.CancelledAt,
		t.SaleID, t.UpdatedAt,
	)
	if err != nil {
		return mapError("insert transfer", err)
	}

	itemQuery := `
		INSERT INTO transfer_items (id, transfer_id, position, product_id, product_name, product_reference,
			requested_quantity, from_sub_location, unit_price, received_quantity, received_note, received_sub_location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	for i, it := range t.Items {
		qty, note, sub := receiptColumns(it.Receipt)
		if _, err := r.q.Exec(ctx, itemQuery,
			it.ID, t.ID, i, it.ProductID, it.ProductName, it.ProductReference,
			it.RequestedQuantity, string(it.FromSubLocation), it.UnitPrice, qty, note, sub,
		); err != nil {
			return mapError("insert transfer item", err)
		}
	}
	return nil
}

func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera del traslado: recepción y cancelación concurrentes se serializan.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransferRepo) get(ctx context.Context, query, id string) (*entity.Transfer, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get transfer", err)
	}
	if err := r.loadItems(ctx, []*entity.Transfer{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// Update persiste cabecera y estado de recepción de cada línea. Las cantidades solicitadas no cambian.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	query := `
		UPDATE transfers SET
			status = $2, dispatched_by = $3, dispatched_at = $4,
			received_by = $5, received_by_name = $6, received_at = $7,
			cancel_reason = $8, cancelled_by = $9, cancelled_at = $10,
			sale_id = $11, updated_at = $12
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		t.ID, string(t.Status), t.DispatchedBy, t.DispatchedAt,
		t.ReceivedBy, t.ReceivedByName, t.ReceivedAt,
		t.CancelReason, t.CancelledBy, t.CancelledAt,
		t.SaleID, t.UpdatedAt,
	)
	if err != nil {
		return mapError("update transfer", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("traslado", t.ID)
	}

	itemQuery := `
		UPDATE transfer_items SET received_quantity = $3, received_note = $4, received_sub_location = $5
		WHERE transfer_id = $1 AND id = $2`
	for _, it := range t.Items {
		qty, note, sub := receiptColumns(it.Receipt)
		if _, err := r.q.Exec(ctx, itemQuery, t.ID, it.ID, qty, note, sub); err != nil {
			return mapError("update transfer item", err)
		}
	}
	return nil
}

// List traslados donde la sede es origen o destino, más recientes primero, con el total sin paginar.
func (r *TransferRepo) List(ctx context.Context, f repository.TransferFilter) ([]*entity.Transfer, int, error) {
	where := `
		WHERE ($1 = '' OR from_store_id::text = $1 OR to_store_id::text = $1)
		  AND ($2 = '' OR status = $2)`

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM transfers`+where, f.StoreID, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, mapError("count transfers", err)
	}
	if total == 0 {
		return []*entity.Transfer{}, 0, nil
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+transferColumns+` FROM transfers`+where+` ORDER BY number DESC LIMIT $3 OFFSET $4`,
		f.StoreID, string(f.Status), limit, f.Offset,
	)
	if err != nil {
		return nil, 0, mapError("list transfers", err)
	}
	defer rows.Close()

	out := []*entity.Transfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, mapError("scan transfer", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("list transfers", err)
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ReservedQuantity unidades solicitadas en traslados abiertos desde la sede, por sub-ubicación.
func (r *TransferRepo) ReservedQuantity(ctx context.Context, productID, storeID string) (map[entity.SubLocation]int, error) {
	query := `
		SELECT ti.from_sub_location, COALESCE(SUM(ti.requested_quantity), 0)
		FROM transfer_items ti
		JOIN transfers t ON t.id = ti.transfer_id
		WHERE ti.product_id = $1 AND t.from_store_id = $2 AND t.status IN ('pending', 'in_transit')
		GROUP BY ti.from_sub_location`
	rows, err := r.q.Query(ctx, query, productID, storeID)
	if err != nil {
		return nil, mapError("reserved quantity", err)
	}
	defer rows.Close()
	out := map[entity.SubLocation]int{}
	for rows.Next() {
		var sub string
		var qty int
		if err := rows.Scan(&sub, &qty); err != nil {
			return nil, mapError("scan reserved quantity", err)
		}
		out[entity.SubLocation(sub)] = qty
	}
	return out, rows.Err()
}

// loadItems carga las líneas de varios traslados con una sola consulta.
func (r *TransferRepo) loadItems(ctx context.Context, transfers []*entity.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}
	ids := make([]string, len(transfers))
	byID := make(map[string]*entity.Transfer, len(transfers))
	for i, t := range transfers {
		ids[i] = t.ID
		byID[t.ID] = t
	}
	query := `
		SELECT id, transfer_id, product_id, product_name, product_reference, requested_quantity,
			from_sub_location, unit_price, received_quantity, received_note, received_sub_location
		FROM transfer_items
		WHERE transfer_id::text = ANY($1)
		ORDER BY transfer_id, position`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return mapError("load transfer items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it          entity.TransferItem
			transferID  string
			fromSub     string
			receivedQty *int
			note        string
			receivedSub *string
		)
		if err := rows.Scan(&it.ID, &transferID, &it.ProductID, &it.ProductName, &it.ProductReference,
			&it.RequestedQuantity, &fromSub, &it.UnitPrice, &receivedQty, &note, &receivedSub); err != nil {
			return mapError("scan transfer item", err)
		}
		it.FromSubLocation = entity.SubLocation(fromSub)
		it.Receipt = entity.NotYetReceived{}
		if receivedQty != nil {
			rec := entity.Received{Quantity: *receivedQty, Note: note, SubLocation: entity.SubLocationStore}
			if receivedSub != nil {
				rec.SubLocation = entity.SubLocation(*receivedSub)
			}
			it.Receipt = rec
		}
		t, ok := byID[transferID]
		if !ok {
			return fmt.Errorf("línea %s de traslado inesperado %s", it.ID, transferID)
		}
		t.Items = append(t.Items, it)
	}
	return rows.Err()
}

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var t entity.Transfer
	var status string
	err := row.Scan(
		&t.ID, &t.Number, &t.FromStoreID, &t.ToStoreID, &t.Description, &status,
		&t.CreatedBy, &t.CreatedByName, &t.CreatedAt, &t.DispatchedBy, &t.DispatchedAt,
		&t.ReceivedBy, &t.ReceivedByName, &t.ReceivedAt, &t.CancelReason, &t.CancelledBy, &t.CancelledAt,
		&t.SaleID, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = entity.TransferStatus(status)
	return &t, nil
}

// receiptColumns columnas nulas de recepción para una línea.
func receiptColumns(state entity.ReceiptState) (*int, string, *string) {
	rec, ok := state.(entity.Received)
	if !ok {
		return nil, "", nil
	}
	qty := rec.Quantity
	return &qty, rec.Note, nullableString(string(rec.SubLocation))
}
