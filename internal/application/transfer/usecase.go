package transfer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
	"github.com/jhoicas/traslados-api/internal/domain/repository"
	domtransfer "github.com/jhoicas/traslados-api/internal/domain/transfer"
)

// Config parámetros del motor de traslados.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
	IdempotencyTTL  time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if c.IdempotencyTTL <= 0 {
		c.IdempotencyTTL = 24 * time.Hour
	}
	return c
}

// TransferUseCase motor de traslados: creación, despacho, recepción y cancelación,
// cada operación en una única transacción contra el stock y, si aplica, las ventas.
type TransferUseCase struct {
	txRunner     TxRunner
	transferRepo repository.TransferRepository
	productRepo  repository.ProductRepository
	storeRepo    repository.StoreRepository
	stock        *StockLedger
	sales        *SalesLedger
	idempotency  IdempotencyStore
	cfg          Config
	log          zerolog.Logger
	now          func() time.Time
}

// Option configura opciones del caso de uso.
type Option func(*TransferUseCase)

// WithIdempotency habilita claves de idempotencia en la creación.
func WithIdempotency(store IdempotencyStore) Option {
	return func(uc *TransferUseCase) { uc.idempotency = store }
}

// WithLogger inyecta el logger estructurado.
func WithLogger(log zerolog.Logger) Option {
	return func(uc *TransferUseCase) { uc.log = log }
}

// WithClock reemplaza el reloj (pruebas).
func WithClock(now func() time.Time) Option {
	return func(uc *TransferUseCase) {
		uc.now = now
		uc.stock.now = now
		uc.sales.now = now
	}
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(
	txRunner TxRunner,
	transferRepo repository.TransferRepository,
	productRepo repository.ProductRepository,
	storeRepo repository.StoreRepository,
	stock *StockLedger,
	sales *SalesLedger,
	cfg Config,
	opts ...Option,
) *TransferUseCase {
	uc := &TransferUseCase{
		txRunner:     txRunner,
		transferRepo: transferRepo,
		productRepo:  productRepo,
		storeRepo:    storeRepo,
		stock:        stock,
		sales:        sales,
		cfg:          cfg.withDefaults(),
		log:          zerolog.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// TransferLineInput línea solicitada.
type TransferLineInput struct {
	ProductID       string
	Quantity        int
	FromSubLocation entity.SubLocation
	UnitPrice       decimal.Decimal // cero = precio del producto
}

// PaymentInput desglose de pago cuando el traslado es también una venta entre sedes.
type PaymentInput struct {
	Cash     decimal.Decimal
	Transfer decimal.Decimal
}

// CreateTransferInput entrada para crear un traslado.
type CreateTransferInput struct {
	FromStoreID    string
	ToStoreID      string
	Description    string
	Items          []TransferLineInput
	Payment        *PaymentInput
	ActorID        string
	ActorName      string
	IdempotencyKey string
}

// Create valida, descuenta el stock de origen de todas las líneas y persiste el traslado
// en estado pendiente (y la venta asociada si hay pago), todo o nada.
func (uc *TransferUseCase) Create(ctx context.Context, in CreateTransferInput) (*entity.Transfer, error) {
	lines := make([]domtransfer.Line, len(in.Items))
	for i, it := range in.Items {
		lines[i] = domtransfer.Line{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			FromSubLocation: it.FromSubLocation,
			UnitPrice:       it.UnitPrice,
		}
	}
	if err := domtransfer.ValidateRequest(in.FromStoreID, in.ToStoreID, lines); err != nil {
		return nil, err
	}

	// Validar sedes y productos (fuera de la tx, solo lectura)
	from, err := uc.storeRepo.GetByID(ctx, in.FromStoreID)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, domain.NotFound("sede", in.FromStoreID)
	}
	to, err := uc.storeRepo.GetByID(ctx, in.ToStoreID)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, domain.NotFound("sede", in.ToStoreID)
	}
	if !to.Active {
		return nil, domain.NewValidationError(nil, domain.CodeInactiveStore, "la sede destino %s no está activa", to.Name)
	}

	now := uc.now()
	tr := &entity.Transfer{
		ID:            uuid.New().String(),
		FromStoreID:   in.FromStoreID,
		ToStoreID:     in.ToStoreID,
		Description:   strings.TrimSpace(in.Description),
		CreatedBy:     in.ActorID,
		CreatedByName: in.ActorName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	products := make(map[string]*entity.Product)
	for _, it := range in.Items {
		product, ok := products[it.ProductID]
		if !ok {
			product, err = uc.productRepo.GetByID(ctx, it.ProductID)
			if err != nil {
				return nil, err
			}
			if product == nil || !product.Active {
				return nil, domain.NotFound("producto", it.ProductID)
			}
			products[it.ProductID] = product
		}
		price := it.UnitPrice
		if price.IsZero() {
			price = product.Price
		}
		tr.Items = append(tr.Items, entity.TransferItem{
			ID:                uuid.New().String(),
			ProductID:         product.ID,
			ProductName:       product.Name,
			ProductReference:  product.Reference,
			RequestedQuantity: it.Quantity,
			FromSubLocation:   it.FromSubLocation,
			UnitPrice:         price,
			Receipt:           entity.NotYetReceived{},
		})
	}
	tr.Status = domtransfer.DeriveStatus(tr)

	if in.Payment != nil {
		p := domtransfer.Payment{Cash: in.Payment.Cash, Transfer: in.Payment.Transfer}
		if err := domtransfer.ReconcilePayment(tr.TotalValue(), p, uc.sales.tolerance); err != nil {
			return nil, err
		}
	}

	release, err := uc.acquireIdempotency(ctx, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos Repositories) error {
		// 1) Bloquear filas de stock en orden determinista y verificar todas las líneas
		// antes de escribir: si una no alcanza, no se descuenta ninguna.
		for _, d := range domtransfer.AggregateDemand(tr.Items) {
			stock, err := repos.Stock.GetForUpdate(ctx, d.ProductID, in.FromStoreID)
			if err != nil {
				return err
			}
			if err := domtransfer.CheckAvailability(d, products[d.ProductID].Name, stock.Quantity(d.SubLocation)); err != nil {
				return err
			}
		}

		// 2) Número consecutivo y descuento del origen
		number, err := repos.Transfers.NextNumber(ctx)
		if err != nil {
			return err
		}
		tr.Number = number
		for _, it := range tr.Items {
			if _, err := uc.stock.Adjust(ctx, repos, AdjustInput{
				ProductID:   it.ProductID,
				StoreID:     tr.FromStoreID,
				SubLocation: it.FromSubLocation,
				Delta:       -it.RequestedQuantity,
				Reason:      entity.MovementReasonTransferOut,
				Reference:   tr.ID,
				ActorID:     in.ActorID,
			}); err != nil {
				return err
			}
		}

		// 3) Venta entre sedes
		if in.Payment != nil {
			saleItems := make([]SaleItemInput, 0, len(tr.Items))
			for _, it := range tr.Items {
				saleItems = append(saleItems, SaleItemInput{ProductID: it.ProductID, Quantity: it.RequestedQuantity, UnitPrice: it.UnitPrice})
			}
			saleID, err := uc.sales.CreateSale(ctx, repos, SaleInput{
				SellerStoreID: tr.FromStoreID,
				BuyerStoreID:  tr.ToStoreID,
				TransferID:    tr.ID,
				Items:         saleItems,
				Total:         tr.TotalValue(),
				Payment:       domtransfer.Payment{Cash: in.Payment.Cash, Transfer: in.Payment.Transfer},
				ActorID:       in.ActorID,
			})
			if err != nil {
				return err
			}
			tr.SaleID = &saleID
		}

		return repos.Transfers.Create(ctx, tr)
	})
	if err != nil {
		release()
		uc.logRejected("crear", in.FromStoreID, err)
		return nil, err
	}

	uc.log.Info().
		Str("transfer_id", tr.ID).
		Str("code", tr.Code()).
		Str("from", tr.FromStoreID).
		Str("to", tr.ToStoreID).
		Int("units", tr.TotalRequested()).
		Bool("sale", tr.SaleID != nil).
		Str("actor", in.ActorID).
		Msg("traslado creado")
	return tr, nil
}

// Dispatch marca un traslado pendiente como en tránsito. No mueve stock.
func (uc *TransferUseCase) Dispatch(ctx context.Context, transferID, actorID string) (*entity.Transfer, error) {
	var out *entity.Transfer
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repositories) error {
		tr, err := uc.lockTransfer(ctx, repos, transferID)
		if err != nil {
			return err
		}
		if err := domtransfer.EnsureDispatchable(tr); err != nil {
			return err
		}
		now := uc.now()
		tr.DispatchedAt = &now
		tr.DispatchedBy = actorID
		tr.UpdatedAt = now
		tr.Status = domtransfer.DeriveStatus(tr)
		out = tr
		return repos.Transfers.Update(ctx, tr)
	})
	if err != nil {
		uc.logRejected("despachar", transferID, err)
		return nil, err
	}
	uc.log.Info().Str("transfer_id", out.ID).Str("code", out.Code()).Str("actor", actorID).Msg("traslado despachado")
	return out, nil
}

// ReceivedItemInput cantidad recibida de una línea. QuantityReceived nil = completa.
type ReceivedItemInput struct {
	ItemID           string
	QuantityReceived *int
	Note             string
	SubLocation      entity.SubLocation
}

// ReceiveTransferInput entrada para recibir un traslado.
type ReceiveTransferInput struct {
	TransferID  string
	Items       []ReceivedItemInput
	SubLocation entity.SubLocation // sub-ubicación destino por defecto (store si vacío)
	ActorID     string
	ActorName   string
}

// Receive suma en el destino lo recibido por línea y recalcula el estado. Lo solicitado y
// no recibido no regresa al origen (merma). Una segunda recepción se rechaza.
func (uc *TransferUseCase) Receive(ctx context.Context, in ReceiveTransferInput) (*entity.Transfer, error) {
	lines := make([]domtransfer.ReceiptLine, len(in.Items))
	for i, it := range in.Items {
		lines[i] = domtransfer.ReceiptLine{ItemID: it.ItemID, Quantity: it.QuantityReceived, Note: strings.TrimSpace(it.Note), SubLocation: it.SubLocation}
	}

	var out *entity.Transfer
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repositories) error {
		tr, err := uc.lockTransfer(ctx, repos, in.TransferID)
		if err != nil {
			return err
		}
		if err := domtransfer.EnsureOpen(tr); err != nil {
			return err
		}
		plan, err := domtransfer.PlanReceipt(tr, lines, in.SubLocation)
		if err != nil {
			return err
		}
		order := domtransfer.StockOrder(len(plan), func(i int) (string, entity.SubLocation) {
			return plan[i].ProductID, plan[i].Received.SubLocation
		})
		for _, i := range order {
			p := plan[i]
			if p.Received.Quantity > 0 {
				if _, err := uc.stock.Adjust(ctx, repos, AdjustInput{
					ProductID:   p.ProductID,
					StoreID:     tr.ToStoreID,
					SubLocation: p.Received.SubLocation,
					Delta:       p.Received.Quantity,
					Reason:      entity.MovementReasonTransferIn,
					Reference:   tr.ID,
					ActorID:     in.ActorID,
				}); err != nil {
					return err
				}
			}
			tr.Items[i].Receipt = p.Received
		}
		now := uc.now()
		tr.ReceivedBy = in.ActorID
		tr.ReceivedByName = in.ActorName
		tr.ReceivedAt = &now
		tr.UpdatedAt = now
		tr.Status = domtransfer.DeriveStatus(tr)
		out = tr
		return repos.Transfers.Update(ctx, tr)
	})
	if err != nil {
		uc.logRejected("recibir", in.TransferID, err)
		return nil, err
	}

	ev := uc.log.Info()
	if out.Status == entity.TransferStatusPartiallyReceived {
		ev = uc.log.Warn().Int("shrinkage", out.TotalRequested()-out.TotalReceived())
	}
	ev.Str("transfer_id", out.ID).
		Str("code", out.Code()).
		Str("status", string(out.Status)).
		Int("received", out.TotalReceived()).
		Str("actor", in.ActorID).
		Msg("traslado recibido")
	return out, nil
}

// CancelResult resultado de la cancelación para el mensaje de confirmación.
type CancelResult struct {
	Transfer    *entity.Transfer
	Success     bool
	TotalRefund decimal.Decimal
}

// Cancel devuelve al origen lo solicitado en cada línea, marca el traslado como cancelado
// y, si hay venta asociada, la cancela y reembolsa sus pagos.
func (uc *TransferUseCase) Cancel(ctx context.Context, transferID, reason, actorID string) (*CancelResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.NewValidationError(nil, domain.CodeReasonRequired, "el motivo de cancelación es obligatorio")
	}

	res := &CancelResult{TotalRefund: decimal.Zero}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repositories) error {
		tr, err := uc.lockTransfer(ctx, repos, transferID)
		if err != nil {
			return err
		}
		if err := domtransfer.EnsureOpen(tr); err != nil {
			return err
		}
		order := domtransfer.StockOrder(len(tr.Items), func(i int) (string, entity.SubLocation) {
			return tr.Items[i].ProductID, tr.Items[i].FromSubLocation
		})
		for _, i := range order {
			it := tr.Items[i]
			if _, err := uc.stock.Adjust(ctx, repos, AdjustInput{
				ProductID:   it.ProductID,
				StoreID:     tr.FromStoreID,
				SubLocation: it.FromSubLocation,
				Delta:       it.RequestedQuantity,
				Reason:      entity.MovementReasonTransferCancel,
				Reference:   tr.ID,
				ActorID:     actorID,
			}); err != nil {
				return err
			}
		}
		if tr.SaleID != nil {
			refund, err := uc.sales.CancelSale(ctx, repos, *tr.SaleID, actorID)
			if err != nil {
				return err
			}
			res.TotalRefund = refund
		}
		now := uc.now()
		tr.CancelReason = reason
		tr.CancelledBy = actorID
		tr.CancelledAt = &now
		tr.UpdatedAt = now
		tr.Status = domtransfer.DeriveStatus(tr)
		res.Transfer = tr
		return repos.Transfers.Update(ctx, tr)
	})
	if err != nil {
		uc.logRejected("cancelar", transferID, err)
		return nil, err
	}
	res.Success = true

	uc.log.Info().
		Str("transfer_id", res.Transfer.ID).
		Str("code", res.Transfer.Code()).
		Str("refund", res.TotalRefund.String()).
		Str("actor", actorID).
		Msg("traslado cancelado")
	return res, nil
}

// Get obtiene un traslado por ID.
func (uc *TransferUseCase) Get(ctx context.Context, transferID string) (*entity.Transfer, error) {
	tr, err := uc.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, domain.NotFound("traslado", transferID)
	}
	return tr, nil
}

// ListTransfersInput filtros y página (desde 1).
type ListTransfersInput struct {
	StoreID  string
	Status   entity.TransferStatus
	Page     int
	PageSize int
}

// TransferPage página de traslados.
type TransferPage struct {
	Items    []*entity.Transfer
	Total    int
	Page     int
	PageSize int
	HasMore  bool
}

// List lista traslados de una sede (origen o destino), más recientes primero.
func (uc *TransferUseCase) List(ctx context.Context, in ListTransfersInput) (*TransferPage, error) {
	if in.Status != "" && !in.Status.IsValid() {
		return nil, domain.NewValidationError(nil, domain.CodeInvalidStatus, "estado desconocido %q", in.Status)
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size <= 0 {
		size = uc.cfg.DefaultPageSize
	}
	if size > uc.cfg.MaxPageSize {
		size = uc.cfg.MaxPageSize
	}
	items, total, err := uc.transferRepo.List(ctx, repository.TransferFilter{
		StoreID: in.StoreID,
		Status:  in.Status,
		Limit:   size,
		Offset:  (page - 1) * size,
	})
	if err != nil {
		return nil, err
	}
	return &TransferPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: size,
		HasMore:  page*size < total,
	}, nil
}

func (uc *TransferUseCase) lockTransfer(ctx context.Context, repos Repositories, id string) (*entity.Transfer, error) {
	tr, err := repos.Transfers.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, domain.NotFound("traslado", id)
	}
	return tr, nil
}

// acquireIdempotency reserva la clave; la función devuelta la libera si la operación falla.
func (uc *TransferUseCase) acquireIdempotency(ctx context.Context, key string) (func(), error) {
	noop := func() {}
	if key == "" || uc.idempotency == nil {
		return noop, nil
	}
	ok, err := uc.idempotency.Acquire(ctx, "transfers:create:"+key, uc.cfg.IdempotencyTTL)
	if err != nil {
		return noop, err
	}
	if !ok {
		return noop, domain.NewValidationError(domain.ErrDuplicate, domain.CodeDuplicateRequest,
			"la solicitud con clave %s ya fue procesada", key)
	}
	return func() {
		if err := uc.idempotency.Release(context.WithoutCancel(ctx), "transfers:create:"+key); err != nil {
			uc.log.Error().Err(err).Str("key", key).Msg("liberar clave de idempotencia")
		}
	}, nil
}

func (uc *TransferUseCase) logRejected(op, ref string, err error) {
	if domain.IsValidation(err) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
		uc.log.Warn().Str("op", op).Str("ref", ref).Err(err).Msg("operación de traslado rechazada")
		return
	}
	uc.log.Error().Str("op", op).Str("ref", ref).Err(err).Msg("operación de traslado fallida")
}
