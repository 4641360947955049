package transfer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/traslados-api/internal/application/transfer"
	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
	"github.com/jhoicas/traslados-api/internal/infrastructure/memory"
)

const (
	storeMain  = entity.MainStoreID
	storeNorte = "store-norte"
	storeOff   = "store-cerrada"
	prodA      = "prod-a"
	prodB      = "prod-b"
)

type fixture struct {
	ctx       context.Context
	uc        *transfer.TransferUseCase
	ledger    *transfer.StockLedger
	txRunner  *memory.TxRunner
	sales     *memory.SaleRepository
	idem      *memory.IdempotencyStore
	fixedTime time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	stores := memory.NewStoreRepository(store)
	require.NoError(t, stores.Create(ctx, &entity.Store{ID: storeMain, Name: "Principal", IsMain: true, Active: true}))
	require.NoError(t, stores.Create(ctx, &entity.Store{ID: storeNorte, Name: "Norte", Active: true}))
	require.NoError(t, stores.Create(ctx, &entity.Store{ID: storeOff, Name: "Cerrada", Active: false}))

	products := memory.NewProductRepository(store)
	require.NoError(t, products.Create(ctx, &entity.Product{ID: prodA, Name: "Camisa", Reference: "CAM-1", Price: decimal.NewFromInt(5000), Active: true}))
	require.NoError(t, products.Create(ctx, &entity.Product{ID: prodB, Name: "Pantalón", Reference: "PAN-1", Price: decimal.NewFromInt(10000), Active: true}))

	transfers := memory.NewTransferRepository(store)
	ledger := transfer.NewStockLedger(memory.NewStockRepository(store), memory.NewStockMovementRepository(store), transfers)
	txRunner := memory.NewTxRunner(store)
	idem := memory.NewIdempotencyStore()
	fixed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	uc := transfer.NewTransferUseCase(
		txRunner, transfers, products, stores, ledger,
		transfer.NewSalesLedger(decimal.Zero),
		transfer.Config{DefaultPageSize: 2, MaxPageSize: 3},
		transfer.WithIdempotency(idem),
		transfer.WithClock(func() time.Time { return fixed }),
	)
	return &fixture{ctx: ctx, uc: uc, ledger: ledger, txRunner: txRunner, sales: memory.NewSaleRepository(store), idem: idem, fixedTime: fixed}
}

func (f *fixture) open(t *testing.T, productID, storeID string, sub entity.SubLocation, qty int) {
	t.Helper()
	err := f.txRunner.Run(f.ctx, func(ctx context.Context, repos transfer.Repositories) error {
		_, err := f.ledger.Adjust(ctx, repos, transfer.AdjustInput{
			ProductID: productID, StoreID: storeID, SubLocation: sub, Delta: qty, Reason: entity.MovementReasonOpening,
		})
		return err
	})
	require.NoError(t, err)
}

func (f *fixture) qty(t *testing.T, productID, storeID string, sub entity.SubLocation) int {
	t.Helper()
	q, err := f.ledger.GetQuantity(f.ctx, productID, storeID, sub)
	require.NoError(t, err)
	return q
}

func (f *fixture) create(t *testing.T, lines ...transfer.TransferLineInput) *entity.Transfer {
	t.Helper()
	tr, err := f.uc.Create(f.ctx, transfer.CreateTransferInput{
		FromStoreID: storeMain, ToStoreID: storeNorte, Items: lines, ActorID: "u1", ActorName: "Ana",
	})
	require.NoError(t, err)
	return tr
}

func line(productID string, qty int) transfer.TransferLineInput {
	return transfer.TransferLineInput{ProductID: productID, Quantity: qty, FromSubLocation: entity.SubLocationWarehouse}
}

func intPtr(v int) *int { return &v }

// ─────────────────────────────────────────────────────────────────────────────
// Escenarios base
// ─────────────────────────────────────────────────────────────────────────────

// Escenario A: recepción completa.
func TestCreateReceive_RecepcionCompleta(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 50)

	tr := f.create(t, line(prodA, 20))
	assert.Equal(t, entity.TransferStatusPending, tr.Status)
	assert.Equal(t, "TRF-000001", tr.Code())
	assert.Equal(t, decimal.NewFromInt(5000).String(), tr.Items[0].UnitPrice.String(), "precio por defecto del producto")
	assert.Equal(t, 30, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))

	got, err := f.uc.Receive(f.ctx, transfer.ReceiveTransferInput{
		TransferID: tr.ID,
		Items:      []transfer.ReceivedItemInput{{ItemID: tr.Items[0].ID, QuantityReceived: intPtr(20)}},
		ActorID:    "u2", ActorName: "Beto",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusReceived, got.Status)
	assert.Equal(t, 20, f.qty(t, prodA, storeNorte, entity.SubLocationStore))
	assert.Equal(t, 30, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))
	require.NotNil(t, got.ReceivedAt)
	assert.Equal(t, "Beto", got.ReceivedByName)
}

// Escenario B: recepción parcial; lo faltante es merma y no vuelve al origen.
func TestReceive_ParcialEsMerma(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 50)
	tr := f.create(t, line(prodA, 20))

	got, err := f.uc.Receive(f.ctx, transfer.ReceiveTransferInput{
		TransferID: tr.ID,
		Items:      []transfer.ReceivedItemInput{{ItemID: tr.Items[0].ID, QuantityReceived: intPtr(15), Note: "caja rota"}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPartiallyReceived, got.Status)
	assert.Equal(t, 15, f.qty(t, prodA, storeNorte, entity.SubLocationStore))
	assert.Equal(t, 30, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))

	rec, ok := got.Items[0].Receipt.(entity.Received)
	require.True(t, ok)
	assert.Equal(t, "caja rota", rec.Note)

	// Sin recepción complementaria.
	_, err = f.uc.Receive(f.ctx, transfer.ReceiveTransferInput{TransferID: tr.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 15, f.qty(t, prodA, storeNorte, entity.SubLocationStore))
}

// Escenario C: stock insuficiente; nada se descuenta y no se crea el traslado.
func TestCreate_StockInsuficiente(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 15)

	_, err := f.uc.Create(f.ctx, transfer.CreateTransferInput{
		FromStoreID: storeMain, ToStoreID: storeNorte, Items: []transfer.TransferLineInput{line(prodA, 20)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "disponible 15")
	assert.Equal(t, 15, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))

	page, err := f.uc.List(f.ctx, transfer.ListTransfersInput{StoreID: storeMain})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}

// Escenario D: el pago excede la tolerancia de redondeo.
func TestCreate_PagoNoCuadra(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodB, storeMain, entity.SubLocationWarehouse, 50)

	_, err := f.uc.Create(f.ctx, transfer.CreateTransferInput{
		FromStoreID: storeMain, ToStoreID: storeNorte,
		Items:   []transfer.TransferLineInput{line(prodB, 10)},
		Payment: &transfer.PaymentInput{Cash: decimal.NewFromInt(60000), Transfer: decimal.NewFromInt(40001)},
	})
	require.Error(t, err)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.CodePaymentMismatch, ve.Code)
	assert.Equal(t, 50, f.qty(t, prodB, storeMain, entity.SubLocationWarehouse))
}

// ─────────────────────────────────────────────────────────────────────────────
// Atomicidad y validaciones
// ─────────────────────────────────────────────────────────────────────────────

func TestCreate_MultiLineaTodoONada(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)
	f.open(t, prodB, storeMain, entity.SubLocationWarehouse, 3)

	_, err := f.uc.Create(f.ctx, transfer.CreateTransferInput{
		FromStoreID: storeMain, ToStoreID: storeNorte,
		Items: []transfer.TransferLineInput{line(prodA, 5), line(prodB, 4)},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 10, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))
	assert.Equal(t, 3, f.qty(t, prodB, storeMain, entity.SubLocationWarehouse))
}

func TestCreate_LineasRepetidasSeSumanAlValidar(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)

	_, err := f.uc.Create(f.ctx, transfer.CreateTransferInput{
		FromStoreID: storeMain, ToStoreID: storeNorte,
		Items: []transfer.TransferLineInput{line(prodA, 6), line(prodA, 6)},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 10, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)

	// Caso 1: misma sede
	_, err := f.uc.Create(f.ctx, transfer.CreateTransferInput{FromStoreID: storeMain, ToStoreID: storeMain, Items: []transfer.TransferLineInput{line(prodA, 1)}})
	assert.True(t, domain.IsValidation(err))

	// Caso 2: destino inactivo
	_, err = f.uc.Create(f.ctx, transfer.CreateTransferInput{FromStoreID: storeMain, ToStoreID: storeOff, Items: []transfer.TransferLineInput{line(prodA, 1)}})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.CodeInactiveStore, ve.Code)

	// Caso 3: producto inexistente
	_, err = f.uc.Create(f.ctx, transfer.CreateTransferInput{FromStoreID: storeMain, ToStoreID: storeNorte, Items: []transfer.TransferLineInput{line("nope", 1)}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Caso 4: sede origen inexistente
	_, err = f.uc.Create(f.ctx, transfer.CreateTransferInput{FromStoreID: "nope", ToStoreID: storeNorte, Items: []transfer.TransferLineInput{line(prodA, 1)}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 10, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))
}

// La suma origen + destino + merma + en tránsito se conserva.
func TestConservacionDeUnidades(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 40)

	t1 := f.create(t, line(prodA, 10))
	t2 := f.create(t, line(prodA, 10))
	f.create(t, line(prodA, 5))

	_, err := f.uc.Receive(f.ctx, transfer.ReceiveTransferInput{
		TransferID: t1.ID,
		Items:      []transfer.ReceivedItemInput{{ItemID: t1.Items[0].ID, QuantityReceived: intPtr(7)}},
	})
	require.NoError(t, err)
	_, err = f.uc.Cancel(f.ctx, t2.ID, "error de digitación", "u1")
	require.NoError(t, err)

	source := f.qty(t, prodA, storeMain, entity.SubLocationWarehouse)
	dest := f.qty(t, prodA, storeNorte, entity.SubLocationStore)
	shrinkage := 3
	inTransit := 5
	assert.Equal(t, 40, source+dest+shrinkage+inTransit)

	av, err := f.ledger.Availability(f.ctx, prodA, storeMain)
	require.NoError(t, err)
	assert.Equal(t, inTransit, av.Reserved[entity.SubLocationWarehouse])
	assert.Equal(t, source, av.Warehouse)
}

// ─────────────────────────────────────────────────────────────────────────────
// Cancelación
// ─────────────────────────────────────────────────────────────────────────────

func TestCancel_RevierteStockYReembolsaVenta(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodB, storeMain, entity.SubLocationWarehouse, 20)

	tr, err := f.uc.Create(f.ctx, transfer.CreateTransferInput{
		FromStoreID: storeMain, ToStoreID: storeNorte,
		Items:   []transfer.TransferLineInput{line(prodB, 10)},
		Payment: &transfer.PaymentInput{Cash: decimal.NewFromInt(60000), Transfer: decimal.NewFromInt(40000)},
	})
	require.NoError(t, err)
	require.NotNil(t, tr.SaleID)
	assert.Equal(t, 10, f.qty(t, prodB, storeMain, entity.SubLocationWarehouse))

	res, err := f.uc.Cancel(f.ctx, tr.ID, "  cliente desistió ", "u1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "100000", res.TotalRefund.String())
	assert.Equal(t, entity.TransferStatusCancelled, res.Transfer.Status)
	assert.Equal(t, "cliente desistió", res.Transfer.CancelReason)
	assert.Equal(t, 20, f.qty(t, prodB, storeMain, entity.SubLocationWarehouse))

	sale, err := f.sales.GetByID(f.ctx, *tr.SaleID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCancelled, sale.Status)
	payments, err := f.sales.ListPayments(f.ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	for _, p := range payments {
		assert.Equal(t, entity.PaymentStatusRefunded, p.Status)
	}
}

func TestCancelYRecepcion_LineasDesordenadas(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)
	f.open(t, prodA, storeMain, entity.SubLocationStore, 10)
	f.open(t, prodB, storeMain, entity.SubLocationWarehouse, 10)

	storeLine := line(prodA, 2)
	storeLine.FromSubLocation = entity.SubLocationStore
	// prodB antes que prodA y la misma sub-ubicación repartida en dos líneas.
	lines := []transfer.TransferLineInput{line(prodB, 3), line(prodA, 4), storeLine, line(prodB, 1)}

	cancelled := f.create(t, lines...)
	_, err := f.uc.Cancel(f.ctx, cancelled.ID, "error de digitación", "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))
	assert.Equal(t, 10, f.qty(t, prodA, storeMain, entity.SubLocationStore))
	assert.Equal(t, 10, f.qty(t, prodB, storeMain, entity.SubLocationWarehouse))

	movs, err := f.ledger.Movements(f.ctx, prodB, storeMain, 10, 0)
	require.NoError(t, err)
	var refunded int
	for _, m := range movs {
		if m.Reason == entity.MovementReasonTransferCancel {
			refunded += m.Delta
		}
	}
	assert.Equal(t, 4, refunded, "una devolución por línea de prodB")

	received := f.create(t, lines...)
	got, err := f.uc.Receive(f.ctx, transfer.ReceiveTransferInput{
		TransferID: received.ID,
		Items: []transfer.ReceivedItemInput{
			{ItemID: received.Items[0].ID, QuantityReceived: intPtr(2)},
			{ItemID: received.Items[2].ID, SubLocation: entity.SubLocationWarehouse},
		},
		ActorID: "u2",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPartiallyReceived, got.Status)
	// Cada línea guarda su propia recepción aunque el stock se ajuste en otro orden.
	assert.Equal(t, entity.Received{Quantity: 2, SubLocation: entity.SubLocationStore}, got.Items[0].Receipt)
	assert.Equal(t, entity.Received{Quantity: 4, SubLocation: entity.SubLocationStore}, got.Items[1].Receipt)
	assert.Equal(t, entity.Received{Quantity: 2, SubLocation: entity.SubLocationWarehouse}, got.Items[2].Receipt)
	assert.Equal(t, entity.Received{Quantity: 1, SubLocation: entity.SubLocationStore}, got.Items[3].Receipt)
	assert.Equal(t, 4, f.qty(t, prodA, storeNorte, entity.SubLocationStore))
	assert.Equal(t, 2, f.qty(t, prodA, storeNorte, entity.SubLocationWarehouse))
	assert.Equal(t, 3, f.qty(t, prodB, storeNorte, entity.SubLocationStore))
}

func TestCancel_EstadosTerminalesSonIdempotentes(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)
	tr := f.create(t, line(prodA, 4))

	_, err := f.uc.Cancel(f.ctx, tr.ID, "motivo", "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))

	// Segunda cancelación: rechazada sin devolver stock dos veces.
	_, err = f.uc.Cancel(f.ctx, tr.ID, "motivo", "u1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 10, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))

	// Recibir uno cancelado tampoco.
	_, err = f.uc.Receive(f.ctx, transfer.ReceiveTransferInput{TransferID: tr.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 0, f.qty(t, prodA, storeNorte, entity.SubLocationStore))
}

func TestCancel_RecibidoNoSeCancela(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)
	tr := f.create(t, line(prodA, 4))
	_, err := f.uc.Receive(f.ctx, transfer.ReceiveTransferInput{TransferID: tr.ID})
	require.NoError(t, err)

	_, err = f.uc.Cancel(f.ctx, tr.ID, "tarde", "u1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 6, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))
	assert.Equal(t, 4, f.qty(t, prodA, storeNorte, entity.SubLocationStore))
}

func TestCancel_MotivoObligatorio(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)
	tr := f.create(t, line(prodA, 4))

	_, err := f.uc.Cancel(f.ctx, tr.ID, "   ", "u1")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.CodeReasonRequired, ve.Code)
	assert.Equal(t, 6, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))
}

func TestCancel_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Cancel(f.ctx, "nope", "motivo", "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─────────────────────────────────────────────────────────────────────────────
// Despacho, recepción y listado
// ─────────────────────────────────────────────────────────────────────────────

func TestDispatch(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)
	tr := f.create(t, line(prodA, 4))

	got, err := f.uc.Dispatch(f.ctx, tr.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusInTransit, got.Status)
	assert.Equal(t, 6, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse), "despachar no mueve stock")

	_, err = f.uc.Dispatch(f.ctx, tr.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// En tránsito admite recepción.
	got, err = f.uc.Receive(f.ctx, transfer.ReceiveTransferInput{TransferID: tr.ID, SubLocation: entity.SubLocationWarehouse})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusReceived, got.Status)
	assert.Equal(t, 4, f.qty(t, prodA, storeNorte, entity.SubLocationWarehouse))
}

func TestReceive_SobreRecepcionSinEfectos(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)
	f.open(t, prodB, storeMain, entity.SubLocationWarehouse, 10)
	tr := f.create(t, line(prodA, 4), line(prodB, 2))

	_, err := f.uc.Receive(f.ctx, transfer.ReceiveTransferInput{
		TransferID: tr.ID,
		Items: []transfer.ReceivedItemInput{
			{ItemID: tr.Items[0].ID, QuantityReceived: intPtr(4)},
			{ItemID: tr.Items[1].ID, QuantityReceived: intPtr(3)},
		},
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.CodeOverReceipt, ve.Code)
	assert.Equal(t, 0, f.qty(t, prodA, storeNorte, entity.SubLocationStore))

	got, err := f.uc.Get(f.ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, got.Status)
}

func TestList_PaginaYFiltra(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 100)
	var last *entity.Transfer
	for i := 0; i < 4; i++ {
		last = f.create(t, line(prodA, 1))
	}
	_, err := f.uc.Cancel(f.ctx, last.ID, "motivo", "u1")
	require.NoError(t, err)

	page, err := f.uc.List(f.ctx, transfer.ListTransfersInput{StoreID: storeNorte})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.PageSize)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(4), page.Items[0].Number, "más reciente primero")

	page, err = f.uc.List(f.ctx, transfer.ListTransfersInput{StoreID: storeMain, Page: 2, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, 3, page.PageSize, "se limita al máximo")
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)

	page, err = f.uc.List(f.ctx, transfer.ListTransfersInput{Status: entity.TransferStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	_, err = f.uc.List(f.ctx, transfer.ListTransfersInput{Status: "perdido"})
	assert.True(t, domain.IsValidation(err))

	page, err = f.uc.List(f.ctx, transfer.ListTransfersInput{StoreID: storeOff})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

// ─────────────────────────────────────────────────────────────────────────────
// Concurrencia e idempotencia
// ─────────────────────────────────────────────────────────────────────────────

func TestCreate_ConcurrentesNoSobregiran(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		shortOf int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Create(f.ctx, transfer.CreateTransferInput{
				FromStoreID: storeMain, ToStoreID: storeNorte, Items: []transfer.TransferLineInput{line(prodA, 3)},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, domain.ErrInsufficientStock) {
				shortOf++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 5, shortOf)
	assert.Equal(t, 1, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))
}

func TestCreate_ClaveDeIdempotencia(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)
	in := transfer.CreateTransferInput{
		FromStoreID: storeMain, ToStoreID: storeNorte, Items: []transfer.TransferLineInput{line(prodA, 20)}, IdempotencyKey: "k-1",
	}

	// Un intento fallido libera la clave.
	_, err := f.uc.Create(f.ctx, in)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	in.Items = []transfer.TransferLineInput{line(prodA, 2)}
	_, err = f.uc.Create(f.ctx, in)
	require.NoError(t, err)

	_, err = f.uc.Create(f.ctx, in)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, 8, f.qty(t, prodA, storeMain, entity.SubLocationWarehouse))
}

func TestStockLedger_MovimientosAuditados(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationWarehouse, 10)
	tr := f.create(t, line(prodA, 4))
	_, err := f.uc.Cancel(f.ctx, tr.ID, "motivo", "u1")
	require.NoError(t, err)

	movs, err := f.ledger.Movements(f.ctx, prodA, storeMain, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, entity.MovementReasonTransferCancel, movs[0].Reason)
	assert.Equal(t, 4, movs[0].Delta)
	assert.Equal(t, 10, movs[0].Balance)
	assert.Equal(t, entity.MovementReasonTransferOut, movs[1].Reason)
	assert.Equal(t, tr.ID, movs[1].Reference)
	assert.Equal(t, f.fixedTime, movs[1].CreatedAt)
}

func TestStockLedger_AjusteNegativoRechazado(t *testing.T) {
	f := newFixture(t)
	f.open(t, prodA, storeMain, entity.SubLocationStore, 2)

	err := f.txRunner.Run(f.ctx, func(ctx context.Context, repos transfer.Repositories) error {
		_, err := f.ledger.Adjust(ctx, repos, transfer.AdjustInput{
			ProductID: prodA, StoreID: storeMain, SubLocation: entity.SubLocationStore, Delta: -3,
		})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, f.qty(t, prodA, storeMain, entity.SubLocationStore))

	_, err = f.ledger.GetQuantity(f.ctx, prodA, storeMain, "attic")
	assert.True(t, domain.IsValidation(err))
}
