package transfer_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
	"github.com/jhoicas/traslados-api/internal/domain/transfer"
)

func validationCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	ve, ok := err.(*domain.ValidationError)
	require.True(t, ok, "se esperaba ValidationError, llegó %T", err)
	return ve.Code
}

func TestValidateRequest(t *testing.T) {
	ok := transfer.Line{ProductID: "p1", Quantity: 1, FromSubLocation: entity.SubLocationWarehouse}

	assert.NoError(t, transfer.ValidateRequest("a", "b", []transfer.Line{ok}))
	assert.Equal(t, domain.CodeSameStore, validationCode(t, transfer.ValidateRequest("a", "a", []transfer.Line{ok})))
	assert.Equal(t, domain.CodeNoItems, validationCode(t, transfer.ValidateRequest("a", "b", nil)))

	zero := ok
	zero.Quantity = 0
	assert.Equal(t, domain.CodeInvalidQuantity, validationCode(t, transfer.ValidateRequest("a", "b", []transfer.Line{zero})))

	neg := ok
	neg.Quantity = -3
	assert.Equal(t, domain.CodeInvalidQuantity, validationCode(t, transfer.ValidateRequest("a", "b", []transfer.Line{neg})))

	badSub := ok
	badSub.FromSubLocation = "attic"
	assert.Equal(t, domain.CodeInvalidSubLocation, validationCode(t, transfer.ValidateRequest("a", "b", []transfer.Line{badSub})))

	badPrice := ok
	badPrice.UnitPrice = decimal.NewFromInt(-1)
	assert.Equal(t, domain.CodeInvalidPrice, validationCode(t, transfer.ValidateRequest("a", "b", []transfer.Line{badPrice})))

	// Se persiste con dos decimales: 0.333 quedaría como 0.33 y el subtotal no cuadraría.
	thirdDecimal := ok
	thirdDecimal.UnitPrice = decimal.RequireFromString("0.333")
	assert.Equal(t, domain.CodeInvalidPrice, validationCode(t, transfer.ValidateRequest("a", "b", []transfer.Line{thirdDecimal})))

	cents := ok
	cents.UnitPrice = decimal.RequireFromString("0.330")
	assert.NoError(t, transfer.ValidateRequest("a", "b", []transfer.Line{cents}))
}

func TestAggregateDemand_AgrupaYOrdena(t *testing.T) {
	items := []entity.TransferItem{
		{ProductID: "p2", FromSubLocation: entity.SubLocationStore, RequestedQuantity: 3},
		{ProductID: "p1", FromSubLocation: entity.SubLocationWarehouse, RequestedQuantity: 4},
		{ProductID: "p2", FromSubLocation: entity.SubLocationStore, RequestedQuantity: 2},
		{ProductID: "p1", FromSubLocation: entity.SubLocationStore, RequestedQuantity: 1},
	}
	got := transfer.AggregateDemand(items)
	assert.Equal(t, []transfer.Demand{
		{ProductID: "p1", SubLocation: entity.SubLocationStore, Quantity: 1},
		{ProductID: "p1", SubLocation: entity.SubLocationWarehouse, Quantity: 4},
		{ProductID: "p2", SubLocation: entity.SubLocationStore, Quantity: 5},
	}, got)
}

func TestStockOrder_MismoOrdenQueLaDemanda(t *testing.T) {
	items := []entity.TransferItem{
		{ID: "i0", ProductID: "p2", FromSubLocation: entity.SubLocationStore},
		{ID: "i1", ProductID: "p1", FromSubLocation: entity.SubLocationWarehouse},
		{ID: "i2", ProductID: "p2", FromSubLocation: entity.SubLocationStore},
		{ID: "i3", ProductID: "p1", FromSubLocation: entity.SubLocationStore},
	}
	order := transfer.StockOrder(len(items), func(i int) (string, entity.SubLocation) {
		return items[i].ProductID, items[i].FromSubLocation
	})
	assert.Equal(t, []int{3, 1, 0, 2}, order, "empates conservan el orden de las líneas")

	demand := transfer.AggregateDemand(items)
	var seen []transfer.Demand
	for _, i := range order {
		key := transfer.Demand{ProductID: items[i].ProductID, SubLocation: items[i].FromSubLocation}
		if len(seen) == 0 || seen[len(seen)-1] != key {
			seen = append(seen, key)
		}
	}
	require.Len(t, seen, len(demand))
	for i := range demand {
		assert.Equal(t, demand[i].ProductID, seen[i].ProductID)
		assert.Equal(t, demand[i].SubLocation, seen[i].SubLocation)
	}

	assert.Empty(t, transfer.StockOrder(0, nil))
}

func TestCheckAvailability_NoRecortaLaCantidad(t *testing.T) {
	d := transfer.Demand{ProductID: "p1", SubLocation: entity.SubLocationWarehouse, Quantity: 20}
	assert.NoError(t, transfer.CheckAvailability(d, "Camisa", 20))

	err := transfer.CheckAvailability(d, "Camisa", 15)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "disponible 15")
}

// Escenario D: total 100.000, efectivo 60.000 + transferencia 40.001 se rechaza.
func TestReconcilePayment(t *testing.T) {
	total := decimal.NewFromInt(100000)
	tol := transfer.DefaultPaymentTolerance

	exact := transfer.Payment{Cash: decimal.NewFromInt(60000), Transfer: decimal.NewFromInt(40000)}
	assert.NoError(t, transfer.ReconcilePayment(total, exact, tol))

	rounding := transfer.Payment{Cash: decimal.NewFromInt(60000), Transfer: decimal.RequireFromString("39999.5")}
	assert.NoError(t, transfer.ReconcilePayment(total, rounding, tol))

	over := transfer.Payment{Cash: decimal.NewFromInt(60000), Transfer: decimal.NewFromInt(40001)}
	assert.Equal(t, domain.CodePaymentMismatch, validationCode(t, transfer.ReconcilePayment(total, over, tol)))

	negative := transfer.Payment{Cash: decimal.NewFromInt(-1), Transfer: decimal.NewFromInt(100001)}
	assert.Equal(t, domain.CodePaymentMismatch, validationCode(t, transfer.ReconcilePayment(total, negative, tol)))

	fraction := transfer.Payment{Cash: decimal.RequireFromString("60000.005"), Transfer: decimal.NewFromInt(40000)}
	assert.Equal(t, domain.CodePaymentMismatch, validationCode(t, transfer.ReconcilePayment(total, fraction, tol)))
}

func intPtr(v int) *int { return &v }

func TestPlanReceipt(t *testing.T) {
	t.Run("omitidas se reciben completas", func(t *testing.T) {
		plan, err := transfer.PlanReceipt(twoLineTransfer(), nil, "")
		require.NoError(t, err)
		require.Len(t, plan, 2)
		assert.Equal(t, 10, plan[0].Received.Quantity)
		assert.Equal(t, entity.SubLocationStore, plan[0].Received.SubLocation)
		assert.Equal(t, 5, plan[1].Received.Quantity)
	})

	t.Run("cantidad y sub-ubicación por línea", func(t *testing.T) {
		lines := []transfer.ReceiptLine{{ItemID: "b", Quantity: intPtr(3), Note: "2 rotos", SubLocation: entity.SubLocationWarehouse}}
		plan, err := transfer.PlanReceipt(twoLineTransfer(), lines, entity.SubLocationStore)
		require.NoError(t, err)
		assert.Equal(t, entity.Received{Quantity: 10, SubLocation: entity.SubLocationStore}, plan[0].Received)
		assert.Equal(t, entity.Received{Quantity: 3, Note: "2 rotos", SubLocation: entity.SubLocationWarehouse}, plan[1].Received)
	})

	t.Run("rechazos", func(t *testing.T) {
		cases := map[string]struct {
			lines []transfer.ReceiptLine
			code  string
		}{
			"sobre-recepción": {[]transfer.ReceiptLine{{ItemID: "a", Quantity: intPtr(11)}}, domain.CodeOverReceipt},
			"negativa":        {[]transfer.ReceiptLine{{ItemID: "a", Quantity: intPtr(-1)}}, domain.CodeInvalidQuantity},
			"línea ajena":     {[]transfer.ReceiptLine{{ItemID: "zz"}}, domain.CodeUnknownItem},
			"repetida":        {[]transfer.ReceiptLine{{ItemID: "a"}, {ItemID: "a"}}, domain.CodeDuplicateItem},
			"nada recibido": {[]transfer.ReceiptLine{
				{ItemID: "a", Quantity: intPtr(0)}, {ItemID: "b", Quantity: intPtr(0)},
			}, domain.CodeEmptyReceipt},
			"sub-ubicación": {[]transfer.ReceiptLine{{ItemID: "a", SubLocation: "roof"}}, domain.CodeInvalidSubLocation},
		}
		for name, tc := range cases {
			_, err := transfer.PlanReceipt(twoLineTransfer(), tc.lines, "")
			assert.Equal(t, tc.code, validationCode(t, err), name)
		}
	})
}
