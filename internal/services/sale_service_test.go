package services

import (
	"context"
	"database/sql"
	"math"
	"testing"
	"time"

	"lounge_pos_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	store     *memStore
	txm       *fakeTxManager
	sales     *fakeSaleRepo
	publisher *recordingPublisher
	members   *recordingAggregator
	svc       SaleService
}

var fixedNow = time.Date(2024, time.March, 9, 15, 30, 0, 0, time.UTC)

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	store := newMemStore()
	f := &saleFixture{
		store:     store,
		txm:       &fakeTxManager{store: store},
		sales:     &fakeSaleRepo{store: store},
		publisher: &recordingPublisher{},
		members:   &recordingAggregator{},
	}
	svc := NewSaleService(
		f.sales,
		&fakeCatalogRepo{store: store},
		&fakeInventoryRepo{store: store},
		&fakeMovementRepo{store: store},
		f.txm,
		f.publisher,
		f.members,
		time.UTC,
	)
	svc.(*saleService).now = func() time.Time { return fixedNow }
	f.svc = svc
	return f
}

func saleRequest(transactionID string, lines ...models.OrderLine) RecordSaleRequest {
	return RecordSaleRequest{
		TransactionID: transactionID,
		Orders:        lines,
		Total:         decimal.NewFromInt(240),
		Subtotal:      decimal.NewFromInt(240),
	}
}

func TestRecordSale_BaristaBeverage(t *testing.T) {
	f := newSaleFixture(t)
	f.store.barista = models.NewNameSet("Latte")
	f.store.beverages["Latte"] = 10

	res, err := f.svc.RecordSale(context.Background(), saleRequest("tx-a", models.OrderLine{Product: "Latte", Quantity: 2}))
	require.NoError(t, err)

	assert.Equal(t, SaleRecorded, res.Outcome)
	require.Len(t, f.store.sales, 1)
	assert.Equal(t, 2, f.store.sales[0].Qty)
	assert.Equal(t, res.Sale.ID, f.store.sales[0].ID)

	assert.Equal(t, 8, f.store.inventory["straw"])
	assert.Equal(t, 8, f.store.inventory["lids"])
	assert.Equal(t, 8, f.store.inventory["cups"])
	assert.Equal(t, 5, f.store.inventory["forks"])
	assert.Equal(t, 8, f.store.beverages["Latte"])

	require.Len(t, f.store.movements, 4)
	for _, m := range f.store.movements {
		assert.Equal(t, -2, m.QuantityChanged)
		assert.Equal(t, models.MovementTypeSale, m.MovementType)
		require.NotNil(t, m.SaleID)
		assert.Equal(t, res.Sale.ID, *m.SaleID)
	}

	assert.Equal(t, sql.LevelReadCommitted, f.txm.lastOpts.Isolation)
	assert.Equal(t, []string{ActionSaleRecorded}, f.publisher.actions())
}

func TestRecordSale_UtensilFood(t *testing.T) {
	f := newSaleFixture(t)
	f.store.utensils = models.NewNameSet("Burger")

	_, err := f.svc.RecordSale(context.Background(), saleRequest("tx-b", models.OrderLine{Product: "Burger", Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, 4, f.store.inventory["forks"])
	assert.Equal(t, 10, f.store.inventory["straw"])
	assert.Equal(t, 10, f.store.inventory["lids"])
	assert.Equal(t, 10, f.store.inventory["cups"])
	require.Len(t, f.store.movements, 1)
	assert.Equal(t, models.StockKindInventory, f.store.movements[0].StockKind)
	assert.Equal(t, "forks", f.store.movements[0].Resource)
}

func TestRecordSale_ResubmissionChangesNothing(t *testing.T) {
	f := newSaleFixture(t)
	f.store.barista = models.NewNameSet("Latte")
	f.store.beverages["Latte"] = 10
	req := saleRequest("tx-a", models.OrderLine{Product: "Latte", Quantity: 2})

	first, err := f.svc.RecordSale(context.Background(), req)
	require.NoError(t, err)

	second, err := f.svc.RecordSale(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, SaleAlreadyRecorded, second.Outcome)
	assert.Equal(t, first.Sale.ID, second.Sale.ID)
	assert.Len(t, f.store.sales, 1)
	assert.Equal(t, 8, f.store.beverages["Latte"])
	assert.Equal(t, 8, f.store.inventory["cups"])
	assert.Len(t, f.store.movements, 4)
	assert.Equal(t, []string{ActionSaleRecorded}, f.publisher.actions())
}

func TestRecordSale_UnknownProductDeductsNothing(t *testing.T) {
	f := newSaleFixture(t)

	res, err := f.svc.RecordSale(context.Background(), saleRequest("tx-d", models.OrderLine{Product: "Mystery Box", Quantity: 3}))
	require.NoError(t, err)

	assert.Equal(t, SaleRecorded, res.Outcome)
	assert.Len(t, f.store.sales, 1)
	assert.Empty(t, f.store.movements)
	assert.Equal(t, map[string]int{"straw": 10, "lids": 10, "cups": 10, "forks": 5}, f.store.inventory)
}

func TestRecordSale_StockFloorsAtZero(t *testing.T) {
	f := newSaleFixture(t)
	f.store.utensils = models.NewNameSet("Burger")
	f.store.inventory["forks"] = 2

	_, err := f.svc.RecordSale(context.Background(), saleRequest("tx-e", models.OrderLine{Product: "Burger", Quantity: 5}))
	require.NoError(t, err)

	assert.Equal(t, 0, f.store.inventory["forks"])
	require.Len(t, f.store.movements, 1)
	assert.Equal(t, -2, f.store.movements[0].QuantityChanged)
}

func TestRecordSale_EmptyStockRecordsNoMovement(t *testing.T) {
	f := newSaleFixture(t)
	f.store.utensils = models.NewNameSet("Burger")
	f.store.inventory["forks"] = 0

	_, err := f.svc.RecordSale(context.Background(), saleRequest("tx-zero", models.OrderLine{Product: "Burger", Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, 0, f.store.inventory["forks"])
	assert.Empty(t, f.store.movements)
}

func TestRecordSale_AggregatesQuantityPerClassification(t *testing.T) {
	f := newSaleFixture(t)
	f.store.barista = models.NewNameSet("Latte", "Mocha")
	f.store.utensils = models.NewNameSet("Pasta")

	_, err := f.svc.RecordSale(context.Background(), saleRequest("tx-mix",
		models.OrderLine{Product: "Latte", Quantity: 1},
		models.OrderLine{Product: "Mocha", Quantity: 2},
		models.OrderLine{Product: "Pasta", Quantity: 1},
		models.OrderLine{Product: "Latte", Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, 6, f.store.inventory["cups"])
	assert.Equal(t, 4, f.store.inventory["forks"])
	assert.Equal(t, 5, f.store.sales[0].Qty)
}

func TestRecordSale_FailureRollsBackEverything(t *testing.T) {
	f := newSaleFixture(t)
	f.store.barista = models.NewNameSet("Latte")
	f.store.beverages["Latte"] = 10
	f.store.failMovement = errInjected

	_, err := f.svc.RecordSale(context.Background(), saleRequest("tx-fail", models.OrderLine{Product: "Latte", Quantity: 2}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSaleStorage)

	assert.Empty(t, f.store.sales)
	assert.Empty(t, f.store.movements)
	assert.Equal(t, 10, f.store.inventory["cups"])
	assert.Equal(t, 10, f.store.beverages["Latte"])
	assert.Empty(t, f.publisher.actions())
	assert.Empty(t, f.members.customers)
}

func TestRecordSale_BeverageDecrementFailureRestoresBaristaStock(t *testing.T) {
	f := newSaleFixture(t)
	f.store.barista = models.NewNameSet("Latte")
	f.store.beverages["Latte"] = 10
	f.store.failBeverageDecrement = errInjected

	_, err := f.svc.RecordSale(context.Background(), saleRequest("tx-bev", models.OrderLine{Product: "Latte", Quantity: 3}))
	assert.ErrorIs(t, err, ErrSaleStorage)

	// Barista supplies were already decremented inside the transaction.
	for _, resource := range []string{"cups", "lids", "straw"} {
		assert.Equal(t, 10, f.store.inventory[resource], resource)
	}
	assert.Equal(t, 10, f.store.beverages["Latte"])
	assert.Empty(t, f.store.sales)
	assert.Empty(t, f.store.movements)
	assert.Empty(t, f.publisher.actions())
}

func TestRecordSale_ClassifyFailureStoresNothing(t *testing.T) {
	f := newSaleFixture(t)
	f.store.failClassify = errInjected

	_, err := f.svc.RecordSale(context.Background(), saleRequest("tx-cls", models.OrderLine{Product: "Latte", Quantity: 1}))
	assert.ErrorIs(t, err, ErrSaleStorage)
	assert.Empty(t, f.store.sales)
	assert.Empty(t, f.store.movements)
}

func TestRecordSale_CommitFailureIsStorageError(t *testing.T) {
	f := newSaleFixture(t)
	f.txm.commitErr = errInjected

	_, err := f.svc.RecordSale(context.Background(), saleRequest("tx-commit", models.OrderLine{Product: "Latte", Quantity: 1}))
	assert.ErrorIs(t, err, ErrSaleStorage)
	assert.Empty(t, f.store.sales)
}

func TestRecordSale_BeginFailure(t *testing.T) {
	f := newSaleFixture(t)
	f.txm.beginErr = errInjected

	_, err := f.svc.RecordSale(context.Background(), saleRequest("tx-begin", models.OrderLine{Product: "Latte", Quantity: 1}))
	assert.ErrorIs(t, err, ErrSaleStorage)
}

func TestRecordSale_ValidationHappensBeforeTransaction(t *testing.T) {
	cases := map[string]RecordSaleRequest{
		"missing transaction id": saleRequest("  ", models.OrderLine{Product: "Latte", Quantity: 1}),
		"no lines":               saleRequest("tx-1"),
		"blank product":          saleRequest("tx-2", models.OrderLine{Product: " ", Quantity: 1}),
		"zero quantity":          saleRequest("tx-3", models.OrderLine{Product: "Latte", Quantity: 0}),
		"negative quantity":      saleRequest("tx-4", models.OrderLine{Product: "Latte", Quantity: -1}),
		"line above int32":       saleRequest("tx-5", models.OrderLine{Product: "Latte", Quantity: math.MaxInt32 + 1}),
		"total above int32": saleRequest("tx-6",
			models.OrderLine{Product: "Latte", Quantity: math.MaxInt32},
			models.OrderLine{Product: "Mocha", Quantity: 1}),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			f := newSaleFixture(t)
			_, err := f.svc.RecordSale(context.Background(), req)
			assert.ErrorIs(t, err, ErrSaleValidation)
			assert.Zero(t, f.txm.begun)
			assert.Empty(t, f.store.sales)
		})
	}
}

func TestRecordSale_ConcurrentDuplicateReturnsWinner(t *testing.T) {
	f := newSaleFixture(t)
	f.store.barista = models.NewNameSet("Latte")
	f.sales.concurrent = &models.Sale{ID: 42, TransactionID: "tx-race", Qty: 2}

	res, err := f.svc.RecordSale(context.Background(), saleRequest("tx-race", models.OrderLine{Product: "Latte", Quantity: 2}))
	require.NoError(t, err)

	assert.Equal(t, SaleAlreadyRecorded, res.Outcome)
	assert.Equal(t, int64(42), res.Sale.ID)
	assert.Empty(t, f.store.sales)
	assert.Equal(t, 10, f.store.inventory["cups"])
	assert.Empty(t, f.publisher.actions())
}

func TestRecordSale_RecomputesMemberAfterCommit(t *testing.T) {
	f := newSaleFixture(t)
	req := saleRequest("tx-member", models.OrderLine{Product: "Latte", Quantity: 1})
	req.Customer = " Juan "

	_, err := f.svc.RecordSale(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"juan"}, f.members.customers)
	assert.Equal(t, "Juan", f.store.sales[0].Customer)
}

func TestRecordSale_AggregateFailureDoesNotFailSale(t *testing.T) {
	f := newSaleFixture(t)
	f.members.err = errInjected
	req := saleRequest("tx-member-fail", models.OrderLine{Product: "Latte", Quantity: 1})
	req.Customer = "Juan"

	res, err := f.svc.RecordSale(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, SaleRecorded, res.Outcome)
	assert.Len(t, f.store.sales, 1)
}

func TestRecordSale_BlankCustomerSkipsRecompute(t *testing.T) {
	f := newSaleFixture(t)

	_, err := f.svc.RecordSale(context.Background(), saleRequest("tx-anon", models.OrderLine{Product: "Latte", Quantity: 1}))
	require.NoError(t, err)
	assert.Empty(t, f.members.customers)
}

func TestUpdateSale_RecomputesPreviousAndNewCustomer(t *testing.T) {
	f := newSaleFixture(t)
	req := saleRequest("tx-up", models.OrderLine{Product: "Latte", Quantity: 1})
	req.Customer = "Ana"
	res, err := f.svc.RecordSale(context.Background(), req)
	require.NoError(t, err)
	f.members.customers = nil

	newCustomer := "Ben"
	newTotal := decimal.NewFromInt(100)
	updated, err := f.svc.UpdateSale(context.Background(), res.Sale.ID, UpdateSaleRequest{Customer: &newCustomer, Total: &newTotal})
	require.NoError(t, err)

	assert.Equal(t, "Ben", updated.Customer)
	assert.True(t, updated.Total.Equal(newTotal))
	assert.Equal(t, []string{"ana", "ben"}, f.members.customers)
	assert.Equal(t, []string{ActionSaleRecorded, ActionSaleUpdated}, f.publisher.actions())
}

func TestUpdateSale_NotFound(t *testing.T) {
	f := newSaleFixture(t)
	_, err := f.svc.UpdateSale(context.Background(), 99, UpdateSaleRequest{})
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestGetSalesSummary_SplitsTodayFromAllTime(t *testing.T) {
	f := newSaleFixture(t)
	f.store.sales = []models.Sale{
		{ID: 1, TransactionID: "old", Total: decimal.NewFromInt(50), Datetime: fixedNow.AddDate(0, 0, -1)},
		{ID: 2, TransactionID: "new", Total: decimal.NewFromInt(70), Datetime: fixedNow.Add(-time.Hour)},
	}

	summary, err := f.svc.GetSalesSummary()
	require.NoError(t, err)

	require.Len(t, summary.SalesCurrentDate, 1)
	assert.Equal(t, "new", summary.SalesCurrentDate[0].TransactionID)
	assert.True(t, summary.TotalSum.Equal(decimal.NewFromInt(120)))
	assert.True(t, summary.TotalSumToday.Equal(decimal.NewFromInt(70)))
}

func TestStartOfDay_UsesBusinessTimezone(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)
	// 17:00 UTC is already the next calendar day in Manila.
	got := StartOfDay(time.Date(2024, time.March, 9, 17, 0, 0, 0, time.UTC), manila)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, manila), got)
}
