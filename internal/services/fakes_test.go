package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"lounge_pos_backend/internal/models"
	"lounge_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the sales, catalog, inventory and
// movement tables. Transactions snapshot it on begin and restore on rollback.
type memStore struct {
	mu sync.Mutex

	sales      []models.Sale
	nextSaleID int64
	inventory  map[string]int
	beverages  map[string]int
	barista    models.NameSet
	utensils   models.NameSet
	movements  []models.InventoryMovement

	failMovement          error
	failBeverageDecrement error
	failClassify          error
}

func newMemStore() *memStore {
	return &memStore{
		nextSaleID: 1,
		inventory:  map[string]int{"straw": 10, "lids": 10, "cups": 10, "forks": 5},
		beverages:  map[string]int{},
		barista:    models.NewNameSet(),
		utensils:   models.NewNameSet(),
	}
}

type memSnapshot struct {
	sales      []models.Sale
	nextSaleID int64
	inventory  map[string]int
	beverages  map[string]int
	movements  []models.InventoryMovement
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		sales:      append([]models.Sale(nil), s.sales...),
		nextSaleID: s.nextSaleID,
		inventory:  copyCounts(s.inventory),
		beverages:  copyCounts(s.beverages),
		movements:  append([]models.InventoryMovement(nil), s.movements...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = snap.sales
	s.nextSaleID = snap.nextSaleID
	s.inventory = snap.inventory
	s.beverages = snap.beverages
	s.movements = snap.movements
}

// --- transactions ---

type fakeTx struct {
	store    *memStore
	snap     memSnapshot
	done     bool
	commitFn func() error
}

func (t *fakeTx) Exec(string, ...interface{}) (sql.Result, error) { return nil, nil }
func (t *fakeTx) QueryRow(string, ...interface{}) *sql.Row        { return nil }
func (t *fakeTx) Query(string, ...interface{}) (*sql.Rows, error) { return nil, nil }

func (t *fakeTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	if t.commitFn != nil {
		if err := t.commitFn(); err != nil {
			t.store.restore(t.snap)
			t.done = true
			return err
		}
	}
	t.done = true
	return nil
}

func (t *fakeTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.store.restore(t.snap)
	t.done = true
	return nil
}

type fakeTxManager struct {
	store     *memStore
	beginErr  error
	commitErr error
	begun     int
	lastOpts  *sql.TxOptions
}

func (m *fakeTxManager) BeginTx(_ context.Context, opts *sql.TxOptions) (repositories.Transaction, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	m.begun++
	m.lastOpts = opts
	tx := &fakeTx{store: m.store, snap: m.store.snapshot()}
	if m.commitErr != nil {
		err := m.commitErr
		tx.commitFn = func() error { return err }
	}
	return tx, nil
}

// --- sale repository ---

type fakeSaleRepo struct {
	store *memStore
	// concurrent is a sale committed by another terminal that the
	// in-transaction lookup cannot see yet.
	concurrent *models.Sale
}

func (r *fakeSaleRepo) CreateSale(_ repositories.SQLExecutor, sale *models.Sale) (int64, error) {
	if r.concurrent != nil && r.concurrent.TransactionID == sale.TransactionID {
		return 0, repositories.ErrDuplicateKey
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.sales {
		if existing.TransactionID == sale.TransactionID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	sale.ID = r.store.nextSaleID
	r.store.nextSaleID++
	r.store.sales = append(r.store.sales, *sale)
	return sale.ID, nil
}

func (r *fakeSaleRepo) find(transactionID string) (*models.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.sales {
		if existing.TransactionID == transactionID {
			found := existing
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeSaleRepo) FindSaleByTransactionID(_ repositories.SQLExecutor, transactionID string) (*models.Sale, error) {
	return r.find(transactionID)
}

func (r *fakeSaleRepo) GetSaleByTransactionID(transactionID string) (*models.Sale, error) {
	if r.concurrent != nil && r.concurrent.TransactionID == transactionID {
		found := *r.concurrent
		return &found, nil
	}
	return r.find(transactionID)
}

func (r *fakeSaleRepo) GetSaleByID(id int64) (*models.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.sales {
		if existing.ID == id {
			found := existing
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeSaleRepo) GetSales() ([]models.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]models.Sale{}, r.store.sales...), nil
}

func (r *fakeSaleRepo) GetSalesBetween(start, end time.Time) ([]models.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sales := []models.Sale{}
	for _, sale := range r.store.sales {
		if !sale.Datetime.Before(start) && sale.Datetime.Before(end) {
			sales = append(sales, sale)
		}
	}
	return sales, nil
}

func (r *fakeSaleRepo) SumTotals(since *time.Time) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sum := decimal.Zero
	for _, sale := range r.store.sales {
		if since != nil && sale.Datetime.Before(*since) {
			continue
		}
		sum = sum.Add(sale.Total)
	}
	return sum, nil
}

func (r *fakeSaleRepo) UpdateSale(_ repositories.SQLExecutor, sale *models.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.sales {
		if r.store.sales[i].ID == sale.ID {
			r.store.sales[i] = *sale
			return nil
		}
	}
	return repositories.ErrNotFound
}

// --- catalog, inventory and movement repositories ---

type fakeCatalogRepo struct {
	repositories.CatalogRepository
	store *memStore
}

func (r *fakeCatalogRepo) ClassifyProductNames(_ repositories.SQLExecutor, names []string) (models.Classified, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failClassify != nil {
		return nil, r.store.failClassify
	}
	classified := models.Classified{
		models.ClassificationBarista:  models.NewNameSet(),
		models.ClassificationUtensils: models.NewNameSet(),
		models.ClassificationBeverage: models.NewNameSet(),
	}
	for _, name := range names {
		if r.store.barista.Has(name) {
			classified[models.ClassificationBarista][name] = struct{}{}
		}
		if r.store.utensils.Has(name) {
			classified[models.ClassificationUtensils][name] = struct{}{}
		}
		if _, ok := r.store.beverages[name]; ok {
			classified[models.ClassificationBeverage][name] = struct{}{}
		}
	}
	return classified, nil
}

func (r *fakeCatalogRepo) DecrementBeverageStocks(_ repositories.SQLExecutor, names []string, quantity int) ([]models.StockChange, error) {
	if r.store.failBeverageDecrement != nil {
		return nil, r.store.failBeverageDecrement
	}
	return decrementCounts(&r.store.mu, r.store.beverages, names, quantity), nil
}

type fakeInventoryRepo struct {
	repositories.InventoryRepository
	store *memStore
}

func (r *fakeInventoryRepo) DecrementStocks(_ repositories.SQLExecutor, resources []string, quantity int) ([]models.StockChange, error) {
	return decrementCounts(&r.store.mu, r.store.inventory, resources, quantity), nil
}

func decrementCounts(mu *sync.Mutex, counts map[string]int, names []string, quantity int) []models.StockChange {
	mu.Lock()
	defer mu.Unlock()
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	changes := []models.StockChange{}
	for _, name := range sorted {
		before, ok := counts[name]
		if !ok {
			continue
		}
		after := before - quantity
		if after < 0 {
			after = 0
		}
		counts[name] = after
		changes = append(changes, models.StockChange{Resource: name, Before: before, After: after})
	}
	return changes
}

type fakeMovementRepo struct {
	repositories.InventoryMovementRepository
	store *memStore
}

func (r *fakeMovementRepo) CreateMovement(_ repositories.SQLExecutor, movement *models.InventoryMovement) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failMovement != nil {
		return 0, r.store.failMovement
	}
	movement.ID = int64(len(r.store.movements) + 1)
	r.store.movements = append(r.store.movements, *movement)
	return movement.ID, nil
}

// --- collaborators ---

type publishedEvent struct {
	action  string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(action string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{action: action, payload: payload})
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	actions := make([]string, 0, len(p.events))
	for _, e := range p.events {
		actions = append(actions, e.action)
	}
	return actions
}

type recordingAggregator struct {
	customers []string
	err       error
}

func (a *recordingAggregator) RecomputeMember(customer string) error {
	a.customers = append(a.customers, strings.ToLower(customer))
	return a.err
}

var errInjected = errors.New("injected failure")
