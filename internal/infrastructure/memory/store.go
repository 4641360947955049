// Package memory implementa los puertos de persistencia en memoria para pruebas y
// el modo demo (STORAGE_DRIVER=memory). Las transacciones se serializan con un mutex
// y se revierten restaurando una copia del estado.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/traslados-api/internal/application/transfer"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
)

type stockKey struct {
	productID string
	storeID   string
}

type state struct {
	stores      map[string]*entity.Store
	products    map[string]*entity.Product
	stock       map[stockKey]*entity.Stock
	movements   []*entity.StockMovement
	transfers   map[string]*entity.Transfer
	transferSeq int64
	sales       map[string]*entity.Sale
	payments    []*entity.Payment
	saleSeq     int64
}

func newState() *state {
	return &state{
		stores:    make(map[string]*entity.Store),
		products:  make(map[string]*entity.Product),
		stock:     make(map[stockKey]*entity.Stock),
		transfers: make(map[string]*entity.Transfer),
		sales:     make(map[string]*entity.Sale),
	}
}

// clone copia profunda usada como punto de restauración de una transacción.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.stores {
		st := *v
		c.stores[k] = &st
	}
	for k, v := range s.products {
		p := *v
		c.products[k] = &p
	}
	for k, v := range s.stock {
		st := *v
		c.stock[k] = &st
	}
	c.movements = make([]*entity.StockMovement, len(s.movements))
	for i, m := range s.movements {
		mv := *m
		c.movements[i] = &mv
	}
	for k, v := range s.transfers {
		c.transfers[k] = v.Clone()
	}
	for k, v := range s.sales {
		c.sales[k] = cloneSale(v)
	}
	c.payments = make([]*entity.Payment, len(s.payments))
	for i, p := range s.payments {
		c.payments[i] = clonePayment(p)
	}
	c.transferSeq = s.transferSeq
	c.saleSeq = s.saleSeq
	return c
}

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

// with ejecuta fn sobre el estado; fuera de una transacción toma el lock.
func (s *Store) with(inTx bool, fn func(d *state) error) error {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

// TxRunner ejecuta las operaciones de a una, con rollback por copia del estado.
type TxRunner struct {
	store *Store
}

// NewTxRunner crea el ejecutor de transacciones en memoria.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run implementa transfer.TxRunner.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos transfer.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snapshot := r.store.data.clone()
	repos := transfer.Repositories{
		Stock:     &StockRepository{store: r.store, inTx: true},
		Movements: &StockMovementRepository{store: r.store, inTx: true},
		Transfers: &TransferRepository{store: r.store, inTx: true},
		Sales:     &SaleRepository{store: r.store, inTx: true},
	}
	if err := fn(ctx, repos); err != nil {
		r.store.data = snapshot
		return err
	}
	return nil
}

var _ transfer.TxRunner = (*TxRunner)(nil)

func cloneSale(s *entity.Sale) *entity.Sale {
	c := *s
	c.Items = make([]entity.SaleItem, len(s.Items))
	copy(c.Items, s.Items)
	if s.CancelledAt != nil {
		t := *s.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

func clonePayment(p *entity.Payment) *entity.Payment {
	c := *p
	if p.RefundedAt != nil {
		t := *p.RefundedAt
		c.RefundedAt = &t
	}
	return &c
}
