package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/traslados-api/internal/domain"
	"github.com/jhoicas/traslados-api/internal/domain/entity"
	"github.com/jhoicas/traslados-api/internal/domain/repository"
)

// StoreRepository sedes en memoria.
type StoreRepository struct {
	store *Store
}

func NewStoreRepository(store *Store) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) Create(_ context.Context, s *entity.Store) error {
	return r.store.with(false, func(d *state) error {
		if _, ok := d.stores[s.ID]; ok {
			return domain.ErrDuplicate
		}
		c := *s
		d.stores[s.ID] = &c
		return nil
	})
}

func (r *StoreRepository) GetByID(_ context.Context, id string) (*entity.Store, error) {
	var out *entity.Store
	err := r.store.with(false, func(d *state) error {
		if s, ok := d.stores[id]; ok {
			c := *s
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *StoreRepository) List(_ context.Context) ([]*entity.Store, error) {
	var out []*entity.Store
	err := r.store.with(false, func(d *state) error {
		for _, s := range d.stores {
			c := *s
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsMain != out[j].IsMain {
			return out[i].IsMain
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}

// ProductRepository productos en memoria.
type ProductRepository struct {
	store *Store
}

func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{store: store}
}

func (r *ProductRepository) Create(_ context.Context, p *entity.Product) error {
	return r.store.with(false, func(d *state) error {
		if _, ok := d.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		c := *p
		d.products[p.ID] = &c
		return nil
	})
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.store.with(false, func(d *state) error {
		if p, ok := d.products[id]; ok {
			c := *p
			out = &c
		}
		return nil
	})
	return out, err
}

// StockRepository stock por sede y producto.
type StockRepository struct {
	store *Store
	inTx  bool
}

func NewStockRepository(store *Store) *StockRepository {
	return &StockRepository{store: store}
}

func (r *StockRepository) Get(_ context.Context, productID, storeID string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.store.with(r.inTx, func(d *state) error {
		if s, ok := d.stock[stockKey{productID, storeID}]; ok {
			c := *s
			out = &c
			return nil
		}
		out = &entity.Stock{ProductID: productID, StoreID: storeID}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a Get: el lock de la transacción ya excluye a los demás escritores.
func (r *StockRepository) GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	return r.Get(ctx, productID, storeID)
}

func (r *StockRepository) Upsert(_ context.Context, s *entity.Stock) error {
	if s.Warehouse < 0 || s.Store < 0 {
		return domain.ErrInsufficientStock
	}
	return r.store.with(r.inTx, func(d *state) error {
		c := *s
		d.stock[stockKey{s.ProductID, s.StoreID}] = &c
		return nil
	})
}

// StockMovementRepository movimientos de stock en memoria.
type StockMovementRepository struct {
	store *Store
	inTx  bool
}

func NewStockMovementRepository(store *Store) *StockMovementRepository {
	return &StockMovementRepository{store: store}
}

func (r *StockMovementRepository) Create(_ context.Context, m *entity.StockMovement) error {
	return r.store.with(r.inTx, func(d *state) error {
		c := *m
		d.movements = append(d.movements, &c)
		return nil
	})
}

func (r *StockMovementRepository) ListByProduct(_ context.Context, productID, storeID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.store.with(r.inTx, func(d *state) error {
		// Más reciente primero: se recorre al revés el orden de inserción.
		for i := len(d.movements) - 1; i >= 0; i-- {
			m := d.movements[i]
			if m.ProductID != productID || (storeID != "" && m.StoreID != storeID) {
				continue
			}
			c := *m
			out = append(out, &c)
		}
		return nil
	})
	return page(out, limit, offset), err
}

// TransferRepository traslados en memoria.
type TransferRepository struct {
	store *Store
	inTx  bool
}

func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{store: store}
}

func (r *TransferRepository) NextNumber(_ context.Context) (int64, error) {
	var n int64
	err := r.store.with(r.inTx, func(d *state) error {
		d.transferSeq++
		n = d.transferSeq
		return nil
	})
	return n, err
}

func (r *TransferRepository) Create(_ context.Context, t *entity.Transfer) error {
	return r.store.with(r.inTx, func(d *state) error {
		if _, ok := d.transfers[t.ID]; ok {
			return domain.ErrDuplicate
		}
		d.transfers[t.ID] = t.Clone()
		return nil
	})
}

func (r *TransferRepository) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	var out *entity.Transfer
	err := r.store.with(r.inTx, func(d *state) error {
		out = d.transfers[id].Clone()
		return nil
	})
	return out, err
}

func (r *TransferRepository) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.GetByID(ctx, id)
}

func (r *TransferRepository) Update(_ context.Context, t *entity.Transfer) error {
	return r.store.with(r.inTx, func(d *state) error {
		if _, ok := d.transfers[t.ID]; !ok {
			return domain.NotFound("traslado", t.ID)
		}
		d.transfers[t.ID] = t.Clone()
		return nil
	})
}

func (r *TransferRepository) List(_ context.Context, f repository.TransferFilter) ([]*entity.Transfer, int, error) {
	var all []*entity.Transfer
	err := r.store.with(r.inTx, func(d *state) error {
		for _, t := range d.transfers {
			if f.StoreID != "" && t.FromStoreID != f.StoreID && t.ToStoreID != f.StoreID {
				continue
			}
			if f.Status != "" && t.Status != f.Status {
				continue
			}
			all = append(all, t.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	// El consecutivo es monótono: más reciente primero aunque los relojes empaten.
	sort.Slice(all, func(i, j int) bool { return all[i].Number > all[j].Number })
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r *TransferRepository) ReservedQuantity(_ context.Context, productID, storeID string) (map[entity.SubLocation]int, error) {
	out := map[entity.SubLocation]int{}
	err := r.store.with(r.inTx, func(d *state) error {
		for _, t := range d.transfers {
			if t.FromStoreID != storeID || !t.Status.IsOpen() {
				continue
			}
			for _, it := range t.Items {
				if it.ProductID == productID {
					out[it.FromSubLocation] += it.RequestedQuantity
				}
			}
		}
		return nil
	})
	return out, err
}

// SaleRepository ventas y pagos en memoria.
type SaleRepository struct {
	store *Store
	inTx  bool
}

func NewSaleRepository(store *Store) *SaleRepository {
	return &SaleRepository{store: store}
}

func (r *SaleRepository) NextNumber(_ context.Context) (int64, error) {
	var n int64
	err := r.store.with(r.inTx, func(d *state) error {
		d.saleSeq++
		n = d.saleSeq
		return nil
	})
	return n, err
}

func (r *SaleRepository) Create(_ context.Context, s *entity.Sale) error {
	return r.store.with(r.inTx, func(d *state) error {
		if _, ok := d.sales[s.ID]; ok {
			return domain.ErrDuplicate
		}
		d.sales[s.ID] = cloneSale(s)
		return nil
	})
}

func (r *SaleRepository) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.store.with(r.inTx, func(d *state) error {
		if s, ok := d.sales[id]; ok {
			out = cloneSale(s)
		}
		return nil
	})
	return out, err
}

func (r *SaleRepository) Update(_ context.Context, s *entity.Sale) error {
	return r.store.with(r.inTx, func(d *state) error {
		if _, ok := d.sales[s.ID]; !ok {
			return domain.NotFound("venta", s.ID)
		}
		d.sales[s.ID] = cloneSale(s)
		return nil
	})
}

func (r *SaleRepository) CreatePayment(_ context.Context, p *entity.Payment) error {
	return r.store.with(r.inTx, func(d *state) error {
		d.payments = append(d.payments, clonePayment(p))
		return nil
	})
}

func (r *SaleRepository) ListPayments(_ context.Context, saleID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	err := r.store.with(r.inTx, func(d *state) error {
		for _, p := range d.payments {
			if p.SaleID == saleID {
				out = append(out, clonePayment(p))
			}
		}
		return nil
	})
	return out, err
}

func (r *SaleRepository) UpdatePayment(_ context.Context, p *entity.Payment) error {
	return r.store.with(r.inTx, func(d *state) error {
		for i, cur := range d.payments {
			if cur.ID == p.ID {
				d.payments[i] = clonePayment(p)
				return nil
			}
		}
		return domain.NotFound("pago", p.ID)
	})
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var (
	_ repository.StoreRepository         = (*StoreRepository)(nil)
	_ repository.ProductRepository       = (*ProductRepository)(nil)
	_ repository.StockRepository         = (*StockRepository)(nil)
	_ repository.StockMovementRepository = (*StockMovementRepository)(nil)
	_ repository.TransferRepository      = (*TransferRepository)(nil)
	_ repository.SaleRepository          = (*SaleRepository)(nil)
)
