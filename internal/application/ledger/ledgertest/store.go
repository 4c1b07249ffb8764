// Package ledgertest provides an in-memory, transactional implementation of the
// ledger repositories for engine tests.
package ledgertest

import (
	"bytes"
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/erp/pos/internal/application/ledger"
	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/credit"
	"github.com/erp/pos/internal/domain/fiscal"
	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/orders"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stockKey struct {
	productID uuid.UUID
	branchID  uuid.UUID
}

type data struct {
	stocks    map[stockKey]*inventory.ProductBranchStock
	sessions  map[uuid.UUID]*cash.DrawerSession
	movements map[uuid.UUID][]cash.CashMovement
	accounts  map[uuid.UUID]*credit.Account
	sequences map[string]*fiscal.Sequence
	sales     map[uuid.UUID]*sales.Sale
	orders    map[uuid.UUID]*orders.Order
}

func newData() *data {
	return &data{
		stocks:    map[stockKey]*inventory.ProductBranchStock{},
		sessions:  map[uuid.UUID]*cash.DrawerSession{},
		movements: map[uuid.UUID][]cash.CashMovement{},
		accounts:  map[uuid.UUID]*credit.Account{},
		sequences: map[string]*fiscal.Sequence{},
		sales:     map[uuid.UUID]*sales.Sale{},
		orders:    map[uuid.UUID]*orders.Order{},
	}
}

// clone copies the maps. Stored values are never mutated in place, so sharing them is safe.
func (d *data) clone() *data {
	c := newData()
	for k, v := range d.stocks {
		c.stocks[k] = v
	}
	for k, v := range d.sessions {
		c.sessions[k] = v
	}
	for k, v := range d.movements {
		c.movements[k] = slices.Clone(v)
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.sequences {
		c.sequences[k] = v
	}
	for k, v := range d.sales {
		c.sales[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	return c
}

// Store is an in-memory ledger database. Execute runs units one at a time and
// discards every change of a unit that returns an error.
type Store struct {
	mu sync.Mutex
	d  *data

	executions int
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{d: newData()}
}

// Execute implements ledger.TransactionScope
func (s *Store) Execute(_ context.Context, fn func(repos ledger.TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions++
	tx := &view{d: s.d.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.d = tx.d
	return nil
}

// Executions returns how many units have run
func (s *Store) Executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executions
}

// Repos returns repositories reading and writing committed state outside any unit
func (s *Store) Repos() ledger.TransactionalRepositories {
	return &view{store: s}
}

// view reads one data set. Outside a unit it reads the committed state under the store lock.
type view struct {
	store *Store
	d     *data
}

func (v *view) with(fn func(d *data) error) error {
	if v.store != nil {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
		return fn(v.store.d)
	}
	return fn(v.d)
}

func (v *view) StockRepo() inventory.StockRepository    { return &stockRepo{v} }
func (v *view) DrawerRepo() cash.SessionRepository      { return &drawerRepo{v} }
func (v *view) CreditRepo() credit.AccountRepository    { return &creditRepo{v} }
func (v *view) SequenceRepo() fiscal.SequenceRepository { return &sequenceRepo{v} }
func (v *view) SaleRepo() sales.SaleRepository          { return &saleRepo{v} }
func (v *view) OrderRepo() orders.OrderRepository       { return &orderRepo{v} }

// ==================== helpers ====================

func conflict(entity string) error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict, entity+" was modified by another transaction")
}

func page[T any](items []T, filter shared.Filter) []T {
	if filter.PageSize <= 0 {
		return items
	}
	start := filter.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + filter.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// ==================== stock ====================

type stockRepo struct{ v *view }

func cloneStock(s *inventory.ProductBranchStock) *inventory.ProductBranchStock {
	c := *s
	c.ClearDomainEvents()
	return &c
}

func (r *stockRepo) FindByProductAndBranch(_ context.Context, productID, branchID uuid.UUID) (*inventory.ProductBranchStock, error) {
	var out *inventory.ProductBranchStock
	err := r.v.with(func(d *data) error {
		s, ok := d.stocks[stockKey{productID, branchID}]
		if !ok {
			return shared.ErrNotFound
		}
		out = cloneStock(s)
		return nil
	})
	return out, err
}

func (r *stockRepo) FindForUpdate(_ context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]*inventory.ProductBranchStock, error) {
	var out []*inventory.ProductBranchStock
	err := r.v.with(func(d *data) error {
		for _, id := range productIDs {
			if s, ok := d.stocks[stockKey{id, branchID}]; ok {
				out = append(out, cloneStock(s))
			}
		}
		return nil
	})
	return out, err
}

func (r *stockRepo) FindByBranch(_ context.Context, branchID uuid.UUID, filter shared.Filter) ([]inventory.ProductBranchStock, int64, error) {
	var all []inventory.ProductBranchStock
	err := r.v.with(func(d *data) error {
		for k, s := range d.stocks {
			if k.branchID == branchID {
				all = append(all, *cloneStock(s))
			}
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ProductName < all[j].ProductName })
	return page(all, filter), int64(len(all)), err
}

func (r *stockRepo) Save(_ context.Context, stock *inventory.ProductBranchStock) error {
	return r.v.with(func(d *data) error {
		stock.MarkStored()
		d.stocks[stockKey{stock.ProductID, stock.BranchID}] = cloneStock(stock)
		return nil
	})
}

func (r *stockRepo) SaveWithLock(_ context.Context, stock *inventory.ProductBranchStock) error {
	return r.v.with(func(d *data) error {
		key := stockKey{stock.ProductID, stock.BranchID}
		current, ok := d.stocks[key]
		if !ok || current.Version != stock.StoredVersion() {
			return conflict("Stock record")
		}
		stock.MarkStored()
		d.stocks[key] = cloneStock(stock)
		return nil
	})
}

// ==================== drawer ====================

type drawerRepo struct{ v *view }

func cloneSession(s *cash.DrawerSession) *cash.DrawerSession {
	c := *s
	c.ClearDomainEvents()
	c.ClearPendingMovements()
	return &c
}

func (r *drawerRepo) FindByID(_ context.Context, id uuid.UUID) (*cash.DrawerSession, error) {
	var out *cash.DrawerSession
	err := r.v.with(func(d *data) error {
		s, ok := d.sessions[id]
		if !ok {
			return shared.ErrNotFound
		}
		out = cloneSession(s)
		return nil
	})
	return out, err
}

func (r *drawerRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*cash.DrawerSession, error) {
	return r.FindByID(ctx, id)
}

func (r *drawerRepo) FindOpen(_ context.Context, branchID, operatorID uuid.UUID) (*cash.DrawerSession, error) {
	var out *cash.DrawerSession
	err := r.v.with(func(d *data) error {
		for _, s := range d.sessions {
			if s.BranchID == branchID && s.OperatorID == operatorID && s.IsOpen() {
				out = cloneSession(s)
				return nil
			}
		}
		return shared.ErrNotFound
	})
	return out, err
}

func (r *drawerRepo) FindOpenForUpdate(ctx context.Context, branchID, operatorID uuid.UUID) (*cash.DrawerSession, error) {
	return r.FindOpen(ctx, branchID, operatorID)
}

func (r *drawerRepo) FindMovements(_ context.Context, sessionID uuid.UUID) ([]cash.CashMovement, error) {
	var out []cash.CashMovement
	err := r.v.with(func(d *data) error {
		out = slices.Clone(d.movements[sessionID])
		return nil
	})
	return out, err
}

func (r *drawerRepo) Save(_ context.Context, session *cash.DrawerSession) error {
	return r.v.with(func(d *data) error {
		if session.IsOpen() {
			for id, s := range d.sessions {
				if id != session.ID && s.IsOpen() && s.BranchID == session.BranchID && s.OperatorID == session.OperatorID {
					return shared.ErrDrawerAlreadyOpen
				}
			}
		}
		r.store(d, session)
		return nil
	})
}

func (r *drawerRepo) SaveWithLock(_ context.Context, session *cash.DrawerSession) error {
	return r.v.with(func(d *data) error {
		current, ok := d.sessions[session.ID]
		if !ok || current.Version != session.StoredVersion() {
			return conflict("Drawer session")
		}
		r.store(d, session)
		return nil
	})
}

func (r *drawerRepo) store(d *data, session *cash.DrawerSession) {
	d.movements[session.ID] = append(d.movements[session.ID], session.PendingMovements()...)
	session.ClearPendingMovements()
	session.MarkStored()
	d.sessions[session.ID] = cloneSession(session)
}

// ==================== credit ====================

type creditRepo struct{ v *view }

func cloneAccount(a *credit.Account) *credit.Account {
	c := *a
	c.ClearDomainEvents()
	return &c
}

func (r *creditRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) (*credit.Account, error) {
	var out *credit.Account
	err := r.v.with(func(d *data) error {
		a, ok := d.accounts[customerID]
		if !ok {
			return shared.ErrNotFound
		}
		out = cloneAccount(a)
		return nil
	})
	return out, err
}

func (r *creditRepo) FindByCustomerForUpdate(ctx context.Context, customerID uuid.UUID) (*credit.Account, error) {
	return r.FindByCustomer(ctx, customerID)
}

func (r *creditRepo) Save(_ context.Context, account *credit.Account) error {
	return r.v.with(func(d *data) error {
		account.MarkStored()
		d.accounts[account.CustomerID] = cloneAccount(account)
		return nil
	})
}

func (r *creditRepo) SaveWithLock(_ context.Context, account *credit.Account) error {
	return r.v.with(func(d *data) error {
		current, ok := d.accounts[account.CustomerID]
		if !ok || current.Version != account.StoredVersion() {
			return conflict("Credit account")
		}
		account.MarkStored()
		d.accounts[account.CustomerID] = cloneAccount(account)
		return nil
	})
}

// ==================== fiscal ====================

type sequenceRepo struct{ v *view }

func cloneSequence(s *fiscal.Sequence) *fiscal.Sequence {
	c := *s
	c.ClearDomainEvents()
	return &c
}

func (r *sequenceRepo) FindByPrefixForUpdate(_ context.Context, prefix string) (*fiscal.Sequence, error) {
	var out *fiscal.Sequence
	err := r.v.with(func(d *data) error {
		s, ok := d.sequences[prefix]
		if !ok {
			return shared.ErrNotFound
		}
		out = cloneSequence(s)
		return nil
	})
	return out, err
}

func (r *sequenceRepo) FindByID(_ context.Context, id uuid.UUID) (*fiscal.Sequence, error) {
	var out *fiscal.Sequence
	err := r.v.with(func(d *data) error {
		for _, s := range d.sequences {
			if s.ID == id {
				out = cloneSequence(s)
				return nil
			}
		}
		return shared.ErrNotFound
	})
	return out, err
}

func (r *sequenceRepo) FindAll(_ context.Context) ([]fiscal.Sequence, error) {
	var out []fiscal.Sequence
	err := r.v.with(func(d *data) error {
		for _, s := range d.sequences {
			out = append(out, *cloneSequence(s))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out, err
}

func (r *sequenceRepo) Save(_ context.Context, seq *fiscal.Sequence) error {
	return r.v.with(func(d *data) error {
		seq.MarkStored()
		d.sequences[seq.Prefix] = cloneSequence(seq)
		return nil
	})
}

func (r *sequenceRepo) SaveWithLock(_ context.Context, seq *fiscal.Sequence) error {
	return r.v.with(func(d *data) error {
		current, ok := d.sequences[seq.Prefix]
		if !ok || current.Version != seq.StoredVersion() {
			return conflict("Fiscal sequence")
		}
		seq.MarkStored()
		d.sequences[seq.Prefix] = cloneSequence(seq)
		return nil
	})
}

// ==================== sales ====================

type saleRepo struct{ v *view }

func cloneSale(s *sales.Sale) *sales.Sale {
	c := *s
	c.ClearDomainEvents()
	c.Lines = slices.Clone(s.Lines)
	return &c
}

func (r *saleRepo) FindByID(_ context.Context, id uuid.UUID) (*sales.Sale, error) {
	var out *sales.Sale
	err := r.v.with(func(d *data) error {
		s, ok := d.sales[id]
		if !ok {
			return shared.ErrNotFound
		}
		out = cloneSale(s)
		return nil
	})
	return out, err
}

func (r *saleRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	return r.FindByID(ctx, id)
}

func (r *saleRepo) FindByOrder(_ context.Context, orderID uuid.UUID) (*sales.Sale, error) {
	var out *sales.Sale
	err := r.v.with(func(d *data) error {
		for _, s := range d.sales {
			if s.OrderID != nil && *s.OrderID == orderID {
				out = cloneSale(s)
				return nil
			}
		}
		return shared.ErrNotFound
	})
	return out, err
}

func (r *saleRepo) FindByDrawerSession(_ context.Context, sessionID uuid.UUID) ([]sales.Sale, error) {
	var out []sales.Sale
	err := r.v.with(func(d *data) error {
		for _, s := range d.sales {
			if s.DrawerSessionID != nil && *s.DrawerSessionID == sessionID {
				out = append(out, *cloneSale(s))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SaleNumber < out[j].SaleNumber })
	return out, err
}

func (r *saleRepo) FindByBranch(_ context.Context, branchID uuid.UUID, filter shared.Filter) ([]sales.Sale, int64, error) {
	var all []sales.Sale
	err := r.v.with(func(d *data) error {
		for _, s := range d.sales {
			if s.BranchID == branchID {
				all = append(all, *cloneSale(s))
			}
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool { return all[i].SaleNumber > all[j].SaleNumber })
	return page(all, filter), int64(len(all)), err
}

func (r *saleRepo) Create(_ context.Context, sale *sales.Sale) error {
	return r.v.with(func(d *data) error {
		if _, ok := d.sales[sale.ID]; ok {
			return shared.ErrAlreadyExists
		}
		for _, s := range d.sales {
			if s.NCF == sale.NCF || s.SaleNumber == sale.SaleNumber {
				return shared.NewDomainError(shared.CodeAlreadyExists, "Document number already issued")
			}
			if sale.OrderID != nil && s.OrderID != nil && *s.OrderID == *sale.OrderID {
				return shared.NewDomainError(shared.CodeAlreadyExists, "Order already invoiced")
			}
		}
		sale.MarkStored()
		d.sales[sale.ID] = cloneSale(sale)
		return nil
	})
}

func (r *saleRepo) UpdateStatus(_ context.Context, sale *sales.Sale) error {
	return r.v.with(func(d *data) error {
		current, ok := d.sales[sale.ID]
		if !ok || current.Version != sale.StoredVersion() {
			return conflict("Sale")
		}
		sale.MarkStored()
		d.sales[sale.ID] = cloneSale(sale)
		return nil
	})
}

// ==================== orders ====================

type orderRepo struct{ v *view }

func cloneOrder(o *orders.Order) *orders.Order {
	c := *o
	c.ClearDomainEvents()
	c.Lines = slices.Clone(o.Lines)
	return &c
}

func (r *orderRepo) FindByID(_ context.Context, id uuid.UUID) (*orders.Order, error) {
	var out *orders.Order
	err := r.v.with(func(d *data) error {
		o, ok := d.orders[id]
		if !ok {
			return shared.ErrNotFound
		}
		out = cloneOrder(o)
		return nil
	})
	return out, err
}

func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*orders.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepo) FindByBranch(_ context.Context, branchID uuid.UUID, status *orders.Status, filter shared.Filter) ([]orders.Order, int64, error) {
	var all []orders.Order
	err := r.v.with(func(d *data) error {
		for _, o := range d.orders {
			if o.BranchID != branchID || (status != nil && o.Status != *status) {
				continue
			}
			all = append(all, *cloneOrder(o))
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool { return all[i].OrderNumber > all[j].OrderNumber })
	return page(all, filter), int64(len(all)), err
}

func (r *orderRepo) Create(_ context.Context, order *orders.Order) error {
	return r.v.with(func(d *data) error {
		if _, ok := d.orders[order.ID]; ok {
			return shared.ErrAlreadyExists
		}
		order.MarkStored()
		d.orders[order.ID] = cloneOrder(order)
		return nil
	})
}

func (r *orderRepo) Update(_ context.Context, order *orders.Order) error {
	return r.v.with(func(d *data) error {
		current, ok := d.orders[order.ID]
		if !ok || current.Version != order.StoredVersion() {
			return conflict("Order")
		}
		order.MarkStored()
		d.orders[order.ID] = cloneOrder(order)
		return nil
	})
}

// ==================== seeding ====================

// AddStock seeds a stock record
func (s *Store) AddStock(productID, branchID uuid.UUID, name string, onHand, averageCost decimal.Decimal) *inventory.ProductBranchStock {
	stock, err := inventory.NewProductBranchStock(productID, branchID, name, onHand, averageCost)
	if err != nil {
		panic(err)
	}
	_ = s.Repos().StockRepo().Save(context.Background(), stock)
	return stock
}

// AddAccount seeds a credit account
func (s *Store) AddAccount(customerID uuid.UUID, name string, limit, outstanding decimal.Decimal) *credit.Account {
	account, err := credit.NewAccount(customerID, name, limit)
	if err != nil {
		panic(err)
	}
	account.OutstandingBalance = outstanding
	_ = s.Repos().CreditRepo().Save(context.Background(), account)
	return account
}

// AddSequence seeds a number series
func (s *Store) AddSequence(prefix string, docType fiscal.DocumentType, padding int) *fiscal.Sequence {
	seq, err := fiscal.NewSequence(prefix, docType, padding)
	if err != nil {
		panic(err)
	}
	_ = s.Repos().SequenceRepo().Save(context.Background(), seq)
	return seq
}

// AddDefaultSequences seeds the invoice, NCF and order series
func (s *Store) AddDefaultSequences() {
	series := ledger.DefaultNumberSeries()
	s.AddSequence(series.Invoice, fiscal.DocumentInvoice, 6)
	s.AddSequence(series.NCF, fiscal.DocumentNCF, fiscal.DefaultPadding)
	s.AddSequence(series.Order, fiscal.DocumentOrder, 6)
}

// Stock returns the committed stock record
func (s *Store) Stock(productID, branchID uuid.UUID) *inventory.ProductBranchStock {
	stock, err := s.Repos().StockRepo().FindByProductAndBranch(context.Background(), productID, branchID)
	if err != nil {
		return nil
	}
	return stock
}

// Account returns the committed credit account
func (s *Store) Account(customerID uuid.UUID) *credit.Account {
	account, err := s.Repos().CreditRepo().FindByCustomer(context.Background(), customerID)
	if err != nil {
		return nil
	}
	return account
}

// Session returns the committed drawer session
func (s *Store) Session(id uuid.UUID) *cash.DrawerSession {
	session, err := s.Repos().DrawerRepo().FindByID(context.Background(), id)
	if err != nil {
		return nil
	}
	return session
}

// Movements returns the committed movements of a session
func (s *Store) Movements(sessionID uuid.UUID) []cash.CashMovement {
	movements, _ := s.Repos().DrawerRepo().FindMovements(context.Background(), sessionID)
	return movements
}

// Sales returns every committed sale ordered by sale number
func (s *Store) Sales() []sales.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sales.Sale, 0, len(s.d.sales))
	for _, sale := range s.d.sales {
		out = append(out, *cloneSale(sale))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SaleNumber == out[j].SaleNumber {
			return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
		}
		return out[i].SaleNumber < out[j].SaleNumber
	})
	return out
}

var (
	_ ledger.TransactionScope          = (*Store)(nil)
	_ ledger.TransactionalRepositories = (*view)(nil)
)

// OpenDrawer seeds an open drawer session
func (s *Store) OpenDrawer(branchID, operatorID uuid.UUID, openingFloat decimal.Decimal) *cash.DrawerSession {
	session, err := cash.OpenDrawerSession(branchID, operatorID, openingFloat)
	if err != nil {
		panic(err)
	}
	if err := s.Repos().DrawerRepo().Save(context.Background(), session); err != nil {
		panic(err)
	}
	return session
}
