package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/erp/pos/internal/application/ledger"
	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/credit"
	"github.com/erp/pos/internal/domain/fiscal"
	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/orders"
	"github.com/erp/pos/internal/domain/sales"
	"gorm.io/gorm"
)

// DefaultMaxAttempts is how many times a unit runs before a serialization failure is returned
const DefaultMaxAttempts = 3

// GormTransactionScope implements ledger.TransactionScope using GORM transactions.
// A unit that fails with a serialization failure or deadlock is rolled back and run again.
type GormTransactionScope struct {
	db          *gorm.DB
	maxAttempts int
	backoff     func() backoff.BackOff
}

// TransactionScopeOption configures a GormTransactionScope
type TransactionScopeOption func(*GormTransactionScope)

// WithMaxAttempts bounds how many times a unit is attempted
func WithMaxAttempts(n int) TransactionScopeOption {
	return func(s *GormTransactionScope) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBackOff replaces the wait policy between attempts
func WithBackOff(factory func() backoff.BackOff) TransactionScopeOption {
	return func(s *GormTransactionScope) {
		s.backoff = factory
	}
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, opts ...TransactionScopeOption) *GormTransactionScope {
	s := &GormTransactionScope{
		db:          db,
		maxAttempts: DefaultMaxAttempts,
		backoff:     defaultBackOff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.RandomizationFactor = 0.5
	return b
}

// Execute runs fn within a database transaction. fn must not carry state between
// attempts; every attempt starts from freshly locked rows.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos ledger.TransactionalRepositories) error) error {
	attempt := func() error {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormTransactionalRepositories{tx: tx})
		})
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(s.backoff(), uint64(s.maxAttempts-1)),
		ctx,
	)
	err := backoff.Retry(attempt, policy)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}

// gormTransactionalRepositories binds every ledger repository to the current transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) StockRepo() inventory.StockRepository {
	return NewGormStockRepository(r.tx)
}

func (r *gormTransactionalRepositories) DrawerRepo() cash.SessionRepository {
	return NewGormDrawerSessionRepository(r.tx)
}

func (r *gormTransactionalRepositories) CreditRepo() credit.AccountRepository {
	return NewGormCreditAccountRepository(r.tx)
}

func (r *gormTransactionalRepositories) SequenceRepo() fiscal.SequenceRepository {
	return NewGormFiscalSequenceRepository(r.tx)
}

func (r *gormTransactionalRepositories) SaleRepo() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) OrderRepo() orders.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

var _ ledger.TransactionScope = (*GormTransactionScope)(nil)

var _ ledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
