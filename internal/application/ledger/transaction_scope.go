// Package ledger holds what the sale, order and cash engines share: the transaction
// scope every ledger mutation runs in and helpers that post to the stock, cash,
// credit and fiscal ledgers inside it.
package ledger

import (
	"context"

	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/credit"
	"github.com/erp/pos/internal/domain/fiscal"
	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/orders"
	"github.com/erp/pos/internal/domain/sales"
)

// TransactionScope provides transactional access to the ledger repositories.
// All repository operations inside fn are part of one database transaction and are
// committed or rolled back atomically. Implementations may run fn more than once
// when the database reports a serialization failure, so fn must not keep state
// from a previous attempt.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to the current transaction
type TransactionalRepositories interface {
	StockRepo() inventory.StockRepository
	DrawerRepo() cash.SessionRepository
	CreditRepo() credit.AccountRepository
	SequenceRepo() fiscal.SequenceRepository
	SaleRepo() sales.SaleRepository
	OrderRepo() orders.OrderRepository
}
