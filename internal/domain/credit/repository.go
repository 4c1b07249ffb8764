package credit

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository defines persistence for customer credit accounts
type AccountRepository interface {
	// FindByCustomer finds the account of a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*Account, error)

	// FindByCustomerForUpdate loads the account with a row lock
	FindByCustomerForUpdate(ctx context.Context, customerID uuid.UUID) (*Account, error)

	// Save creates an account
	Save(ctx context.Context, account *Account) error

	// SaveWithLock updates an account, checking its version
	SaveWithLock(ctx context.Context, account *Account) error
}
