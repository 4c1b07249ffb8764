package persistence

import (
	"context"

	"github.com/erp/pos/internal/domain/credit"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCreditAccountRepository implements credit.AccountRepository using GORM
type GormCreditAccountRepository struct {
	db *gorm.DB
}

// NewGormCreditAccountRepository creates a new GormCreditAccountRepository
func NewGormCreditAccountRepository(db *gorm.DB) *GormCreditAccountRepository {
	return &GormCreditAccountRepository{db: db}
}

// FindByCustomer finds the account of a customer
func (r *GormCreditAccountRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*credit.Account, error) {
	var model models.CreditAccountModel
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCustomerForUpdate loads the account with a row lock
func (r *GormCreditAccountRepository) FindByCustomerForUpdate(ctx context.Context, customerID uuid.UUID) (*credit.Account, error) {
	var model models.CreditAccountModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ?", customerID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save creates an account
func (r *GormCreditAccountRepository) Save(ctx context.Context, account *credit.Account) error {
	if err := r.db.WithContext(ctx).Create(models.CreditAccountModelFromDomain(account)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Customer already has a credit account")
		}
		return err
	}
	account.MarkStored()
	return nil
}

// SaveWithLock updates limit and balance, matching the loaded version
func (r *GormCreditAccountRepository) SaveWithLock(ctx context.Context, account *credit.Account) error {
	result := r.db.WithContext(ctx).
		Model(&models.CreditAccountModel{}).
		Where("id = ? AND version = ?", account.ID, account.StoredVersion()).
		Updates(map[string]any{
			"customer_name":       account.CustomerName,
			"credit_limit":        account.CreditLimit,
			"outstanding_balance": account.OutstandingBalance,
			"version":             account.Version,
			"updated_at":          account.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflict("Credit account")
	}
	account.MarkStored()
	return nil
}

var _ credit.AccountRepository = (*GormCreditAccountRepository)(nil)
