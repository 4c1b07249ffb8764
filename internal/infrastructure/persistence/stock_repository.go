package persistence

import (
	"context"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockRepository implements inventory.StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// FindByProductAndBranch finds the stock record of a product at a branch
func (r *GormStockRepository) FindByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID) (*inventory.ProductBranchStock, error) {
	var model models.ProductBranchStockModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ?", productID, branchID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindForUpdate locks the stock rows of the products at a branch. Rows are locked in
// product ID order so two units touching the same products cannot deadlock.
func (r *GormStockRepository) FindForUpdate(ctx context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]*inventory.ProductBranchStock, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []models.ProductBranchStockModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND product_id IN ?", branchID, productIDs).
		Order("product_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*inventory.ProductBranchStock, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FindByBranch lists stock records of a branch ordered by product name
func (r *GormStockRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]inventory.ProductBranchStock, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductBranchStockModel{}).
		Where("branch_id = ?", branchID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductBranchStockModel
	if err := applyPaging(query, filter).Order("product_name, product_id").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]inventory.ProductBranchStock, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates a stock record
func (r *GormStockRepository) Save(ctx context.Context, stock *inventory.ProductBranchStock) error {
	if err := r.db.WithContext(ctx).Create(models.ProductBranchStockModelFromDomain(stock)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Stock record already exists for product at branch")
		}
		return err
	}
	stock.MarkStored()
	return nil
}

// SaveWithLock updates the quantities, matching the version the record was loaded with
func (r *GormStockRepository) SaveWithLock(ctx context.Context, stock *inventory.ProductBranchStock) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductBranchStockModel{}).
		Where("id = ? AND version = ?", stock.ID, stock.StoredVersion()).
		Updates(map[string]any{
			"on_hand":         stock.OnHand,
			"reserved":        stock.Reserved,
			"available":       stock.Available,
			"average_cost":    stock.AverageCost,
			"inventory_value": stock.InventoryValue,
			"version":         stock.Version,
			"updated_at":      stock.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflict("Stock record")
	}
	stock.MarkStored()
	return nil
}

func applyPaging(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

var _ inventory.StockRepository = (*GormStockRepository)(nil)
