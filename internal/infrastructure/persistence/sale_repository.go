package persistence

import (
	"context"

	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func withSaleLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("line_no")
	})
}

// FindByID finds a sale with its lines
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := withSaleLines(r.db.WithContext(ctx)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the sale header and loads its lines
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := withSaleLines(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByOrder finds the sale an order was invoiced into
func (r *GormSaleRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := withSaleLines(r.db.WithContext(ctx)).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByDrawerSession lists the sales booked on a drawer session in processing order
func (r *GormSaleRepository) FindByDrawerSession(ctx context.Context, sessionID uuid.UUID) ([]sales.Sale, error) {
	var rows []models.SaleModel
	if err := withSaleLines(r.db.WithContext(ctx)).
		Where("drawer_session_id = ?", sessionID).
		Order("processed_at, sale_number").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return salesToDomain(rows), nil
}

// FindByBranch lists sales of a branch, newest first
func (r *GormSaleRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]sales.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("branch_id = ?", branchID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SaleModel
	if err := withSaleLines(applyPaging(query, filter)).
		Order("created_at DESC, sale_number DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return salesToDomain(rows), total, nil
}

// Create inserts a processed sale with its lines
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	if err := r.db.WithContext(ctx).Create(models.SaleModelFromDomain(sale)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Sale number, NCF or order already used").
				WithDetail("sale_number", sale.SaleNumber).
				WithDetail("ncf", sale.NCF)
		}
		return err
	}
	sale.MarkStored()
	return nil
}

// UpdateStatus persists status and void metadata. Lines and amounts never change.
func (r *GormSaleRepository) UpdateStatus(ctx context.Context, sale *sales.Sale) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ? AND version = ?", sale.ID, sale.StoredVersion()).
		Updates(map[string]any{
			"status":      string(sale.Status),
			"voided_at":   sale.VoidedAt,
			"voided_by":   sale.VoidedBy,
			"void_reason": sale.VoidReason,
			"version":     sale.Version,
			"updated_at":  sale.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflict("Sale")
	}
	sale.MarkStored()
	return nil
}

func salesToDomain(rows []models.SaleModel) []sales.Sale {
	out := make([]sales.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
