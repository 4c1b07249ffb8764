package persistence

import (
	"context"

	"github.com/erp/pos/internal/domain/orders"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements orders.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func withOrderLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("line_no")
	})
}

// FindByID finds an order with its lines
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*orders.Order, error) {
	var model models.OrderModel
	if err := withOrderLines(r.db.WithContext(ctx)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the order header and loads its lines
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*orders.Order, error) {
	var model models.OrderModel
	if err := withOrderLines(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByBranch lists orders of a branch, newest first, optionally by status
func (r *GormOrderRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, status *orders.Status, filter shared.Filter) ([]orders.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("branch_id = ?", branchID)
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	if err := withOrderLines(applyPaging(query, filter)).
		Order("created_at DESC, order_number DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]orders.Order, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts an order with its lines
func (r *GormOrderRepository) Create(ctx context.Context, order *orders.Order) error {
	if err := r.db.WithContext(ctx).Create(models.OrderModelFromDomain(order)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Order number already used").
				WithDetail("order_number", order.OrderNumber)
		}
		return err
	}
	order.MarkStored()
	return nil
}

// Update persists the header, matching the loaded version, and replaces the lines.
// Order lines carry no history; the sale keeps the audited copy.
func (r *GormOrderRepository) Update(ctx context.Context, order *orders.Order) error {
	model := models.OrderModelFromDomain(order)
	db := r.db.WithContext(ctx)

	result := db.Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.StoredVersion()).
		Updates(map[string]any{
			"customer_id":            model.CustomerID,
			"payment_kind":           model.PaymentKind,
			"cash_portion":           model.CashPortion,
			"subtotal":               model.Subtotal,
			"line_discount_total":    model.LineDiscountTotal,
			"global_discount_pct":    model.GlobalDiscountPct,
			"global_discount_amount": model.GlobalDiscountAmount,
			"tax_total":              model.TaxTotal,
			"exempt_total":           model.ExemptTotal,
			"total":                  model.Total,
			"status":                 model.Status,
			"notes":                  model.Notes,
			"approved_by":            model.ApprovedBy,
			"approved_at":            model.ApprovedAt,
			"cancel_reason":          model.CancelReason,
			"cancelled_by":           model.CancelledBy,
			"cancelled_at":           model.CancelledAt,
			"sale_id":                model.SaleID,
			"invoiced_at":            model.InvoicedAt,
			"version":                model.Version,
			"updated_at":             model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflict("Order")
	}

	if err := db.Where("order_id = ?", order.ID).Delete(&models.OrderLineModel{}).Error; err != nil {
		return err
	}
	if len(model.Lines) > 0 {
		if err := db.Create(&model.Lines).Error; err != nil {
			return err
		}
	}
	order.MarkStored()
	return nil
}

var _ orders.OrderRepository = (*GormOrderRepository)(nil)
