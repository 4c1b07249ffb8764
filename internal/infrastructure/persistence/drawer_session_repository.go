package persistence

import (
	"context"

	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDrawerSessionRepository implements cash.SessionRepository using GORM.
// Cash movements are only ever inserted.
type GormDrawerSessionRepository struct {
	db *gorm.DB
}

// NewGormDrawerSessionRepository creates a new GormDrawerSessionRepository
func NewGormDrawerSessionRepository(db *gorm.DB) *GormDrawerSessionRepository {
	return &GormDrawerSessionRepository{db: db}
}

// FindByID finds a session by ID
func (r *GormDrawerSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*cash.DrawerSession, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate loads a session with a row lock
func (r *GormDrawerSessionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*cash.DrawerSession, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

// FindOpen returns the open session of an operator at a branch
func (r *GormDrawerSessionRepository) FindOpen(ctx context.Context, branchID, operatorID uuid.UUID) (*cash.DrawerSession, error) {
	return r.first(r.db.WithContext(ctx).
		Where("branch_id = ? AND operator_id = ? AND status = ?", branchID, operatorID, cash.SessionOpen))
}

// FindOpenForUpdate locks the open session of an operator at a branch
func (r *GormDrawerSessionRepository) FindOpenForUpdate(ctx context.Context, branchID, operatorID uuid.UUID) (*cash.DrawerSession, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND operator_id = ? AND status = ?", branchID, operatorID, cash.SessionOpen))
}

func (r *GormDrawerSessionRepository) first(query *gorm.DB) (*cash.DrawerSession, error) {
	var model models.DrawerSessionModel
	if err := query.First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindMovements lists a session's movements in recording order
func (r *GormDrawerSessionRepository) FindMovements(ctx context.Context, sessionID uuid.UUID) ([]cash.CashMovement, error) {
	var rows []models.CashMovementModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]cash.CashMovement, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Save creates a session and its opening movement. The partial unique index on
// open sessions turns a concurrent second open into DRAWER_ALREADY_OPEN.
func (r *GormDrawerSessionRepository) Save(ctx context.Context, session *cash.DrawerSession) error {
	if err := r.db.WithContext(ctx).Create(models.DrawerSessionModelFromDomain(session)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDrawerAlreadyOpen.
				WithDetail("branch_id", session.BranchID.String()).
				WithDetail("operator_id", session.OperatorID.String())
		}
		return err
	}
	if err := r.appendMovements(ctx, session); err != nil {
		return err
	}
	session.MarkStored()
	return nil
}

// SaveWithLock updates a session, matching its loaded version, and appends its new movements
func (r *GormDrawerSessionRepository) SaveWithLock(ctx context.Context, session *cash.DrawerSession) error {
	result := r.db.WithContext(ctx).
		Model(&models.DrawerSessionModel{}).
		Where("id = ? AND version = ?", session.ID, session.StoredVersion()).
		Updates(map[string]any{
			"running_cash":     session.RunningCash,
			"status":           string(session.Status),
			"closed_at":        session.ClosedAt,
			"closed_by":        session.ClosedBy,
			"counted_cash":     session.CountedCash,
			"theoretical_cash": session.TheoreticalCash,
			"variance":         session.Variance,
			"version":          session.Version,
			"updated_at":       session.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflict("Drawer session")
	}
	if err := r.appendMovements(ctx, session); err != nil {
		return err
	}
	session.MarkStored()
	return nil
}

// appendMovements inserts pending movements after the session's last sequence number.
// Callers hold the session row, so the sequence cannot race.
func (r *GormDrawerSessionRepository) appendMovements(ctx context.Context, session *cash.DrawerSession) error {
	pending := session.PendingMovements()
	if len(pending) == 0 {
		return nil
	}

	var last int64
	if err := r.db.WithContext(ctx).
		Model(&models.CashMovementModel{}).
		Where("session_id = ?", session.ID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&last).Error; err != nil {
		return err
	}

	rows := make([]*models.CashMovementModel, len(pending))
	for i, m := range pending {
		rows[i] = models.CashMovementModelFromDomain(m, last+int64(i)+1)
	}
	if err := r.db.WithContext(ctx).Create(rows).Error; err != nil {
		return err
	}
	session.ClearPendingMovements()
	return nil
}

var _ cash.SessionRepository = (*GormDrawerSessionRepository)(nil)
