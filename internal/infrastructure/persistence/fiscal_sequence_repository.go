package persistence

import (
	"context"

	"github.com/erp/pos/internal/domain/fiscal"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFiscalSequenceRepository implements fiscal.SequenceRepository using GORM
type GormFiscalSequenceRepository struct {
	db *gorm.DB
}

// NewGormFiscalSequenceRepository creates a new GormFiscalSequenceRepository
func NewGormFiscalSequenceRepository(db *gorm.DB) *GormFiscalSequenceRepository {
	return &GormFiscalSequenceRepository{db: db}
}

// FindByPrefixForUpdate locks the series row until the enclosing transaction ends.
// Concurrent allocations on the same series queue on this lock.
func (r *GormFiscalSequenceRepository) FindByPrefixForUpdate(ctx context.Context, prefix string) (*fiscal.Sequence, error) {
	var model models.FiscalSequenceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ?", prefix).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByID finds a series by ID
func (r *GormFiscalSequenceRepository) FindByID(ctx context.Context, id uuid.UUID) (*fiscal.Sequence, error) {
	var model models.FiscalSequenceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists every series ordered by prefix
func (r *GormFiscalSequenceRepository) FindAll(ctx context.Context) ([]fiscal.Sequence, error) {
	var rows []models.FiscalSequenceModel
	if err := r.db.WithContext(ctx).Order("prefix").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]fiscal.Sequence, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates a series
func (r *GormFiscalSequenceRepository) Save(ctx context.Context, seq *fiscal.Sequence) error {
	if err := r.db.WithContext(ctx).Create(models.FiscalSequenceModelFromDomain(seq)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Series prefix already exists").
				WithDetail("series", seq.Prefix)
		}
		return err
	}
	seq.MarkStored()
	return nil
}

// SaveWithLock persists the advanced counter, matching the loaded version
func (r *GormFiscalSequenceRepository) SaveWithLock(ctx context.Context, seq *fiscal.Sequence) error {
	result := r.db.WithContext(ctx).
		Model(&models.FiscalSequenceModel{}).
		Where("id = ? AND version = ?", seq.ID, seq.StoredVersion()).
		Updates(map[string]any{
			"next_value": seq.NextValue,
			"end_value":  seq.EndValue,
			"expires_at": seq.ExpiresAt,
			"version":    seq.Version,
			"updated_at": seq.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflict("Fiscal sequence")
	}
	seq.MarkStored()
	return nil
}

var _ fiscal.SequenceRepository = (*GormFiscalSequenceRepository)(nil)
