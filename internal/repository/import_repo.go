package repository

import (
	"context"

	"github.com/trade-journal/internal/models"
	"gorm.io/gorm"
)

// ImportBatchRepository handles import audit records
type ImportBatchRepository struct {
	db *gorm.DB
}

// NewImportBatchRepository creates a new ImportBatchRepository
func NewImportBatchRepository(db *gorm.DB) *ImportBatchRepository {
	return &ImportBatchRepository{db: db}
}

// Create records a finished import
func (r *ImportBatchRepository) Create(ctx context.Context, batch *models.ImportBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// GetByAccountPaginated retrieves an account's imports, newest first
func (r *ImportBatchRepository) GetByAccountPaginated(userID, accountID uint, page, pageSize int) ([]models.ImportBatch, int64, error) {
	var batches []models.ImportBatch
	var total int64

	if err := r.db.Model(&models.ImportBatch{}).
		Where("user_id = ? AND account_id = ?", userID, accountID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	result := r.db.Where("user_id = ? AND account_id = ?", userID, accountID).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&batches)

	return batches, total, result.Error
}
