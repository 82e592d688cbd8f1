package repository

import (
	"context"
	"errors"
	"time"

	"github.com/trade-journal/internal/importer"
	"github.com/trade-journal/internal/models"
	"gorm.io/gorm"
)

var (
	ErrTradeNotFound = errors.New("trade not found")
)

// TradeRepository handles trade data access. It is the store behind the import pipeline.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// FindCandidates returns the trades sharing symbol, direction and entry time,
// the indexed part of the duplicate key
func (r *TradeRepository) FindCandidates(ctx context.Context, userID, accountID uint, symbol string, direction models.Direction, entryDate time.Time) ([]importer.ExistingTradeKey, error) {
	var trades []models.Trade
	result := r.db.WithContext(ctx).
		Select("id", "entry_price", "quantity").
		Where("user_id = ? AND account_id = ? AND symbol = ? AND direction = ? AND entry_date = ?",
			userID, accountID, symbol, direction, entryDate).
		Find(&trades)
	if result.Error != nil {
		return nil, result.Error
	}

	keys := make([]importer.ExistingTradeKey, 0, len(trades))
	for _, t := range trades {
		keys = append(keys, importer.ExistingTradeKey{ID: t.ID, EntryPrice: t.EntryPrice, Quantity: t.Quantity})
	}
	return keys, nil
}

// CreateTrade inserts a trade. A violation of idx_trades_dedup is reported as
// importer.ErrDuplicateTrade; the connection must be opened with TranslateError.
func (r *TradeRepository) CreateTrade(ctx context.Context, trade *models.Trade) error {
	err := r.db.WithContext(ctx).Create(trade).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return importer.ErrDuplicateTrade
	}
	return err
}

// Ping checks the database connection
func (r *TradeRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// GetByAccountIDPaginated retrieves an account's trades, newest entry first
func (r *TradeRepository) GetByAccountIDPaginated(userID, accountID uint, page, pageSize int) ([]models.Trade, int64, error) {
	var trades []models.Trade
	var total int64

	scope := r.db.Model(&models.Trade{}).Where("user_id = ? AND account_id = ?", userID, accountID)
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	result := r.db.Where("user_id = ? AND account_id = ?", userID, accountID).
		Order("entry_date DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&trades)

	return trades, total, result.Error
}

// DeleteForAccount deletes one trade of an account
func (r *TradeRepository) DeleteForAccount(userID, accountID, tradeID uint) error {
	result := r.db.Where("id = ? AND user_id = ? AND account_id = ?", tradeID, userID, accountID).
		Delete(&models.Trade{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTradeNotFound
	}
	return nil
}
