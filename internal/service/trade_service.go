package service

import (
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
)

// TradeService handles journaled trades
type TradeService struct {
	tradeRepo *repository.TradeRepository
}

// NewTradeService creates a new TradeService
func NewTradeService(tradeRepo *repository.TradeRepository) *TradeService {
	return &TradeService{tradeRepo: tradeRepo}
}

// GetTrades lists an account's trades, newest entry first
func (s *TradeService) GetTrades(account *models.Account, page, pageSize int) ([]models.Trade, int64, error) {
	return s.tradeRepo.GetByAccountIDPaginated(account.UserID, account.ID, page, pageSize)
}

// DeleteTrade removes one trade, allowing it to be imported again
func (s *TradeService) DeleteTrade(account *models.Account, tradeID uint) error {
	return s.tradeRepo.DeleteForAccount(account.UserID, account.ID, tradeID)
}
