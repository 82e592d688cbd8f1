package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trade-journal/internal/middleware"
	"github.com/trade-journal/internal/repository"
	"github.com/trade-journal/internal/service"
	"github.com/trade-journal/pkg/response"
)

// TradeHandler handles journaled trade API requests
type TradeHandler struct {
	tradeService *service.TradeService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(tradeService *service.TradeService) *TradeHandler {
	return &TradeHandler{tradeService: tradeService}
}

// GetTrades handles listing an account's trades
// GET /api/v1/accounts/:id/trades
func (h *TradeHandler) GetTrades(c *gin.Context) {
	page, pageSize := pagination(c)
	trades, total, err := h.tradeService.GetTrades(middleware.GetAccount(c), page, pageSize)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.SuccessPaginated(c, trades, total, page, pageSize)
}

// DeleteTrade handles deleting one trade
// DELETE /api/v1/accounts/:id/trades/:tradeId
func (h *TradeHandler) DeleteTrade(c *gin.Context) {
	tradeID, err := strconv.ParseUint(c.Param("tradeId"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid trade id")
		return
	}

	err = h.tradeService.DeleteTrade(middleware.GetAccount(c), uint(tradeID))
	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) {
			response.NotFound(c, "trade not found")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "trade deleted"})
}

// RegisterRoutes registers trade routes
func (h *TradeHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware, accountScope gin.HandlerFunc) {
	trades := rg.Group("/accounts/:id/trades")
	trades.Use(authMiddleware, accountScope)
	{
		trades.GET("", h.GetTrades)
		trades.DELETE("/:tradeId", h.DeleteTrade)
	}
}
