package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the side of a journaled trade
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Order types and sources of imported trades
const (
	OrderTypeImport     = "IMPORT"
	SourceNinjaTrader   = "ninjatrader"
	DefaultImportSource = SourceNinjaTrader
)

// Trade is a journaled round-trip trade.
// The idx_trades_dedup unique index enforces the import duplicate key at storage level.
type Trade struct {
	ID                  uint                `gorm:"primaryKey" json:"id"`
	UserID              uint                `gorm:"not null;uniqueIndex:idx_trades_dedup,priority:1;index:idx_trades_lookup,priority:1" json:"user_id"`
	AccountID           uint                `gorm:"not null;uniqueIndex:idx_trades_dedup,priority:2;index:idx_trades_lookup,priority:2" json:"account_id"`
	Symbol              string              `gorm:"size:20;not null;uniqueIndex:idx_trades_dedup,priority:3;index:idx_trades_lookup,priority:3" json:"symbol"`
	Direction           Direction           `gorm:"size:10;not null;uniqueIndex:idx_trades_dedup,priority:4;index:idx_trades_lookup,priority:4" json:"direction"`
	EntryDate           time.Time           `gorm:"not null;uniqueIndex:idx_trades_dedup,priority:5;index:idx_trades_lookup,priority:5" json:"entry_date"`
	EntryPrice          decimal.Decimal     `gorm:"type:decimal(20,8);not null;uniqueIndex:idx_trades_dedup,priority:6" json:"entry_price"`
	Quantity            decimal.Decimal     `gorm:"type:decimal(20,8);not null;uniqueIndex:idx_trades_dedup,priority:7" json:"quantity"`
	ExitPrice           decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"exit_price"`
	ExitDate            *time.Time          `json:"exit_date,omitempty"`
	PnL                 decimal.NullDecimal `gorm:"column:pnl;type:decimal(20,8)" json:"pnl"`
	Commission          decimal.Decimal     `gorm:"type:decimal(20,8);default:0" json:"commission"`
	MAE                 decimal.NullDecimal `gorm:"column:mae;type:decimal(20,8)" json:"mae"`
	MFE                 decimal.NullDecimal `gorm:"column:mfe;type:decimal(20,8)" json:"mfe"`
	StrategyName        string              `gorm:"size:255" json:"strategy_name"`
	SourceAccountName   string              `gorm:"size:255" json:"source_account_name"`
	ExitSignalName      string              `gorm:"size:255" json:"exit_signal_name"`
	ExternalTradeNumber string              `gorm:"size:50" json:"external_trade_number"`
	OrderType           string              `gorm:"size:20;not null" json:"order_type"`
	Source              string              `gorm:"size:30;not null" json:"source"`
	ImportBatchID       *uuid.UUID          `gorm:"type:uuid;index" json:"import_batch_id,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`

	// Relations
	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

// TableName specifies the table name for Trade model
func (Trade) TableName() string {
	return "trades"
}

// IsOpen returns true if the trade has no exit yet
func (t *Trade) IsOpen() bool {
	return !t.ExitPrice.Valid || t.ExitDate == nil
}
