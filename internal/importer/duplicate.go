package importer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trade-journal/internal/models"
)

// ExistingTradeKey is the part of a stored trade the duplicate rule compares
type ExistingTradeKey struct {
	ID         uint
	EntryPrice decimal.Decimal
	Quantity   decimal.Decimal
}

// ExistingTradeLookup finds stored trades sharing the indexed part of the duplicate key
type ExistingTradeLookup interface {
	FindCandidates(ctx context.Context, userID, accountID uint, symbol string, direction models.Direction, entryDate time.Time) ([]ExistingTradeKey, error)
}

// DuplicateDetector decides whether a candidate was already imported.
// Exit price, exit date and P&L are not part of the key so a trade exported
// open and re-exported closed still matches.
type DuplicateDetector struct {
	lookup ExistingTradeLookup
}

// NewDuplicateDetector creates a new DuplicateDetector
func NewDuplicateDetector(lookup ExistingTradeLookup) *DuplicateDetector {
	return &DuplicateDetector{lookup: lookup}
}

// Find returns the id of the stored trade matching c, if any
func (d *DuplicateDetector) Find(ctx context.Context, c *CandidateTrade, userID, accountID uint) (uint, bool, error) {
	existing, err := d.lookup.FindCandidates(ctx, userID, accountID, c.Symbol, c.Direction, c.EntryDate.Truncate(time.Second))
	if err != nil {
		return 0, false, err
	}
	for _, e := range existing {
		if e.EntryPrice.Equal(c.EntryPrice) && e.Quantity.Equal(c.Quantity) {
			return e.ID, true, nil
		}
	}
	return 0, false, nil
}

// batchKey identifies a candidate within a single pass
type batchKey struct {
	symbol     string
	direction  models.Direction
	entryDate  int64
	entryPrice string
	quantity   string
}

func keyOf(c *CandidateTrade) batchKey {
	return batchKey{
		symbol:     c.Symbol,
		direction:  c.Direction,
		entryDate:  c.EntryDate.Truncate(time.Second).Unix(),
		entryPrice: c.EntryPrice.String(),
		quantity:   c.Quantity.String(),
	}
}
