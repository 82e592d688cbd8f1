package importer_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/trade-journal/internal/importer"
	"github.com/trade-journal/internal/models"
)

const exportHeader = "Trade number;Instrument;Account;Strategy;Market pos.;Qty;Entry price;Exit price;Entry time;Exit time;Entry name;Exit name;Profit;Cum. net profit;Commission;Fee1;Fee2;Fee3;Fee4;MAE;MFE;ETD;Bars"

// exportRow holds the mapped columns of a test row; unset columns are filled with defaults
type exportRow struct {
	number, instrument, account, strategy, position, qty, entryPrice, exitPrice string
	entryTime, exitTime, exitName, profit, commission, mae, mfe                 string
}

func defaultRow(n string) exportRow {
	return exportRow{
		number:     n,
		instrument: "ES SEP25",
		account:    "Sim101",
		strategy:   "Breakout",
		position:   "Long",
		qty:        "1",
		entryPrice: "6387,50",
		exitPrice:  "6391,75",
		entryTime:  "2/9/2025 12:18:21",
		exitTime:   "2/9/2025 12:45:03",
		exitName:   "Profit target",
		profit:     "$ 212,50",
		commission: "$ 4,12",
		mae:        "$ 37,50",
		mfe:        "$ 250,00",
	}
}

func (r exportRow) line() string {
	fields := []string{
		r.number, r.instrument, r.account, r.strategy, r.position, r.qty, r.entryPrice, r.exitPrice,
		r.entryTime, r.exitTime, "Entry", r.exitName, r.profit, "$ 212,50", r.commission,
		"$ 0,00", "$ 0,00", "$ 0,00", "$ 0,00", r.mae, r.mfe, "$ 37,50", "12",
	}
	return strings.Join(fields, ";") + ";"
}

func buildExport(rows ...exportRow) []byte {
	lines := []string{exportHeader}
	for _, r := range rows {
		lines = append(lines, r.line())
	}
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

// memoryStore is an in-memory TradeStore enforcing the duplicate key like the database index
type memoryStore struct {
	mu       sync.Mutex
	trades   []models.Trade
	nextID   uint
	pingErr  error
	failRows map[string]error // keyed by external trade number
	creates  int
	lookups  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nextID: 1, failRows: make(map[string]error)}
}

func (s *memoryStore) FindCandidates(ctx context.Context, userID, accountID uint, symbol string, direction models.Direction, entryDate time.Time) ([]importer.ExistingTradeKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++

	var keys []importer.ExistingTradeKey
	for _, t := range s.trades {
		if t.UserID == userID && t.AccountID == accountID && t.Symbol == symbol &&
			t.Direction == direction && t.EntryDate.Equal(entryDate) {
			keys = append(keys, importer.ExistingTradeKey{ID: t.ID, EntryPrice: t.EntryPrice, Quantity: t.Quantity})
		}
	}
	return keys, nil
}

func (s *memoryStore) CreateTrade(ctx context.Context, trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++

	if err, ok := s.failRows[trade.ExternalTradeNumber]; ok {
		return err
	}
	for _, t := range s.trades {
		if t.UserID == trade.UserID && t.AccountID == trade.AccountID && t.Symbol == trade.Symbol &&
			t.Direction == trade.Direction && t.EntryDate.Equal(trade.EntryDate) &&
			t.EntryPrice.Equal(trade.EntryPrice) && t.Quantity.Equal(trade.Quantity) {
			return importer.ErrDuplicateTrade
		}
	}
	trade.ID = s.nextID
	s.nextID++
	s.trades = append(s.trades, *trade)
	return nil
}

func (s *memoryStore) Ping(ctx context.Context) error {
	return s.pingErr
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trades)
}

var errDiskFull = errors.New("disk full")
