package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trade-journal/internal/config"
	"github.com/trade-journal/internal/importer"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/service"
	"github.com/trade-journal/internal/validation"
)

const header = "Trade number;Instrument;Account;Strategy;Market pos.;Qty;Entry price;Exit price;Entry time;Exit time;Entry name;Exit name;Profit;Cum. net profit;Commission;Fee1;Fee2;Fee3;Fee4;MAE;MFE;ETD;Bars"

func exportLine(number, entryTime, entryPrice string) string {
	return strings.Join([]string{
		number, "ES SEP25", "Sim101", "<b>Breakout</b>", "Long", "1", entryPrice, "6391,75",
		entryTime, "2/9/2025 23:00:00", "Entry", "Target", "$ 212,50", "$ 212,50", "$ 4,12",
		"$ 0,00", "$ 0,00", "$ 0,00", "$ 0,00", "$ 37,50", "$ 250,00", "$ 37,50", "12",
	}, ";") + ";"
}

func upload(lines ...string) validation.Upload {
	return validation.Upload{
		Name:        "/tmp/export/trades.csv",
		ContentType: "text/csv",
		Data:        []byte(header + "\r\n" + strings.Join(lines, "\r\n") + "\r\n"),
	}
}

type fakeTrades struct {
	mu     sync.Mutex
	trades []models.Trade
}

func (f *fakeTrades) FindCandidates(ctx context.Context, userID, accountID uint, symbol string, direction models.Direction, entryDate time.Time) ([]importer.ExistingTradeKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []importer.ExistingTradeKey
	for _, t := range f.trades {
		if t.UserID == userID && t.AccountID == accountID && t.Symbol == symbol && t.Direction == direction && t.EntryDate.Equal(entryDate) {
			keys = append(keys, importer.ExistingTradeKey{ID: t.ID, EntryPrice: t.EntryPrice, Quantity: t.Quantity})
		}
	}
	return keys, nil
}

func (f *fakeTrades) CreateTrade(ctx context.Context, trade *models.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	trade.ID = uint(len(f.trades) + 1)
	f.trades = append(f.trades, *trade)
	return nil
}

func (f *fakeTrades) Ping(ctx context.Context) error { return nil }

type fakeBatches struct {
	batches []models.ImportBatch
}

func (f *fakeBatches) Create(ctx context.Context, batch *models.ImportBatch) error {
	f.batches = append(f.batches, *batch)
	return nil
}

func (f *fakeBatches) GetByAccountPaginated(userID, accountID uint, page, pageSize int) ([]models.ImportBatch, int64, error) {
	var out []models.ImportBatch
	for _, b := range f.batches {
		if b.UserID == userID && b.AccountID == accountID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	released int
}

func (f *fakeLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] {
		return nil, service.ErrImportInProgress
	}
	f.held[key] = true
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, key)
		f.released++
		return nil
	}, nil
}

type fixture struct {
	svc      *service.ImportService
	accounts map[uint]*models.Account
	trades   *fakeTrades
	batches  *fakeBatches
	locker   *fakeLocker
}

func newFixture() *fixture {
	f := &fixture{
		trades:  &fakeTrades{},
		batches: &fakeBatches{},
		locker:  &fakeLocker{held: make(map[string]bool)},
	}
	f.accounts = map[uint]*models.Account{
		10: {ID: 10, UserID: 1, Name: "Sim101"},
		20: {ID: 20, UserID: 1, Name: "Live", Timezone: "America/New_York"},
		30: {ID: 30, UserID: 2, Name: "Other"},
	}
	cfg := config.ImportConfig{
		DefaultTimezone: "UTC",
		MaxUploadMB:     1,
		OrderType:       "IMPORT",
		Source:          "ninjatrader",
	}
	f.svc = service.NewImportService(f.trades, f.batches, f.locker,
		cache.New(service.ResultCacheExpiration, service.ResultCacheCleanupInterval), cfg)
	return f
}

func TestPreviewRejectsInvalidUpload(t *testing.T) {
	f := newFixture()
	u := upload(exportLine("1", "2/9/2025 12:18:21", "6387,50"))
	u.ContentType = "image/png"

	_, err := f.svc.Preview(context.Background(), f.accounts[10], u)
	assert.ErrorIs(t, err, validation.ErrFileType)
}

func TestPreviewCachesLatestResult(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Latest(f.accounts[10])
	require.ErrorIs(t, err, service.ErrNoImportResult)

	res, err := f.svc.Preview(context.Background(), f.accounts[10], upload(exportLine("1", "2/9/2025 12:18:21", "6387,50")))
	require.NoError(t, err)
	assert.Empty(t, f.trades.trades)

	latest, err := f.svc.Latest(f.accounts[10])
	require.NoError(t, err)
	assert.Same(t, res, latest)

	_, err = f.svc.Latest(f.accounts[20])
	assert.ErrorIs(t, err, service.ErrNoImportResult, "results are kept per account")
}

func TestExecuteStampsAndRecordsBatch(t *testing.T) {
	f := newFixture()
	u := upload(
		exportLine("1", "2/9/2025 12:18:21", "6387,50"),
		exportLine("2", "2/9/2025 13:00:00", "6390,00"),
	)

	res, err := f.svc.Execute(context.Background(), f.accounts[10], u)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ImportedCount)

	require.Len(t, f.batches.batches, 1)
	batch := f.batches.batches[0]
	assert.Equal(t, models.ImportStatusSucceeded, batch.Status)
	assert.Equal(t, "trades.csv", batch.FileName)
	assert.Len(t, batch.FileSHA256, 64)
	assert.Equal(t, 2, batch.ImportedRows)

	require.Len(t, f.trades.trades, 2)
	for _, tr := range f.trades.trades {
		require.NotNil(t, tr.ImportBatchID)
		assert.Equal(t, batch.ID, *tr.ImportBatchID)
		assert.Equal(t, "Breakout", tr.StrategyName, "markup stripped")
	}
	assert.Equal(t, 1, f.locker.released)
	assert.Empty(t, f.locker.held)
}

func TestExecuteSecondRunIsPartialOnErrors(t *testing.T) {
	f := newFixture()
	u := upload(
		exportLine("1", "2/9/2025 12:18:21", "6387,50"),
		exportLine("2", "2/9/2025 13:00:00", "abc"),
	)

	res, err := f.svc.Execute(context.Background(), f.accounts[10], u)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImportedCount)
	assert.Equal(t, 1, res.ErrorCount)
	assert.Equal(t, models.ImportStatusPartial, f.batches.batches[0].Status)

	res, err = f.svc.Execute(context.Background(), f.accounts[10], u)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ImportedCount)
	assert.Equal(t, 1, res.DuplicateCount)

	history, total, err := f.svc.History(f.accounts[10], 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, history, 2)
}

func TestExecuteRefusesConcurrentImport(t *testing.T) {
	f := newFixture()
	f.locker.held["import:lock:1:10"] = true

	_, err := f.svc.Execute(context.Background(), f.accounts[10], upload(exportLine("1", "2/9/2025 12:18:21", "6387,50")))
	assert.ErrorIs(t, err, service.ErrImportInProgress)
	assert.Empty(t, f.trades.trades)
	assert.Empty(t, f.batches.batches)
}

func TestExecuteUsesAccountTimezone(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Execute(context.Background(), f.accounts[20], upload(exportLine("1", "2/9/2025 12:18:21", "6387,50")))
	require.NoError(t, err)

	require.Len(t, f.trades.trades, 1)
	// EDT is UTC-4 in September
	assert.Equal(t, time.Date(2025, time.September, 2, 16, 18, 21, 0, time.UTC), f.trades.trades[0].EntryDate)
}

func TestExecuteFileErrorRecordsNothing(t *testing.T) {
	f := newFixture()
	u := validation.Upload{Name: "trades.csv", Data: []byte("\r\n\r\n")}

	_, err := f.svc.Execute(context.Background(), f.accounts[10], u)
	assert.ErrorIs(t, err, importer.ErrEmptyFile)
	assert.Empty(t, f.batches.batches)
	assert.Equal(t, 1, f.locker.released)
}
