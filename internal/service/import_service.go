package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/trade-journal/internal/config"
	"github.com/trade-journal/internal/importer"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/validation"
)

var (
	ErrImportInProgress = errors.New("an import is already running for this account")
	ErrNoImportResult   = errors.New("no recent import for this account")
)

const (
	// ResultCacheExpiration is how long the latest preview or execute result is kept
	ResultCacheExpiration = 15 * time.Minute
	// ResultCacheCleanupInterval is how often expired results are purged
	ResultCacheCleanupInterval = 30 * time.Minute
)

// BatchStore records and lists import audits
type BatchStore interface {
	Create(ctx context.Context, batch *models.ImportBatch) error
	GetByAccountPaginated(userID, accountID uint, page, pageSize int) ([]models.ImportBatch, int64, error)
}

// ImportService runs trade file imports for user accounts. Callers pass an
// account already resolved for the authenticated user.
type ImportService struct {
	trades  importer.TradeStore
	batches BatchStore
	locker  ImportLocker
	results *cache.Cache
	cfg     config.ImportConfig
}

// NewImportService creates a new ImportService
func NewImportService(
	trades importer.TradeStore,
	batches BatchStore,
	locker ImportLocker,
	results *cache.Cache,
	cfg config.ImportConfig,
) *ImportService {
	return &ImportService{
		trades:  trades,
		batches: batches,
		locker:  locker,
		results: results,
		cfg:     cfg,
	}
}

// Preview classifies the rows of an uploaded export without storing anything
func (s *ImportService) Preview(ctx context.Context, account *models.Account, file validation.Upload) (*importer.ImportResult, error) {
	if err := s.checkUpload(account, file); err != nil {
		return nil, err
	}

	result, err := s.pipeline(account, s.trades).Preview(ctx, file.Data, account.UserID, account.ID)
	if result != nil {
		s.remember(account, result)
	}
	return result, err
}

// Execute imports the valid rows of an uploaded export. Only one execute per
// account runs at a time; the outcome is recorded as an ImportBatch.
func (s *ImportService) Execute(ctx context.Context, account *models.Account, file validation.Upload) (*importer.ImportResult, error) {
	if err := s.checkUpload(account, file); err != nil {
		return nil, err
	}
	userID, accountID := account.UserID, account.ID

	unlock, err := s.locker.Lock(ctx, importLockKey(userID, accountID))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			log.Printf("[ImportService] failed to release import lock: user=%d account=%d err=%v", userID, accountID, err)
		}
	}()

	batchID := uuid.New()
	store := &batchTradeStore{TradeStore: s.trades, batchID: batchID}

	result, runErr := s.pipeline(account, store).Execute(ctx, file.Data, userID, accountID)
	if result == nil {
		return nil, runErr
	}

	s.record(context.WithoutCancel(ctx), batchID, account, file, result)
	s.remember(account, result)
	return result, runErr
}

// Latest returns the most recent preview or execute result of an account
func (s *ImportService) Latest(account *models.Account) (*importer.ImportResult, error) {
	if v, ok := s.results.Get(resultKey(account)); ok {
		return v.(*importer.ImportResult), nil
	}
	return nil, ErrNoImportResult
}

// History lists the executes recorded for an account
func (s *ImportService) History(account *models.Account, page, pageSize int) ([]models.ImportBatch, int64, error) {
	return s.batches.GetByAccountPaginated(account.UserID, account.ID, page, pageSize)
}

func (s *ImportService) checkUpload(account *models.Account, file validation.Upload) error {
	if err := validation.ValidateUpload(file, s.cfg.MaxUploadBytes()); err != nil {
		log.Printf("[ImportService] rejected upload %q: user=%d account=%d err=%v", file.Name, account.UserID, account.ID, err)
		return err
	}
	return nil
}

func (s *ImportService) pipeline(account *models.Account, store importer.TradeStore) *importer.Pipeline {
	return importer.NewPipeline(store, importer.Options{
		Location:  account.Location(s.cfg.Location()),
		OrderType: s.cfg.OrderType,
		Source:    s.cfg.Source,
		Sanitize:  validation.SanitizeImportText,
	})
}

func (s *ImportService) record(ctx context.Context, batchID uuid.UUID, account *models.Account, file validation.Upload, result *importer.ImportResult) {
	sum := sha256.Sum256(file.Data)
	batch := &models.ImportBatch{
		ID:            batchID,
		UserID:        account.UserID,
		AccountID:     account.ID,
		FileName:      filepath.Base(file.Name),
		FileSHA256:    hex.EncodeToString(sum[:]),
		TotalRows:     result.TotalRows,
		ValidRows:     result.ValidCount,
		DuplicateRows: result.DuplicateCount,
		ErrorRows:     result.ErrorCount,
		ImportedRows:  result.ImportedCount,
		Status:        batchStatus(result),
		FailureReason: result.FailureReason,
	}
	if result.Aborted && batch.FailureReason == "" {
		batch.FailureReason = "import interrupted"
	}

	if err := s.batches.Create(ctx, batch); err != nil {
		log.Printf("[ImportService] failed to record import batch %s: %v", batchID, err)
		return
	}
	log.Printf("[ImportService] recorded import batch %s: user=%d account=%d status=%s imported=%d/%d",
		batchID, account.UserID, account.ID, batch.Status, batch.ImportedRows, batch.TotalRows)
}

func batchStatus(result *importer.ImportResult) models.ImportStatus {
	switch {
	case result.Failed:
		return models.ImportStatusFailed
	case result.Aborted || result.ErrorCount > 0:
		return models.ImportStatusPartial
	default:
		return models.ImportStatusSucceeded
	}
}

func (s *ImportService) remember(account *models.Account, result *importer.ImportResult) {
	s.results.Set(resultKey(account), result, cache.DefaultExpiration)
}

func resultKey(account *models.Account) string {
	return fmt.Sprintf("import:result:%d:%d", account.UserID, account.ID)
}

// batchTradeStore stamps every created trade with the batch it belongs to
type batchTradeStore struct {
	importer.TradeStore
	batchID uuid.UUID
}

func (b *batchTradeStore) CreateTrade(ctx context.Context, trade *models.Trade) error {
	id := b.batchID
	trade.ImportBatchID = &id
	return b.TradeStore.CreateTrade(ctx, trade)
}
