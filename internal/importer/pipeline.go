package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/trade-journal/internal/models"
)

var (
	// ErrStoreUnavailable is returned by Execute when the trade store cannot be reached
	ErrStoreUnavailable = errors.New("trade store unavailable")
	// ErrDuplicateTrade is returned by TradeStore.CreateTrade when the storage
	// uniqueness constraint rejects the trade
	ErrDuplicateTrade = errors.New("duplicate trade")
)

// TradeStore is the persistence collaborator of the pipeline
type TradeStore interface {
	ExistingTradeLookup
	CreateTrade(ctx context.Context, trade *models.Trade) error
	Ping(ctx context.Context) error
}

// Options configure a Pipeline
type Options struct {
	Location  *time.Location
	OrderType string
	Source    string
	Sanitize  func(string) string
}

// Pipeline classifies and optionally persists the rows of one export file.
// A Pipeline holds no per-call state and may be shared between requests.
type Pipeline struct {
	store     TradeStore
	mapper    *RowMapper
	validator *RowValidator
	detector  *DuplicateDetector
}

// NewPipeline creates a new Pipeline over store
func NewPipeline(store TradeStore, opts Options) *Pipeline {
	return &Pipeline{
		store:     store,
		mapper:    NewRowMapper(opts.Location, opts.OrderType, opts.Source, opts.Sanitize),
		validator: NewRowValidator(),
		detector:  NewDuplicateDetector(store),
	}
}

// Preview classifies every row without writing to the store
func (p *Pipeline) Preview(ctx context.Context, data []byte, userID, accountID uint) (*ImportResult, error) {
	return p.run(ctx, ModePreview, data, userID, accountID)
}

// Execute classifies every row and persists the valid, non-duplicate ones in file order
func (p *Pipeline) Execute(ctx context.Context, data []byte, userID, accountID uint) (*ImportResult, error) {
	return p.run(ctx, ModeExecute, data, userID, accountID)
}

type mappedRow struct {
	number    int
	candidate *CandidateTrade
	errs      []FieldError
}

func (p *Pipeline) run(ctx context.Context, mode Mode, data []byte, userID, accountID uint) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{Mode: mode, Stage: StageIdle}

	result.Stage = StageReading
	rows, err := ReadRows(data)
	if err != nil {
		return nil, err
	}

	result.Stage = StageMapping
	mapped := make([]mappedRow, 0, len(rows))
	for _, row := range rows {
		mapped = append(mapped, p.mapRow(row))
	}

	if mode == ModeExecute {
		if err := p.store.Ping(ctx); err != nil {
			log.Printf("[ImportPipeline] store unreachable, aborting execute: user=%d account=%d err=%v", userID, accountID, err)
			result.Failed = true
			result.FailureReason = ErrStoreUnavailable.Error()
			return result, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	result.Stage = StageClassifying
	// first row number of each key accepted in this pass, preview only
	seen := make(map[batchKey]int)

	for _, m := range mapped {
		if err := ctx.Err(); err != nil {
			result.Aborted = true
			log.Printf("[ImportPipeline] %s aborted at row %d: %v", mode, m.number, err)
			return result, err
		}

		if len(m.errs) > 0 {
			result.add(invalidOutcome(m.number, m.candidate, m.errs))
			continue
		}

		outcome := p.classify(ctx, m.candidate, userID, accountID, mode, seen)
		if mode == ModeExecute && outcome.Kind == OutcomeValid {
			result.Stage = StagePersisting
			outcome = p.persist(ctx, m.candidate, userID, accountID)
			if outcome.Kind == OutcomeValid {
				result.ImportedCount++
				result.ImportedIDs = append(result.ImportedIDs, outcome.TradeID)
			}
			result.Stage = StageClassifying
		}
		result.add(outcome)
	}

	if mode == ModeExecute {
		result.Stage = StageExecuteComplete
	} else {
		result.Stage = StagePreviewComplete
	}

	log.Printf("[ImportPipeline] %s user=%d account=%d total=%d valid=%d duplicates=%d errors=%d imported=%d took=%v",
		mode, userID, accountID, result.TotalRows, result.ValidCount, result.DuplicateCount,
		result.ErrorCount, result.ImportedCount, time.Since(start))
	return result, nil
}

// mapRow maps and validates one row, merging validation errors for fields
// that mapped cleanly with the mapping errors.
func (p *Pipeline) mapRow(row RawRow) mappedRow {
	candidate, errs := p.mapper.Map(row)
	if candidate == nil {
		return mappedRow{number: row.Number, errs: errs}
	}

	failed := make(map[string]bool, len(errs))
	for _, e := range errs {
		failed[e.Field] = true
	}
	for _, e := range p.validator.Validate(candidate) {
		if failed[e.Field] {
			continue
		}
		if col, ok := fieldColumns[e.Field]; ok {
			e.RawValue = row.Fields[col]
		}
		errs = append(errs, e)
	}
	return mappedRow{number: row.Number, candidate: candidate, errs: errs}
}

func (p *Pipeline) classify(ctx context.Context, c *CandidateTrade, userID, accountID uint, mode Mode, seen map[batchKey]int) RowOutcome {
	matchedID, found, err := p.detector.Find(ctx, c, userID, accountID)
	if err != nil {
		log.Printf("[ImportPipeline] duplicate lookup failed for row %d: %v", c.RowNumber, err)
		return invalidOutcome(c.RowNumber, c, []FieldError{{
			Field:   FieldStorage,
			Message: "duplicate check failed: " + err.Error(),
		}})
	}
	if found {
		return duplicateOutcome(c, matchedID, 0)
	}

	// execute sees earlier rows of the file through the store
	if mode == ModePreview {
		key := keyOf(c)
		if first, ok := seen[key]; ok {
			return duplicateOutcome(c, 0, first)
		}
		seen[key] = c.RowNumber
	}
	return validOutcome(c)
}

func (p *Pipeline) persist(ctx context.Context, c *CandidateTrade, userID, accountID uint) RowOutcome {
	trade := c.ToModel(userID, accountID)
	err := p.store.CreateTrade(ctx, trade)
	if err == nil {
		o := validOutcome(c)
		o.TradeID = trade.ID
		return o
	}

	if errors.Is(err, ErrDuplicateTrade) {
		// another import stored the same trade after our lookup
		matchedID, _, err := p.detector.Find(ctx, c, userID, accountID)
		if err != nil {
			log.Printf("[ImportPipeline] matched trade lookup failed for row %d: %v", c.RowNumber, err)
		}
		return duplicateOutcome(c, matchedID, 0)
	}

	log.Printf("[ImportPipeline] failed to store row %d: %v", c.RowNumber, err)
	return invalidOutcome(c.RowNumber, c, []FieldError{{
		Field:   FieldStorage,
		Message: "failed to save trade: " + err.Error(),
	}})
}
