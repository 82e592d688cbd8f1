package importer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trade-journal/internal/models"
)

// CandidateTrade is the typed projection of one export row
type CandidateTrade struct {
	RowNumber           int
	Symbol              string
	Direction           models.Direction
	Quantity            decimal.Decimal
	EntryPrice          decimal.Decimal
	ExitPrice           decimal.NullDecimal
	EntryDate           time.Time
	ExitDate            *time.Time
	PnL                 decimal.NullDecimal
	Commission          decimal.Decimal
	MAE                 decimal.NullDecimal
	MFE                 decimal.NullDecimal
	SourceStrategyName  string
	SourceAccountName   string
	ExitSignalName      string
	ExternalTradeNumber string
	OrderType           string
	Source              string
}

// ToModel converts the candidate into a storable trade
func (c *CandidateTrade) ToModel(userID, accountID uint) *models.Trade {
	return &models.Trade{
		UserID:              userID,
		AccountID:           accountID,
		Symbol:              c.Symbol,
		Direction:           c.Direction,
		Quantity:            c.Quantity,
		EntryPrice:          c.EntryPrice,
		ExitPrice:           c.ExitPrice,
		EntryDate:           c.EntryDate,
		ExitDate:            c.ExitDate,
		PnL:                 c.PnL,
		Commission:          c.Commission,
		MAE:                 c.MAE,
		MFE:                 c.MFE,
		StrategyName:        c.SourceStrategyName,
		SourceAccountName:   c.SourceAccountName,
		ExitSignalName:      c.ExitSignalName,
		ExternalTradeNumber: c.ExternalTradeNumber,
		OrderType:           c.OrderType,
		Source:              c.Source,
	}
}

// FieldError describes one problem with one field of a row
type FieldError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	RawValue string `json:"raw_value"`
}

func (e FieldError) String() string {
	if e.RawValue == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s (%q)", e.Field, e.Message, e.RawValue)
}

// OutcomeKind classifies a row
type OutcomeKind int

const (
	OutcomeValid OutcomeKind = iota
	OutcomeDuplicate
	OutcomeInvalid
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeValid:
		return "valid"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeInvalid:
		return "invalid"
	}
	return "unknown"
}

// RowOutcome is the classification of one row. Trade is nil for rows that
// never mapped; MatchedTradeID/MatchedRow are only set for duplicates.
type RowOutcome struct {
	Kind           OutcomeKind
	RowNumber      int
	Trade          *CandidateTrade
	MatchedTradeID uint
	MatchedRow     int
	TradeID        uint
	Errors         []FieldError
}

func validOutcome(c *CandidateTrade) RowOutcome {
	return RowOutcome{Kind: OutcomeValid, RowNumber: c.RowNumber, Trade: c}
}

func duplicateOutcome(c *CandidateTrade, matchedID uint, matchedRow int) RowOutcome {
	return RowOutcome{Kind: OutcomeDuplicate, RowNumber: c.RowNumber, Trade: c, MatchedTradeID: matchedID, MatchedRow: matchedRow}
}

func invalidOutcome(rowNumber int, c *CandidateTrade, errs []FieldError) RowOutcome {
	return RowOutcome{Kind: OutcomeInvalid, RowNumber: rowNumber, Trade: c, Errors: errs}
}

// Mode selects whether a pass persists
type Mode string

const (
	ModePreview Mode = "preview"
	ModeExecute Mode = "execute"
)

// Stage is the pipeline state reached by a pass
type Stage string

const (
	StageIdle            Stage = "idle"
	StageReading         Stage = "reading"
	StageMapping         Stage = "mapping"
	StageClassifying     Stage = "classifying"
	StagePersisting      Stage = "persisting"
	StagePreviewComplete Stage = "preview_complete"
	StageExecuteComplete Stage = "execute_complete"
)

// ImportResult aggregates one Preview or Execute pass
type ImportResult struct {
	Mode           Mode
	Stage          Stage
	TotalRows      int
	ValidCount     int
	DuplicateCount int
	ErrorCount     int
	ImportedCount  int
	ImportedIDs    []uint
	Outcomes       []RowOutcome
	Failed         bool
	FailureReason  string
	Aborted        bool
}

func (r *ImportResult) add(o RowOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.TotalRows++
	switch o.Kind {
	case OutcomeValid:
		r.ValidCount++
	case OutcomeDuplicate:
		r.DuplicateCount++
	case OutcomeInvalid:
		r.ErrorCount++
	}
}

// Summary returns human readable lines describing the pass
func (r *ImportResult) Summary() []string {
	var lines []string
	if r.Failed {
		lines = append(lines, "Import failed: "+r.FailureReason)
	}
	if r.Mode == ModeExecute {
		lines = append(lines, fmt.Sprintf("Imported %d of %d trades", r.ImportedCount, r.TotalRows))
	} else {
		lines = append(lines, fmt.Sprintf("%d of %d trades ready to import", r.ValidCount, r.TotalRows))
	}
	if r.DuplicateCount > 0 {
		lines = append(lines, fmt.Sprintf("Skipped %d duplicate trades", r.DuplicateCount))
	}
	if r.ErrorCount > 0 {
		lines = append(lines, fmt.Sprintf("%d rows have errors", r.ErrorCount))
	}
	if r.Aborted {
		lines = append(lines, "Import was interrupted before all rows were processed")
	}
	for _, o := range r.Outcomes {
		if o.Kind != OutcomeInvalid {
			continue
		}
		for _, fe := range o.Errors {
			lines = append(lines, fmt.Sprintf("Row %d: %s", o.RowNumber, fe.String()))
		}
	}
	return lines
}

// TradeView is the serialized candidate
type TradeView struct {
	Symbol     string              `json:"symbol"`
	Direction  models.Direction    `json:"direction"`
	Quantity   decimal.Decimal     `json:"quantity"`
	EntryPrice decimal.Decimal     `json:"entryPrice"`
	ExitPrice  decimal.NullDecimal `json:"exitPrice"`
	EntryDate  time.Time           `json:"entryDate"`
	ExitDate   *time.Time          `json:"exitDate"`
	PnL        decimal.NullDecimal `json:"pnl"`
	Commission decimal.Decimal     `json:"commission"`
	MAE        decimal.NullDecimal `json:"mae"`
	MFE        decimal.NullDecimal `json:"mfe"`
}

// RowView is the serialized outcome of one row
type RowView struct {
	RowNumber      int        `json:"rowNumber"`
	Trade          *TradeView `json:"trade"`
	IsValid        bool       `json:"isValid"`
	IsDuplicate    bool       `json:"isDuplicate"`
	MatchedTradeID uint       `json:"matchedTradeId,omitempty"`
	MatchedRow     int        `json:"matchedRow,omitempty"`
	Errors         []string   `json:"errors"`
}

// Response is the wire shape of an ImportResult
type Response struct {
	Mode          Mode      `json:"mode"`
	Total         int       `json:"total"`
	Valid         int       `json:"valid"`
	Duplicates    int       `json:"duplicates"`
	Errors        int       `json:"errors"`
	Imported      *int      `json:"imported,omitempty"`
	ImportedIDs   []uint    `json:"importedIds,omitempty"`
	Failed        bool      `json:"failed,omitempty"`
	FailureReason string    `json:"failureReason,omitempty"`
	Summary       []string  `json:"summary,omitempty"`
	Trades        []RowView `json:"trades"`
}

// Response converts the result into its wire shape
func (r *ImportResult) Response() Response {
	resp := Response{
		Mode:          r.Mode,
		Total:         r.TotalRows,
		Valid:         r.ValidCount,
		Duplicates:    r.DuplicateCount,
		Errors:        r.ErrorCount,
		Failed:        r.Failed,
		FailureReason: r.FailureReason,
		Trades:        make([]RowView, 0, len(r.Outcomes)),
	}
	if r.Mode == ModeExecute {
		imported := r.ImportedCount
		resp.Imported = &imported
		resp.ImportedIDs = r.ImportedIDs
		resp.Summary = r.Summary()
	}

	for _, o := range r.Outcomes {
		view := RowView{
			RowNumber:      o.RowNumber,
			IsValid:        o.Kind == OutcomeValid,
			IsDuplicate:    o.Kind == OutcomeDuplicate,
			MatchedTradeID: o.MatchedTradeID,
			MatchedRow:     o.MatchedRow,
			Errors:         make([]string, 0, len(o.Errors)),
		}
		if o.Trade != nil {
			t := o.Trade
			view.Trade = &TradeView{
				Symbol:     t.Symbol,
				Direction:  t.Direction,
				Quantity:   t.Quantity,
				EntryPrice: t.EntryPrice,
				ExitPrice:  t.ExitPrice,
				EntryDate:  t.EntryDate,
				ExitDate:   t.ExitDate,
				PnL:        t.PnL,
				Commission: t.Commission,
				MAE:        t.MAE,
				MFE:        t.MFE,
			}
		}
		for _, fe := range o.Errors {
			view.Errors = append(view.Errors, fe.String())
		}
		resp.Trades = append(resp.Trades, view)
	}
	return resp
}
