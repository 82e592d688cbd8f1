package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trade-journal/internal/models"
)

// RowMapper converts raw export rows into candidate trades
type RowMapper struct {
	location  *time.Location
	orderType string
	source    string
	sanitize  func(string) string
}

// NewRowMapper creates a RowMapper. Timestamps are interpreted in loc;
// sanitize, when non-nil, is applied to passthrough text columns.
func NewRowMapper(loc *time.Location, orderType, source string, sanitize func(string) string) *RowMapper {
	if loc == nil {
		loc = time.UTC
	}
	if orderType == "" {
		orderType = models.OrderTypeImport
	}
	if source == "" {
		source = models.DefaultImportSource
	}
	if sanitize == nil {
		sanitize = func(s string) string { return s }
	}
	return &RowMapper{
		location:  loc,
		orderType: orderType,
		source:    source,
		sanitize:  sanitize,
	}
}

// Map applies the column rules to row and returns the candidate together with
// every field error found in the row. When errors are returned the candidate
// only holds the fields that parsed; it is nil if the column count is wrong.
func (m *RowMapper) Map(row RawRow) (*CandidateTrade, []FieldError) {
	if len(row.Fields) != ColumnCount {
		return nil, []FieldError{{
			Field:    FieldRow,
			Message:  fmt.Sprintf("expected %d columns, got %d", ColumnCount, len(row.Fields)),
			RawValue: strings.Join(row.Fields, fieldDelimiter),
		}}
	}

	f := row.Fields
	var errs []FieldError
	fail := func(field, message, raw string) {
		errs = append(errs, FieldError{Field: field, Message: message, RawValue: raw})
	}

	c := &CandidateTrade{
		RowNumber:           row.Number,
		SourceAccountName:   m.text(f[ColAccount]),
		SourceStrategyName:  m.text(f[ColStrategy]),
		ExitSignalName:      m.text(f[ColExitName]),
		ExternalTradeNumber: m.text(f[ColTradeNumber]),
		OrderType:           m.orderType,
		Source:              m.source,
	}

	c.Symbol = extractSymbol(f[ColInstrument])
	if c.Symbol == "" {
		fail(FieldSymbol, "missing symbol", f[ColInstrument])
	}

	switch strings.ToLower(strings.TrimSpace(f[ColMarketPosition])) {
	case "long":
		c.Direction = models.DirectionLong
	case "short":
		c.Direction = models.DirectionShort
	default:
		fail(FieldDirection, "invalid market position", f[ColMarketPosition])
	}

	if qty, err := ParseDecimal(f[ColQuantity]); err != nil {
		fail(FieldQuantity, requiredMessage(err), f[ColQuantity])
	} else if !qty.IsPositive() {
		fail(FieldQuantity, "must be greater than zero", f[ColQuantity])
	} else {
		c.Quantity = qty
	}

	if price, err := ParseDecimal(f[ColEntryPrice]); err != nil {
		fail(FieldEntryPrice, requiredMessage(err), f[ColEntryPrice])
	} else {
		c.EntryPrice = price
	}

	if price, ok := m.optional(f[ColExitPrice], ParseDecimal, FieldExitPrice, fail); ok {
		c.ExitPrice = price
	}

	if ts, err := ParseTimestamp(f[ColEntryTime], m.location); err != nil {
		fail(FieldEntryDate, requiredMessage(err), f[ColEntryTime])
	} else {
		c.EntryDate = ts
	}

	if strings.TrimSpace(f[ColExitTime]) != "" {
		if ts, err := ParseTimestamp(f[ColExitTime], m.location); err != nil {
			fail(FieldExitDate, reasonOf(err), f[ColExitTime])
		} else {
			c.ExitDate = &ts
		}
	}

	if pnl, ok := m.optional(f[ColProfit], ParseCurrency, FieldPnL, fail); ok {
		c.PnL = pnl
	}

	c.Commission = decimal.Zero
	if strings.TrimSpace(f[ColCommission]) != "" {
		if fee, err := ParseCurrency(f[ColCommission]); err != nil {
			fail(FieldCommission, reasonOf(err), f[ColCommission])
		} else {
			c.Commission = fee
		}
	}

	if mae, ok := m.optional(f[ColMAE], parseMagnitude, FieldMAE, fail); ok {
		c.MAE = mae
	}
	if mfe, ok := m.optional(f[ColMFE], parseMagnitude, FieldMFE, fail); ok {
		c.MFE = mfe
	}

	return c, errs
}

// optional parses a nullable numeric column. An empty token yields an
// invalid NullDecimal and ok=true; a parse failure is reported through fail.
func (m *RowMapper) optional(raw string, parse func(string) (decimal.Decimal, error), field string, fail func(field, message, raw string)) (decimal.NullDecimal, bool) {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}, true
	}
	d, err := parse(raw)
	if err != nil {
		fail(field, reasonOf(err), raw)
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(d), true
}

func (m *RowMapper) text(s string) string {
	return strings.TrimSpace(m.sanitize(strings.TrimSpace(s)))
}

// extractSymbol returns the root instrument code, "ES SEP25" -> "ES".
func extractSymbol(instrument string) string {
	s := strings.TrimSpace(instrument)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}
	return s
}

// parseMagnitude accepts plain or currency formatted excursions and drops the sign.
func parseMagnitude(token string) (decimal.Decimal, error) {
	d, err := ParseCurrency(token)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Abs(), nil
}

func reasonOf(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return err.Error()
}

func requiredMessage(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) && pe.IsEmpty() {
		return "is required"
	}
	return reasonOf(err)
}
