package importer

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxSymbolLength = 20
	maxTextLength   = 255
	// maxScale is the fractional precision of the stored price and quantity columns
	maxScale = 8
)

// RowValidator runs business checks on mapped candidates
type RowValidator struct{}

// NewRowValidator creates a new RowValidator
func NewRowValidator() *RowValidator {
	return &RowValidator{}
}

// Validate returns every business rule the candidate breaks. RawValue holds
// the typed value; the pipeline replaces it with the source token.
func (v *RowValidator) Validate(c *CandidateTrade) []FieldError {
	var errs []FieldError

	if !c.EntryPrice.IsPositive() {
		errs = append(errs, FieldError{Field: FieldEntryPrice, Message: "must be greater than zero", RawValue: c.EntryPrice.String()})
	}
	if !c.Quantity.IsPositive() {
		errs = append(errs, FieldError{Field: FieldQuantity, Message: "must be greater than zero", RawValue: c.Quantity.String()})
	}
	if c.ExitPrice.Valid && !c.ExitPrice.Decimal.IsPositive() {
		errs = append(errs, FieldError{Field: FieldExitPrice, Message: "must be greater than zero", RawValue: c.ExitPrice.Decimal.String()})
	}
	for _, d := range []struct {
		field string
		value decimal.Decimal
		ok    bool
	}{
		{FieldEntryPrice, c.EntryPrice, true},
		{FieldQuantity, c.Quantity, true},
		{FieldExitPrice, c.ExitPrice.Decimal, c.ExitPrice.Valid},
	} {
		if d.ok && !d.value.Equal(d.value.Round(maxScale)) {
			errs = append(errs, FieldError{Field: d.field, Message: fmt.Sprintf("more than %d decimal places", maxScale), RawValue: d.value.String()})
		}
	}
	if c.ExitPrice.Valid && c.ExitDate != nil && c.ExitDate.Before(c.EntryDate) {
		errs = append(errs, FieldError{Field: FieldExitDate, Message: "exit before entry", RawValue: c.ExitDate.Format("2006-01-02 15:04:05")})
	}

	if utf8.RuneCountInString(c.Symbol) > maxSymbolLength {
		errs = append(errs, FieldError{Field: FieldSymbol, Message: fmt.Sprintf("longer than %d characters", maxSymbolLength), RawValue: c.Symbol})
	}
	for _, t := range []struct{ field, value string }{
		{FieldStrategy, c.SourceStrategyName},
		{FieldAccount, c.SourceAccountName},
		{FieldExitName, c.ExitSignalName},
	} {
		if utf8.RuneCountInString(t.value) > maxTextLength {
			errs = append(errs, FieldError{Field: t.field, Message: fmt.Sprintf("longer than %d characters", maxTextLength), RawValue: t.value})
		}
	}

	return errs
}
