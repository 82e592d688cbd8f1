package importer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	reasonEmpty       = "empty value"
	reasonNotANumber  = "not a number"
	reasonInvalidDate = "invalid date"
)

// currencySymbols are stripped by ParseCurrency
const currencySymbols = "$€£"

// ParseError reports a token that could not be normalized
type ParseError struct {
	Reason   string
	RawValue string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.RawValue)
}

// IsEmpty reports whether the error was caused by an empty token
func (e *ParseError) IsEmpty() bool {
	return e.Reason == reasonEmpty
}

// ParseDecimal parses a locale formatted number where ',' is the decimal separator
// and '.' or whitespace group thousands, e.g. "21.250,75" -> 21250.75.
func ParseDecimal(token string) (decimal.Decimal, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return decimal.Zero, &ParseError{Reason: reasonEmpty, RawValue: token}
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = strings.TrimSpace(s[1:])
	case '+':
		s = strings.TrimSpace(s[1:])
	}

	normalized, ok := normalizeDigits(s)
	if !ok {
		return decimal.Zero, &ParseError{Reason: reasonNotANumber, RawValue: token}
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, &ParseError{Reason: reasonNotANumber, RawValue: token}
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseCurrency parses a currency token such as "-$ 200,00", "$ 212,50" or "($ 15,00)".
// The sign may precede or follow the currency symbol; parentheses mean negative.
func ParseCurrency(token string) (decimal.Decimal, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return decimal.Zero, &ParseError{Reason: reasonEmpty, RawValue: token}
	}

	signs := 0
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		signs++
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		signs++
		s = strings.TrimSpace(s[1:])
	}
	if r, size := firstRune(s); strings.ContainsRune(currencySymbols, r) {
		s = strings.TrimSpace(s[size:])
	}
	if strings.HasPrefix(s, "-") {
		signs++
		s = strings.TrimSpace(s[1:])
	}
	if s == "" || signs > 1 {
		return decimal.Zero, &ParseError{Reason: reasonNotANumber, RawValue: token}
	}

	d, err := ParseDecimal(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, &ParseError{Reason: reasonNotANumber, RawValue: token}
	}
	if signs == 1 {
		d = d.Neg()
	}
	return d, nil
}

// normalizeDigits turns an unsigned locale number into the "1234.56" form.
func normalizeDigits(s string) (string, bool) {
	var b strings.Builder
	hasDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
			b.WriteRune(r)
		case r == ',' || r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			// grouping space, dropped
		default:
			return "", false
		}
	}
	if !hasDigit {
		return "", false
	}
	compact := b.String()

	if strings.Count(compact, ",") > 1 {
		return "", false
	}

	intPart, fracPart, hasComma := strings.Cut(compact, ",")
	if hasComma {
		if strings.Contains(fracPart, ".") || fracPart == "" {
			return "", false
		}
		intPart, ok := ungroup(intPart)
		if !ok {
			return "", false
		}
		if intPart == "" {
			intPart = "0"
		}
		return intPart + "." + fracPart, true
	}

	if !strings.Contains(compact, ".") {
		return compact, true
	}
	if grouped, ok := ungroup(compact); ok {
		return grouped, true
	}
	// a lone dot that is not a thousands group ("6387.50") is a decimal point
	if strings.Count(compact, ".") == 1 && !strings.HasSuffix(compact, ".") {
		if strings.HasPrefix(compact, ".") {
			return "0" + compact, true
		}
		return compact, true
	}
	return "", false
}

// ungroup removes '.' thousands separators, requiring 3-digit groups after the first.
func ungroup(s string) (string, bool) {
	if !strings.Contains(s, ".") {
		return s, true
	}
	groups := strings.Split(s, ".")
	if groups[0] == "" || len(groups[0]) > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

func firstRune(s string) (rune, int) {
	for _, r := range s {
		return r, len(string(r))
	}
	return 0, 0
}
