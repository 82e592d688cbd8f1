package validation

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText removes all HTML from s
func SanitizeText(s string) string {
	return strictHTMLPolicy.Sanitize(s)
}

// SanitizeForFormulaInjection prefixes a quote when s would be read as a spreadsheet formula
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

// StripUnprintable drops control and other non-printing characters
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == ' ' {
			return r
		}
		return -1
	}, s)
}

// SanitizeImportText cleans free text copied from an export before it is stored
func SanitizeImportText(s string) string {
	s = StripUnprintable(s)
	s = SanitizeText(s)
	// bluemonday escapes entities; the journal stores plain text
	s = unescapeBasic(s)
	return SanitizeForFormulaInjection(s)
}

var basicEntities = strings.NewReplacer(
	"&amp;", "&",
	"&#39;", "'",
	"&#34;", `"`,
	"&quot;", `"`,
	"&lt;", "<",
	"&gt;", ">",
)

func unescapeBasic(s string) string {
	return basicEntities.Replace(s)
}
