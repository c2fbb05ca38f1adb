package normalizer

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// frenchMonths maps folded French month names to calendar numbers. The
// unaccented spellings show up on pages typed without a French keyboard.
var frenchMonths = map[string]int{
	"janvier":   1,
	"février":   2,
	"fevrier":   2,
	"mars":      3,
	"avril":     4,
	"mai":       5,
	"juin":      6,
	"juillet":   7,
	"août":      8,
	"aout":      8,
	"septembre": 9,
	"octobre":   10,
	"novembre":  11,
	"décembre":  12,
	"decembre":  12,
}

// MonthNumber returns the calendar number for a French month name. The
// name is NFC-normalised and case-folded first, so "Décembre" written with a
// combining accent still resolves.
func MonthNumber(name string) (int, bool) {
	key := cases.Fold().String(norm.NFC.String(name))
	n, ok := frenchMonths[key]
	return n, ok
}
