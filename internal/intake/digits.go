package intake

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// ErrInvalidNumber marks numeric input that should re-prompt the same
// step without advancing.
var ErrInvalidNumber = errors.New("invalid number")

// persianDigits rewrites Extended Arabic-Indic (Persian) digits onto
// their ASCII counterparts and leaves everything else alone, so both
// scripts parse identically downstream.
var persianDigits = runes.Map(func(r rune) rune {
	if r >= '۰' && r <= '۹' {
		return '0' + (r - '۰')
	}
	return r
})

// NormalizeDigits trims the input and maps Persian digits to ASCII.
func NormalizeDigits(s string) string {
	out, _, err := transform.String(persianDigits, strings.TrimSpace(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return out
}

func parseHeadcount(s string) (int, error) {
	n, err := strconv.Atoi(NormalizeDigits(s))
	if err != nil || n <= 0 {
		return 0, ErrInvalidNumber
	}
	return n, nil
}

// ParseAmount parses a positive decimal amount in either digit script.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(NormalizeDigits(s))
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, ErrInvalidNumber
	}
	return d, nil
}
