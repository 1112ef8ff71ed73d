// Package catalog holds per-instrument identity and contract specification,
// plus the trading calendar derived from ingested data.
package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Instrument is a single tradable contract. Immutable once recorded; a newer
// definition for the same ID supersedes the old one wholesale.
type Instrument struct {
	ID           int64
	Root         string
	NativeSymbol string
	Expiry       time.Time
	TickSize     decimal.Decimal
	Multiplier   decimal.Decimal
}

// monthCodes maps CME futures month codes to month numbers.
var monthCodes = map[byte]time.Month{
	'F': time.January, 'G': time.February, 'H': time.March,
	'J': time.April, 'K': time.May, 'M': time.June,
	'N': time.July, 'Q': time.August, 'U': time.September,
	'V': time.October, 'X': time.November, 'Z': time.December,
}

// ParsedSymbol is the decomposition of a CME native futures symbol.
type ParsedSymbol struct {
	Root      string
	Month     time.Month
	Year      int
	MonthCode byte
}

// ParseFuturesSymbol decomposes a native symbol such as ESH6, SR3H25, or ZNH25
// into root, contract month, and contract year. Single-digit years resolve to
// the current decade window; two-digit years 00-50 map to 2000-2050.
func ParseFuturesSymbol(symbol string) (ParsedSymbol, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if len(symbol) < 3 {
		return ParsedSymbol{}, fmt.Errorf("symbol %q too short to parse", symbol)
	}

	for rootLen := 1; rootLen <= 4 && rootLen < len(symbol); rootLen++ {
		root := symbol[:rootLen]
		rest := symbol[rootLen:]
		if len(rest) < 2 {
			break
		}

		code := rest[0]
		month, ok := monthCodes[code]
		if !ok {
			continue
		}

		yearStr := rest[1:]
		year := 0
		for _, ch := range yearStr {
			if ch < '0' || ch > '9' {
				year = -1
				break
			}
			year = year*10 + int(ch-'0')
		}
		if year < 0 {
			continue
		}

		switch {
		case len(yearStr) == 1:
			year += 2020 // decade window covering currently listed contracts
		case year <= 50:
			year += 2000
		default:
			year += 1900
		}

		return ParsedSymbol{Root: root, Month: month, Year: year, MonthCode: code}, nil
	}

	return ParsedSymbol{}, fmt.Errorf("cannot parse futures symbol %q", symbol)
}

// IMMDate returns the third Wednesday of the given month, the standard expiry
// anchor for rate, currency, and equity index futures.
func IMMDate(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Wednesday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}

// ExpiryFromSymbol derives an expiry date for a native symbol using the IMM
// third-Wednesday convention.
func ExpiryFromSymbol(symbol string) (time.Time, error) {
	parsed, err := ParseFuturesSymbol(symbol)
	if err != nil {
		return time.Time{}, err
	}
	return IMMDate(parsed.Year, parsed.Month), nil
}
