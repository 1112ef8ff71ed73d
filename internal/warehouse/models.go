package warehouse

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContinuousQuote is one L1 quote fact attributed to a continuous series,
// keyed by (ts_event, contract_series, underlying_instrument_id).
type ContinuousQuote struct {
	TSEvent      time.Time
	Series       string
	UnderlyingID int64
	BidPx        decimal.Decimal
	BidSz        int64
	AskPx        decimal.Decimal
	AskSz        int64
}

// SeriesCoverage is one row of the read-only coverage audit.
type SeriesCoverage struct {
	Root          string
	Series        string
	RowCount      int64
	FirstDate     time.Time
	LastDate      time.Time
	CoverageYears float64
}

// CanonicalEntry is one row of dim_canonical_series.
type CanonicalEntry struct {
	Root        string
	Series      string
	Description string
	Optional    bool
}

// CanonicalBar is one row read back from the canonical view.
type CanonicalBar struct {
	Root         string
	TradingDate  time.Time
	Series       string
	UnderlyingID int64
	Open         decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	Close        decimal.Decimal
	Volume       int64
}

// TableSummary is one row of the status report.
type TableSummary struct {
	Table    string
	RowCount int64
	MinDate  string
	MaxDate  string
}
