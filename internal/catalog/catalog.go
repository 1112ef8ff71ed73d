package catalog

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RawBar is one per-expiry daily OHLCV fact as handed over by the ingest side.
type RawBar struct {
	TradingDate  time.Time
	InstrumentID int64
	Open         decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	Close        decimal.Decimal
	Volume       int64
}

type barKey struct {
	id  int64
	day time.Time
}

// Snapshot is an immutable view of the catalog plus raw facts for a window of
// dates. Roll resolution and series building are pure functions of a snapshot,
// so refreshing the catalog mid-run can never leave a stale cached pointer.
type Snapshot struct {
	byRoot map[string][]Instrument
	bars   map[barKey]RawBar
}

// NewSnapshot indexes instruments and raw bars for lookup. Instruments are
// held per root ordered by (expiry, id); the id tie-break keeps resolution
// deterministic when two contracts share an expiry.
func NewSnapshot(instruments []Instrument, bars []RawBar) *Snapshot {
	byRoot := make(map[string][]Instrument)
	for _, inst := range instruments {
		byRoot[inst.Root] = append(byRoot[inst.Root], inst)
	}
	for root := range byRoot {
		list := byRoot[root]
		sort.Slice(list, func(i, j int) bool {
			if !list[i].Expiry.Equal(list[j].Expiry) {
				return list[i].Expiry.Before(list[j].Expiry)
			}
			return list[i].ID < list[j].ID
		})
		byRoot[root] = list
	}

	indexed := make(map[barKey]RawBar, len(bars))
	for _, bar := range bars {
		indexed[barKey{id: bar.InstrumentID, day: Day(bar.TradingDate)}] = bar
	}

	return &Snapshot{byRoot: byRoot, bars: indexed}
}

// InstrumentsForRoot returns every known instrument of the root ordered by
// (expiry, id). The returned slice must not be mutated.
func (s *Snapshot) InstrumentsForRoot(root string) []Instrument {
	return s.byRoot[root]
}

// BarFor returns the raw daily bar for an instrument on a date, if ingested.
func (s *Snapshot) BarFor(instrumentID int64, date time.Time) (RawBar, bool) {
	bar, ok := s.bars[barKey{id: instrumentID, day: Day(date)}]
	return bar, ok
}

// VolumeOn returns the observed trade volume for an instrument on a date.
// The second result is false when no raw bar exists for that day.
func (s *Snapshot) VolumeOn(instrumentID int64, date time.Time) (int64, bool) {
	bar, ok := s.BarFor(instrumentID, date)
	if !ok {
		return 0, false
	}
	return bar.Volume, true
}
