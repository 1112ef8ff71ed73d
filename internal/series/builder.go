package series

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"futures-six/internal/catalog"
)

// ContinuousBar is one daily observation of a continuous series, carrying the
// underlying instrument that was active for traceability.
type ContinuousBar struct {
	TradingDate  time.Time
	Series       ContractSeries
	UnderlyingID int64
	Open         decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	Close        decimal.Decimal
	Volume       int64
}

// BarSource hands the builder raw per-instrument daily bars.
// *catalog.Snapshot satisfies it.
type BarSource interface {
	BarFor(instrumentID int64, date time.Time) (catalog.RawBar, bool)
}

// BuildStats summarises one builder pass.
type BuildStats struct {
	Emitted   int
	NotActive int
	NoData    int
	Stale     int
}

// Builder turns roll resolutions plus raw facts into continuous bars. A build
// is a pure function of the snapshot and the date list, so re-running it over
// an overlapping range is safe and, combined with the merge layer, idempotent.
type Builder struct {
	resolver *Resolver
	bars     BarSource
	logger   zerolog.Logger
}

// NewBuilder wires a series builder.
func NewBuilder(resolver *Resolver, bars BarSource, logger zerolog.Logger) *Builder {
	return &Builder{resolver: resolver, bars: bars, logger: logger.With().Str("component", "builder").Logger()}
}

// Build emits one continuous bar per resolvable date with raw data present.
// Dates with no active instrument, or where the active instrument has no raw
// bar (holiday, provider outage), are skipped outright: gaps are explicit
// absence, never a zero-filled row. Stale-catalog dates are logged as warnings
// and skipped; other roots and dates proceed.
func (b *Builder) Build(s ContractSeries, dates []time.Time) ([]ContinuousBar, []RollEvent, BuildStats, error) {
	out := make([]ContinuousBar, 0, len(dates))
	events := make([]RollEvent, 0)
	var stats BuildStats

	for _, date := range dates {
		day := catalog.Day(date)

		instrumentID, err := b.resolver.Resolve(s, day)
		if err != nil {
			var stale *StaleCatalogError
			switch {
			case errors.Is(err, ErrNotActive):
				stats.NotActive++
				continue
			case errors.As(err, &stale):
				stats.Stale++
				b.logger.Warn().
					Str("series", s.String()).
					Time("date", day).
					Msg("catalog stale for date; skipping")
				continue
			default:
				return nil, nil, stats, err
			}
		}

		// Roll detection depends only on resolution, never on raw-data
		// presence: a transition landing on a holiday or outage date must
		// still reach the audit log.
		event, rolled, err := b.resolver.DetectRoll(s, day)
		if err != nil {
			return nil, nil, stats, err
		}
		if rolled {
			events = append(events, event)
		}

		raw, ok := b.bars.BarFor(instrumentID, day)
		if !ok {
			stats.NoData++
			b.logger.Debug().
				Str("series", s.String()).
				Time("date", day).
				Int64("instrument_id", instrumentID).
				Msg("active instrument has no raw bar; skipping")
			continue
		}

		out = append(out, ContinuousBar{
			TradingDate:  day,
			Series:       s,
			UnderlyingID: instrumentID,
			Open:         raw.Open,
			High:         raw.High,
			Low:          raw.Low,
			Close:        raw.Close,
			Volume:       raw.Volume,
		})
		stats.Emitted++
	}

	return out, events, stats, nil
}
