package series

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"futures-six/internal/catalog"
)

// InstrumentSource supplies the catalog state a resolution is computed from.
// *catalog.Snapshot satisfies it.
type InstrumentSource interface {
	InstrumentsForRoot(root string) []catalog.Instrument
	VolumeOn(instrumentID int64, date time.Time) (int64, bool)
}

// RollEvent records one detected transition of the active instrument.
type RollEvent struct {
	Series          ContractSeries
	RollDate        time.Time
	OldInstrumentID int64
	NewInstrumentID int64
}

// Resolver computes the active instrument for a (root, rank, rule) triple on a
// trading date. Resolution is a pure function of the snapshot and the date:
// two calls with identical catalog state return identical results.
type Resolver struct {
	src    InstrumentSource
	cal    catalog.Calendar
	logger zerolog.Logger
}

// NewResolver wires a resolver over a catalog snapshot and trading calendar.
func NewResolver(src InstrumentSource, cal catalog.Calendar, logger zerolog.Logger) *Resolver {
	return &Resolver{src: src, cal: cal, logger: logger.With().Str("component", "resolver").Logger()}
}

// Resolve returns the instrument id active for the series on date.
//
// ErrNotActive means fewer than rank+1 eligible contracts are listed yet.
// *StaleCatalogError means every contract of the root expired before date, so
// the catalog itself needs refreshing.
func (r *Resolver) Resolve(s ContractSeries, date time.Time) (int64, error) {
	day := catalog.Day(date)

	all := r.src.InstrumentsForRoot(s.Root)
	if len(all) == 0 {
		return 0, ErrNotActive
	}

	live := futureExpiries(all, day)
	if len(live) == 0 {
		return 0, &StaleCatalogError{Root: s.Root, Date: day}
	}

	switch s.Rule.Kind {
	case RuleCalendarPreExpiry:
		return r.resolveCalendar(s, live, day)
	case RuleVolumeCrossover:
		return r.resolveVolume(s, live, day)
	default:
		return 0, ErrNotActive
	}
}

// resolveCalendar drops every contract already inside the pre-expiry window
// and picks the (rank+1)-th soonest of what remains. Dropping before ranking
// keeps all ranks shifting together on a roll date.
func (r *Resolver) resolveCalendar(s ContractSeries, live []catalog.Instrument, day time.Time) (int64, error) {
	eligible := live[:0:0]
	for _, inst := range live {
		if r.cal.DaysUntil(day, inst.Expiry) > s.Rule.Days {
			eligible = append(eligible, inst)
		}
	}
	if s.Rank >= len(eligible) {
		return 0, ErrNotActive
	}
	return eligible[s.Rank].ID, nil
}

// resolveVolume picks rank 0 as whichever of the two nearest-dated contracts
// traded more on the day; higher ranks proceed by expiry order among the
// remainder. Missing volume falls back to calendar ordering rather than
// returning ErrNotActive, flagged as a degraded-mode selection.
func (r *Resolver) resolveVolume(s ContractSeries, live []catalog.Instrument, day time.Time) (int64, error) {
	if s.Rank >= len(live) {
		return 0, ErrNotActive
	}

	remaining := append([]catalog.Instrument(nil), live...)
	var pick catalog.Instrument
	for rank := 0; rank <= s.Rank; rank++ {
		if len(remaining) == 0 {
			return 0, ErrNotActive
		}
		if rank == 0 {
			pick = r.volumeFront(s, remaining, day)
		} else {
			pick = remaining[0]
		}
		remaining = exclude(remaining, pick.ID)
	}
	return pick.ID, nil
}

func (r *Resolver) volumeFront(s ContractSeries, remaining []catalog.Instrument, day time.Time) catalog.Instrument {
	if len(remaining) == 1 {
		return remaining[0]
	}

	near, next := remaining[0], remaining[1]
	nearVol, nearOK := r.src.VolumeOn(near.ID, day)
	nextVol, nextOK := r.src.VolumeOn(next.ID, day)

	if !nearOK || !nextOK {
		r.logger.Warn().
			Str("series", s.String()).
			Time("date", day).
			Int64("instrument_id", near.ID).
			Msg("volume data absent; falling back to calendar ordering")
		return near
	}

	if nextVol > nearVol {
		return next
	}
	return near
}

// DetectRoll compares resolution on date against the previous trading day and
// reports the transition, if any. Dates where either side is unresolvable
// produce no event.
func (r *Resolver) DetectRoll(s ContractSeries, date time.Time) (RollEvent, bool, error) {
	day := catalog.Day(date)

	current, err := r.Resolve(s, day)
	if err != nil {
		if errors.Is(err, ErrNotActive) {
			return RollEvent{}, false, nil
		}
		return RollEvent{}, false, err
	}

	prevDay, ok := r.cal.Prev(day)
	if !ok {
		return RollEvent{}, false, nil
	}

	previous, err := r.Resolve(s, prevDay)
	if err != nil {
		// A gap or stale window on the prior day is not a roll.
		return RollEvent{}, false, nil
	}

	if previous == current {
		return RollEvent{}, false, nil
	}

	return RollEvent{
		Series:          s,
		RollDate:        day,
		OldInstrumentID: previous,
		NewInstrumentID: current,
	}, true, nil
}

func futureExpiries(all []catalog.Instrument, day time.Time) []catalog.Instrument {
	live := all[:0:0]
	for _, inst := range all {
		if !inst.Expiry.Before(day) {
			live = append(live, inst)
		}
	}
	return live
}

func exclude(list []catalog.Instrument, id int64) []catalog.Instrument {
	out := list[:0:0]
	for _, inst := range list {
		if inst.ID != id {
			out = append(out, inst)
		}
	}
	return out
}
