package series

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"futures-six/internal/catalog"
)

func buildFixture() *catalog.Snapshot {
	px := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	bars := []catalog.RawBar{
		{TradingDate: date(2025, time.March, 17), InstrumentID: 1, Open: px(5600), High: px(5620), Low: px(5590), Close: px(5610), Volume: 1000},
		{TradingDate: date(2025, time.March, 18), InstrumentID: 1, Open: px(5610), High: px(5640), Low: px(5600), Close: px(5630), Volume: 1100},
		{TradingDate: date(2025, time.March, 19), InstrumentID: 2, Open: px(5650), High: px(5680), Low: px(5640), Close: px(5670), Volume: 900},
	}
	return catalog.NewSnapshot(esInstruments(), bars)
}

func TestBuildEmitsBarsAndRollEvents(t *testing.T) {
	snap := buildFixture()
	builder := NewBuilder(NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger()), snap, noopLogger())

	dates := []time.Time{
		date(2025, time.March, 17),
		date(2025, time.March, 18),
		date(2025, time.March, 19),
	}
	bars, events, stats, err := builder.Build(esSeries(0), dates)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if stats.Emitted != 3 {
		t.Fatalf("expected 3 emitted, got %+v", stats)
	}

	if bars[0].UnderlyingID != 1 || bars[2].UnderlyingID != 2 {
		t.Fatalf("bars not attributed to the active instrument: %d, %d", bars[0].UnderlyingID, bars[2].UnderlyingID)
	}
	if !bars[2].Close.Equal(decimal.NewFromInt(5670)) {
		t.Fatalf("post-roll close should come from the June contract, got %s", bars[2].Close)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 roll event, got %d", len(events))
	}
	if !events[0].RollDate.Equal(date(2025, time.March, 19)) {
		t.Fatalf("unexpected roll date %s", events[0].RollDate)
	}
}

func TestBuildSkipsDatesWithoutData(t *testing.T) {
	snap := buildFixture()
	builder := NewBuilder(NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger()), snap, noopLogger())

	// 2025-03-20 resolves to the June contract but has no raw bar: the gap
	// stays a gap rather than becoming a zero-filled row.
	dates := []time.Time{
		date(2025, time.March, 19),
		date(2025, time.March, 20),
	}
	bars, _, stats, err := builder.Build(esSeries(0), dates)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	if stats.NoData != 1 {
		t.Fatalf("expected 1 no-data skip, got %+v", stats)
	}
}

func TestBuildSkipsStaleDates(t *testing.T) {
	snap := buildFixture()
	builder := NewBuilder(NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger()), snap, noopLogger())

	dates := []time.Time{
		date(2025, time.March, 19),
		date(2025, time.July, 1),
	}
	bars, _, stats, err := builder.Build(esSeries(0), dates)
	if err != nil {
		t.Fatalf("stale dates should be skipped, not fatal: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	if stats.Stale != 1 {
		t.Fatalf("expected 1 stale skip, got %+v", stats)
	}
}

func TestBuildRecordsRollOnDateWithoutData(t *testing.T) {
	px := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	// The June contract has no raw bar on the 2025-03-19 roll date, as on a
	// holiday or provider outage. The transition must still be recorded.
	bars := []catalog.RawBar{
		{TradingDate: date(2025, time.March, 18), InstrumentID: 1, Open: px(5610), High: px(5640), Low: px(5600), Close: px(5630), Volume: 1100},
		{TradingDate: date(2025, time.March, 20), InstrumentID: 2, Open: px(5650), High: px(5680), Low: px(5640), Close: px(5670), Volume: 900},
	}
	snap := catalog.NewSnapshot(esInstruments(), bars)
	builder := NewBuilder(NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger()), snap, noopLogger())

	dates := []time.Time{
		date(2025, time.March, 18),
		date(2025, time.March, 19),
		date(2025, time.March, 20),
	}
	out, events, stats, err := builder.Build(esSeries(0), dates)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 roll event despite the missing bar, got %d", len(events))
	}
	if events[0].OldInstrumentID != 1 || events[0].NewInstrumentID != 2 {
		t.Fatalf("unexpected transition %d -> %d", events[0].OldInstrumentID, events[0].NewInstrumentID)
	}
	if !events[0].RollDate.Equal(date(2025, time.March, 19)) {
		t.Fatalf("unexpected roll date %s", events[0].RollDate)
	}

	if len(out) != 2 || stats.NoData != 1 {
		t.Fatalf("roll date without data should still be a bar gap: %d bars, %+v", len(out), stats)
	}
}

func TestBuildCountsNotActive(t *testing.T) {
	snap := buildFixture()
	builder := NewBuilder(NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger()), snap, noopLogger())

	// Rank 1 disappears on the roll date when only one contract remains.
	dates := []time.Time{
		date(2025, time.March, 18),
		date(2025, time.March, 19),
	}
	_, _, stats, err := builder.Build(esSeries(1), dates)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if stats.NotActive != 1 {
		t.Fatalf("expected 1 not-active skip, got %+v", stats)
	}
}
