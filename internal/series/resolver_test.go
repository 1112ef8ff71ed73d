package series

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"futures-six/internal/catalog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func esInstruments() []catalog.Instrument {
	return []catalog.Instrument{
		{ID: 1, Root: "ES", NativeSymbol: "ESH5", Expiry: date(2025, time.March, 21)},
		{ID: 2, Root: "ES", NativeSymbol: "ESM5", Expiry: date(2025, time.June, 20)},
	}
}

func esSeries(rank int) ContractSeries {
	return ContractSeries{Root: "ES", Rank: rank, Rule: CalendarPreExpiry(2)}
}

func TestResolveCalendarRollWindow(t *testing.T) {
	snap := catalog.NewSnapshot(esInstruments(), nil)
	r := NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger())

	// Three trading days remain before expiry: still on the March contract.
	id, err := r.Resolve(esSeries(0), date(2025, time.March, 18))
	if err != nil {
		t.Fatalf("resolve on 2025-03-18: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected March contract (1) on 2025-03-18, got %d", id)
	}

	// Two trading days remain: inside the window, rolled to June.
	id, err = r.Resolve(esSeries(0), date(2025, time.March, 19))
	if err != nil {
		t.Fatalf("resolve on 2025-03-19: %v", err)
	}
	if id != 2 {
		t.Fatalf("expected June contract (2) on 2025-03-19, got %d", id)
	}
}

func TestResolveRanksShiftTogether(t *testing.T) {
	snap := catalog.NewSnapshot(esInstruments(), nil)
	r := NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger())

	// Before the roll, rank 1 is the June contract.
	id, err := r.Resolve(esSeries(1), date(2025, time.March, 18))
	if err != nil {
		t.Fatalf("resolve rank 1: %v", err)
	}
	if id != 2 {
		t.Fatalf("expected rank 1 to be June (2), got %d", id)
	}

	// After the roll only one eligible contract remains, so rank 1 is gone.
	if _, err := r.Resolve(esSeries(1), date(2025, time.March, 19)); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive for rank 1 after roll, got %v", err)
	}
}

func TestResolveUnknownRoot(t *testing.T) {
	snap := catalog.NewSnapshot(nil, nil)
	r := NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger())

	if _, err := r.Resolve(esSeries(0), date(2025, time.March, 18)); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive for unknown root, got %v", err)
	}
}

func TestResolveStaleCatalog(t *testing.T) {
	snap := catalog.NewSnapshot(esInstruments(), nil)
	r := NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger())

	_, err := r.Resolve(esSeries(0), date(2025, time.July, 1))
	var stale *StaleCatalogError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StaleCatalogError, got %v", err)
	}
	if stale.Root != "ES" {
		t.Fatalf("unexpected root %q", stale.Root)
	}
}

func TestResolveVolumeCrossover(t *testing.T) {
	day := date(2025, time.March, 10)
	bars := []catalog.RawBar{
		{TradingDate: day, InstrumentID: 1, Close: decimal.NewFromInt(5000), Volume: 100},
		{TradingDate: day, InstrumentID: 2, Close: decimal.NewFromInt(5010), Volume: 500},
	}
	snap := catalog.NewSnapshot(esInstruments(), bars)
	r := NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger())

	s := ContractSeries{Root: "ES", Rank: 0, Rule: VolumeCrossover()}
	id, err := r.Resolve(s, day)
	if err != nil {
		t.Fatalf("resolve volume front: %v", err)
	}
	if id != 2 {
		t.Fatalf("deferred contract out-traded the near one; expected 2, got %d", id)
	}

	// Rank 1 is whatever the front selection left behind.
	s.Rank = 1
	id, err = r.Resolve(s, day)
	if err != nil {
		t.Fatalf("resolve volume rank 1: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected remaining contract (1) at rank 1, got %d", id)
	}
}

func TestResolveVolumeFallbackWithoutData(t *testing.T) {
	snap := catalog.NewSnapshot(esInstruments(), nil)
	r := NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger())

	s := ContractSeries{Root: "ES", Rank: 0, Rule: VolumeCrossover()}
	id, err := r.Resolve(s, date(2025, time.March, 10))
	if err != nil {
		t.Fatalf("resolve without volume data: %v", err)
	}
	if id != 1 {
		t.Fatalf("missing volume should fall back to nearest expiry (1), got %d", id)
	}
}

func TestResolveDeterministic(t *testing.T) {
	snap := catalog.NewSnapshot(esInstruments(), nil)
	r := NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger())

	first, err := r.Resolve(esSeries(0), date(2025, time.February, 3))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(esSeries(0), date(2025, time.February, 3))
		if err != nil {
			t.Fatalf("repeat resolve: %v", err)
		}
		if again != first {
			t.Fatalf("resolution not deterministic: %d then %d", first, again)
		}
	}
}

func TestDetectRoll(t *testing.T) {
	snap := catalog.NewSnapshot(esInstruments(), nil)
	r := NewResolver(snap, catalog.WeekdayCalendar{}, noopLogger())

	event, rolled, err := r.DetectRoll(esSeries(0), date(2025, time.March, 19))
	if err != nil {
		t.Fatalf("detect roll: %v", err)
	}
	if !rolled {
		t.Fatal("expected a roll on 2025-03-19")
	}
	if event.OldInstrumentID != 1 || event.NewInstrumentID != 2 {
		t.Fatalf("unexpected transition %d -> %d", event.OldInstrumentID, event.NewInstrumentID)
	}
	if !event.RollDate.Equal(date(2025, time.March, 19)) {
		t.Fatalf("unexpected roll date %s", event.RollDate)
	}

	_, rolled, err = r.DetectRoll(esSeries(0), date(2025, time.March, 18))
	if err != nil {
		t.Fatalf("detect roll on quiet day: %v", err)
	}
	if rolled {
		t.Fatal("no roll expected on 2025-03-18")
	}
}
