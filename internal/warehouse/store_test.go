package warehouse

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"futures-six/internal/config"
	"futures-six/internal/series"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "warehouse.duckdb"),
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func marchWindow() (time.Time, time.Time) {
	return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
}

func TestMergeContinuousBarsIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bars := []series.ContinuousBar{vb(17, 5610, 100), vb(18, 5620, 200)}

	res, err := store.MergeContinuousBars(ctx, bars)
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if res.Inserted != 2 || res.Replaced != 0 {
		t.Fatalf("first merge counted %d inserted, %d replaced", res.Inserted, res.Replaced)
	}

	res, err = store.MergeContinuousBars(ctx, bars)
	if err != nil {
		t.Fatalf("re-merge: %v", err)
	}
	if res.Inserted != 0 || res.Replaced != 2 {
		t.Fatalf("re-merge counted %d inserted, %d replaced", res.Inserted, res.Replaced)
	}

	from, to := marchWindow()
	got, err := store.ListSeriesBars(ctx, "ES_FRONT_CALENDAR_2D", from, to)
	if err != nil {
		t.Fatalf("list bars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows after re-merge, got %d", len(got))
	}
	if !got[0].Close.Equal(decimal.NewFromInt(5610)) || got[0].Volume != 100 {
		t.Fatalf("row content changed on re-merge: close=%s volume=%d", got[0].Close, got[0].Volume)
	}
}

func TestMergeContinuousBarsLatestWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.MergeContinuousBars(ctx, []series.ContinuousBar{vb(17, 5610, 100)}); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if _, err := store.MergeContinuousBars(ctx, []series.ContinuousBar{vb(17, 5625, 150)}); err != nil {
		t.Fatalf("correcting merge: %v", err)
	}

	from, to := marchWindow()
	got, err := store.ListSeriesBars(ctx, "ES_FRONT_CALENDAR_2D", from, to)
	if err != nil {
		t.Fatalf("list bars: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 row for the key, got %d", len(got))
	}
	if !got[0].Close.Equal(decimal.NewFromInt(5625)) || got[0].Volume != 150 {
		t.Fatalf("correction did not win: close=%s volume=%d", got[0].Close, got[0].Volume)
	}
}

func TestSetCanonicalReplacesMapping(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := CanonicalEntry{Root: "ES", Series: "ES_FRONT_CALENDAR_2D", Description: "front month"}
	if err := store.SetCanonical(ctx, first); err != nil {
		t.Fatalf("set canonical: %v", err)
	}
	second := CanonicalEntry{Root: "ES", Series: "ES_RANK_1_CALENDAR_2D", Description: "second month", Optional: true}
	if err := store.SetCanonical(ctx, second); err != nil {
		t.Fatalf("repoint canonical: %v", err)
	}

	entries, err := store.ListCanonical(ctx)
	if err != nil {
		t.Fatalf("list canonical: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("repoint must replace the row, got %d entries", len(entries))
	}
	if entries[0] != second {
		t.Fatalf("expected full replacement %+v, got %+v", second, entries[0])
	}

	got, err := store.CanonicalFor(ctx, "ES")
	if err != nil {
		t.Fatalf("canonical for ES: %v", err)
	}
	if got.Series != "ES_RANK_1_CALENDAR_2D" || got.Description != "second month" || !got.Optional {
		t.Fatalf("unexpected canonical entry %+v", got)
	}
}

func TestListQuoteObservationsOrdersEqualTimestamps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2025, time.March, 17, 14, 30, 0, 0, time.UTC)

	q := func(key string, id int64) ContinuousQuote {
		return ContinuousQuote{
			TSEvent:      ts,
			Series:       key,
			UnderlyingID: id,
			BidPx:        decimal.NewFromInt(5609),
			BidSz:        10,
			AskPx:        decimal.NewFromInt(5611),
			AskSz:        12,
		}
	}
	// Deliberately merged out of order; reads must not echo insertion order.
	quotes := []ContinuousQuote{
		q("ES_RANK_1_CALENDAR_2D", 2),
		q("ES_FRONT_CALENDAR_2D", 3),
		q("ES_FRONT_CALENDAR_2D", 1),
	}
	if _, err := store.MergeQuotes(ctx, quotes); err != nil {
		t.Fatalf("merge quotes: %v", err)
	}

	got, err := store.ListQuoteObservations(ctx, ts.Add(-time.Minute), ts.Add(time.Minute))
	if err != nil {
		t.Fatalf("list quotes: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(got))
	}
	want := []struct {
		key string
		id  int64
	}{
		{"ES_FRONT_CALENDAR_2D", 1},
		{"ES_FRONT_CALENDAR_2D", 3},
		{"ES_RANK_1_CALENDAR_2D", 2},
	}
	for i, w := range want {
		if got[i].Series != w.key || got[i].UnderlyingID != w.id {
			t.Fatalf("position %d: got (%s, %d), want (%s, %d)", i, got[i].Series, got[i].UnderlyingID, w.key, w.id)
		}
	}
}

func TestListCanonicalBarsFailsOnAmbiguousMapping(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	front := vb(17, 5610, 100)
	second := vb(17, 5615, 80)
	second.Series.Rank = 1
	second.UnderlyingID = 2
	if _, err := store.MergeContinuousBars(ctx, []series.ContinuousBar{front, second}); err != nil {
		t.Fatalf("merge bars: %v", err)
	}

	// Two series per root cannot be reached through SetCanonical because the
	// mapping table keys on root. Simulate an externally corrupted table the
	// way an operator editing the file directly could produce one.
	db, err := store.getDB()
	if err != nil {
		t.Fatalf("get db: %v", err)
	}
	stmts := []string{
		`CREATE OR REPLACE TABLE dim_canonical_series (
			root VARCHAR NOT NULL,
			contract_series VARCHAR NOT NULL,
			description VARCHAR,
			optional BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`INSERT INTO dim_canonical_series (root, contract_series) VALUES
			('ES', 'ES_FRONT_CALENDAR_2D'),
			('ES', 'ES_RANK_1_CALENDAR_2D')`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("corrupt mapping: %v", err)
		}
	}

	_, err = store.ListCanonicalBars(ctx, 10)
	var ambiguous *series.CanonicalAmbiguityError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected CanonicalAmbiguityError, got %v", err)
	}
	if ambiguous.Root != "ES" || ambiguous.Rows != 2 {
		t.Fatalf("unexpected ambiguity detail %+v", ambiguous)
	}
	if !ambiguous.Date.Equal(time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected ambiguity date %s", ambiguous.Date)
	}
}
