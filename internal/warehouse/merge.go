package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"futures-six/internal/gold"
	"futures-six/internal/series"
)

// MergeResult reports what a batch merge did.
type MergeResult struct {
	Inserted int
	Replaced int
}

// The merge layer enforces at-most-one-row-per-natural-key across repeated
// ingestion runs. Every batch is validated as a whole before anything touches
// the database, then applied inside a single transaction: either all rows
// commit or none do. A re-merge of identical content is a no-op in effect,
// though it physically replaces the rows.

const (
	upsertContinuousBarSQL = `INSERT INTO g_continuous_bar_daily (
		trading_date, contract_series, underlying_instrument_id,
		open, high, low, close, volume
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (trading_date, contract_series) DO UPDATE SET
		underlying_instrument_id = EXCLUDED.underlying_instrument_id,
		open   = EXCLUDED.open,
		high   = EXCLUDED.high,
		low    = EXCLUDED.low,
		close  = EXCLUDED.close,
		volume = EXCLUDED.volume`

	existsContinuousBarSQL = `SELECT COUNT(*) FROM g_continuous_bar_daily
		WHERE trading_date = ? AND contract_series = ?`

	upsertQuoteSQL = `INSERT INTO f_continuous_quote_l1 (
		ts_event, contract_series, underlying_instrument_id,
		bid_px, bid_sz, ask_px, ask_sz
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (ts_event, contract_series, underlying_instrument_id) DO UPDATE SET
		bid_px = EXCLUDED.bid_px,
		bid_sz = EXCLUDED.bid_sz,
		ask_px = EXCLUDED.ask_px,
		ask_sz = EXCLUDED.ask_sz`

	existsQuoteSQL = `SELECT COUNT(*) FROM f_continuous_quote_l1
		WHERE ts_event = ? AND contract_series = ? AND underlying_instrument_id = ?`

	upsertGoldBarSQL = `INSERT INTO %s (
		bucket_start, series_key, open, high, low, close, volume, notional
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (bucket_start, series_key) DO UPDATE SET
		open     = EXCLUDED.open,
		high     = EXCLUDED.high,
		low      = EXCLUDED.low,
		close    = EXCLUDED.close,
		volume   = EXCLUDED.volume,
		notional = EXCLUDED.notional`

	existsGoldBarSQL = `SELECT COUNT(*) FROM %s
		WHERE bucket_start = ? AND series_key = ?`
)

func goldTable(bucket gold.Bucket) string {
	if bucket == gold.BucketDay {
		return "g_bar_1d"
	}
	return "g_bar_1m"
}

// MergeContinuousBars validates and applies one batch of continuous daily bars.
func (s *Store) MergeContinuousBars(ctx context.Context, bars []series.ContinuousBar) (MergeResult, error) {
	prepared, err := prepareContinuousBars(bars)
	if err != nil {
		return MergeResult{}, err
	}
	if len(prepared) == 0 {
		return MergeResult{}, nil
	}

	return s.mergeInTx(ctx, len(prepared), func(tx *sql.Tx, i int) (bool, error) {
		bar := prepared[i]
		existed, err := rowExists(ctx, tx, existsContinuousBarSQL, bar.TradingDate, bar.Series.String())
		if err != nil {
			return false, err
		}
		_, err = tx.ExecContext(ctx, upsertContinuousBarSQL,
			bar.TradingDate, bar.Series.String(), bar.UnderlyingID,
			bar.Open.InexactFloat64(), bar.High.InexactFloat64(),
			bar.Low.InexactFloat64(), bar.Close.InexactFloat64(), bar.Volume,
		)
		return existed, err
	})
}

// MergeQuotes validates and applies one batch of continuous L1 quotes.
func (s *Store) MergeQuotes(ctx context.Context, quotes []ContinuousQuote) (MergeResult, error) {
	prepared, err := prepareQuotes(quotes)
	if err != nil {
		return MergeResult{}, err
	}
	if len(prepared) == 0 {
		return MergeResult{}, nil
	}

	return s.mergeInTx(ctx, len(prepared), func(tx *sql.Tx, i int) (bool, error) {
		q := prepared[i]
		existed, err := rowExists(ctx, tx, existsQuoteSQL, q.TSEvent, q.Series, q.UnderlyingID)
		if err != nil {
			return false, err
		}
		_, err = tx.ExecContext(ctx, upsertQuoteSQL,
			q.TSEvent, q.Series, q.UnderlyingID,
			q.BidPx.InexactFloat64(), q.BidSz, q.AskPx.InexactFloat64(), q.AskSz,
		)
		return existed, err
	})
}

// MergeGoldBars applies one batch of aggregated bars to the table for bucket.
func (s *Store) MergeGoldBars(ctx context.Context, bucket gold.Bucket, bars []gold.Bar) (MergeResult, error) {
	if len(bars) == 0 {
		return MergeResult{}, nil
	}

	table := goldTable(bucket)
	existsSQL := fmt.Sprintf(existsGoldBarSQL, table)
	upsertSQL := fmt.Sprintf(upsertGoldBarSQL, table)

	return s.mergeInTx(ctx, len(bars), func(tx *sql.Tx, i int) (bool, error) {
		bar := bars[i]
		existed, err := rowExists(ctx, tx, existsSQL, bar.BucketStart, bar.Key)
		if err != nil {
			return false, err
		}
		_, err = tx.ExecContext(ctx, upsertSQL,
			bar.BucketStart, bar.Key,
			bar.Open.InexactFloat64(), bar.High.InexactFloat64(),
			bar.Low.InexactFloat64(), bar.Close.InexactFloat64(),
			bar.Volume, bar.Notional.InexactFloat64(),
		)
		return existed, err
	})
}

func (s *Store) mergeInTx(ctx context.Context, n int, apply func(tx *sql.Tx, i int) (bool, error)) (MergeResult, error) {
	db, err := s.getDB()
	if err != nil {
		return MergeResult{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return MergeResult{}, fmt.Errorf("begin merge transaction: %w", err)
	}

	var result MergeResult
	for i := 0; i < n; i++ {
		existed, err := apply(tx, i)
		if err != nil {
			tx.Rollback()
			return MergeResult{}, fmt.Errorf("merge row %d: %w", i, err)
		}
		if existed {
			result.Replaced++
		} else {
			result.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return MergeResult{}, fmt.Errorf("commit merge transaction: %w", err)
	}
	return result, nil
}

func rowExists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// prepareContinuousBars is the pure validation pass. It collapses exact
// in-batch duplicates to one row, rejects the whole batch when any key appears
// with conflicting content or any row fails validation, and reports every
// offending key rather than the first.
func prepareContinuousBars(bars []series.ContinuousBar) ([]series.ContinuousBar, error) {
	type entry struct {
		bar series.ContinuousBar
		idx int
	}

	invalid := make([]string, 0)
	conflicting := make([]string, 0)
	seen := make(map[string]entry, len(bars))
	order := make([]string, 0, len(bars))

	for _, bar := range bars {
		key := fmt.Sprintf("(%s, %s)", bar.TradingDate.Format("2006-01-02"), bar.Series.String())

		if reason := validateContinuousBar(bar); reason != "" {
			invalid = append(invalid, key)
			continue
		}

		if prev, ok := seen[key]; ok {
			if !continuousBarsEqual(prev.bar, bar) {
				conflicting = append(conflicting, key)
			}
			continue
		}
		seen[key] = entry{bar: bar, idx: len(order)}
		order = append(order, key)
	}

	if len(invalid) > 0 || len(conflicting) > 0 {
		return nil, rejectBatch("g_continuous_bar_daily", invalid, conflicting)
	}

	out := make([]series.ContinuousBar, len(order))
	for _, key := range order {
		e := seen[key]
		out[e.idx] = e.bar
	}
	return out, nil
}

func validateContinuousBar(bar series.ContinuousBar) string {
	switch {
	case bar.TradingDate.IsZero():
		return "missing trading date"
	case bar.Series.Root == "":
		return "missing contract series"
	case bar.UnderlyingID <= 0:
		return "missing underlying instrument"
	case bar.Close.IsZero():
		return "null close"
	case bar.High.LessThan(bar.Low):
		return "high below low"
	case bar.Volume < 0:
		return "negative volume"
	default:
		return ""
	}
}

func continuousBarsEqual(a, b series.ContinuousBar) bool {
	return a.TradingDate.Equal(b.TradingDate) &&
		a.Series == b.Series &&
		a.UnderlyingID == b.UnderlyingID &&
		a.Open.Equal(b.Open) &&
		a.High.Equal(b.High) &&
		a.Low.Equal(b.Low) &&
		a.Close.Equal(b.Close) &&
		a.Volume == b.Volume
}

func prepareQuotes(quotes []ContinuousQuote) ([]ContinuousQuote, error) {
	invalid := make([]string, 0)
	conflicting := make([]string, 0)
	seen := make(map[string]ContinuousQuote, len(quotes))
	out := make([]ContinuousQuote, 0, len(quotes))

	for _, q := range quotes {
		key := fmt.Sprintf("(%s, %s, %d)", q.TSEvent.UTC().Format(time.RFC3339Nano), q.Series, q.UnderlyingID)

		if q.TSEvent.IsZero() || q.UnderlyingID <= 0 {
			invalid = append(invalid, key)
			continue
		}
		if _, err := series.ParseSeries(q.Series); err != nil {
			invalid = append(invalid, key)
			continue
		}

		if prev, ok := seen[key]; ok {
			if !quotesEqual(prev, q) {
				conflicting = append(conflicting, key)
			}
			continue
		}
		seen[key] = q
		out = append(out, q)
	}

	if len(invalid) > 0 || len(conflicting) > 0 {
		return nil, rejectBatch("f_continuous_quote_l1", invalid, conflicting)
	}
	return out, nil
}

func quotesEqual(a, b ContinuousQuote) bool {
	return a.TSEvent.Equal(b.TSEvent) &&
		a.Series == b.Series &&
		a.UnderlyingID == b.UnderlyingID &&
		a.BidPx.Equal(b.BidPx) && a.BidSz == b.BidSz &&
		a.AskPx.Equal(b.AskPx) && a.AskSz == b.AskSz
}

func rejectBatch(table string, invalid, conflicting []string) error {
	reason := ""
	keys := make([]string, 0, len(invalid)+len(conflicting))
	if len(invalid) > 0 {
		reason = "row validation failed"
		keys = append(keys, invalid...)
	}
	if len(conflicting) > 0 {
		if reason != "" {
			reason += "; "
		}
		reason += "duplicate keys with conflicting content"
		keys = append(keys, conflicting...)
	}
	sort.Strings(keys)
	return &series.BatchRejectedError{Table: table, Reason: reason, Keys: keys}
}

// dedupTables lists every natural-keyed fact table with its key columns and
// full column tuple. Duplicate removal keeps the lexicographically-first row
// per key; after that the primary keys keep the tables clean going forward.
var dedupTables = []struct {
	table   string
	keyCols string
	allCols string
}{
	{
		table:   "g_continuous_bar_daily",
		keyCols: "trading_date, contract_series",
		allCols: "trading_date, contract_series, underlying_instrument_id, open, high, low, close, volume",
	},
	{
		table:   "f_continuous_quote_l1",
		keyCols: "ts_event, contract_series, underlying_instrument_id",
		allCols: "ts_event, contract_series, underlying_instrument_id, bid_px, bid_sz, ask_px, ask_sz",
	},
	{
		table:   "f_fut_bar_daily",
		keyCols: "trading_date, instrument_id",
		allCols: "trading_date, instrument_id, open, high, low, close, volume",
	},
}

// DedupExisting collapses any pre-existing duplicates in the fact tables,
// keeping the lexicographically-first surviving row per natural key. Returns
// rows removed per table.
func (s *Store) DedupExisting(ctx context.Context) (map[string]int64, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	removed := make(map[string]int64, len(dedupTables))
	for _, t := range dedupTables {
		query := fmt.Sprintf(`DELETE FROM %[1]s WHERE rowid IN (
			SELECT rowid FROM (
				SELECT rowid, ROW_NUMBER() OVER (PARTITION BY %[2]s ORDER BY %[3]s) AS rn
				FROM %[1]s
			) ranked WHERE ranked.rn > 1
		)`, t.table, t.keyCols, t.allCols)

		res, err := db.ExecContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("dedup %s: %w", t.table, err)
		}
		n, _ := res.RowsAffected()
		removed[t.table] = n
		if n > 0 {
			s.logger.Warn().Str("table", t.table).Int64("removed", n).Msg("collapsed duplicate rows")
		}
	}
	return removed, nil
}
