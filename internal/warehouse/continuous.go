package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"futures-six/internal/catalog"
	"futures-six/internal/series"
)

const (
	upsertContractSQL = `INSERT INTO dim_continuous_contract (
		contract_series, root, rank, roll_rule, adjustment_method, description
	) VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (contract_series) DO UPDATE SET
		description = EXCLUDED.description`

	upsertRollEventSQL = `INSERT INTO dim_roll_dates (
		contract_series, rank, roll_date, old_instrument_id, new_instrument_id
	) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (contract_series, rank, roll_date) DO UPDATE SET
		old_instrument_id = EXCLUDED.old_instrument_id,
		new_instrument_id = EXCLUDED.new_instrument_id`

	listRollEventsSQL = `SELECT
		contract_series, rank, roll_date, old_instrument_id, new_instrument_id
	FROM dim_roll_dates
	WHERE contract_series = ?
	ORDER BY roll_date`

	listSeriesBarsSQL = `SELECT
		trading_date, contract_series, underlying_instrument_id,
		open, high, low, close, volume
	FROM g_continuous_bar_daily
	WHERE contract_series = ?
	  AND trading_date >= ?
	  AND trading_date <= ?
	ORDER BY trading_date`
)

// EnsureContract records the dimension row for a series. The row is created
// once per distinct triple and only its description may change afterwards.
func (s *Store) EnsureContract(ctx context.Context, cs series.ContractSeries, adjustmentMethod string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, upsertContractSQL,
		cs.String(), cs.Root, cs.Rank, cs.Rule.Tag(), adjustmentMethod, cs.Description(),
	)
	if err != nil {
		return fmt.Errorf("ensure contract %s: %w", cs.String(), err)
	}
	return nil
}

// UpsertRollEvents appends detected roll transitions to the audit log.
// Re-detection of the same roll date is an idempotent replace.
func (s *Store) UpsertRollEvents(ctx context.Context, events []series.RollEvent) error {
	if len(events) == 0 {
		return nil
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roll event transaction: %w", err)
	}
	for _, ev := range events {
		if _, err := tx.ExecContext(ctx, upsertRollEventSQL,
			ev.Series.String(), ev.Series.Rank, ev.RollDate, ev.OldInstrumentID, ev.NewInstrumentID,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert roll event %s %s: %w", ev.Series.String(), ev.RollDate.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// ListRollEvents returns the roll audit log for a series, oldest first.
func (s *Store) ListRollEvents(ctx context.Context, seriesKey string) ([]series.RollEvent, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listRollEventsSQL, seriesKey)
	if err != nil {
		return nil, fmt.Errorf("list roll events: %w", err)
	}
	defer rows.Close()

	var out []series.RollEvent
	for rows.Next() {
		var (
			key  string
			rank int
			ev   series.RollEvent
		)
		if err := rows.Scan(&key, &rank, &ev.RollDate, &ev.OldInstrumentID, &ev.NewInstrumentID); err != nil {
			return nil, err
		}
		parsed, err := series.ParseSeries(key)
		if err != nil {
			return nil, fmt.Errorf("stored roll event has bad series key: %w", err)
		}
		ev.Series = parsed
		ev.RollDate = catalog.Day(ev.RollDate)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ListSeriesBars reads the daily bars of one series over a date window.
func (s *Store) ListSeriesBars(ctx context.Context, seriesKey string, from, to time.Time) ([]series.ContinuousBar, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	parsed, err := series.ParseSeries(seriesKey)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listSeriesBarsSQL, seriesKey, catalog.Day(from), catalog.Day(to))
	if err != nil {
		return nil, fmt.Errorf("list series bars: %w", err)
	}
	defer rows.Close()

	var out []series.ContinuousBar
	for rows.Next() {
		bar, err := scanContinuousBar(rows, parsed)
		if err != nil {
			return nil, err
		}
		out = append(out, bar)
	}
	return out, rows.Err()
}

func scanContinuousBar(rows *sql.Rows, parsed series.ContractSeries) (series.ContinuousBar, error) {
	var (
		bar        series.ContinuousBar
		key        string
		o, h, l, c sql.NullFloat64
		vol        sql.NullInt64
	)
	if err := rows.Scan(&bar.TradingDate, &key, &bar.UnderlyingID, &o, &h, &l, &c, &vol); err != nil {
		return series.ContinuousBar{}, err
	}
	bar.TradingDate = catalog.Day(bar.TradingDate)
	bar.Series = parsed
	if o.Valid {
		bar.Open = decimal.NewFromFloat(o.Float64)
	}
	if h.Valid {
		bar.High = decimal.NewFromFloat(h.Float64)
	}
	if l.Valid {
		bar.Low = decimal.NewFromFloat(l.Float64)
	}
	if c.Valid {
		bar.Close = decimal.NewFromFloat(c.Float64)
	}
	if vol.Valid {
		bar.Volume = vol.Int64
	}
	return bar, nil
}

// ListQuoteObservations reads continuous L1 quotes over a window for gold
// aggregation, ordered by event time with insertion order as the sequence.
func (s *Store) ListQuoteObservations(ctx context.Context, from, to time.Time) ([]ContinuousQuote, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT
			ts_event, contract_series, underlying_instrument_id, bid_px, bid_sz, ask_px, ask_sz
		FROM f_continuous_quote_l1
		WHERE ts_event >= ? AND ts_event < ?
		ORDER BY ts_event, contract_series, underlying_instrument_id`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var out []ContinuousQuote
	for rows.Next() {
		var (
			q        ContinuousQuote
			bid, ask sql.NullFloat64
			bsz, asz sql.NullInt64
		)
		if err := rows.Scan(&q.TSEvent, &q.Series, &q.UnderlyingID, &bid, &bsz, &ask, &asz); err != nil {
			return nil, err
		}
		if bid.Valid {
			q.BidPx = decimal.NewFromFloat(bid.Float64)
		}
		if ask.Valid {
			q.AskPx = decimal.NewFromFloat(ask.Float64)
		}
		if bsz.Valid {
			q.BidSz = bsz.Int64
		}
		if asz.Valid {
			q.AskSz = asz.Int64
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
