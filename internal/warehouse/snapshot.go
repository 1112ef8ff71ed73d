package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"futures-six/internal/catalog"
)

const (
	listInstrumentsForRootSQL = `SELECT
		instrument_id, root, native_symbol, expiry, tick_size, multiplier
	FROM dim_instrument
	WHERE root = ?
	ORDER BY expiry, instrument_id`

	listRawBarsForRootSQL = `SELECT
		b.trading_date, b.instrument_id, b.open, b.high, b.low, b.close, b.volume
	FROM f_fut_bar_daily b
	JOIN dim_instrument i ON i.instrument_id = b.instrument_id
	WHERE i.root = ?
	  AND b.trading_date >= ?
	  AND b.trading_date <= ?
	ORDER BY b.trading_date, b.instrument_id`

	listSessionsSQL = `SELECT trade_date FROM dim_session ORDER BY trade_date`

	syncSessionsSQL = `INSERT INTO dim_session (trade_date, week, month, quarter, is_holiday)
	SELECT DISTINCT
		d.trade_date,
		CAST(EXTRACT(WEEK FROM d.trade_date) AS INTEGER),
		CAST(EXTRACT(MONTH FROM d.trade_date) AS INTEGER),
		CAST(EXTRACT(QUARTER FROM d.trade_date) AS INTEGER),
		FALSE
	FROM (
		SELECT trading_date AS trade_date FROM f_fut_bar_daily
		UNION
		SELECT trading_date FROM g_continuous_bar_daily
	) d
	WHERE d.trade_date NOT IN (SELECT trade_date FROM dim_session)`
)

// LoadSnapshot reads the catalog state a build runs against: every instrument
// of the root plus raw daily bars over the window. Bars load with a two-week
// lead so roll detection can look at the previous trading day at the window's
// left edge.
func (s *Store) LoadSnapshot(ctx context.Context, root string, from, to time.Time) (*catalog.Snapshot, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listInstrumentsForRootSQL, root)
	if err != nil {
		return nil, fmt.Errorf("list instruments for %s: %w", root, err)
	}
	instruments, err := scanInstruments(rows)
	if err != nil {
		return nil, err
	}

	barRows, err := db.QueryContext(ctx, listRawBarsForRootSQL, root, catalog.Day(from).AddDate(0, 0, -14), catalog.Day(to))
	if err != nil {
		return nil, fmt.Errorf("list raw bars for %s: %w", root, err)
	}
	bars, err := scanRawBars(barRows)
	if err != nil {
		return nil, err
	}

	return catalog.NewSnapshot(instruments, bars), nil
}

// LoadCalendar builds the trading calendar from dim_session. The second result
// is false when no sessions exist yet and the caller should fall back to the
// weekday calendar.
func (s *Store) LoadCalendar(ctx context.Context) (*catalog.SessionCalendar, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	rows, err := db.QueryContext(ctx, listSessionsSQL)
	if err != nil {
		return nil, false, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, false, err
		}
		days = append(days, d)
	}
	if rows.Err() != nil {
		return nil, false, rows.Err()
	}

	cal := catalog.NewSessionCalendar(days)
	return cal, !cal.Empty(), nil
}

// SyncSessions derives dim_session from actually-ingested trading dates.
// The source of truth is whatever days have data, never an assumed schedule.
func (s *Store) SyncSessions(ctx context.Context) (int64, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, syncSessionsSQL)
	if err != nil {
		return 0, fmt.Errorf("sync sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanInstruments(rows *sql.Rows) ([]catalog.Instrument, error) {
	defer rows.Close()

	var out []catalog.Instrument
	for rows.Next() {
		var (
			inst     catalog.Instrument
			expiry   sql.NullTime
			tickSize sql.NullFloat64
			mult     sql.NullFloat64
		)
		if err := rows.Scan(&inst.ID, &inst.Root, &inst.NativeSymbol, &expiry, &tickSize, &mult); err != nil {
			return nil, err
		}
		if expiry.Valid {
			inst.Expiry = catalog.Day(expiry.Time)
		}
		if tickSize.Valid {
			inst.TickSize = decimal.NewFromFloat(tickSize.Float64)
		}
		if mult.Valid {
			inst.Multiplier = decimal.NewFromFloat(mult.Float64)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func scanRawBars(rows *sql.Rows) ([]catalog.RawBar, error) {
	defer rows.Close()

	var out []catalog.RawBar
	for rows.Next() {
		var (
			bar        catalog.RawBar
			o, h, l, c sql.NullFloat64
			vol        sql.NullInt64
		)
		if err := rows.Scan(&bar.TradingDate, &bar.InstrumentID, &o, &h, &l, &c, &vol); err != nil {
			return nil, err
		}
		bar.TradingDate = catalog.Day(bar.TradingDate)
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
		out = append(out, bar)
	}
	return out, rows.Err()
}
