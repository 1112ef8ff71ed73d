package warehouse

import (
	"context"
	"fmt"
)

// migration is one versioned schema step. Steps run in order inside a single
// transaction each; schema_migrations records what has been applied.
type migration struct {
	version     int
	description string
	statements  []string
}

var migrations = []migration{
	{
		version:     1,
		description: "instrument catalog and session dimensions",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS dim_instrument (
				instrument_id BIGINT PRIMARY KEY,
				root VARCHAR NOT NULL,
				native_symbol VARCHAR NOT NULL,
				expiry DATE,
				tick_size DOUBLE,
				multiplier DOUBLE
			)`,
			`CREATE TABLE IF NOT EXISTS dim_session (
				trade_date DATE PRIMARY KEY,
				week INTEGER NOT NULL,
				month INTEGER NOT NULL,
				quarter INTEGER NOT NULL,
				is_holiday BOOLEAN NOT NULL DEFAULT FALSE
			)`,
		},
	},
	{
		version:     2,
		description: "raw per-expiry fact tables",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS f_fut_bar_daily (
				trading_date DATE NOT NULL,
				instrument_id BIGINT NOT NULL,
				open DOUBLE,
				high DOUBLE,
				low DOUBLE,
				close DOUBLE,
				volume BIGINT,
				PRIMARY KEY (trading_date, instrument_id)
			)`,
			`CREATE TABLE IF NOT EXISTS f_continuous_quote_l1 (
				ts_event TIMESTAMP NOT NULL,
				contract_series VARCHAR NOT NULL,
				underlying_instrument_id BIGINT NOT NULL,
				bid_px DOUBLE,
				bid_sz BIGINT,
				ask_px DOUBLE,
				ask_sz BIGINT,
				PRIMARY KEY (ts_event, contract_series, underlying_instrument_id)
			)`,
		},
	},
	{
		version:     3,
		description: "continuous contract dimension and daily bars",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS dim_continuous_contract (
				contract_series VARCHAR PRIMARY KEY,
				root VARCHAR NOT NULL,
				rank INTEGER NOT NULL,
				roll_rule VARCHAR NOT NULL,
				adjustment_method VARCHAR NOT NULL,
				description VARCHAR
			)`,
			`CREATE TABLE IF NOT EXISTS g_continuous_bar_daily (
				trading_date DATE NOT NULL,
				contract_series VARCHAR NOT NULL,
				underlying_instrument_id BIGINT NOT NULL,
				open DOUBLE,
				high DOUBLE,
				low DOUBLE,
				close DOUBLE,
				volume BIGINT,
				PRIMARY KEY (trading_date, contract_series)
			)`,
			`CREATE TABLE IF NOT EXISTS dim_roll_dates (
				contract_series VARCHAR NOT NULL,
				rank INTEGER NOT NULL,
				roll_date DATE NOT NULL,
				old_instrument_id BIGINT NOT NULL,
				new_instrument_id BIGINT NOT NULL,
				PRIMARY KEY (contract_series, rank, roll_date)
			)`,
		},
	},
	{
		version:     4,
		description: "canonical series mapping and read view",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS dim_canonical_series (
				root VARCHAR PRIMARY KEY,
				contract_series VARCHAR NOT NULL,
				description VARCHAR,
				optional BOOLEAN NOT NULL DEFAULT FALSE
			)`,
			`CREATE OR REPLACE VIEW v_canonical_continuous_bar_daily AS
				SELECT
					c.root,
					b.trading_date,
					b.contract_series,
					b.underlying_instrument_id,
					b.open,
					b.high,
					b.low,
					b.close,
					b.volume
				FROM dim_canonical_series c
				JOIN g_continuous_bar_daily b USING (contract_series)`,
		},
	},
	{
		version:     5,
		description: "gold aggregate bars",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS g_bar_1m (
				bucket_start TIMESTAMP NOT NULL,
				series_key VARCHAR NOT NULL,
				open DOUBLE,
				high DOUBLE,
				low DOUBLE,
				close DOUBLE,
				volume BIGINT,
				notional DOUBLE,
				PRIMARY KEY (bucket_start, series_key)
			)`,
			`CREATE TABLE IF NOT EXISTS g_bar_1d (
				bucket_start TIMESTAMP NOT NULL,
				series_key VARCHAR NOT NULL,
				open DOUBLE,
				high DOUBLE,
				low DOUBLE,
				close DOUBLE,
				volume BIGINT,
				notional DOUBLE,
				PRIMARY KEY (bucket_start, series_key)
			)`,
		},
	},
}

// Migrate applies pending migrations. Safe to call on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description VARCHAR NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}

		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, description) VALUES (?, ?)`, m.version, m.description); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}

		s.logger.Info().Int("version", m.version).Str("description", m.description).Msg("applied migration")
	}

	return nil
}
