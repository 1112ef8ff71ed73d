package warehouse

import (
	"context"
	"fmt"
	"path/filepath"
)

// batchInput describes one parquet input of a raw batch directory and the
// statement that loads it. Loading goes straight through DuckDB's
// read_parquet; the files never pass through Go.
type batchInput struct {
	name    string
	subdir  string
	loadSQL string
}

var batchInputs = []batchInput{
	{
		name:   "instrument definitions",
		subdir: "instrument_definitions",
		loadSQL: `INSERT OR REPLACE INTO dim_instrument
			SELECT
				CAST(instrument_id AS BIGINT),
				root,
				native_symbol,
				CAST(expiry AS DATE),
				CAST(tick_size AS DOUBLE),
				CAST(multiplier AS DOUBLE)
			FROM read_parquet(?)`,
	},
	{
		name:   "raw daily bars",
		subdir: "fut_bars_daily",
		loadSQL: `INSERT OR REPLACE INTO f_fut_bar_daily
			SELECT
				CAST(trading_date AS DATE),
				CAST(instrument_id AS BIGINT),
				CAST(open AS DOUBLE),
				CAST(high AS DOUBLE),
				CAST(low AS DOUBLE),
				CAST(close AS DOUBLE),
				CAST(volume AS BIGINT)
			FROM read_parquet(?)`,
	},
	{
		name:   "continuous contracts",
		subdir: "continuous_instruments",
		loadSQL: `INSERT OR REPLACE INTO dim_continuous_contract
			SELECT
				contract_series,
				root,
				CAST(rank AS INTEGER),
				roll_rule,
				adjustment_method,
				description
			FROM read_parquet(?)`,
	},
	{
		name:   "continuous daily bars",
		subdir: "continuous_bars_daily",
		loadSQL: `INSERT OR REPLACE INTO g_continuous_bar_daily
			SELECT
				CAST(trading_date AS DATE),
				contract_series,
				CAST(underlying_instrument_id AS BIGINT),
				CAST(open AS DOUBLE),
				CAST(high AS DOUBLE),
				CAST(low AS DOUBLE),
				CAST(close AS DOUBLE),
				CAST(volume AS BIGINT)
			FROM read_parquet(?)`,
	},
	{
		name:   "continuous quotes",
		subdir: "continuous_quotes_l1",
		loadSQL: `INSERT OR REPLACE INTO f_continuous_quote_l1
			SELECT
				CAST(ts_event AS TIMESTAMP),
				contract_series,
				CAST(underlying_instrument_id AS BIGINT),
				CAST(bid_px AS DOUBLE),
				CAST(bid_sz AS BIGINT),
				CAST(ask_px AS DOUBLE),
				CAST(ask_sz AS BIGINT)
			FROM read_parquet(?)`,
	},
}

// IngestResult reports which inputs of a batch directory were loaded.
type IngestResult struct {
	Loaded  []string
	Skipped []string
}

// IngestBatchDir loads every recognised input under one raw batch directory.
// Inputs without files are skipped, matching the layout the download/transform
// collaborator produces (not every batch carries every table). The upstream is
// assumed deduplicated at file level; INSERT OR REPLACE plus the natural keys
// re-validate that on the way in.
func (s *Store) IngestBatchDir(ctx context.Context, dir string) (IngestResult, error) {
	db, err := s.getDB()
	if err != nil {
		return IngestResult{}, err
	}

	var result IngestResult
	for _, input := range batchInputs {
		pattern := filepath.Join(dir, input.subdir, "*.parquet")
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return result, fmt.Errorf("glob %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			result.Skipped = append(result.Skipped, input.name)
			continue
		}

		if _, err := db.ExecContext(ctx, input.loadSQL, pattern); err != nil {
			return result, fmt.Errorf("load %s from %s: %w", input.name, pattern, err)
		}
		result.Loaded = append(result.Loaded, input.name)
		s.logger.Info().Str("input", input.name).Int("files", len(matches)).Msg("ingested batch input")
	}

	return result, nil
}
