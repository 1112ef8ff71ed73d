package warehouse

import (
	"context"
	"database/sql"
	"fmt"
)

// summaryTables maps each reported table to its date column, if any.
var summaryTables = []struct {
	table   string
	dateCol string
}{
	{"dim_instrument", ""},
	{"dim_session", "trade_date"},
	{"dim_continuous_contract", ""},
	{"dim_canonical_series", ""},
	{"dim_roll_dates", "roll_date"},
	{"f_fut_bar_daily", "trading_date"},
	{"f_continuous_quote_l1", "ts_event"},
	{"g_continuous_bar_daily", "trading_date"},
	{"g_bar_1m", "bucket_start"},
	{"g_bar_1d", "bucket_start"},
}

// Summary reports row counts and date spans per warehouse table.
func (s *Store) Summary(ctx context.Context) ([]TableSummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	out := make([]TableSummary, 0, len(summaryTables))
	for _, t := range summaryTables {
		summary := TableSummary{Table: t.table}

		if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", t.table)).Scan(&summary.RowCount); err != nil {
			return nil, fmt.Errorf("count %s: %w", t.table, err)
		}

		if t.dateCol != "" && summary.RowCount > 0 {
			var minDate, maxDate sql.NullString
			query := fmt.Sprintf("SELECT CAST(MIN(%[1]s) AS VARCHAR), CAST(MAX(%[1]s) AS VARCHAR) FROM %[2]s", t.dateCol, t.table)
			if err := db.QueryRowContext(ctx, query).Scan(&minDate, &maxDate); err != nil {
				return nil, fmt.Errorf("span %s: %w", t.table, err)
			}
			summary.MinDate = minDate.String
			summary.MaxDate = maxDate.String
		}

		out = append(out, summary)
	}
	return out, nil
}
