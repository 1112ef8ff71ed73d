package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"futures-six/internal/catalog"
	"futures-six/internal/series"
)

const (
	setCanonicalSQL = `INSERT INTO dim_canonical_series (root, contract_series, description, optional)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (root) DO UPDATE SET
		contract_series = EXCLUDED.contract_series,
		description     = EXCLUDED.description,
		optional        = EXCLUDED.optional`

	getCanonicalSQL = `SELECT root, contract_series, description, optional
	FROM dim_canonical_series WHERE root = ?`

	listCanonicalSQL = `SELECT root, contract_series, description, optional
	FROM dim_canonical_series ORDER BY root`

	canonicalAmbiguitySQL = `SELECT root, trading_date, COUNT(*) AS n
	FROM v_canonical_continuous_bar_daily
	GROUP BY root, trading_date
	HAVING COUNT(*) > 1
	ORDER BY root, trading_date
	LIMIT 1`

	listCanonicalBarsSQL = `SELECT
		root, trading_date, contract_series, underlying_instrument_id,
		open, high, low, close, volume
	FROM v_canonical_continuous_bar_daily
	ORDER BY trading_date DESC, root
	LIMIT ?`

	coverageSQL = `SELECT
		contract_series,
		COUNT(*) AS row_count,
		MIN(trading_date) AS first_date,
		MAX(trading_date) AS last_date
	FROM g_continuous_bar_daily
	GROUP BY contract_series
	ORDER BY contract_series`
)

// SetCanonical repoints a root to a series. The write is a full replacement of
// the root's row, never a patch; exactly one series per root holds afterwards.
func (s *Store) SetCanonical(ctx context.Context, entry CanonicalEntry) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if _, err := series.ParseSeries(entry.Series); err != nil {
		return fmt.Errorf("set canonical for %s: %w", entry.Root, err)
	}
	if _, err := db.ExecContext(ctx, setCanonicalSQL, entry.Root, entry.Series, entry.Description, entry.Optional); err != nil {
		return fmt.Errorf("set canonical for %s: %w", entry.Root, err)
	}
	return nil
}

// CanonicalFor returns the series designated authoritative for a root.
func (s *Store) CanonicalFor(ctx context.Context, root string) (CanonicalEntry, error) {
	db, err := s.getDB()
	if err != nil {
		return CanonicalEntry{}, err
	}

	var entry CanonicalEntry
	var desc sql.NullString
	err = db.QueryRowContext(ctx, getCanonicalSQL, root).Scan(&entry.Root, &entry.Series, &desc, &entry.Optional)
	if err != nil {
		return CanonicalEntry{}, fmt.Errorf("canonical for %s: %w", root, err)
	}
	entry.Description = desc.String
	return entry, nil
}

// ListCanonical returns the full canonical mapping ordered by root.
func (s *Store) ListCanonical(ctx context.Context) ([]CanonicalEntry, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listCanonicalSQL)
	if err != nil {
		return nil, fmt.Errorf("list canonical mapping: %w", err)
	}
	defer rows.Close()

	var out []CanonicalEntry
	for rows.Next() {
		var entry CanonicalEntry
		var desc sql.NullString
		if err := rows.Scan(&entry.Root, &entry.Series, &desc, &entry.Optional); err != nil {
			return nil, err
		}
		entry.Description = desc.String
		out = append(out, entry)
	}
	return out, rows.Err()
}

// checkCanonicalUnique enforces the view's hard invariant: at most one row per
// (root, trading_date). A violation means the mapping is corrupted and reads
// must fail loudly rather than silently deduplicate.
func (s *Store) checkCanonicalUnique(ctx context.Context, db *sql.DB) error {
	var (
		root string
		date time.Time
		n    int
	)
	err := db.QueryRowContext(ctx, canonicalAmbiguitySQL).Scan(&root, &date, &n)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check canonical uniqueness: %w", err)
	}
	return &series.CanonicalAmbiguityError{Root: root, Date: catalog.Day(date), Rows: n}
}

// ListCanonicalBars reads the most recent rows of the canonical view.
func (s *Store) ListCanonicalBars(ctx context.Context, limit int) ([]CanonicalBar, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if err := s.checkCanonicalUnique(ctx, db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listCanonicalBarsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list canonical bars: %w", err)
	}
	defer rows.Close()

	var out []CanonicalBar
	for rows.Next() {
		var (
			bar        CanonicalBar
			o, h, l, c sql.NullFloat64
			vol        sql.NullInt64
		)
		if err := rows.Scan(&bar.Root, &bar.TradingDate, &bar.Series, &bar.UnderlyingID, &o, &h, &l, &c, &vol); err != nil {
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

// AuditCoverage computes, per contract series, the count and span of available
// trading dates. Read-only; it informs canonical mapping decisions and never
// applies them.
func (s *Store) AuditCoverage(ctx context.Context) ([]SeriesCoverage, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, coverageSQL)
	if err != nil {
		return nil, fmt.Errorf("audit coverage: %w", err)
	}
	defer rows.Close()

	var out []SeriesCoverage
	for rows.Next() {
		var cov SeriesCoverage
		if err := rows.Scan(&cov.Series, &cov.RowCount, &cov.FirstDate, &cov.LastDate); err != nil {
			return nil, err
		}
		cov.FirstDate = catalog.Day(cov.FirstDate)
		cov.LastDate = catalog.Day(cov.LastDate)

		parsed, err := series.ParseSeries(cov.Series)
		if err == nil {
			cov.Root = parsed.Root
		} else {
			cov.Root = cov.Series
		}
		cov.CoverageYears = cov.LastDate.Sub(cov.FirstDate).Hours() / 24 / 365.25
		out = append(out, cov)
	}
	return out, rows.Err()
}

// RecommendCanonical picks, per root, the series with the best coverage: most
// rows, then latest end date. It is a recommendation only; operators decide.
func RecommendCanonical(coverage []SeriesCoverage) []SeriesCoverage {
	byRoot := make(map[string]SeriesCoverage)
	for _, cov := range coverage {
		best, ok := byRoot[cov.Root]
		if !ok || better(cov, best) {
			byRoot[cov.Root] = cov
		}
	}

	out := make([]SeriesCoverage, 0, len(byRoot))
	for _, cov := range byRoot {
		out = append(out, cov)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Root < out[j].Root })
	return out
}

func better(a, b SeriesCoverage) bool {
	if a.RowCount != b.RowCount {
		return a.RowCount > b.RowCount
	}
	return a.LastDate.After(b.LastDate)
}
