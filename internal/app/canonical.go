package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"futures-six/internal/warehouse"
)

// CanonicalList prints the current canonical designations.
func (a *App) CanonicalList(ctx context.Context) error {
	store, closeStore, err := a.openStoreReadOnly(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := store.ListCanonical(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "no canonical series designated")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Root\tSeries\tOptional\tDescription")
	for _, entry := range entries {
		fmt.Fprintf(writer, "%s\t%s\t%t\t%s\n", entry.Root, entry.Series, entry.Optional, entry.Description)
	}
	return writer.Flush()
}

// CanonicalSet designates one series as a root's authoritative continuous
// contract. The designation is an explicit operator decision, never inferred.
func (a *App) CanonicalSet(ctx context.Context, opts CanonicalSetOptions) error {
	if opts.Root == "" || opts.Series == "" {
		return errors.New("--root and --series are required")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	entry := warehouse.CanonicalEntry{
		Root:        opts.Root,
		Series:      opts.Series,
		Description: opts.Description,
		Optional:    opts.Optional,
	}
	if err := store.SetCanonical(ctx, entry); err != nil {
		return err
	}

	a.Logger.Info().Str("root", entry.Root).Str("series", entry.Series).Msg("canonical series set")
	return nil
}

// CanonicalSync applies the configured canonical mapping to the warehouse.
func (a *App) CanonicalSync(ctx context.Context) error {
	roots := a.Config.Canonical.Roots
	if len(roots) == 0 {
		return errors.New("canonical.roots is empty; nothing to sync")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	names := make([]string, 0, len(roots))
	for root := range roots {
		names = append(names, root)
	}
	sort.Strings(names)

	for _, root := range names {
		cfg := roots[root]
		entry := warehouse.CanonicalEntry{
			Root:        root,
			Series:      cfg.ContractSeries,
			Description: cfg.Description,
			Optional:    cfg.Optional,
		}
		if err := store.SetCanonical(ctx, entry); err != nil {
			return fmt.Errorf("sync canonical for %s: %w", root, err)
		}
	}

	a.Logger.Info().Int("roots", len(names)).Msg("canonical mapping synced from config")
	return nil
}

// CanonicalAudit reports per-series coverage and a per-root recommendation.
// The audit is read-only; it never changes designations.
func (a *App) CanonicalAudit(ctx context.Context) error {
	store, closeStore, err := a.openStoreReadOnly(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	coverage, err := store.AuditCoverage(ctx)
	if err != nil {
		return err
	}
	if len(coverage) == 0 {
		fmt.Fprintln(os.Stdout, "no continuous bars recorded")
		return nil
	}

	current := make(map[string]string)
	entries, err := store.ListCanonical(ctx)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		current[entry.Root] = entry.Series
	}

	recommended := make(map[string]string)
	for _, cov := range warehouse.RecommendCanonical(coverage) {
		recommended[cov.Root] = cov.Series
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Root\tSeries\tRows\tFirst\tLast\tYears\tCanonical\tRecommended")
	for _, cov := range coverage {
		marker := ""
		if current[cov.Root] == cov.Series {
			marker = "yes"
		}
		rec := ""
		if recommended[cov.Root] == cov.Series {
			rec = "yes"
		}
		fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\t%.1f\t%s\t%s\n",
			cov.Root, cov.Series, cov.RowCount,
			cov.FirstDate.Format("2006-01-02"), cov.LastDate.Format("2006-01-02"),
			cov.CoverageYears, marker, rec,
		)
	}
	return writer.Flush()
}
