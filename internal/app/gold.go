package app

import (
	"context"
	"errors"

	"futures-six/internal/gold"
)

// Gold aggregates continuous L1 quotes in [From, To] into bucketed bars and
// merges them into the gold table for the bucket.
func (a *App) Gold(ctx context.Context, opts GoldOptions) error {
	bucket, err := gold.ParseBucket(opts.Bucket)
	if err != nil {
		return err
	}
	if opts.From.IsZero() || opts.To.IsZero() {
		return errors.New("--from and --to are required")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	quotes, err := store.ListQuoteObservations(ctx, opts.From, opts.To)
	if err != nil {
		return err
	}
	if len(quotes) == 0 {
		a.Logger.Info().Msg("no quotes in window; nothing to aggregate")
		return nil
	}

	obs := make([]gold.Observation, len(quotes))
	for i, q := range quotes {
		obs[i] = gold.Observation{
			TS:    q.TSEvent,
			Seq:   int64(i),
			Key:   q.Series,
			Price: gold.MidPrice(q.BidPx, q.AskPx),
		}
	}

	bars := gold.Aggregate(obs, bucket)
	result, err := store.MergeGoldBars(ctx, bucket, bars)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Str("bucket", bucket.String()).
		Int("observations", len(obs)).
		Int("bars", len(bars)).
		Int("inserted", result.Inserted).
		Int("replaced", result.Replaced).
		Msg("gold aggregation complete")
	return nil
}
