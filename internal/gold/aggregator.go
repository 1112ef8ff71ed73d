// Package gold builds derived OHLC/notional bars from normalized fact rows.
package gold

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"futures-six/internal/catalog"
)

// Bucket is the aggregation window.
type Bucket int

const (
	BucketMinute Bucket = iota
	BucketDay
)

// ParseBucket maps the CLI spelling to a bucket.
func ParseBucket(s string) (Bucket, error) {
	switch s {
	case "1m":
		return BucketMinute, nil
	case "1d":
		return BucketDay, nil
	default:
		return 0, fmt.Errorf("unsupported bucket %q (want 1m or 1d)", s)
	}
}

func (b Bucket) String() string {
	if b == BucketMinute {
		return "1m"
	}
	return "1d"
}

func (b Bucket) truncate(t time.Time) time.Time {
	t = t.UTC()
	if b == BucketMinute {
		return t.Truncate(time.Minute)
	}
	return catalog.Day(t)
}

// Observation is one normalized fact row: a quote mid or a trade print,
// keyed by instrument id or contract series. Seq is the insertion order used
// to break timestamp ties.
type Observation struct {
	TS    time.Time
	Seq   int64
	Key   string
	Price decimal.Decimal
	Size  int64
}

// Bar is one aggregated bucket. Open and close are the values at the earliest
// and latest observations; high/low are price extrema; volume and notional sum
// trade size and price*size.
type Bar struct {
	BucketStart time.Time
	Key         string
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      int64
	Notional    decimal.Decimal
}

type groupKey struct {
	start time.Time
	key   string
}

// Aggregate buckets observations by (key, window). A bucket with a single
// observation yields open=high=low=close; a bucket with zero observations is
// never emitted. Output is ordered by (bucket start, key).
func Aggregate(obs []Observation, bucket Bucket) []Bar {
	if len(obs) == 0 {
		return nil
	}

	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].TS.Equal(sorted[j].TS) {
			return sorted[i].TS.Before(sorted[j].TS)
		}
		return sorted[i].Seq < sorted[j].Seq
	})

	bars := make(map[groupKey]*Bar)
	order := make([]groupKey, 0)

	for _, ob := range sorted {
		gk := groupKey{start: bucket.truncate(ob.TS), key: ob.Key}
		bar, ok := bars[gk]
		if !ok {
			bar = &Bar{
				BucketStart: gk.start,
				Key:         ob.Key,
				Open:        ob.Price,
				High:        ob.Price,
				Low:         ob.Price,
				Close:       ob.Price,
				Notional:    decimal.Zero,
			}
			bars[gk] = bar
			order = append(order, gk)
		}

		// Sorted input: the latest (ts, seq) observation always wins the close.
		bar.Close = ob.Price
		if ob.Price.GreaterThan(bar.High) {
			bar.High = ob.Price
		}
		if ob.Price.LessThan(bar.Low) {
			bar.Low = ob.Price
		}
		if ob.Size > 0 {
			bar.Volume += ob.Size
			bar.Notional = bar.Notional.Add(ob.Price.Mul(decimal.NewFromInt(ob.Size)))
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if !order[i].start.Equal(order[j].start) {
			return order[i].start.Before(order[j].start)
		}
		return order[i].key < order[j].key
	})

	out := make([]Bar, 0, len(order))
	for _, gk := range order {
		out = append(out, *bars[gk])
	}
	return out
}

// MidPrice computes the quote midpoint used as the aggregation price for L1
// quote facts.
func MidPrice(bid, ask decimal.Decimal) decimal.Decimal {
	return bid.Add(ask).Div(decimal.NewFromInt(2))
}
