package config

import (
	"reflect"
	"testing"
	"time"
)

func TestParseRanks(t *testing.T) {
	cases := []struct {
		raw  string
		want []int
	}{
		{"0", []int{0}},
		{"0-3", []int{0, 1, 2, 3}},
		{"0,2,4", []int{0, 2, 4}},
		{"2, 0-1", []int{0, 1, 2}},
		{"1,1,1", []int{1}},
	}
	for _, tc := range cases {
		got, err := ParseRanks(tc.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("parse %q: expected %v, got %v", tc.raw, tc.want, got)
		}
	}

	for _, bad := range []string{"", "3-1", "x", "-1", "0-x"} {
		if _, err := ParseRanks(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestUniverseSeriesExpansion(t *testing.T) {
	u := UniverseConfig{Roots: map[string]RootConfig{
		"ES":  {Ranks: "0-1", RollRule: "calendar-2d"},
		"SR3": {Ranks: "0", RollRule: "volume"},
	}}

	all, err := u.Series()
	if err != nil {
		t.Fatalf("series expansion: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 series, got %d", len(all))
	}

	keys := make([]string, len(all))
	for i, cs := range all {
		keys[i] = cs.String()
	}
	want := []string{"ES_FRONT_CALENDAR_2D", "ES_RANK_1_CALENDAR_2D", "SR3_FRONT_VOLUME"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
}

func TestUniverseSeriesForUnknownRoot(t *testing.T) {
	u := UniverseConfig{Roots: map[string]RootConfig{"ES": {Ranks: "0", RollRule: "calendar-2d"}}}
	if _, err := u.SeriesFor("CL"); err == nil {
		t.Fatal("unknown root should error")
	}

	list, err := u.SeriesFor("es")
	if err != nil {
		t.Fatalf("lookup should be case-insensitive: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 series, got %d", len(list))
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Path: "data/silver/market.duckdb"},
		Ingest:   IngestConfig{WatchInterval: 15 * time.Minute},
		Builder:  BuilderConfig{ChunkMonths: 1, AdjustmentMethod: "unadjusted"},
		Export:   ExportConfig{MaxDataPoints: 1000},
		Universe: UniverseConfig{Roots: map[string]RootConfig{
			"ES": {Ranks: "0", RollRule: "calendar-2d"},
		}},
		Canonical: CanonicalConfig{Roots: map[string]CanonicalRoot{
			"ES": {ContractSeries: "ES_FRONT_CALENDAR_2D"},
		}},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	broken := *cfg
	broken.Canonical = CanonicalConfig{Roots: map[string]CanonicalRoot{
		"ES": {ContractSeries: "not-a-key"},
	}}
	if err := broken.Validate(); err == nil {
		t.Fatal("malformed canonical series key should be rejected")
	}

	broken = *cfg
	broken.Universe = UniverseConfig{Roots: map[string]RootConfig{
		"ES": {Ranks: "0", RollRule: "open-interest"},
	}}
	if err := broken.Validate(); err == nil {
		t.Fatal("unsupported roll rule should be rejected")
	}

	broken = *cfg
	broken.Database.Path = ""
	if err := broken.Validate(); err == nil {
		t.Fatal("missing database path should be rejected")
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := &Config{Export: ExportConfig{MaxDataPoints: 500}}
	if got := cfg.ResolveMaxPoints(0); got != 500 {
		t.Fatalf("expected config default 500, got %d", got)
	}
	if got := cfg.ResolveMaxPoints(50); got != 50 {
		t.Fatalf("expected override 50, got %d", got)
	}
}
