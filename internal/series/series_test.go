package series

import (
	"errors"
	"testing"
)

func TestSeriesKeyEncoding(t *testing.T) {
	cases := []struct {
		series ContractSeries
		key    string
	}{
		{ContractSeries{Root: "ES", Rank: 0, Rule: CalendarPreExpiry(2)}, "ES_FRONT_CALENDAR_2D"},
		{ContractSeries{Root: "ES", Rank: 1, Rule: CalendarPreExpiry(2)}, "ES_RANK_1_CALENDAR_2D"},
		{ContractSeries{Root: "SR3", Rank: 0, Rule: VolumeCrossover()}, "SR3_FRONT_VOLUME"},
		{ContractSeries{Root: "CL", Rank: 3, Rule: VolumeCrossover()}, "CL_RANK_3_VOLUME"},
		{ContractSeries{Root: "ZN", Rank: 0, Rule: CalendarPreExpiry(10)}, "ZN_FRONT_CALENDAR_10D"},
	}

	for _, tc := range cases {
		got := tc.series.String()
		if got != tc.key {
			t.Fatalf("encoding %v: expected %q, got %q", tc.series, tc.key, got)
		}

		decoded, err := ParseSeries(tc.key)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.key, err)
		}
		if decoded != tc.series {
			t.Fatalf("parse %q: expected %v, got %v", tc.key, tc.series, decoded)
		}
	}
}

func TestParseSeriesRejectsMalformedKeys(t *testing.T) {
	bad := []string{
		"",
		"ES",
		"ES_FRONT",
		"ES_FRONT_CALENDAR",
		"ES_FRONT_CALENDAR_D",
		"ES_RANK_CALENDAR_2D",
		"es_front_calendar_2d",
		"ES_BACK_CALENDAR_2D",
		"ES_FRONT_SOMETHING",
	}
	for _, key := range bad {
		if _, err := ParseSeries(key); err == nil {
			t.Fatalf("expected error parsing %q", key)
		}
	}
}

func TestNewContractSeriesValidation(t *testing.T) {
	s, err := NewContractSeries(" es ", 0, CalendarPreExpiry(2))
	if err != nil {
		t.Fatalf("valid series rejected: %v", err)
	}
	if s.Root != "ES" {
		t.Fatalf("root should be normalised to upper case, got %q", s.Root)
	}

	if _, err := NewContractSeries("", 0, VolumeCrossover()); err == nil {
		t.Fatal("empty root should be rejected")
	}
	if _, err := NewContractSeries("E_S", 0, VolumeCrossover()); err == nil {
		t.Fatal("underscore in root should be rejected")
	}
	if _, err := NewContractSeries("ES", -1, VolumeCrossover()); err == nil {
		t.Fatal("negative rank should be rejected")
	}
}

func TestParseRuleSlug(t *testing.T) {
	rule, err := ParseRuleSlug("calendar-2d")
	if err != nil {
		t.Fatalf("calendar-2d: %v", err)
	}
	if rule.Kind != RuleCalendarPreExpiry || rule.Days != 2 {
		t.Fatalf("unexpected rule %+v", rule)
	}

	rule, err = ParseRuleSlug(" Volume ")
	if err != nil {
		t.Fatalf("volume: %v", err)
	}
	if rule.Kind != RuleVolumeCrossover {
		t.Fatalf("unexpected rule %+v", rule)
	}

	for _, bad := range []string{"calendar-0d", "calendar-d", "open-interest", ""} {
		if _, err := ParseRuleSlug(bad); err == nil {
			t.Fatalf("expected error for slug %q", bad)
		}
	}
}

func TestValidateUniverseRoundTrip(t *testing.T) {
	all := []ContractSeries{
		{Root: "ES", Rank: 0, Rule: CalendarPreExpiry(2)},
		{Root: "ES", Rank: 1, Rule: CalendarPreExpiry(2)},
		{Root: "SR3", Rank: 0, Rule: VolumeCrossover()},
	}
	if err := ValidateUniverse(all); err != nil {
		t.Fatalf("valid universe rejected: %v", err)
	}
}

func TestValidateUniverseDetectsNonRoundTrip(t *testing.T) {
	// An unknown rule kind encodes to a tag ParseSeries cannot invert.
	bad := []ContractSeries{{Root: "ES", Rank: 0, Rule: RollRule{Kind: RuleKind(99)}}}
	err := ValidateUniverse(bad)
	if err == nil {
		t.Fatal("non-round-tripping series should be rejected")
	}
}

func TestCollisionErrorIdentity(t *testing.T) {
	err := error(&CollisionError{Key: "X_FRONT_VOLUME"})
	var collision *CollisionError
	if !errors.As(err, &collision) {
		t.Fatal("errors.As should match *CollisionError")
	}
	if collision.Key != "X_FRONT_VOLUME" {
		t.Fatalf("unexpected key %q", collision.Key)
	}
}
