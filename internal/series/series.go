// Package series implements the continuous-contract core: contract-series
// identity, roll-strategy resolution, and continuous bar construction.
package series

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RuleKind enumerates the supported roll policies.
type RuleKind int

const (
	// RuleCalendarPreExpiry rolls a fixed number of trading days before expiry.
	RuleCalendarPreExpiry RuleKind = iota
	// RuleVolumeCrossover rolls when the next contract out-trades the current one.
	RuleVolumeCrossover
)

// RollRule is a named roll policy. It is a pure value; identity is its encoded tag.
type RollRule struct {
	Kind RuleKind
	// Days is the pre-expiry window for RuleCalendarPreExpiry; unused otherwise.
	Days int
}

// CalendarPreExpiry builds a calendar roll rule with an n-trading-day window.
func CalendarPreExpiry(days int) RollRule {
	return RollRule{Kind: RuleCalendarPreExpiry, Days: days}
}

// VolumeCrossover builds the volume crossover rule.
func VolumeCrossover() RollRule {
	return RollRule{Kind: RuleVolumeCrossover}
}

// Tag returns the storage encoding of the rule, e.g. CALENDAR_2D or VOLUME.
func (r RollRule) Tag() string {
	switch r.Kind {
	case RuleCalendarPreExpiry:
		return fmt.Sprintf("CALENDAR_%dD", r.Days)
	case RuleVolumeCrossover:
		return "VOLUME"
	default:
		return "UNKNOWN"
	}
}

// Slug returns the configuration spelling of the rule, e.g. calendar-2d.
func (r RollRule) Slug() string {
	switch r.Kind {
	case RuleCalendarPreExpiry:
		return fmt.Sprintf("calendar-%dd", r.Days)
	case RuleVolumeCrossover:
		return "volume"
	default:
		return "unknown"
	}
}

var ruleSlugPattern = regexp.MustCompile(`^calendar-(\d+)d$`)

// ParseRuleSlug parses a configuration slug ("calendar-2d", "volume") into a rule.
func ParseRuleSlug(slug string) (RollRule, error) {
	normalized := strings.ToLower(strings.TrimSpace(slug))
	if normalized == "volume" {
		return VolumeCrossover(), nil
	}
	if m := ruleSlugPattern.FindStringSubmatch(normalized); m != nil {
		days, err := strconv.Atoi(m[1])
		if err != nil || days <= 0 {
			return RollRule{}, fmt.Errorf("invalid calendar roll window in %q", slug)
		}
		return CalendarPreExpiry(days), nil
	}
	return RollRule{}, fmt.Errorf("unsupported roll rule %q", slug)
}

var ruleTagPattern = regexp.MustCompile(`^CALENDAR_(\d+)D$`)

func parseRuleTag(tag string) (RollRule, error) {
	if tag == "VOLUME" {
		return VolumeCrossover(), nil
	}
	if m := ruleTagPattern.FindStringSubmatch(tag); m != nil {
		days, err := strconv.Atoi(m[1])
		if err != nil || days <= 0 {
			return RollRule{}, fmt.Errorf("invalid calendar roll window in tag %q", tag)
		}
		return CalendarPreExpiry(days), nil
	}
	return RollRule{}, fmt.Errorf("unsupported roll rule tag %q", tag)
}

// ContractSeries is the logical identity of a continuous series. The triple is
// the canonical in-memory representation; the string key is purely a storage
// and interop encoding.
type ContractSeries struct {
	Root string
	Rank int
	Rule RollRule
}

// NewContractSeries validates and builds a series identity.
func NewContractSeries(root string, rank int, rule RollRule) (ContractSeries, error) {
	root = strings.ToUpper(strings.TrimSpace(root))
	if root == "" {
		return ContractSeries{}, fmt.Errorf("series root must not be empty")
	}
	if strings.Contains(root, "_") {
		return ContractSeries{}, fmt.Errorf("series root %q must not contain underscores", root)
	}
	if rank < 0 {
		return ContractSeries{}, fmt.Errorf("series rank must not be negative, got %d", rank)
	}
	return ContractSeries{Root: root, Rank: rank, Rule: rule}, nil
}

// String encodes the series as {ROOT}_{FRONT|RANK_n}_{RULE}.
func (s ContractSeries) String() string {
	if s.Rank == 0 {
		return fmt.Sprintf("%s_FRONT_%s", s.Root, s.Rule.Tag())
	}
	return fmt.Sprintf("%s_RANK_%d_%s", s.Root, s.Rank, s.Rule.Tag())
}

// Description renders the free-text dimension description for the series.
func (s ContractSeries) Description() string {
	rankDesc := "front month"
	if s.Rank > 0 {
		rankDesc = fmt.Sprintf("rank %d", s.Rank)
	}
	return fmt.Sprintf("%s continuous %s (roll rule: %s)", s.Root, rankDesc, s.Rule.Slug())
}

var seriesKeyPattern = regexp.MustCompile(`^([A-Z0-9]+)_(FRONT|RANK_(\d+))_([A-Z0-9_]+)$`)

// ParseSeries inverts String. The encoding is bijective: parsing the encoding
// of any valid triple yields the identical triple.
func ParseSeries(key string) (ContractSeries, error) {
	m := seriesKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return ContractSeries{}, fmt.Errorf("malformed contract series key %q", key)
	}

	rank := 0
	if m[3] != "" {
		parsed, err := strconv.Atoi(m[3])
		if err != nil {
			return ContractSeries{}, fmt.Errorf("malformed rank in series key %q", key)
		}
		rank = parsed
	}

	rule, err := parseRuleTag(m[4])
	if err != nil {
		return ContractSeries{}, fmt.Errorf("series key %q: %w", key, err)
	}

	return ContractSeries{Root: m[1], Rank: rank, Rule: rule}, nil
}

// ValidateUniverse checks the configured series set for encoding collisions and
// round-trip fidelity. Two distinct triples mapping to one string key would
// corrupt stored data, so a collision is fatal to ingestion.
func ValidateUniverse(all []ContractSeries) error {
	seen := make(map[string]ContractSeries, len(all))
	for _, s := range all {
		key := s.String()
		if prev, ok := seen[key]; ok && prev != s {
			return &CollisionError{Key: key, First: prev, Second: s}
		}
		seen[key] = s

		decoded, err := ParseSeries(key)
		if err != nil {
			return fmt.Errorf("series %v does not round-trip: %w", s, err)
		}
		if decoded != s {
			return &CollisionError{Key: key, First: s, Second: decoded}
		}
	}
	return nil
}
