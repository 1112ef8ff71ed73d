package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"futures-six/internal/logging"
	"futures-six/internal/series"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Universe  UniverseConfig  `mapstructure:"universe"`
	Builder   BuilderConfig   `mapstructure:"builder"`
	Canonical CanonicalConfig `mapstructure:"canonical"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig locates the embedded warehouse.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// IngestConfig governs the raw batch watch loop.
type IngestConfig struct {
	RawDir          string        `mapstructure:"raw_dir"`
	WatchInterval   time.Duration `mapstructure:"watch_interval"`
	AlignToInterval bool          `mapstructure:"align_to_interval"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// RootConfig is one root's entry in the universe: which ranks to build and
// under which roll rule. Ranks accepts "0", "0-3", or "0,2,4" spellings.
type RootConfig struct {
	Ranks    string `mapstructure:"ranks"`
	RollRule string `mapstructure:"roll_rule"`
	Comment  string `mapstructure:"comment"`
	Optional bool   `mapstructure:"optional"`
}

// UniverseConfig enumerates the roots the builder covers. An enumerated
// mapping of root to policy, not free-form code.
type UniverseConfig struct {
	Roots map[string]RootConfig `mapstructure:"roots"`
}

// BuilderConfig tunes continuous series construction.
type BuilderConfig struct {
	ChunkMonths      int    `mapstructure:"chunk_months"`
	AdjustmentMethod string `mapstructure:"adjustment_method"`
}

// CanonicalRoot is one configured canonical designation.
type CanonicalRoot struct {
	ContractSeries string `mapstructure:"contract_series"`
	Description    string `mapstructure:"description"`
	Optional       bool   `mapstructure:"optional"`
}

// CanonicalConfig maps each root to its single authoritative series.
type CanonicalConfig struct {
	Roots map[string]CanonicalRoot `mapstructure:"roots"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FUTURESIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "futuresix")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.path", "data/silver/market.duckdb")

	v.SetDefault("ingest.raw_dir", "data/raw")
	v.SetDefault("ingest.watch_interval", "15m")
	v.SetDefault("ingest.align_to_interval", true)
	v.SetDefault("ingest.startup_delay", "0s")

	v.SetDefault("builder.chunk_months", 1)
	v.SetDefault("builder.adjustment_method", "unadjusted")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs sanity checks on configuration values, including the
// universe encoding bijectivity check that gates ingestion.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Ingest.WatchInterval <= 0 {
		return fmt.Errorf("ingest.watch_interval must be greater than zero")
	}
	if c.Builder.ChunkMonths <= 0 {
		return fmt.Errorf("builder.chunk_months must be greater than zero")
	}

	all, err := c.Universe.Series()
	if err != nil {
		return err
	}
	if err := series.ValidateUniverse(all); err != nil {
		return fmt.Errorf("universe configuration: %w", err)
	}

	for root, entry := range c.Canonical.Roots {
		if entry.ContractSeries == "" {
			return fmt.Errorf("canonical.roots.%s.contract_series is required", root)
		}
		if _, err := series.ParseSeries(entry.ContractSeries); err != nil {
			return fmt.Errorf("canonical.roots.%s: %w", root, err)
		}
	}

	return nil
}

// Series expands the universe into the full list of configured contract
// series, sorted by key for deterministic processing order.
func (u UniverseConfig) Series() ([]series.ContractSeries, error) {
	var out []series.ContractSeries
	for root, entry := range u.Roots {
		rule, err := series.ParseRuleSlug(entry.RollRule)
		if err != nil {
			return nil, fmt.Errorf("universe.roots.%s: %w", root, err)
		}
		ranks, err := ParseRanks(entry.Ranks)
		if err != nil {
			return nil, fmt.Errorf("universe.roots.%s: %w", root, err)
		}
		for _, rank := range ranks {
			cs, err := series.NewContractSeries(root, rank, rule)
			if err != nil {
				return nil, fmt.Errorf("universe.roots.%s: %w", root, err)
			}
			out = append(out, cs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// SeriesFor returns the configured series for one root.
func (u UniverseConfig) SeriesFor(root string) ([]series.ContractSeries, error) {
	root = strings.ToUpper(root)
	entry, ok := u.Roots[root]
	if !ok {
		return nil, fmt.Errorf("root %s not present in universe configuration", root)
	}
	sub := UniverseConfig{Roots: map[string]RootConfig{root: entry}}
	return sub.Series()
}

// ParseRanks expands a rank spec ("0", "0-3", "0,2") into a sorted unique list.
func ParseRanks(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("ranks value is required")
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			lo, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid rank range %q", part)
			}
			hi, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid rank range %q", part)
			}
			if lo > hi {
				return nil, fmt.Errorf("invalid rank range %q (start > end)", part)
			}
			for r := lo; r <= hi; r++ {
				seen[r] = struct{}{}
			}
			continue
		}
		r, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid rank %q", part)
		}
		seen[r] = struct{}{}
	}

	out := make([]int, 0, len(seen))
	for r := range seen {
		if r < 0 {
			return nil, fmt.Errorf("ranks must not be negative, got %d", r)
		}
		out = append(out, r)
	}
	sort.Ints(out)
	return out, nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
