package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in widget limits, used when no limits file is configured.
const (
	DefaultCounterCeiling = int64(999_999_999)
	DefaultCounterDedup   = 24 * time.Hour

	DefaultLikeCeiling   = int64(999_999_999)
	DefaultLikeMarkerTTL = 365 * 24 * time.Hour

	DefaultRankingMaxEntries = 100
	DefaultRankingEntriesCap = 1000
	DefaultRankingCooldown   = time.Minute

	DefaultBBSPageSize    = 10
	DefaultBBSPageSizeCap = 100
	DefaultBBSMaxMessages = 1000
	DefaultBBSMessagesCap = 10000
	DefaultBBSCooldown    = time.Minute
)

// Duration wraps time.Duration with yaml support for "24h" style values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Limits is the operator-tunable per-widget limit set, loaded from an
// optional yaml file. Zero values fall back to the built-in defaults.
type Limits struct {
	Counter struct {
		Ceiling  int64    `yaml:"ceiling"`
		DedupTTL Duration `yaml:"dedup_ttl"`
	} `yaml:"counter"`

	Like struct {
		Ceiling   int64    `yaml:"ceiling"`
		MarkerTTL Duration `yaml:"marker_ttl"`
	} `yaml:"like"`

	Ranking struct {
		DefaultMaxEntries int      `yaml:"default_max_entries"`
		MaxEntriesCap     int      `yaml:"max_entries_cap"`
		CooldownTTL       Duration `yaml:"cooldown_ttl"`
	} `yaml:"ranking"`

	BBS struct {
		DefaultPageSize    int      `yaml:"default_page_size"`
		PageSizeCap        int      `yaml:"page_size_cap"`
		DefaultMaxMessages int      `yaml:"default_max_messages"`
		MaxMessagesCap     int      `yaml:"max_messages_cap"`
		CooldownTTL        Duration `yaml:"cooldown_ttl"`
	} `yaml:"bbs"`
}

// DefaultLimits returns the built-in limit set.
func DefaultLimits() Limits {
	var l Limits
	l.Counter.Ceiling = DefaultCounterCeiling
	l.Counter.DedupTTL = Duration(DefaultCounterDedup)
	l.Like.Ceiling = DefaultLikeCeiling
	l.Like.MarkerTTL = Duration(DefaultLikeMarkerTTL)
	l.Ranking.DefaultMaxEntries = DefaultRankingMaxEntries
	l.Ranking.MaxEntriesCap = DefaultRankingEntriesCap
	l.Ranking.CooldownTTL = Duration(DefaultRankingCooldown)
	l.BBS.DefaultPageSize = DefaultBBSPageSize
	l.BBS.PageSizeCap = DefaultBBSPageSizeCap
	l.BBS.DefaultMaxMessages = DefaultBBSMaxMessages
	l.BBS.MaxMessagesCap = DefaultBBSMessagesCap
	l.BBS.CooldownTTL = Duration(DefaultBBSCooldown)
	return l
}

// LoadLimits reads the limits file at path, filling omitted values from the
// defaults. An empty path returns the defaults unchanged.
func LoadLimits(path string) (Limits, error) {
	limits := DefaultLimits()
	if path == "" {
		return limits, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return limits, fmt.Errorf("failed to read limits file: %w", err)
	}

	var file Limits
	if err := yaml.Unmarshal(data, &file); err != nil {
		return limits, fmt.Errorf("failed to parse limits file: %w", err)
	}

	merge(&limits.Counter.Ceiling, file.Counter.Ceiling)
	merge(&limits.Counter.DedupTTL, file.Counter.DedupTTL)
	merge(&limits.Like.Ceiling, file.Like.Ceiling)
	merge(&limits.Like.MarkerTTL, file.Like.MarkerTTL)
	merge(&limits.Ranking.DefaultMaxEntries, file.Ranking.DefaultMaxEntries)
	merge(&limits.Ranking.MaxEntriesCap, file.Ranking.MaxEntriesCap)
	merge(&limits.Ranking.CooldownTTL, file.Ranking.CooldownTTL)
	merge(&limits.BBS.DefaultPageSize, file.BBS.DefaultPageSize)
	merge(&limits.BBS.PageSizeCap, file.BBS.PageSizeCap)
	merge(&limits.BBS.DefaultMaxMessages, file.BBS.DefaultMaxMessages)
	merge(&limits.BBS.MaxMessagesCap, file.BBS.MaxMessagesCap)
	merge(&limits.BBS.CooldownTTL, file.BBS.CooldownTTL)

	if err := limits.validate(); err != nil {
		return DefaultLimits(), err
	}
	return limits, nil
}

func merge[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func (l Limits) validate() error {
	if l.Counter.Ceiling <= 0 || l.Like.Ceiling <= 0 {
		return fmt.Errorf("ceilings must be positive")
	}
	if l.Ranking.DefaultMaxEntries <= 0 || l.Ranking.MaxEntriesCap < l.Ranking.DefaultMaxEntries {
		return fmt.Errorf("ranking entry limits are inconsistent")
	}
	if l.BBS.DefaultPageSize <= 0 || l.BBS.PageSizeCap < l.BBS.DefaultPageSize {
		return fmt.Errorf("bbs page size limits are inconsistent")
	}
	if l.BBS.DefaultMaxMessages <= 0 || l.BBS.MaxMessagesCap < l.BBS.DefaultMaxMessages {
		return fmt.Errorf("bbs retention limits are inconsistent")
	}
	return nil
}
