// Package config provides configuration structures for the lost & found service.
// It defines matcher settings and the YAML-backed service configuration.
package config

import (
	"fmt"
	"strings"
)

// Strategy names accepted by MatcherSettings.Strategy.
const (
	StrategyRebuild     = "rebuild"
	StrategyIncremental = "incremental"
)

// MatcherSettings controls how records are matched against the opposite corpus.
//
// Strategy selects how the vector space is prepared for every request:
// "rebuild" refits from the records the store returns, "incremental" keeps a
// per-type corpus updated on create/delete and checks it against the store
// before use. Both rank identically.
type MatcherSettings struct {
	DefaultTopK   int    `yaml:"default_top_k" json:"default_top_k"`     // Matches returned by submit and /matches when top_k is omitted
	DashboardTopK int    `yaml:"dashboard_top_k" json:"dashboard_top_k"` // Matches per source record on the dashboard
	MaxTopK       int    `yaml:"max_top_k" json:"max_top_k"`             // Upper bound accepted from clients
	Strategy      string `yaml:"strategy" json:"strategy"`               // "rebuild" or "incremental"
	PoolSize      int    `yaml:"pool_size" json:"pool_size"`             // Dashboard workers; 0 means one per CPU
}

// ApplyDefaults applies default values to the matcher settings
func (settings *MatcherSettings) ApplyDefaults() {
	if settings.DefaultTopK == 0 {
		settings.DefaultTopK = 5
	}
	if settings.DashboardTopK == 0 {
		settings.DashboardTopK = 3
	}
	if settings.MaxTopK == 0 {
		settings.MaxTopK = 100
	}

	// A default larger than the cap would be rejected on every request
	if settings.MaxTopK < settings.DefaultTopK {
		settings.MaxTopK = settings.DefaultTopK
	}
	if settings.MaxTopK < settings.DashboardTopK {
		settings.MaxTopK = settings.DashboardTopK
	}

	settings.Strategy = strings.ToLower(strings.TrimSpace(settings.Strategy))
	if settings.Strategy == "" {
		settings.Strategy = StrategyRebuild
	}
}

// Validate returns one message per problem found, or nil.
func (settings *MatcherSettings) Validate() []string {
	var problems []string

	if settings.DefaultTopK < 0 {
		problems = append(problems, fmt.Sprintf("default_top_k must not be negative, got %d", settings.DefaultTopK))
	}
	if settings.DashboardTopK < 0 {
		problems = append(problems, fmt.Sprintf("dashboard_top_k must not be negative, got %d", settings.DashboardTopK))
	}
	if settings.MaxTopK < 0 {
		problems = append(problems, fmt.Sprintf("max_top_k must not be negative, got %d", settings.MaxTopK))
	}
	if settings.PoolSize < 0 {
		problems = append(problems, fmt.Sprintf("pool_size must not be negative, got %d", settings.PoolSize))
	}

	switch settings.Strategy {
	case StrategyRebuild, StrategyIncremental:
	default:
		problems = append(problems, "Invalid strategy '"+settings.Strategy+"' (must be 'rebuild' or 'incremental')")
	}

	return problems
}

// ClampTopK resolves a requested top_k: -1 means "not given" and yields def,
// anything above MaxTopK is capped.
func (settings *MatcherSettings) ClampTopK(requested, def int) int {
	if requested < 0 {
		return def
	}
	if settings.MaxTopK > 0 && requested > settings.MaxTopK {
		return settings.MaxTopK
	}
	return requested
}
