package config

import (
	"testing"
)

func TestMatcherSettings_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name     string
		settings MatcherSettings
		expected MatcherSettings
	}{
		{
			name:     "empty settings get defaults",
			settings: MatcherSettings{},
			expected: MatcherSettings{DefaultTopK: 5, DashboardTopK: 3, MaxTopK: 100, Strategy: StrategyRebuild},
		},
		{
			name:     "explicit values are kept",
			settings: MatcherSettings{DefaultTopK: 10, DashboardTopK: 2, MaxTopK: 50, Strategy: "incremental", PoolSize: 4},
			expected: MatcherSettings{DefaultTopK: 10, DashboardTopK: 2, MaxTopK: 50, Strategy: StrategyIncremental, PoolSize: 4},
		},
		{
			name:     "cap raised to cover the defaults",
			settings: MatcherSettings{DefaultTopK: 20, DashboardTopK: 30, MaxTopK: 10},
			expected: MatcherSettings{DefaultTopK: 20, DashboardTopK: 30, MaxTopK: 30, Strategy: StrategyRebuild},
		},
		{
			name:     "strategy is normalized",
			settings: MatcherSettings{Strategy: "  Incremental "},
			expected: MatcherSettings{DefaultTopK: 5, DashboardTopK: 3, MaxTopK: 100, Strategy: StrategyIncremental},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.settings.ApplyDefaults()
			if tt.settings != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, tt.settings)
			}
		})
	}
}

func TestMatcherSettings_Validate(t *testing.T) {
	tests := []struct {
		name           string
		settings       MatcherSettings
		expectedErrors int
	}{
		{
			name:           "defaults are valid",
			settings:       MatcherSettings{},
			expectedErrors: 0,
		},
		{
			name:           "unknown strategy",
			settings:       MatcherSettings{Strategy: "bm25"},
			expectedErrors: 1,
		},
		{
			name:           "negative values",
			settings:       MatcherSettings{DefaultTopK: -1, DashboardTopK: -2, PoolSize: -3},
			expectedErrors: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.settings.ApplyDefaults()

			errors := tt.settings.Validate()

			if len(errors) != tt.expectedErrors {
				t.Errorf("Expected %d errors, got %d. Errors: %v", tt.expectedErrors, len(errors), errors)
			}
		})
	}
}

func TestMatcherSettings_ClampTopK(t *testing.T) {
	settings := MatcherSettings{MaxTopK: 10}

	tests := []struct {
		requested int
		def       int
		expected  int
	}{
		{requested: -1, def: 5, expected: 5},
		{requested: 0, def: 5, expected: 0},
		{requested: 7, def: 5, expected: 7},
		{requested: 11, def: 5, expected: 10},
	}

	for _, tt := range tests {
		if got := settings.ClampTopK(tt.requested, tt.def); got != tt.expected {
			t.Errorf("ClampTopK(%d, %d) = %d, expected %d", tt.requested, tt.def, got, tt.expected)
		}
	}
}
