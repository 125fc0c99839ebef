package models

import (
	"encoding/json"
	"time"
)

// ModuleUncategorized is the sentinel bucket for features without a module tag.
const ModuleUncategorized = "Uncategorized"

// CoverageStatistics is the composite project coverage summary.
type CoverageStatistics struct {
	OverallCoverage   int `json:"overall_coverage"`
	TotalFeatures     int `json:"total_features"`
	CoveredFeatures   int `json:"covered_features"`
	UncoveredFeatures int `json:"uncovered_features"`
	TotalTestCases    int `json:"total_test_cases"`
	GapsCount         int `json:"gaps_count"`
}

// ModuleCoverage is the per-module coverage breakdown entry.
type ModuleCoverage struct {
	Module             string `json:"module"`
	TotalFeatures      int    `json:"total_features"`
	CoveredFeatures    int    `json:"covered_features"`
	TestCasesCount     int    `json:"test_cases_count"`
	CoveragePercentage int    `json:"coverage_percentage"`
}

// Gap is an active feature with zero linked test cases. Derived, never stored.
type Gap struct {
	ID          string  `json:"id"`
	Feature     string  `json:"feature"`
	Description *string `json:"description"`
	Module      *string `json:"module"`
	Category    *string `json:"category"`
	Priority    string  `json:"priority"`
}

// CoverageSnapshot is an immutable point-in-time coverage record. The analysis
// payload is produced by an external collaborator and stored opaquely.
type CoverageSnapshot struct {
	ID              string          `json:"id" db:"id"`
	WorkspaceID     string          `json:"workspace_id" db:"workspace_id"`
	ProjectID       string          `json:"project_id" db:"project_id"`
	OverallCoverage int             `json:"overall_coverage" db:"overall_coverage"`
	TotalFeatures   int             `json:"total_features" db:"total_features"`
	CoveredFeatures int             `json:"covered_features" db:"covered_features"`
	TotalTestCases  int             `json:"total_test_cases" db:"total_test_cases"`
	GapsCount       int             `json:"gaps_count" db:"gaps_count"`
	Analysis        json.RawMessage `json:"analysis" db:"analysis"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// AnalysisPayload is the subset of an external analysis this core understands.
// Unknown fields ride along inside the raw payload untouched.
type AnalysisPayload struct {
	OverallCoverage *int     `json:"overall_coverage,omitempty"`
	Summary         *string  `json:"summary,omitempty"`
	Risks           []string `json:"risks,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// CreateSnapshotRequest is the request body for creating a coverage snapshot
type CreateSnapshotRequest struct {
	Analysis json.RawMessage `json:"analysis,omitempty"`
}

// TrendPoint is the compact history projection used by trend charts.
type TrendPoint struct {
	Date     string `json:"date"`
	Coverage int    `json:"coverage"`
	Features int    `json:"features"`
	Gaps     int    `json:"gaps"`
}

// AutoLinkReport summarizes an auto-link pass.
type AutoLinkReport struct {
	FeaturesProcessed int            `json:"features_processed"`
	LinksCreated      int            `json:"links_created"`
	ByFeature         map[string]int `json:"by_feature,omitempty"`
}
