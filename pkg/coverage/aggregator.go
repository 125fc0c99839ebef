package coverage

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

// Aggregator computes project coverage statistics, the per-module breakdown,
// and the gap list. All operations are pure reads.
type Aggregator struct {
	logger   *zap.Logger
	features FeatureSource
	cases    TestCaseSource
	links    LinkStore
}

// NewAggregator creates a new coverage aggregator
func NewAggregator(logger *zap.Logger, features FeatureSource, cases TestCaseSource, links LinkStore) *Aggregator {
	return &Aggregator{
		logger:   logger,
		features: features,
		cases:    cases,
		links:    links,
	}
}

// isEligibleForCoverage is the single predicate deciding whether a feature
// participates in coverage computation. Future eligibility rules (archived
// features, etc.) belong here and nowhere else.
func isEligibleForCoverage(f models.Feature) bool {
	return f.IsActive
}

// projectGraph is one consistent read of the feature/test-case association.
type projectGraph struct {
	features []models.Feature
	linked   map[string][]string // feature ID -> linked test case IDs
	cases    []models.TestCase
}

func (a *Aggregator) load(ctx context.Context, workspaceID, projectID string) (*projectGraph, error) {
	features, err := a.features.ListActive(ctx, workspaceID, projectID)
	if err != nil {
		return nil, err
	}
	linked, err := a.links.CaseIDsByProject(ctx, workspaceID, projectID)
	if err != nil {
		return nil, err
	}
	cases, err := a.cases.ListByProject(ctx, workspaceID, projectID)
	if err != nil {
		return nil, err
	}

	eligible := features[:0]
	for _, f := range features {
		if isEligibleForCoverage(f) {
			eligible = append(eligible, f)
		}
	}

	return &projectGraph{features: eligible, linked: linked, cases: cases}, nil
}

func roundPercentage(covered, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(covered) / float64(total) * 100))
}

// OverallCoverage returns round(covered/total*100) over active features, and
// 0 when the project has no active features.
func (a *Aggregator) OverallCoverage(ctx context.Context, workspaceID, projectID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "coverage.Aggregator.OverallCoverage")
	defer span.End()

	graph, err := a.load(ctx, workspaceID, projectID)
	if err != nil {
		return 0, err
	}

	covered := 0
	for _, f := range graph.features {
		if len(graph.linked[f.ID]) > 0 {
			covered++
		}
	}
	return roundPercentage(covered, len(graph.features)), nil
}

// CoverageByModule groups active features by module tag and computes per-module
// coverage. The grouping is a partition: each feature lands in exactly one
// bucket, keyed by its first module tag, or "Uncategorized" when it has none.
// Summing TotalFeatures across buckets always equals the active feature count.
//
// TestCasesCount sums, per feature, the full sizes of the distinct suites
// containing that feature's linked cases, without deduplicating across
// features. A suite reached through two features in the same module counts
// twice. Intentional: this mirrors the product's historical reporting.
func (a *Aggregator) CoverageByModule(ctx context.Context, workspaceID, projectID string) ([]models.ModuleCoverage, error) {
	ctx, span := tracing.StartSpan(ctx, "coverage.Aggregator.CoverageByModule")
	defer span.End()

	graph, err := a.load(ctx, workspaceID, projectID)
	if err != nil {
		return nil, err
	}

	suiteSize := make(map[string]int)
	caseSuite := make(map[string]string, len(graph.cases))
	for _, tc := range graph.cases {
		suiteSize[tc.SuiteID]++
		caseSuite[tc.ID] = tc.SuiteID
	}

	buckets := make(map[string]*models.ModuleCoverage)
	for _, f := range graph.features {
		module := models.ModuleUncategorized
		if len(f.Modules) > 0 {
			module = f.Modules[0]
		}

		linkedCases := graph.linked[f.ID]
		featureSuites := make(map[string]bool)
		for _, caseID := range linkedCases {
			if suiteID, ok := caseSuite[caseID]; ok {
				featureSuites[suiteID] = true
			}
		}
		featureCaseCount := 0
		for suiteID := range featureSuites {
			featureCaseCount += suiteSize[suiteID]
		}

		bucket, ok := buckets[module]
		if !ok {
			bucket = &models.ModuleCoverage{Module: module}
			buckets[module] = bucket
		}
		bucket.TotalFeatures++
		if len(linkedCases) > 0 {
			bucket.CoveredFeatures++
		}
		bucket.TestCasesCount += featureCaseCount
	}

	result := make([]models.ModuleCoverage, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.CoveragePercentage = roundPercentage(bucket.CoveredFeatures, bucket.TotalFeatures)
		result = append(result, *bucket)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Module < result[j].Module })

	return result, nil
}

// Gaps returns the active features with zero linked test cases, in feature
// name order. Recomputed on every call, never stored.
func (a *Aggregator) Gaps(ctx context.Context, workspaceID, projectID string) ([]models.Gap, error) {
	ctx, span := tracing.StartSpan(ctx, "coverage.Aggregator.Gaps")
	defer span.End()

	graph, err := a.load(ctx, workspaceID, projectID)
	if err != nil {
		return nil, err
	}

	gaps := make([]models.Gap, 0)
	for _, f := range graph.features {
		if len(graph.linked[f.ID]) > 0 {
			continue
		}
		var module *string
		if len(f.Modules) > 0 {
			m := f.Modules[0]
			module = &m
		}
		gaps = append(gaps, models.Gap{
			ID:          f.ID,
			Feature:     f.Name,
			Description: f.Description,
			Module:      module,
			Category:    f.Category,
			Priority:    string(f.Priority),
		})
	}
	return gaps, nil
}

// Statistics is the composite summary: overall coverage, feature counts, the
// project-wide test case total (unscoped by links), and the gap count.
func (a *Aggregator) Statistics(ctx context.Context, workspaceID, projectID string) (*models.CoverageStatistics, error) {
	ctx, span := tracing.StartSpan(ctx, "coverage.Aggregator.Statistics")
	defer span.End()

	log := a.logger.With(
		zap.String("workspace_id", workspaceID),
		zap.String("project_id", projectID),
	)

	graph, err := a.load(ctx, workspaceID, projectID)
	if err != nil {
		return nil, err
	}

	totalCases, err := a.cases.CountByProject(ctx, workspaceID, projectID)
	if err != nil {
		return nil, err
	}

	covered := 0
	for _, f := range graph.features {
		if len(graph.linked[f.ID]) > 0 {
			covered++
		}
	}
	total := len(graph.features)

	stats := &models.CoverageStatistics{
		OverallCoverage:   roundPercentage(covered, total),
		TotalFeatures:     total,
		CoveredFeatures:   covered,
		UncoveredFeatures: total - covered,
		TotalTestCases:    totalCases,
		GapsCount:         total - covered,
	}

	log.Debug("Computed coverage statistics",
		zap.Int("overall_coverage", stats.OverallCoverage),
		zap.Int("total_features", stats.TotalFeatures),
		zap.Int("gaps_count", stats.GapsCount))
	return stats, nil
}
