package coverage

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

// Linker auto-associates test cases with features by title matching. Linking
// only ever adds edges: existing associations, manual or from prior passes,
// are never removed, so the operation is idempotent and safe to re-run after
// new test cases arrive.
type Linker struct {
	logger    *zap.Logger
	features  FeatureSource
	cases     TestCaseSource
	links     LinkStore
	matcher   Matcher
	observers []LinkObserver
}

// NewLinker creates a new auto-link engine. Observers are optional and are
// notified once per newly created edge.
func NewLinker(logger *zap.Logger, features FeatureSource, cases TestCaseSource, links LinkStore, observers ...LinkObserver) *Linker {
	return &Linker{
		logger:    logger,
		features:  features,
		cases:     cases,
		links:     links,
		matcher:   NewMatcher(),
		observers: observers,
	}
}

// AutoLinkFeature links every project test case whose title matches the
// feature's name. Returns the number of edges created; attaching an already
// linked case counts as zero. Features with blank names are skipped so the
// match-everything behavior of an empty substring never fires.
func (l *Linker) AutoLinkFeature(ctx context.Context, workspaceID, projectID string, feature models.Feature) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "coverage.Linker.AutoLinkFeature")
	defer span.End()

	log := l.logger.With(
		zap.String("workspace_id", workspaceID),
		zap.String("project_id", projectID),
		zap.String("feature_id", feature.ID),
		zap.String("feature_name", feature.Name),
	)

	if strings.TrimSpace(feature.Name) == "" {
		log.Warn("Skipping auto-link for feature with blank name")
		return 0, nil
	}

	cases, err := l.cases.ListByProject(ctx, workspaceID, projectID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, tc := range cases {
		if !l.matcher.Matches(feature.Name, tc.Title) {
			continue
		}
		inserted, err := l.links.Attach(ctx, workspaceID, feature.ID, tc.ID, models.FeatureLinkSourceAuto)
		if err != nil {
			return created, err
		}
		if inserted {
			created++
			for _, obs := range l.observers {
				obs.LinkCreated(ctx, workspaceID, feature, tc)
			}
		}
	}

	if created > 0 {
		log.Info("Auto-linked test cases to feature", zap.Int("links_created", created))
	}
	return created, nil
}

// AutoLinkAllFeatures runs AutoLinkFeature over every active feature in the
// project. Each feature's matching is independent, so ordering does not affect
// the final association set.
func (l *Linker) AutoLinkAllFeatures(ctx context.Context, workspaceID, projectID string) (*models.AutoLinkReport, error) {
	ctx, span := tracing.StartSpan(ctx, "coverage.Linker.AutoLinkAllFeatures")
	defer span.End()

	features, err := l.features.ListActive(ctx, workspaceID, projectID)
	if err != nil {
		return nil, err
	}

	report := &models.AutoLinkReport{ByFeature: make(map[string]int)}
	for _, feature := range features {
		if !isEligibleForCoverage(feature) {
			continue
		}
		created, err := l.AutoLinkFeature(ctx, workspaceID, projectID, feature)
		if err != nil {
			return nil, err
		}
		report.FeaturesProcessed++
		report.LinksCreated += created
		if created > 0 {
			report.ByFeature[feature.ID] = created
		}
	}

	l.logger.Info("Auto-link pass complete",
		zap.String("project_id", projectID),
		zap.Int("features_processed", report.FeaturesProcessed),
		zap.Int("links_created", report.LinksCreated))
	return report, nil
}
