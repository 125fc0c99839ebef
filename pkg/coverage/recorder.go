package coverage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

// Default and maximum history page sizes.
const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 100
)

// Recorder persists point-in-time coverage snapshots and serves the trend
// history. Snapshots are write-once; there is no update or delete.
type Recorder struct {
	logger     *zap.Logger
	aggregator *Aggregator
	snapshots  SnapshotStore
	observers  []SnapshotObserver
}

// NewRecorder creates a new snapshot recorder
func NewRecorder(logger *zap.Logger, aggregator *Aggregator, snapshots SnapshotStore, observers ...SnapshotObserver) *Recorder {
	return &Recorder{
		logger:     logger,
		aggregator: aggregator,
		snapshots:  snapshots,
		observers:  observers,
	}
}

// CreateSnapshot computes current statistics and stores them together with an
// optional externally produced analysis payload. Fields the payload supplies
// (currently overall_coverage) take precedence over the computed values; the
// payload itself is stored opaquely.
func (r *Recorder) CreateSnapshot(ctx context.Context, workspaceID, projectID string, analysis json.RawMessage) (*models.CoverageSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "coverage.Recorder.CreateSnapshot")
	defer span.End()

	stats, err := r.aggregator.Statistics(ctx, workspaceID, projectID)
	if err != nil {
		return nil, err
	}

	overall := stats.OverallCoverage
	if len(analysis) > 0 {
		var payload models.AnalysisPayload
		if err := json.Unmarshal(analysis, &payload); err == nil && payload.OverallCoverage != nil {
			overall = *payload.OverallCoverage
		}
	} else {
		analysis = json.RawMessage("null")
	}

	snapshot := &models.CoverageSnapshot{
		ID:              uuid.New().String(),
		WorkspaceID:     workspaceID,
		ProjectID:       projectID,
		OverallCoverage: overall,
		TotalFeatures:   stats.TotalFeatures,
		CoveredFeatures: stats.CoveredFeatures,
		TotalTestCases:  stats.TotalTestCases,
		GapsCount:       stats.GapsCount,
		Analysis:        analysis,
		CreatedAt:       time.Now().UTC(),
	}

	if err := r.snapshots.Insert(ctx, snapshot); err != nil {
		return nil, err
	}

	for _, obs := range r.observers {
		obs.SnapshotCreated(ctx, snapshot)
	}

	r.logger.Info("Recorded coverage snapshot",
		zap.String("project_id", projectID),
		zap.String("snapshot_id", snapshot.ID),
		zap.Int("overall_coverage", snapshot.OverallCoverage))
	return snapshot, nil
}

// History returns up to limit trend points, newest first. A non-positive
// limit falls back to the default. Upper bounds are the caller's concern:
// the HTTP layer clamps to its configured maximum, and a second cap here
// would silently override a configured maximum above MaxHistoryLimit.
func (r *Recorder) History(ctx context.Context, workspaceID, projectID string, limit int) ([]models.TrendPoint, error) {
	ctx, span := tracing.StartSpan(ctx, "coverage.Recorder.History")
	defer span.End()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	snapshots, err := r.snapshots.ListRecent(ctx, workspaceID, projectID, limit)
	if err != nil {
		return nil, err
	}

	points := make([]models.TrendPoint, 0, len(snapshots))
	for _, s := range snapshots {
		points = append(points, models.TrendPoint{
			Date:     s.CreatedAt.UTC().Format("2006-01-02"),
			Coverage: s.OverallCoverage,
			Features: s.TotalFeatures,
			Gaps:     s.GapsCount,
		})
	}
	return points, nil
}
