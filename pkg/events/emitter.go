// Package events publishes coverage lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/kafka"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

// Emitter publishes coverage events. It satisfies the engine's link and
// snapshot observer interfaces; emission is best effort and never fails the
// operation that triggered it.
type Emitter struct {
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger *zap.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// LinkCreated emits a coverage.feature.linked event for a new edge
func (e *Emitter) LinkCreated(ctx context.Context, workspaceID string, feature models.Feature, testCase models.TestCase) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.LinkCreated")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version":  SchemaVersion,
		"feature_id":      feature.ID,
		"feature_name":    feature.Name,
		"test_case_id":    testCase.ID,
		"test_case_title": testCase.Title,
	})

	event := &kafka.CoverageEvent{
		EventType:   EventFeatureLinked,
		WorkspaceID: workspaceID,
		ProjectID:   feature.ProjectID,
		SubjectID:   feature.ID,
		Data:        data,
	}

	if err := e.producer.Publish(ctx, event); err != nil {
		e.logger.Error("Failed to emit feature linked event",
			zap.Error(err),
			zap.String("feature_id", feature.ID))
	}
}

// SnapshotCreated emits a coverage.snapshot.created event
func (e *Emitter) SnapshotCreated(ctx context.Context, snapshot *models.CoverageSnapshot) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.SnapshotCreated")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version":   SchemaVersion,
		"overall_coverage": snapshot.OverallCoverage,
		"total_features":   snapshot.TotalFeatures,
		"covered_features": snapshot.CoveredFeatures,
		"gaps_count":       snapshot.GapsCount,
	})

	event := &kafka.CoverageEvent{
		EventType:   EventSnapshotCreated,
		WorkspaceID: snapshot.WorkspaceID,
		ProjectID:   snapshot.ProjectID,
		SubjectID:   snapshot.ID,
		Data:        data,
	}

	if err := e.producer.Publish(ctx, event); err != nil {
		e.logger.Error("Failed to emit snapshot created event",
			zap.Error(err),
			zap.String("snapshot_id", snapshot.ID))
	}
}

// EmitRunCompleted emits a coverage.run.completed event once a runner's
// results are recorded.
func (e *Emitter) EmitRunCompleted(ctx context.Context, run *models.TestRun) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"status":         run.Status,
		"total_cases":    run.TotalCases,
		"passed_count":   run.PassedCount,
		"failed_count":   run.FailedCount,
		"skipped_count":  run.SkippedCount,
	})

	event := &kafka.CoverageEvent{
		EventType:   EventRunCompleted,
		WorkspaceID: run.WorkspaceID,
		ProjectID:   run.ProjectID,
		SubjectID:   run.ID,
		Data:        data,
	}

	if err := e.producer.Publish(ctx, event); err != nil {
		e.logger.Error("Failed to emit run completed event",
			zap.Error(err),
			zap.String("run_id", run.ID))
	}
}
