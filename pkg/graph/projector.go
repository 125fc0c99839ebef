package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

// Projector mirrors features, test cases, and their COVERS edges into the
// graph database. It satisfies the engine's link observer interface, so every
// new edge is projected as it is created. Projection is best effort; Postgres
// stays the source of truth.
type Projector struct {
	client *Client
	logger *zap.Logger
}

// NewProjector creates a new coverage graph projector
func NewProjector(client *Client, logger *zap.Logger) *Projector {
	return &Projector{
		client: client,
		logger: logger,
	}
}

// UpsertFeature creates or updates a feature node
func (p *Projector) UpsertFeature(ctx context.Context, feature models.Feature) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.UpsertFeature")
	defer span.End()

	cypher := `
		MERGE (f:Feature {id: $id, workspace_id: $workspace_id})
		SET f.project_id = $project_id,
			f.name = $name,
			f.modules = $modules,
			f.priority = $priority,
			f.is_active = $is_active
		RETURN f
	`

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":           feature.ID,
			"workspace_id": feature.WorkspaceID,
			"project_id":   feature.ProjectID,
			"name":         feature.Name,
			"modules":      []string(feature.Modules),
			"priority":     string(feature.Priority),
			"is_active":    feature.IsActive,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		p.logger.Error("Failed to upsert feature node",
			zap.Error(err),
			zap.String("feature_id", feature.ID))
		return fmt.Errorf("failed to upsert feature node: %w", err)
	}

	return nil
}

// UpsertTestCase creates or updates a test case node
func (p *Projector) UpsertTestCase(ctx context.Context, testCase models.TestCase) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.UpsertTestCase")
	defer span.End()

	cypher := `
		MERGE (t:TestCase {id: $id, workspace_id: $workspace_id})
		SET t.suite_id = $suite_id,
			t.title = $title,
			t.automation_status = $automation_status
		RETURN t
	`

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":                testCase.ID,
			"workspace_id":      testCase.WorkspaceID,
			"suite_id":          testCase.SuiteID,
			"title":             testCase.Title,
			"automation_status": testCase.AutomationStatus,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		p.logger.Error("Failed to upsert test case node",
			zap.Error(err),
			zap.String("test_case_id", testCase.ID))
		return fmt.Errorf("failed to upsert test case node: %w", err)
	}

	return nil
}

// LinkCreated projects a new feature/test-case edge. Both endpoints are
// upserted first so the edge always lands.
func (p *Projector) LinkCreated(ctx context.Context, workspaceID string, feature models.Feature, testCase models.TestCase) {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.LinkCreated")
	defer span.End()

	if err := p.UpsertFeature(ctx, feature); err != nil {
		return
	}
	if err := p.UpsertTestCase(ctx, testCase); err != nil {
		return
	}

	cypher := `
		MATCH (t:TestCase {id: $test_case_id, workspace_id: $workspace_id})
		MATCH (f:Feature {id: $feature_id, workspace_id: $workspace_id})
		MERGE (t)-[r:COVERS]->(f)
		RETURN r
	`

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"test_case_id": testCase.ID,
			"feature_id":   feature.ID,
			"workspace_id": workspaceID,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		p.logger.Error("Failed to project coverage edge",
			zap.Error(err),
			zap.String("feature_id", feature.ID),
			zap.String("test_case_id", testCase.ID))
	}
}

// RemoveLink removes a projected edge after a manual detach
func (p *Projector) RemoveLink(ctx context.Context, workspaceID, featureID, testCaseID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.RemoveLink")
	defer span.End()

	cypher := `
		MATCH (t:TestCase {id: $test_case_id, workspace_id: $workspace_id})-[r:COVERS]->(f:Feature {id: $feature_id, workspace_id: $workspace_id})
		DELETE r
	`

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"test_case_id": testCaseID,
			"feature_id":   featureID,
			"workspace_id": workspaceID,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		p.logger.Error("Failed to remove coverage edge", zap.Error(err))
		return fmt.Errorf("failed to remove coverage edge: %w", err)
	}

	return nil
}

// UncoveredFeatures returns the active features in a project with no
// incoming COVERS edge.
func (p *Projector) UncoveredFeatures(ctx context.Context, workspaceID, projectID string) ([]models.Gap, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.UncoveredFeatures")
	defer span.End()

	cypher := `
		MATCH (f:Feature {workspace_id: $workspace_id, project_id: $project_id})
		WHERE f.is_active = true AND NOT ( (:TestCase)-[:COVERS]->(f) )
		RETURN f.id AS id, f.name AS name, f.modules AS modules, f.priority AS priority
		ORDER BY f.name
	`

	records, err := p.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"workspace_id": workspaceID,
			"project_id":   projectID,
		})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		p.logger.Error("Failed to query uncovered features", zap.Error(err))
		return nil, fmt.Errorf("failed to query uncovered features: %w", err)
	}

	rows, _ := records.([]*neo4j.Record)
	gaps := make([]models.Gap, 0, len(rows))
	for _, rec := range rows {
		gap := models.Gap{}
		if id, ok := rec.Get("id"); ok {
			gap.ID, _ = id.(string)
		}
		if name, ok := rec.Get("name"); ok {
			gap.Feature, _ = name.(string)
		}
		if priority, ok := rec.Get("priority"); ok {
			gap.Priority, _ = priority.(string)
		}
		if raw, ok := rec.Get("modules"); ok {
			if modules, ok := raw.([]any); ok && len(modules) > 0 {
				if first, ok := modules[0].(string); ok {
					gap.Module = &first
				}
			}
		}
		gaps = append(gaps, gap)
	}

	return gaps, nil
}
