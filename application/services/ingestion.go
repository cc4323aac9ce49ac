package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"knowledge-engine/application/ports"
	"knowledge-engine/domain/knowledge"
	"knowledge-engine/pkg/cache"
	pkgerrors "knowledge-engine/pkg/errors"
)

// TaskArtifact is the task half of an artifact pair produced by the
// orchestration pipeline.
type TaskArtifact struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority"`
	Status        string   `json:"status"`
	AssignedAgent string   `json:"assignedAgent,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"`
}

// OutputArtifact is one produced output of a task: generated code or
// documentation.
type OutputArtifact struct {
	Type     knowledge.NodeType `json:"type"`
	Content  string             `json:"content"`
	Language string             `json:"language,omitempty"`
	Sections []string           `json:"sections,omitempty"`
}

// Edge types and weights NodeIngestion assigns when linking artifacts.
const (
	dependencyEdgeType   = "depends_on"
	dependencyEdgeWeight = 0.8

	generatedByEdgeType = "generated_by"
	documentsEdgeType   = "documents"
	outputEdgeWeight    = 1.0
)

// NodeIngestion converts produced artifacts into graph nodes: one task node
// linked to its dependencies, plus one node per output linked back to the
// task. Feature extraction downstream is best-effort, so a malformed payload
// never blocks node creation.
type NodeIngestion struct {
	store  ports.Store
	cache  *cache.Cache
	logger *zap.Logger
}

// NewNodeIngestion creates an ingestion adapter.
func NewNodeIngestion(store ports.Store, cache *cache.Cache, logger *zap.Logger) *NodeIngestion {
	return &NodeIngestion{store: store, cache: cache, logger: logger}
}

// IngestArtifact stores the nodes for one {task, outputs} artifact pair and
// returns them in creation order: task first, outputs after. Nodes created
// before a Store failure remain stored; the error is propagated unchanged.
func (i *NodeIngestion) IngestArtifact(ctx context.Context, projectID string, task TaskArtifact, outputs []OutputArtifact) ([]*knowledge.KnowledgeNode, error) {
	if projectID == "" {
		return nil, pkgerrors.NewValidationError("projectId cannot be empty")
	}
	if task.ID == "" {
		return nil, pkgerrors.NewValidationError("task id cannot be empty")
	}

	defer i.cache.DeletePrefix(projectCachePrefix(projectID))

	taskNode, err := i.buildTaskNode(projectID, task)
	if err != nil {
		return nil, err
	}

	created := []*knowledge.KnowledgeNode{}
	stored, err := i.store.CreateNode(ctx, taskNode)
	if err != nil {
		return created, err
	}
	created = append(created, stored)

	for idx, output := range outputs {
		outputNode, err := i.buildOutputNode(projectID, task, output, idx)
		if err != nil {
			i.logger.Warn("Skipping malformed output artifact",
				zap.String("projectID", projectID),
				zap.String("taskID", task.ID),
				zap.Int("output", idx),
				zap.Error(err),
			)
			continue
		}

		stored, err := i.store.CreateNode(ctx, outputNode)
		if err != nil {
			return created, err
		}
		created = append(created, stored)
	}

	i.logger.Info("Ingested artifact",
		zap.String("projectID", projectID),
		zap.String("taskID", task.ID),
		zap.Int("nodes", len(created)),
	)

	return created, nil
}

func (i *NodeIngestion) buildTaskNode(projectID string, task TaskArtifact) (*knowledge.KnowledgeNode, error) {
	node, err := knowledge.NewNode(projectID, taskNodeID(task.ID), knowledge.NodeTypeTask, knowledge.NodeData{
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      task.Status,
	})
	if err != nil {
		return nil, err
	}

	for _, dep := range task.Dependencies {
		if dep == "" {
			continue
		}
		node.UpsertConnection(taskNodeID(dep), dependencyEdgeType, dependencyEdgeWeight)
	}

	node.Metadata["sourceTask"] = task.ID
	if task.AssignedAgent != "" {
		node.Metadata["sourceAgent"] = task.AssignedAgent
	}
	node.Metadata["ingestedAt"] = time.Now().UTC().Format(time.RFC3339)

	return node, nil
}

func (i *NodeIngestion) buildOutputNode(projectID string, task TaskArtifact, output OutputArtifact, idx int) (*knowledge.KnowledgeNode, error) {
	var (
		nodeID   string
		data     knowledge.NodeData
		edgeType string
	)

	switch output.Type {
	case knowledge.NodeTypeCode:
		nodeID = outputNodeID("code", task.ID, idx)
		data = knowledge.NodeData{Content: output.Content, Language: output.Language}
		edgeType = generatedByEdgeType
	case knowledge.NodeTypeDocumentation:
		nodeID = outputNodeID("doc", task.ID, idx)
		data = knowledge.NodeData{Content: output.Content, Sections: output.Sections}
		edgeType = documentsEdgeType
	default:
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unsupported output artifact type %q", output.Type))
	}

	node, err := knowledge.NewNode(projectID, nodeID, output.Type, data)
	if err != nil {
		return nil, err
	}

	// The output points back at the task that produced it.
	node.UpsertConnection(taskNodeID(task.ID), edgeType, outputEdgeWeight)

	node.Metadata["sourceTask"] = task.ID
	if task.AssignedAgent != "" {
		node.Metadata["sourceAgent"] = task.AssignedAgent
	}
	node.Metadata["ingestedAt"] = time.Now().UTC().Format(time.RFC3339)

	return node, nil
}

func taskNodeID(taskID string) string {
	return "task-" + taskID
}

func outputNodeID(kind, taskID string, idx int) string {
	if idx == 0 {
		return fmt.Sprintf("%s-%s", kind, taskID)
	}
	return fmt.Sprintf("%s-%s-%d", kind, taskID, idx)
}
