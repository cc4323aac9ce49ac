// Package ports declares the interfaces of the engine's external
// collaborators. Persistence and usage measurement live outside this
// module; the engine only depends on these contracts.
package ports

import (
	"context"
	"time"

	"knowledge-engine/domain/knowledge"
)

// Store persists knowledge nodes. Implementations must provide
// read-after-write consistency within a single process: a node created or
// updated through this interface is visible to the next GetNodes call.
//
// Failures are propagated to callers unchanged; the engine performs no
// retries of its own.
type Store interface {
	// GetNodes returns all nodes of a project.
	GetNodes(ctx context.Context, projectID string) ([]*knowledge.KnowledgeNode, error)

	// CreateNode persists a new node and returns the stored representation.
	CreateNode(ctx context.Context, node *knowledge.KnowledgeNode) (*knowledge.KnowledgeNode, error)

	// UpdateNode applies a partial update to the node with the given
	// persistence ID and returns the stored representation.
	UpdateNode(ctx context.Context, id string, update NodeUpdate) (*knowledge.KnowledgeNode, error)
}

// NodeUpdate is the mutable subset of a node the engine writes back.
// Nil fields are left untouched.
type NodeUpdate struct {
	Connections []knowledge.Edge
	Metadata    map[string]interface{}
}

// UsageStat is an externally measured signal of how often an edge is
// traversed. The engine treats it as ground truth for edge reinforcement
// and does not define how it is measured.
type UsageStat struct {
	Frequency float64 // in [0, 1]
	LastUsed  *time.Time
}

// UsageSignal supplies per-edge usage statistics to the evolution engine.
type UsageSignal interface {
	Frequency(ctx context.Context, projectID, fromNodeID, toNodeID string) (UsageStat, error)
}
