// Package memory provides an in-memory Store used by tests and by
// embedders that do not need durable persistence. It is read-after-write
// consistent within the process.
package memory

import (
	"context"
	"sync"
	"time"

	"knowledge-engine/application/ports"
	"knowledge-engine/domain/knowledge"
	pkgerrors "knowledge-engine/pkg/errors"
)

// Store is an in-memory implementation of ports.Store.
// All returned nodes are deep copies, so callers can mutate results freely
// and nothing observes a write until UpdateNode persists it.
type Store struct {
	mu       sync.RWMutex
	byID     map[string]*knowledge.KnowledgeNode
	projects map[string][]string // projectID -> persistence IDs, creation order
}

var _ ports.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		byID:     make(map[string]*knowledge.KnowledgeNode),
		projects: make(map[string][]string),
	}
}

// GetNodes returns all nodes of a project in creation order.
func (s *Store) GetNodes(ctx context.Context, projectID string) ([]*knowledge.KnowledgeNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.projects[projectID]
	nodes := make([]*knowledge.KnowledgeNode, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, s.byID[id].Clone())
	}
	return nodes, nil
}

// CreateNode persists a new node. The logical node ID must be unique within
// its project.
func (s *Store) CreateNode(ctx context.Context, node *knowledge.KnowledgeNode) (*knowledge.KnowledgeNode, error) {
	if node == nil || node.ID == "" {
		return nil, pkgerrors.NewValidationError("node must have a persistence id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[node.ID]; exists {
		return nil, pkgerrors.NewConflictError("node id already exists: " + node.ID)
	}
	for _, id := range s.projects[node.ProjectID] {
		if s.byID[id].NodeID == node.NodeID {
			return nil, pkgerrors.NewConflictError("nodeId already exists in project: " + node.NodeID)
		}
	}

	stored := node.Clone()
	s.byID[stored.ID] = stored
	s.projects[stored.ProjectID] = append(s.projects[stored.ProjectID], stored.ID)

	return stored.Clone(), nil
}

// UpdateNode applies a partial update to a node by persistence ID.
func (s *Store) UpdateNode(ctx context.Context, id string, update ports.NodeUpdate) (*knowledge.KnowledgeNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.byID[id]
	if !exists {
		return nil, pkgerrors.NewNotFoundError("node " + id)
	}

	if update.Connections != nil {
		stored.Connections = append([]knowledge.Edge(nil), update.Connections...)
	}
	if update.Metadata != nil {
		if stored.Metadata == nil {
			stored.Metadata = make(map[string]interface{}, len(update.Metadata))
		}
		for k, v := range update.Metadata {
			stored.Metadata[k] = v
		}
	}
	stored.UpdatedAt = time.Now()

	return stored.Clone(), nil
}
