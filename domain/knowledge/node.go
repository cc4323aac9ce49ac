// Package knowledge holds the core domain model of the knowledge graph:
// nodes, their typed payloads, weighted connections, and the semantic
// feature/vector model used for similarity.
package knowledge

import (
	"time"

	"github.com/google/uuid"

	pkgerrors "knowledge-engine/pkg/errors"
)

// NodeType identifies the kind of artifact a node represents.
// The set is open: unknown types still participate in the graph,
// they just fall back to generic feature extraction.
type NodeType string

const (
	NodeTypeTask          NodeType = "task"
	NodeTypeCode          NodeType = "code"
	NodeTypeDocumentation NodeType = "documentation"
	NodeTypeAgent         NodeType = "agent"
)

// Edge weights are clamped into [MinEdgeWeight, MaxEdgeWeight] after every
// update. A weak edge is demoted toward the floor, never deleted.
const (
	MinEdgeWeight = 0.1
	MaxEdgeWeight = 1.0
)

// Edge is a directed, typed, weighted connection owned by its source node.
// The graph is symmetrized only when an adjacency view is built for metrics.
type Edge struct {
	TargetNodeID string  `json:"targetNodeId"`
	Type         string  `json:"type"`
	Weight       float64 `json:"weight"`
}

// NodeData is the type-tagged payload of a node. Fields are populated per
// node type; extraction tolerates missing or malformed fields.
type NodeData struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
	Language    string   `json:"language,omitempty"`
	Functions   []string `json:"functions,omitempty"`
	Imports     []string `json:"imports,omitempty"`
	Exports     []string `json:"exports,omitempty"`
	Sections    []string `json:"sections,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// KnowledgeNode is one vertex of a project's knowledge graph.
// ID is the persistence identifier owned by the Store; NodeID is the logical
// vertex key, unique within a project, that edges refer to.
type KnowledgeNode struct {
	ID          string                 `json:"id"`
	ProjectID   string                 `json:"projectId"`
	NodeID      string                 `json:"nodeId"`
	NodeType    NodeType               `json:"nodeType"`
	NodeData    NodeData               `json:"nodeData"`
	Connections []Edge                 `json:"connections"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// NewNode creates a node for a project with a fresh persistence ID.
func NewNode(projectID, nodeID string, nodeType NodeType, data NodeData) (*KnowledgeNode, error) {
	if projectID == "" {
		return nil, pkgerrors.NewValidationError("projectId cannot be empty")
	}
	if nodeID == "" {
		return nil, pkgerrors.NewValidationError("nodeId cannot be empty")
	}
	if nodeType == "" {
		return nil, pkgerrors.NewValidationError("nodeType cannot be empty")
	}

	now := time.Now()
	return &KnowledgeNode{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		NodeID:      nodeID,
		NodeType:    nodeType,
		NodeData:    data,
		Connections: []Edge{},
		Metadata:    make(map[string]interface{}),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ClampWeight forces w into the legal edge weight range.
func ClampWeight(w float64) float64 {
	if w < MinEdgeWeight {
		return MinEdgeWeight
	}
	if w > MaxEdgeWeight {
		return MaxEdgeWeight
	}
	return w
}

// Connection returns the outbound edge to target, if one exists.
func (n *KnowledgeNode) Connection(targetNodeID string) (Edge, bool) {
	for _, edge := range n.Connections {
		if edge.TargetNodeID == targetNodeID {
			return edge, true
		}
	}
	return Edge{}, false
}

// HasConnection reports whether an outbound edge to target exists.
func (n *KnowledgeNode) HasConnection(targetNodeID string) bool {
	_, ok := n.Connection(targetNodeID)
	return ok
}

// UpsertConnection adds an edge to target, or merges with an existing one.
// Merging keeps the higher weight and switches the edge type only when the
// incoming edge is strictly stronger, so a node never carries two edges to
// the same target. Returns true when a new edge was appended.
func (n *KnowledgeNode) UpsertConnection(targetNodeID, edgeType string, weight float64) bool {
	weight = ClampWeight(weight)
	for i := range n.Connections {
		if n.Connections[i].TargetNodeID != targetNodeID {
			continue
		}
		if weight > n.Connections[i].Weight {
			n.Connections[i].Weight = weight
			n.Connections[i].Type = edgeType
		}
		n.UpdatedAt = time.Now()
		return false
	}

	n.Connections = append(n.Connections, Edge{
		TargetNodeID: targetNodeID,
		Type:         edgeType,
		Weight:       weight,
	})
	n.UpdatedAt = time.Now()
	return true
}

// ScaleConnectionWeight multiplies the edge weight to target by factor and
// clamps the result. It returns the new weight and whether the edge exists.
func (n *KnowledgeNode) ScaleConnectionWeight(targetNodeID string, factor float64) (float64, bool) {
	for i := range n.Connections {
		if n.Connections[i].TargetNodeID != targetNodeID {
			continue
		}
		n.Connections[i].Weight = ClampWeight(n.Connections[i].Weight * factor)
		n.UpdatedAt = time.Now()
		return n.Connections[i].Weight, true
	}
	return 0, false
}

// CloneConnections returns an independent copy of the outbound edge list.
// Graph views are built from copies so query-time structures never alias
// the node being mutated by an evolution pass.
func (n *KnowledgeNode) CloneConnections() []Edge {
	out := make([]Edge, len(n.Connections))
	copy(out, n.Connections)
	return out
}

// Clone returns a deep copy of the node.
func (n *KnowledgeNode) Clone() *KnowledgeNode {
	clone := *n
	clone.Connections = n.CloneConnections()
	if n.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(n.Metadata))
		for k, v := range n.Metadata {
			clone.Metadata[k] = v
		}
	}
	clone.NodeData = n.NodeData
	clone.NodeData.Functions = append([]string(nil), n.NodeData.Functions...)
	clone.NodeData.Imports = append([]string(nil), n.NodeData.Imports...)
	clone.NodeData.Exports = append([]string(nil), n.NodeData.Exports...)
	clone.NodeData.Sections = append([]string(nil), n.NodeData.Sections...)
	return &clone
}
