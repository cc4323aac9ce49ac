// Package fixtures provides builders for test nodes and projects.
package fixtures

import (
	"fmt"

	"knowledge-engine/domain/knowledge"
)

// NodeBuilder helps create test nodes with default values
type NodeBuilder struct {
	projectID string
	nodeID    string
	nodeType  knowledge.NodeType
	data      knowledge.NodeData
	edges     []knowledge.Edge
}

func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{
		projectID: "test-project",
		nodeID:    "node-1",
		nodeType:  knowledge.NodeTypeTask,
		data: knowledge.NodeData{
			Title:       "Test Task",
			Description: "test description",
			Priority:    "medium",
			Status:      "open",
		},
	}
}

func (b *NodeBuilder) WithProjectID(projectID string) *NodeBuilder {
	b.projectID = projectID
	return b
}

func (b *NodeBuilder) WithNodeID(nodeID string) *NodeBuilder {
	b.nodeID = nodeID
	return b
}

func (b *NodeBuilder) WithType(nodeType knowledge.NodeType) *NodeBuilder {
	b.nodeType = nodeType
	return b
}

func (b *NodeBuilder) WithData(data knowledge.NodeData) *NodeBuilder {
	b.data = data
	return b
}

func (b *NodeBuilder) WithCode(content, language string) *NodeBuilder {
	b.nodeType = knowledge.NodeTypeCode
	b.data = knowledge.NodeData{Content: content, Language: language}
	return b
}

func (b *NodeBuilder) WithDocumentation(content string, sections ...string) *NodeBuilder {
	b.nodeType = knowledge.NodeTypeDocumentation
	b.data = knowledge.NodeData{Content: content, Sections: sections}
	return b
}

func (b *NodeBuilder) WithTask(title, description, priority, status string) *NodeBuilder {
	b.nodeType = knowledge.NodeTypeTask
	b.data = knowledge.NodeData{Title: title, Description: description, Priority: priority, Status: status}
	return b
}

func (b *NodeBuilder) WithEdge(target, edgeType string, weight float64) *NodeBuilder {
	b.edges = append(b.edges, knowledge.Edge{TargetNodeID: target, Type: edgeType, Weight: weight})
	return b
}

// Build creates the node or returns an error
func (b *NodeBuilder) Build() (*knowledge.KnowledgeNode, error) {
	node, err := knowledge.NewNode(b.projectID, b.nodeID, b.nodeType, b.data)
	if err != nil {
		return nil, err
	}
	for _, edge := range b.edges {
		node.UpsertConnection(edge.TargetNodeID, edge.Type, edge.Weight)
	}
	return node, nil
}

// MustBuild creates the node or panics; for test setup only
func (b *NodeBuilder) MustBuild() *knowledge.KnowledgeNode {
	node, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("fixture build failed: %v", err))
	}
	return node
}

// TaskCodeDocProject returns the canonical three-node project used across
// the engine tests: task T1, code C1 linked to T1 via generated_by, and
// documentation D1 linked to T1 via documents.
func TaskCodeDocProject(projectID string) []*knowledge.KnowledgeNode {
	t1 := NewNodeBuilder().
		WithProjectID(projectID).
		WithNodeID("T1").
		WithTask("Implement parser", "implement parser module for config files", "high", "done").
		MustBuild()

	c1 := NewNodeBuilder().
		WithProjectID(projectID).
		WithNodeID("C1").
		WithCode("func foo() {}\n", "go").
		WithEdge("T1", "generated_by", 1.0).
		MustBuild()

	d1 := NewNodeBuilder().
		WithProjectID(projectID).
		WithNodeID("D1").
		WithDocumentation("# Setup\ninstall and configure the parser module", "Setup").
		WithEdge("T1", "documents", 1.0).
		MustBuild()

	return []*knowledge.KnowledgeNode{t1, c1, d1}
}
