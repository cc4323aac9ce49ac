package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "knowledge-engine/pkg/errors"
)

func TestNewNode_Validation(t *testing.T) {
	node, err := NewNode("p1", "n1", NodeTypeTask, NodeData{Title: "t"})
	require.NoError(t, err)
	assert.NotEmpty(t, node.ID)
	assert.Equal(t, "p1", node.ProjectID)
	assert.Equal(t, "n1", node.NodeID)
	assert.Empty(t, node.Connections)

	_, err = NewNode("", "n1", NodeTypeTask, NodeData{})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewNode("p1", "", NodeTypeTask, NodeData{})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewNode("p1", "n1", "", NodeData{})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestClampWeight(t *testing.T) {
	assert.Equal(t, MinEdgeWeight, ClampWeight(0))
	assert.Equal(t, MinEdgeWeight, ClampWeight(-3))
	assert.Equal(t, MaxEdgeWeight, ClampWeight(2.5))
	assert.Equal(t, 0.5, ClampWeight(0.5))
}

func TestUpsertConnection_MergesDuplicates(t *testing.T) {
	node, err := NewNode("p1", "a", NodeTypeCode, NodeData{})
	require.NoError(t, err)

	added := node.UpsertConnection("b", "uses", 0.4)
	assert.True(t, added)

	// Weaker duplicate keeps the existing edge untouched.
	added = node.UpsertConnection("b", "relates_to", 0.2)
	assert.False(t, added)
	require.Len(t, node.Connections, 1)
	assert.Equal(t, "uses", node.Connections[0].Type)
	assert.Equal(t, 0.4, node.Connections[0].Weight)

	// Stronger duplicate wins weight and type.
	added = node.UpsertConnection("b", "generates", 0.9)
	assert.False(t, added)
	require.Len(t, node.Connections, 1)
	assert.Equal(t, "generates", node.Connections[0].Type)
	assert.Equal(t, 0.9, node.Connections[0].Weight)
}

func TestUpsertConnection_ClampsWeight(t *testing.T) {
	node, err := NewNode("p1", "a", NodeTypeCode, NodeData{})
	require.NoError(t, err)

	node.UpsertConnection("b", "uses", 7.0)
	assert.Equal(t, MaxEdgeWeight, node.Connections[0].Weight)

	node.UpsertConnection("c", "uses", 0.0)
	edge, ok := node.Connection("c")
	require.True(t, ok)
	assert.Equal(t, MinEdgeWeight, edge.Weight)
}

func TestScaleConnectionWeight(t *testing.T) {
	node, err := NewNode("p1", "a", NodeTypeCode, NodeData{})
	require.NoError(t, err)
	node.UpsertConnection("b", "uses", 0.5)

	weight, ok := node.ScaleConnectionWeight("b", 1.1)
	require.True(t, ok)
	assert.InDelta(t, 0.55, weight, 1e-9)

	// Repeated demotion stops at the floor instead of deleting the edge.
	for i := 0; i < 50; i++ {
		node.ScaleConnectionWeight("b", 0.9)
	}
	edge, _ := node.Connection("b")
	assert.Equal(t, MinEdgeWeight, edge.Weight)

	_, ok = node.ScaleConnectionWeight("missing", 1.1)
	assert.False(t, ok)
}

func TestClone_IsIndependent(t *testing.T) {
	node, err := NewNode("p1", "a", NodeTypeCode, NodeData{Functions: []string{"foo"}})
	require.NoError(t, err)
	node.UpsertConnection("b", "uses", 0.5)
	node.Metadata["k"] = "v"

	clone := node.Clone()
	clone.UpsertConnection("c", "uses", 0.5)
	clone.Connections[0].Weight = 0.9
	clone.Metadata["k"] = "changed"
	clone.NodeData.Functions[0] = "bar"

	assert.Len(t, node.Connections, 1)
	assert.Equal(t, 0.5, node.Connections[0].Weight)
	assert.Equal(t, "v", node.Metadata["k"])
	assert.Equal(t, "foo", node.NodeData.Functions[0])
}
