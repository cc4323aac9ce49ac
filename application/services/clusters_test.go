package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-engine/domain/graph"
	"knowledge-engine/domain/knowledge"
	pkgerrors "knowledge-engine/pkg/errors"
	"knowledge-engine/tests/fixtures"
)

func newClusterEngine() *ClusterEngine {
	return NewClusterEngine(NewSimilarityEngine(testCache(), testLogger()), testLogger())
}

func TestClusterEngine_ValidatesThreshold(t *testing.T) {
	engine := newClusterEngine()
	ix := graph.NewIndex(nil)

	_, err := engine.FindClusters(ix, "p1", -0.1)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = engine.FindClusters(ix, "p1", 1.1)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestClusterEngine_GroupsSimilarNeighbors(t *testing.T) {
	// A, B, C share identical content and form a chain; D hangs off A but
	// has nothing in common with it.
	a := codeNode("A", parserSource)
	a.UpsertConnection("B", "relates_to", 0.5)
	b := codeNode("B", parserSource)
	b.UpsertConnection("C", "relates_to", 0.5)
	c := codeNode("C", parserSource)
	d := fixtures.NewNodeBuilder().
		WithProjectID("p1").
		WithNodeID("D").
		WithData(knowledge.NodeData{}).
		WithType(knowledge.NodeTypeCode).
		WithEdge("A", "uses", 0.5).
		MustBuild()

	engine := newClusterEngine()
	ix := graph.NewIndex([]*knowledge.KnowledgeNode{a, b, c, d})

	clusters, err := engine.FindClusters(ix, "p1", 0.8)
	require.NoError(t, err)
	require.Len(t, clusters, 1)

	cluster := clusters[0]
	assert.Equal(t, "cluster-1", cluster.ID)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, cluster.NodeIDs)
	assert.InDelta(t, 1.0, cluster.CohesionScore, 1e-9)
	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, cluster.CentralConcepts)
}

func TestClusterEngine_DiscardsSingletons(t *testing.T) {
	// No pair clears the threshold, so nothing survives.
	a := codeNode("A", "func alpha() {}\n")
	a.UpsertConnection("B", "uses", 0.5)
	b := fixtures.NewNodeBuilder().
		WithProjectID("p1").
		WithNodeID("B").
		WithData(knowledge.NodeData{}).
		WithType(knowledge.NodeTypeCode).
		MustBuild()

	engine := newClusterEngine()
	ix := graph.NewIndex([]*knowledge.KnowledgeNode{a, b})

	clusters, err := engine.FindClusters(ix, "p1", 0.8)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestClusterEngine_EmptyGraph(t *testing.T) {
	engine := newClusterEngine()

	clusters, err := engine.FindClusters(graph.NewIndex(nil), "p1", 0.5)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}
