package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"knowledge-engine/domain/graph"
	"knowledge-engine/domain/knowledge"
	"knowledge-engine/pkg/cache"
	pkgerrors "knowledge-engine/pkg/errors"
	"knowledge-engine/tests/fixtures"
)

// Shared helpers for the engine tests in this package.

func testCache() *cache.Cache {
	return cache.New(time.Minute)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func codeNode(nodeID, content string) *knowledge.KnowledgeNode {
	return fixtures.NewNodeBuilder().
		WithProjectID("p1").
		WithNodeID(nodeID).
		WithCode(content, "go").
		MustBuild()
}

const parserSource = "func alpha() {}\nfunc beta() {}\nfunc gamma() {}\n"

func TestSimilarityEngine_SelfSimilarity(t *testing.T) {
	engine := NewSimilarityEngine(testCache(), testLogger())
	ix := graph.NewIndex(fixtures.TaskCodeDocProject("p1"))

	result, err := engine.Analyze(ix, "p1", "T1", "T1")
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Similarity)
	assert.Equal(t, 0, result.SemanticDistance)
	assert.Equal(t, 1.0, result.RelationshipStrength)
}

func TestSimilarityEngine_NodeNotFound(t *testing.T) {
	engine := NewSimilarityEngine(testCache(), testLogger())
	ix := graph.NewIndex(fixtures.TaskCodeDocProject("p1"))

	_, err := engine.Analyze(ix, "p1", "T1", "missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = engine.Analyze(ix, "p1", "missing", "T1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSimilarityEngine_IdenticalContent(t *testing.T) {
	engine := NewSimilarityEngine(testCache(), testLogger())
	ix := graph.NewIndex([]*knowledge.KnowledgeNode{
		codeNode("A", parserSource),
		codeNode("B", parserSource),
	})

	result, err := engine.Analyze(ix, "p1", "A", "B")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, result.Similarity, 1e-9)
	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, result.CommonConcepts)
	assert.Equal(t, -1, result.SemanticDistance)
	assert.Equal(t, 0.0, result.RelationshipStrength)
}

func TestSimilarityEngine_DirectEdgeStrength(t *testing.T) {
	a := codeNode("A", parserSource)
	a.UpsertConnection("B", "relates_to", 0.4)
	b := codeNode("B", parserSource)

	engine := NewSimilarityEngine(testCache(), testLogger())
	ix := graph.NewIndex([]*knowledge.KnowledgeNode{a, b})

	result, err := engine.Analyze(ix, "p1", "A", "B")
	require.NoError(t, err)
	assert.Equal(t, 0.4, result.RelationshipStrength)
	assert.Equal(t, 1, result.SemanticDistance)

	// The edge counts in either direction.
	reverse, err := engine.Analyze(ix, "p1", "B", "A")
	require.NoError(t, err)
	assert.Equal(t, 0.4, reverse.RelationshipStrength)
}

func TestSimilarityEngine_MutualNeighborStrength(t *testing.T) {
	a := codeNode("A", parserSource)
	a.UpsertConnection("M", "uses", 0.5)
	b := codeNode("B", parserSource)
	b.UpsertConnection("M", "uses", 0.5)
	m := codeNode("M", "")

	engine := NewSimilarityEngine(testCache(), testLogger())
	ix := graph.NewIndex([]*knowledge.KnowledgeNode{a, b, m})

	result, err := engine.Analyze(ix, "p1", "A", "B")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, result.RelationshipStrength, 1e-9)
	assert.Equal(t, 2, result.SemanticDistance)
}

func TestSimilarityEngine_CachesByUnorderedPair(t *testing.T) {
	engine := NewSimilarityEngine(testCache(), testLogger())
	ix := graph.NewIndex([]*knowledge.KnowledgeNode{
		codeNode("A", parserSource),
		codeNode("B", parserSource),
	})

	first, err := engine.Analyze(ix, "p1", "A", "B")
	require.NoError(t, err)

	second, err := engine.Analyze(ix, "p1", "A", "B")
	require.NoError(t, err)
	assert.Same(t, first, second)

	swapped, err := engine.Analyze(ix, "p1", "B", "A")
	require.NoError(t, err)
	assert.Same(t, first, swapped)
}
