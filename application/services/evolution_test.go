package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"knowledge-engine/application/ports"
	"knowledge-engine/domain/knowledge"
	"knowledge-engine/infrastructure/persistence/memory"
	"knowledge-engine/pkg/cache"
	"knowledge-engine/tests/fixtures"
	"knowledge-engine/tests/mocks"
)

func newEvolutionEngine(store ports.Store, usage ports.UsageSignal, c *cache.Cache) *EvolutionEngine {
	logger := testLogger()
	similarity := NewSimilarityEngine(c, logger)
	suggester := NewConnectionSuggester(similarity, defaultRules(), logger)
	metrics := NewMetricsEngine(c, logger)
	return NewEvolutionEngine(store, usage, suggester, metrics, c, logger)
}

func seedStore(t *testing.T, store *memory.Store, nodes ...*knowledge.KnowledgeNode) {
	t.Helper()
	for _, node := range nodes {
		_, err := store.CreateNode(context.Background(), node)
		require.NoError(t, err)
	}
}

func TestEvolutionEngine_PromotesHighConfidenceSuggestions(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store, codeNode("A", parserSource), codeNode("B", parserSource))

	engine := newEvolutionEngine(store, mocks.FixedUsage{Value: 0.5}, testCache())

	result, err := engine.Evolve(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.NewConnections)
	assert.Equal(t, 0, result.StrengthenedConnections)
	assert.Equal(t, 0, result.WeakenedConnections)

	nodes, err := store.GetNodes(context.Background(), "p1")
	require.NoError(t, err)
	for _, node := range nodes {
		require.Len(t, node.Connections, 1)
		assert.Equal(t, "relates_to", node.Connections[0].Type)
		assert.Equal(t, 1.0, node.Connections[0].Weight)
	}

	// Once promoted, the pair is connected and a second pass finds nothing.
	again, err := engine.Evolve(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.NewConnections)
}

func TestEvolutionEngine_ReinforcesToCeiling(t *testing.T) {
	a := codeNode("A", "")
	a.UpsertConnection("B", "uses", 0.5)
	store := memory.NewStore()
	seedStore(t, store, a, codeNode("B", ""))

	engine := newEvolutionEngine(store, mocks.FixedUsage{Value: 0.9}, testCache())

	var last *EvolutionResult
	for i := 0; i < 12; i++ {
		result, err := engine.Evolve(context.Background(), "p1")
		require.NoError(t, err)
		last = result
	}

	// Weights converge to the ceiling and then stop changing.
	assert.Equal(t, 0, last.StrengthenedConnections)

	nodes, err := store.GetNodes(context.Background(), "p1")
	require.NoError(t, err)
	for _, node := range nodes {
		if node.NodeID != "A" {
			continue
		}
		require.Len(t, node.Connections, 1)
		assert.Equal(t, knowledge.MaxEdgeWeight, node.Connections[0].Weight)
	}
}

func TestEvolutionEngine_DemotesToFloor(t *testing.T) {
	a := codeNode("A", "")
	a.UpsertConnection("B", "uses", 0.5)
	store := memory.NewStore()
	seedStore(t, store, a, codeNode("B", ""))

	engine := newEvolutionEngine(store, mocks.FixedUsage{Value: 0.1}, testCache())

	first, err := engine.Evolve(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.WeakenedConnections)

	for i := 0; i < 20; i++ {
		_, err := engine.Evolve(context.Background(), "p1")
		require.NoError(t, err)
	}

	nodes, err := store.GetNodes(context.Background(), "p1")
	require.NoError(t, err)
	// Demotion bottoms out at the floor, the edge is never removed.
	require.Len(t, nodes[0].Connections, 1)
	assert.Equal(t, knowledge.MinEdgeWeight, nodes[0].Connections[0].Weight)
}

func TestEvolutionEngine_NeutralUsageLeavesWeights(t *testing.T) {
	a := codeNode("A", "")
	a.UpsertConnection("B", "uses", 0.5)
	store := memory.NewStore()
	seedStore(t, store, a, codeNode("B", ""))

	engine := newEvolutionEngine(store, mocks.FixedUsage{Value: 0.5}, testCache())

	result, err := engine.Evolve(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.StrengthenedConnections)
	assert.Equal(t, 0, result.WeakenedConnections)

	nodes, err := store.GetNodes(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0.5, nodes[0].Connections[0].Weight)
}

func TestEvolutionEngine_UsageSignalErrorAborts(t *testing.T) {
	a := codeNode("A", "")
	a.UpsertConnection("B", "uses", 0.5)
	store := memory.NewStore()
	seedStore(t, store, a, codeNode("B", ""))

	signalErr := errors.New("usage backend down")
	usage := new(mocks.MockUsageSignal)
	usage.On("Frequency", mock.Anything, "p1", "A", "B").Return(ports.UsageStat{}, signalErr)

	engine := newEvolutionEngine(store, usage, testCache())

	result, err := engine.Evolve(context.Background(), "p1")
	require.ErrorIs(t, err, signalErr)
	assert.Equal(t, 0, result.StrengthenedConnections)
	assert.Equal(t, 0, result.WeakenedConnections)
	usage.AssertExpectations(t)
}

func TestEvolutionEngine_PartialPersistenceFailure(t *testing.T) {
	nodeA := codeNode("A", parserSource)
	nodeB := codeNode("B", parserSource)

	updateErr := errors.New("write refused")
	store := new(mocks.MockStore)
	store.On("GetNodes", mock.Anything, "p1").
		Return([]*knowledge.KnowledgeNode{nodeA, nodeB}, nil)
	store.On("UpdateNode", mock.Anything, nodeA.ID, mock.Anything).Return(nodeA, nil)
	store.On("UpdateNode", mock.Anything, nodeB.ID, mock.Anything).Return(nil, updateErr)

	engine := newEvolutionEngine(store, mocks.FixedUsage{Value: 0.5}, testCache())

	result, err := engine.Evolve(context.Background(), "p1")
	require.ErrorIs(t, err, updateErr)
	// Only the write that landed is counted.
	assert.Equal(t, 1, result.NewConnections)
	store.AssertExpectations(t)
}

func TestEvolutionEngine_InsightsOnDenseGraph(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store, fixtures.TaskCodeDocProject("p1")...)

	engine := newEvolutionEngine(store, mocks.FixedUsage{Value: 0.5}, testCache())

	result, err := engine.Evolve(context.Background(), "p1")
	require.NoError(t, err)
	assert.Contains(t, result.Insights, "knowledge graph densely connected")
}

func TestEvolutionEngine_InvalidatesProjectCache(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store, codeNode("A", parserSource), codeNode("B", parserSource))

	c := testCache()
	c.Set(similarityCacheKey("p1", "X", "Y"), &SimilarityResult{})
	c.Set(metricsCacheKey("other"), &GraphMetrics{})

	engine := newEvolutionEngine(store, mocks.FixedUsage{Value: 0.5}, c)

	_, err := engine.Evolve(context.Background(), "p1")
	require.NoError(t, err)

	// Stale entries of the evolved project are gone, other projects survive.
	_, hit := c.Get(similarityCacheKey("p1", "X", "Y"))
	assert.False(t, hit)
	_, hit = c.Get(metricsCacheKey("other"))
	assert.True(t, hit)
}
