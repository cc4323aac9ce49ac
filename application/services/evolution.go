package services

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"knowledge-engine/application/ports"
	"knowledge-engine/domain/graph"
	"knowledge-engine/domain/knowledge"
	"knowledge-engine/pkg/cache"
)

// EvolutionResult reports what one evolution pass changed.
type EvolutionResult struct {
	NewConnections          int      `json:"newConnections"`
	StrengthenedConnections int      `json:"strengthenedConnections"`
	WeakenedConnections     int      `json:"weakenedConnections"`
	Insights                []string `json:"insights"`
}

// Evolution thresholds.
const (
	evolutionSuggestionLimit = 3
	promotionConfidence      = 0.8

	reinforceFrequency = 0.7
	reinforceFactor    = 1.1
	demoteFrequency    = 0.3
	demoteFactor       = 0.9

	rapidGrowthEdges   = 5
	denseGraphDensity  = 0.3
	manyWeakenedEdges  = 10
)

// EvolutionEngine promotes high-confidence suggestions into real edges and
// re-weights existing edges from the external usage signal.
//
// Evolve reads, mutates, and writes whole connection lists, so passes for
// the same project are serialized; an interleaved second pass would read
// stale weights and clobber the first pass's writes. Queries may run
// concurrently with a pass and observe a mix of pre- and post-evolution
// state.
type EvolutionEngine struct {
	store     ports.Store
	usage     ports.UsageSignal
	suggester *ConnectionSuggester
	metrics   *MetricsEngine
	cache     *cache.Cache
	logger    *zap.Logger

	projectLocks sync.Map // projectID -> *sync.Mutex
}

// NewEvolutionEngine creates an evolution engine.
func NewEvolutionEngine(
	store ports.Store,
	usage ports.UsageSignal,
	suggester *ConnectionSuggester,
	metrics *MetricsEngine,
	cache *cache.Cache,
	logger *zap.Logger,
) *EvolutionEngine {
	return &EvolutionEngine{
		store:     store,
		usage:     usage,
		suggester: suggester,
		metrics:   metrics,
		cache:     cache,
		logger:    logger,
	}
}

// nodeDelta tracks the staged changes for one node before persistence.
type nodeDelta struct {
	node         *knowledge.KnowledgeNode
	added        int
	strengthened int
	weakened     int
}

// Evolve runs one evolution pass over a project. When a collaborator fails
// mid-pass, the counts already persisted are reported alongside the error;
// applied writes are not rolled back.
func (e *EvolutionEngine) Evolve(ctx context.Context, projectID string) (*EvolutionResult, error) {
	lock := e.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	result := &EvolutionResult{Insights: []string{}}

	nodes, err := e.store.GetNodes(ctx, projectID)
	if err != nil {
		return result, err
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].NodeID < nodes[j].NodeID })

	ix := graph.NewIndex(nodes)
	deltas := make(map[string]*nodeDelta, len(nodes))
	for _, node := range nodes {
		deltas[node.NodeID] = &nodeDelta{node: node}
	}

	// Reinforcement applies to the edges that existed when the pass
	// started, not to edges promoted below.
	preEdges := make(map[string][]knowledge.Edge, len(nodes))
	for _, node := range nodes {
		preEdges[node.NodeID] = node.CloneConnections()
	}

	// Phase 1: promote high-confidence suggestions into edges.
	for _, node := range nodes {
		suggestions, err := e.suggester.Suggest(ix, projectID, node.NodeID, evolutionSuggestionLimit)
		if err != nil {
			return result, err
		}
		for _, suggestion := range suggestions {
			if suggestion.Confidence <= promotionConfidence {
				continue
			}
			if node.UpsertConnection(suggestion.TargetNodeID, suggestion.ConnectionType, suggestion.Confidence) {
				deltas[node.NodeID].added++
				e.logger.Debug("Promoted suggestion to edge",
					zap.String("projectID", projectID),
					zap.String("source", node.NodeID),
					zap.String("target", suggestion.TargetNodeID),
					zap.String("type", suggestion.ConnectionType),
					zap.Float64("confidence", suggestion.Confidence),
				)
			}
		}
	}

	// Phase 2: re-weight pre-existing edges from the usage signal.
	for _, node := range nodes {
		for _, edge := range preEdges[node.NodeID] {
			stat, err := e.usage.Frequency(ctx, projectID, node.NodeID, edge.TargetNodeID)
			if err != nil {
				return result, err
			}

			var factor float64
			switch {
			case stat.Frequency > reinforceFrequency:
				factor = reinforceFactor
			case stat.Frequency < demoteFrequency:
				factor = demoteFactor
			default:
				continue
			}

			updated, ok := node.ScaleConnectionWeight(edge.TargetNodeID, factor)
			if !ok || updated == edge.Weight {
				// Already at a clamp bound; weights stabilize rather
				// than oscillate across repeated passes.
				continue
			}
			if factor > 1 {
				deltas[node.NodeID].strengthened++
			} else {
				deltas[node.NodeID].weakened++
			}
		}
	}

	// Persist node by node; counts reflect only applied writes.
	mutated := false
	for _, node := range nodes {
		delta := deltas[node.NodeID]
		if delta.added == 0 && delta.strengthened == 0 && delta.weakened == 0 {
			continue
		}
		if _, err := e.store.UpdateNode(ctx, node.ID, ports.NodeUpdate{Connections: node.CloneConnections()}); err != nil {
			e.invalidate(projectID, mutated)
			return result, err
		}
		mutated = true
		result.NewConnections += delta.added
		result.StrengthenedConnections += delta.strengthened
		result.WeakenedConnections += delta.weakened
	}

	e.invalidate(projectID, mutated)
	result.Insights = e.insights(projectID, nodes, result)

	e.logger.Info("Completed evolution pass",
		zap.String("projectID", projectID),
		zap.Int("newConnections", result.NewConnections),
		zap.Int("strengthened", result.StrengthenedConnections),
		zap.Int("weakened", result.WeakenedConnections),
	)

	return result, nil
}

func (e *EvolutionEngine) lockFor(projectID string) *sync.Mutex {
	lock, _ := e.projectLocks.LoadOrStore(projectID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// invalidate drops all cached results for the project once its stored
// state changed.
func (e *EvolutionEngine) invalidate(projectID string, mutated bool) {
	if !mutated {
		return
	}
	removed := e.cache.DeletePrefix(projectCachePrefix(projectID))
	e.logger.Debug("Invalidated project caches",
		zap.String("projectID", projectID),
		zap.Int("entries", removed),
	)
}

// insights derives narrative observations from the pass outcome and the
// post-evolution graph shape.
func (e *EvolutionEngine) insights(projectID string, nodes []*knowledge.KnowledgeNode, result *EvolutionResult) []string {
	insights := []string{}

	if result.NewConnections > rapidGrowthEdges {
		insights = append(insights, "knowledge graph expanding rapidly")
	}
	if result.WeakenedConnections > manyWeakenedEdges {
		insights = append(insights, "many connections weakening from low usage")
	}

	metrics, err := e.metrics.Compute(graph.NewIndex(nodes), projectID)
	if err == nil && metrics.Density > denseGraphDensity {
		insights = append(insights, "knowledge graph densely connected")
	}

	return insights
}
