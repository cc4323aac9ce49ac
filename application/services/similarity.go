// Package services contains the analytics engines of the knowledge graph:
// similarity, clustering, metrics, suggestion, evolution, and the ingestion
// and facade services that tie them to the Store.
package services

import (
	"fmt"

	"go.uber.org/zap"

	"knowledge-engine/domain/graph"
	"knowledge-engine/domain/knowledge"
	"knowledge-engine/pkg/cache"
	pkgerrors "knowledge-engine/pkg/errors"
)

// SimilarityResult is the semantic similarity verdict between two nodes.
type SimilarityResult struct {
	Similarity     float64  `json:"similarity"`
	CommonConcepts []string `json:"commonConcepts"`
	// SemanticDistance is the unweighted BFS hop count between the nodes;
	// -1 means disconnected.
	SemanticDistance     int     `json:"semanticDistance"`
	RelationshipStrength float64 `json:"relationshipStrength"`
}

// mutualNeighborStrength is the per-mutual-neighbor contribution used as a
// cheap proxy for indirect relatedness when no direct edge exists.
const mutualNeighborStrength = 0.1

// SimilarityEngine computes similarity verdicts between node pairs,
// memoizing results by unordered pair. The cache is shared process state;
// write paths invalidate it per project before returning.
type SimilarityEngine struct {
	cache  *cache.Cache
	logger *zap.Logger
}

// NewSimilarityEngine creates a similarity engine.
func NewSimilarityEngine(cache *cache.Cache, logger *zap.Logger) *SimilarityEngine {
	return &SimilarityEngine{cache: cache, logger: logger}
}

// Analyze produces the similarity verdict for two nodes of a project.
// Returns a not-found error when either node is absent from the index.
func (e *SimilarityEngine) Analyze(ix *graph.Index, projectID, nodeA, nodeB string) (*SimilarityResult, error) {
	a, ok := ix.Node(nodeA)
	if !ok {
		return nil, pkgerrors.NewNodeNotFoundError(projectID, nodeA)
	}
	b, ok := ix.Node(nodeB)
	if !ok {
		return nil, pkgerrors.NewNodeNotFoundError(projectID, nodeB)
	}

	key := similarityCacheKey(projectID, nodeA, nodeB)
	if cached, hit := e.cache.Get(key); hit {
		if result, ok := cached.(*SimilarityResult); ok {
			return result, nil
		}
	}

	result := e.analyze(ix, a, b)
	e.cache.Set(key, result)

	e.logger.Debug("Analyzed node similarity",
		zap.String("projectID", projectID),
		zap.String("nodeA", nodeA),
		zap.String("nodeB", nodeB),
		zap.Float64("similarity", result.Similarity),
	)

	return result, nil
}

func (e *SimilarityEngine) analyze(ix *graph.Index, a, b *knowledge.KnowledgeNode) *SimilarityResult {
	featuresA := knowledge.ExtractFeatures(a)

	// A node is always fully similar to itself, even when its payload
	// yields no terms and the vectors would be all-zero.
	if a.NodeID == b.NodeID {
		return &SimilarityResult{
			Similarity:           1.0,
			CommonConcepts:       featuresA.Concepts,
			SemanticDistance:     0,
			RelationshipStrength: 1.0,
		}
	}

	featuresB := knowledge.ExtractFeatures(b)

	similarity := knowledge.CosineSimilarity(
		knowledge.Vectorize(featuresA.Terms()),
		knowledge.Vectorize(featuresB.Terms()),
	)

	return &SimilarityResult{
		Similarity:           similarity,
		CommonConcepts:       intersect(featuresA.Concepts, featuresB.Concepts),
		SemanticDistance:     ix.ShortestHops(a.NodeID, b.NodeID),
		RelationshipStrength: relationshipStrength(ix, a, b),
	}
}

// relationshipStrength is the direct edge weight when one exists in either
// direction; otherwise mutual neighbors are counted as weak indirect
// evidence, capped at the maximum edge weight.
func relationshipStrength(ix *graph.Index, a, b *knowledge.KnowledgeNode) float64 {
	if edge, ok := a.Connection(b.NodeID); ok {
		return edge.Weight
	}
	if edge, ok := b.Connection(a.NodeID); ok {
		return edge.Weight
	}

	strength := float64(len(ix.MutualNeighbors(a.NodeID, b.NodeID))) * mutualNeighborStrength
	if strength > knowledge.MaxEdgeWeight {
		strength = knowledge.MaxEdgeWeight
	}
	return strength
}

func intersect(a, b []string) []string {
	setB := make(map[string]bool, len(b))
	for _, v := range b {
		setB[v] = true
	}

	common := []string{}
	for _, v := range a {
		if setB[v] {
			common = append(common, v)
		}
	}
	return common
}

// Cache key layout. Everything for a project shares one prefix so a single
// prefix delete invalidates all of it.

func projectCachePrefix(projectID string) string {
	return "project:" + projectID + ":"
}

func similarityCacheKey(projectID, a, b string) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%ssim:%s|%s", projectCachePrefix(projectID), a, b)
}

func metricsCacheKey(projectID string) string {
	return projectCachePrefix(projectID) + "metrics"
}
