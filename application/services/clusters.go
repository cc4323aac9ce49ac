package services

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"knowledge-engine/domain/graph"
	"knowledge-engine/domain/knowledge"
	pkgerrors "knowledge-engine/pkg/errors"
)

// Cluster is a group of nodes similarity-connected to a common seed.
//
// Membership is a star-like guarantee: every member scored at least the
// requested threshold against the cluster's seed node, not necessarily
// against every other member.
type Cluster struct {
	ID              string   `json:"id"`
	NodeIDs         []string `json:"nodeIds"`
	CentralConcepts []string `json:"centralConcepts"`
	CohesionScore   float64  `json:"cohesionScore"`
}

// centralConceptCount is how many top concepts describe a cluster.
const centralConceptCount = 5

// ClusterEngine discovers semantic clusters by expanding similarity-connected
// components through the graph's 1-hop neighborhoods.
type ClusterEngine struct {
	similarity *SimilarityEngine
	logger     *zap.Logger
}

// NewClusterEngine creates a cluster engine.
func NewClusterEngine(similarity *SimilarityEngine, logger *zap.Logger) *ClusterEngine {
	return &ClusterEngine{similarity: similarity, logger: logger}
}

// FindClusters groups nodes whose similarity to a seed node reaches
// minSimilarity. Expansion walks each newly added member's neighborhood
// rather than rescanning the whole graph, which bounds the cost; cohesion is
// the mean pairwise similarity of the members, an O(k²) evaluation per
// cluster of size k. Clusters of size 1 are discarded. Results are ordered
// by descending cohesion.
func (e *ClusterEngine) FindClusters(ix *graph.Index, projectID string, minSimilarity float64) ([]Cluster, error) {
	if minSimilarity < 0 || minSimilarity > 1 {
		return nil, pkgerrors.NewValidationError("minSimilarity must be in [0, 1]")
	}

	visited := make(map[string]bool, ix.Len())
	var clusters []Cluster

	for _, seed := range ix.NodeIDs() {
		if visited[seed] {
			continue
		}
		visited[seed] = true

		members := e.expand(ix, projectID, seed, minSimilarity, visited)
		if len(members) < 2 {
			continue
		}

		clusters = append(clusters, Cluster{
			NodeIDs:         members,
			CentralConcepts: e.centralConcepts(ix, members),
			CohesionScore:   e.cohesion(ix, projectID, members),
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].CohesionScore > clusters[j].CohesionScore
	})
	for i := range clusters {
		clusters[i].ID = fmt.Sprintf("cluster-%d", i+1)
	}

	e.logger.Debug("Found semantic clusters",
		zap.String("projectID", projectID),
		zap.Float64("minSimilarity", minSimilarity),
		zap.Int("clusters", len(clusters)),
	)

	return clusters, nil
}

// expand grows a cluster from seed via BFS over neighborhoods, admitting a
// candidate when its similarity to the seed reaches the threshold.
func (e *ClusterEngine) expand(ix *graph.Index, projectID, seed string, minSimilarity float64, visited map[string]bool) []string {
	members := []string{seed}
	queue := ix.Neighbors(seed)

	for len(queue) > 0 {
		candidate := queue[0]
		queue = queue[1:]
		if visited[candidate] {
			continue
		}

		result, err := e.similarity.Analyze(ix, projectID, seed, candidate)
		if err != nil {
			// The candidate came from the index, so this cannot be a
			// missing node; skip rather than abort the whole expansion.
			e.logger.Warn("Skipping cluster candidate", zap.String("nodeID", candidate), zap.Error(err))
			visited[candidate] = true
			continue
		}
		if result.Similarity < minSimilarity {
			continue
		}

		visited[candidate] = true
		members = append(members, candidate)
		queue = append(queue, ix.Neighbors(candidate)...)
	}

	return members
}

// centralConcepts returns the top concepts across members by frequency,
// ties broken by first appearance.
func (e *ClusterEngine) centralConcepts(ix *graph.Index, members []string) []string {
	counts := make(map[string]int)
	order := make(map[string]int)

	for _, id := range members {
		node, ok := ix.Node(id)
		if !ok {
			continue
		}
		for _, concept := range knowledge.ExtractFeatures(node).Concepts {
			if _, seen := counts[concept]; !seen {
				order[concept] = len(order)
			}
			counts[concept]++
		}
	}

	ranked := make([]string, 0, len(counts))
	for concept := range counts {
		ranked = append(ranked, concept)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return order[ranked[i]] < order[ranked[j]]
	})

	if len(ranked) > centralConceptCount {
		ranked = ranked[:centralConceptCount]
	}
	return ranked
}

// cohesion is the mean pairwise similarity of the members.
func (e *ClusterEngine) cohesion(ix *graph.Index, projectID string, members []string) float64 {
	var total float64
	pairs := 0

	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			result, err := e.similarity.Analyze(ix, projectID, members[i], members[j])
			if err != nil {
				continue
			}
			total += result.Similarity
			pairs++
		}
	}

	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}
