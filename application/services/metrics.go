package services

import (
	"sort"

	"go.uber.org/zap"

	"knowledge-engine/domain/graph"
	"knowledge-engine/domain/knowledge"
	"knowledge-engine/pkg/cache"
)

// GraphMetrics is the structural summary of one project's graph.
type GraphMetrics struct {
	NodeCount  int     `json:"nodeCount"`
	EdgeCount  int     `json:"edgeCount"`
	Density    float64 `json:"density"`
	Clustering float64 `json:"clustering"`
	// CentralityScores holds approximate betweenness per node: one BFS
	// shortest path is sampled per unordered pair, so exactness is not
	// guaranteed when multiple shortest paths exist.
	CentralityScores map[string]float64 `json:"centralityScores"`
	// PathLengths is each node's average shortest-path length to the nodes
	// it can reach.
	PathLengths map[string]float64 `json:"pathLengths"`
	Communities []Community        `json:"communities"`
}

// Community is a coarse node grouping by type with its modularity score.
// This is not a modularity-maximizing partition; it measures how much
// denser each type group is than expected at random.
type Community struct {
	Type       knowledge.NodeType `json:"type"`
	NodeIDs    []string           `json:"nodeIds"`
	Modularity float64            `json:"modularity"`
}

// MetricsEngine computes whole-graph metrics from an adjacency matrix view.
//
// Average path lengths use Floyd–Warshall: O(n³) time and O(n²) memory is a
// hard scalability ceiling, so the engine is only suitable for graphs up to
// a few thousand nodes per project. Results are cached per project and
// invalidated on any node mutation.
type MetricsEngine struct {
	cache  *cache.Cache
	logger *zap.Logger
}

// NewMetricsEngine creates a metrics engine.
func NewMetricsEngine(cache *cache.Cache, logger *zap.Logger) *MetricsEngine {
	return &MetricsEngine{cache: cache, logger: logger}
}

// Compute returns the metrics for a project's graph. A graph with fewer
// than two nodes yields zero-valued metrics, not an error.
func (e *MetricsEngine) Compute(ix *graph.Index, projectID string) (*GraphMetrics, error) {
	key := metricsCacheKey(projectID)
	if cached, hit := e.cache.Get(key); hit {
		if metrics, ok := cached.(*GraphMetrics); ok {
			return metrics, nil
		}
	}

	metrics := &GraphMetrics{
		NodeCount:        ix.Len(),
		EdgeCount:        ix.EdgeCount(),
		CentralityScores: make(map[string]float64),
		PathLengths:      make(map[string]float64),
		Communities:      []Community{},
	}

	n := ix.Len()
	if n < 2 {
		e.cache.Set(key, metrics)
		return metrics, nil
	}

	metrics.Density = float64(metrics.EdgeCount) / float64(n*(n-1)/2)
	metrics.Clustering = e.clusteringCoefficient(ix)
	metrics.CentralityScores = e.betweenness(ix)
	metrics.PathLengths = e.averagePathLengths(ix)
	metrics.Communities = e.typeCommunities(ix)

	e.cache.Set(key, metrics)

	e.logger.Debug("Computed graph metrics",
		zap.String("projectID", projectID),
		zap.Int("nodes", metrics.NodeCount),
		zap.Int("edges", metrics.EdgeCount),
		zap.Float64("density", metrics.Density),
	)

	return metrics, nil
}

// clusteringCoefficient is the mean local clustering coefficient over nodes
// with at least two neighbors: closed neighbor pairs / possible pairs.
func (e *MetricsEngine) clusteringCoefficient(ix *graph.Index) float64 {
	var total float64
	counted := 0

	for _, id := range ix.NodeIDs() {
		neighbors := ix.Neighbors(id)
		if len(neighbors) < 2 {
			continue
		}

		closed := 0
		for i := 0; i < len(neighbors); i++ {
			for j := i + 1; j < len(neighbors); j++ {
				if ix.Weight(neighbors[i], neighbors[j]) > 0 {
					closed++
				}
			}
		}

		possible := len(neighbors) * (len(neighbors) - 1) / 2
		total += float64(closed) / float64(possible)
		counted++
	}

	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}

// betweenness approximates betweenness centrality: for every unordered node
// pair, one BFS shortest path is found and each interior node on it is
// credited; credits are normalized by the number of paths found.
func (e *MetricsEngine) betweenness(ix *graph.Index) map[string]float64 {
	ids := ix.NodeIDs()
	credits := make(map[string]float64, len(ids))
	for _, id := range ids {
		credits[id] = 0
	}

	pathsFound := 0
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			path := ix.ShortestPath(ids[i], ids[j])
			if path == nil {
				continue
			}
			pathsFound++
			for _, interior := range path[1 : len(path)-1] {
				credits[interior]++
			}
		}
	}

	if pathsFound == 0 {
		return credits
	}
	for id := range credits {
		credits[id] /= float64(pathsFound)
	}
	return credits
}

// averagePathLengths runs Floyd–Warshall over the hop-count matrix and
// averages each node's distance to the nodes it can reach.
func (e *MetricsEngine) averagePathLengths(ix *graph.Index) map[string]float64 {
	matrix, ids := ix.Matrix()
	n := len(ids)

	const unreachable = -1
	dist := make([][]int, n)
	for i := range dist {
		dist[i] = make([]int, n)
		for j := range dist[i] {
			switch {
			case i == j:
				dist[i][j] = 0
			case matrix[i][j] > 0:
				dist[i][j] = 1
			default:
				dist[i][j] = unreachable
			}
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if dist[i][k] == unreachable {
				continue
			}
			for j := 0; j < n; j++ {
				if dist[k][j] == unreachable {
					continue
				}
				through := dist[i][k] + dist[k][j]
				if dist[i][j] == unreachable || through < dist[i][j] {
					dist[i][j] = through
				}
			}
		}
	}

	lengths := make(map[string]float64, n)
	for i, id := range ids {
		total, reachable := 0, 0
		for j := 0; j < n; j++ {
			if i == j || dist[i][j] == unreachable {
				continue
			}
			total += dist[i][j]
			reachable++
		}
		if reachable == 0 {
			lengths[id] = 0
			continue
		}
		lengths[id] = float64(total) / float64(reachable)
	}

	return lengths
}

// typeCommunities groups nodes by type and scores each group with the
// standard modularity formula: intra-group edge fraction minus the squared
// expected fraction from the group's degree share.
func (e *MetricsEngine) typeCommunities(ix *graph.Index) []Community {
	groups := make(map[knowledge.NodeType][]string)
	for _, id := range ix.NodeIDs() {
		node, ok := ix.Node(id)
		if !ok {
			continue
		}
		groups[node.NodeType] = append(groups[node.NodeType], id)
	}

	types := make([]knowledge.NodeType, 0, len(groups))
	for t := range groups {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	m := float64(ix.EdgeCount())
	communities := make([]Community, 0, len(types))

	for _, t := range types {
		members := groups[t]
		community := Community{Type: t, NodeIDs: members}

		if m > 0 {
			memberSet := make(map[string]bool, len(members))
			for _, id := range members {
				memberSet[id] = true
			}

			intra := 0
			degree := 0
			for _, id := range members {
				for _, neighbor := range ix.Neighbors(id) {
					degree++
					if memberSet[neighbor] && id < neighbor {
						intra++
					}
				}
			}

			degreeShare := float64(degree) / (2 * m)
			community.Modularity = float64(intra)/m - degreeShare*degreeShare
		}

		communities = append(communities, community)
	}

	return communities
}
