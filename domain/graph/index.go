// Package graph provides the in-memory adjacency view the engines query.
// An Index is rebuilt from a Store snapshot on every operation; it never
// aliases live node state, so concurrent evolution passes cannot corrupt a
// query in flight.
package graph

import (
	"sort"

	"knowledge-engine/domain/knowledge"
)

// Index is a symmetrized adjacency view over one project's nodes.
//
// Stored edges are directed (each node owns its outbound list); the index
// mirrors every edge at build time so traversal, matrices, and metrics see
// an undirected simple graph. This is a deliberate reconciliation step, not
// a stored invariant: the underlying lists may be asymmetric.
type Index struct {
	nodes     map[string]*knowledge.KnowledgeNode
	neighbors map[string][]string
	weights   map[pairKey]float64
	ids       []string
}

type pairKey struct {
	a, b string
}

// orderedPair normalizes an unordered node pair into a map key.
func orderedPair(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// NewIndex builds an index from a snapshot of a project's nodes.
// Nodes are deep-copied so later mutations of the originals cannot leak in.
// Edges referring to node IDs absent from the snapshot are ignored.
func NewIndex(nodes []*knowledge.KnowledgeNode) *Index {
	ix := &Index{
		nodes:     make(map[string]*knowledge.KnowledgeNode, len(nodes)),
		neighbors: make(map[string][]string, len(nodes)),
		weights:   make(map[pairKey]float64),
	}

	for _, node := range nodes {
		if node == nil || node.NodeID == "" {
			continue
		}
		ix.nodes[node.NodeID] = node.Clone()
	}

	ix.ids = make([]string, 0, len(ix.nodes))
	for id := range ix.nodes {
		ix.ids = append(ix.ids, id)
	}
	sort.Strings(ix.ids)

	adjacency := make(map[string]map[string]bool, len(ix.nodes))
	for _, id := range ix.ids {
		adjacency[id] = make(map[string]bool)
	}
	for _, id := range ix.ids {
		for _, edge := range ix.nodes[id].Connections {
			if _, ok := ix.nodes[edge.TargetNodeID]; !ok || edge.TargetNodeID == id {
				continue
			}
			adjacency[id][edge.TargetNodeID] = true
			adjacency[edge.TargetNodeID][id] = true

			key := orderedPair(id, edge.TargetNodeID)
			if edge.Weight > ix.weights[key] {
				ix.weights[key] = edge.Weight
			}
		}
	}

	for id, set := range adjacency {
		list := make([]string, 0, len(set))
		for neighbor := range set {
			list = append(list, neighbor)
		}
		sort.Strings(list)
		ix.neighbors[id] = list
	}

	return ix
}

// Node returns the snapshot of a node by its logical ID.
func (ix *Index) Node(nodeID string) (*knowledge.KnowledgeNode, bool) {
	node, ok := ix.nodes[nodeID]
	return node, ok
}

// Has reports whether the node exists in the index.
func (ix *Index) Has(nodeID string) bool {
	_, ok := ix.nodes[nodeID]
	return ok
}

// Len returns the number of nodes.
func (ix *Index) Len() int {
	return len(ix.nodes)
}

// NodeIDs returns all node IDs in sorted order.
func (ix *Index) NodeIDs() []string {
	return append([]string(nil), ix.ids...)
}

// Neighbors returns the sorted undirected neighborhood of a node.
func (ix *Index) Neighbors(nodeID string) []string {
	return append([]string(nil), ix.neighbors[nodeID]...)
}

// EdgeCount returns the number of undirected edges after symmetrization.
func (ix *Index) EdgeCount() int {
	return len(ix.weights)
}

// Weight returns the symmetrized weight between two nodes (the max of the
// stored directed weights), or 0 when no edge exists.
func (ix *Index) Weight(a, b string) float64 {
	return ix.weights[orderedPair(a, b)]
}

// Related returns the IDs reachable from start within maxDepth hops via BFS,
// including start itself. Depth 0 yields exactly {start}.
func (ix *Index) Related(start string, maxDepth int) ([]string, bool) {
	if !ix.Has(start) {
		return nil, false
	}

	visited := map[string]bool{start: true}
	result := []string{start}
	frontier := []string{start}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			for _, neighbor := range ix.neighbors[id] {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				result = append(result, neighbor)
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return result, true
}

// ShortestHops returns the unweighted BFS hop count between two nodes,
// or -1 when they are disconnected or unknown.
func (ix *Index) ShortestHops(from, to string) int {
	if !ix.Has(from) || !ix.Has(to) {
		return -1
	}
	if from == to {
		return 0
	}

	visited := map[string]bool{from: true}
	frontier := []string{from}
	hops := 0

	for len(frontier) > 0 {
		hops++
		var next []string
		for _, id := range frontier {
			for _, neighbor := range ix.neighbors[id] {
				if visited[neighbor] {
					continue
				}
				if neighbor == to {
					return hops
				}
				visited[neighbor] = true
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return -1
}

// ShortestPath returns one BFS shortest path between two nodes, inclusive of
// both endpoints, or nil when disconnected. With multiple shortest paths the
// lexicographically first neighbor wins, which keeps results deterministic.
func (ix *Index) ShortestPath(from, to string) []string {
	if !ix.Has(from) || !ix.Has(to) {
		return nil
	}
	if from == to {
		return []string{from}
	}

	parent := map[string]string{from: ""}
	frontier := []string{from}

	for len(frontier) > 0 {
		var next []string
		for _, id := range frontier {
			for _, neighbor := range ix.neighbors[id] {
				if _, seen := parent[neighbor]; seen {
					continue
				}
				parent[neighbor] = id
				if neighbor == to {
					return buildPath(parent, from, to)
				}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return nil
}

func buildPath(parent map[string]string, from, to string) []string {
	var reversed []string
	for id := to; id != ""; id = parent[id] {
		reversed = append(reversed, id)
		if id == from {
			break
		}
	}
	path := make([]string, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = id
	}
	return path
}

// MutualNeighbors returns the nodes adjacent to both a and b.
func (ix *Index) MutualNeighbors(a, b string) []string {
	setA := make(map[string]bool, len(ix.neighbors[a]))
	for _, id := range ix.neighbors[a] {
		setA[id] = true
	}

	var mutual []string
	for _, id := range ix.neighbors[b] {
		if setA[id] && id != a && id != b {
			mutual = append(mutual, id)
		}
	}
	return mutual
}

// Matrix materializes the symmetric weighted adjacency matrix, with rows and
// columns ordered by the returned ID slice. O(n²) memory: this view, and the
// metrics built on it, are only suitable for graphs up to a few thousand
// nodes per project.
func (ix *Index) Matrix() ([][]float64, []string) {
	n := len(ix.ids)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	pos := make(map[string]int, n)
	for i, id := range ix.ids {
		pos[id] = i
	}

	for key, weight := range ix.weights {
		i, j := pos[key.a], pos[key.b]
		matrix[i][j] = weight
		matrix[j][i] = weight
	}

	return matrix, ix.NodeIDs()
}

// ComponentCount returns the number of connected components.
func (ix *Index) ComponentCount() int {
	visited := make(map[string]bool, len(ix.ids))
	components := 0

	for _, id := range ix.ids {
		if visited[id] {
			continue
		}
		components++
		frontier := []string{id}
		visited[id] = true
		for len(frontier) > 0 {
			var next []string
			for _, cur := range frontier {
				for _, neighbor := range ix.neighbors[cur] {
					if !visited[neighbor] {
						visited[neighbor] = true
						next = append(next, neighbor)
					}
				}
			}
			frontier = next
		}
	}

	return components
}
