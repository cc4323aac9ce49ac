package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource []ProjectStats

func (s staticSource) Stats() []ProjectStats {
	return s
}

func TestGraphStatsCollector_Collect(t *testing.T) {
	source := staticSource{
		{
			ProjectID:  "p1",
			NodeCount:  3,
			EdgeCount:  2,
			Density:    0.5,
			Evolutions: 4,
			UpdatedAt:  time.Now(),
		},
		{ProjectID: "p2", NodeCount: 1},
	}
	collector := NewGraphStatsCollector(source)

	registry := prometheus.NewPedanticRegistry()
	require.NoError(t, registry.Register(collector))

	expected := `
# HELP knowledge_graph_density Edge density of the project knowledge graph.
# TYPE knowledge_graph_density gauge
knowledge_graph_density{project_id="p1"} 0.5
knowledge_graph_density{project_id="p2"} 0
# HELP knowledge_graph_edges Number of undirected edges in the project knowledge graph.
# TYPE knowledge_graph_edges gauge
knowledge_graph_edges{project_id="p1"} 2
knowledge_graph_edges{project_id="p2"} 0
# HELP knowledge_graph_evolution_passes_total Number of completed evolution passes for the project.
# TYPE knowledge_graph_evolution_passes_total counter
knowledge_graph_evolution_passes_total{project_id="p1"} 4
knowledge_graph_evolution_passes_total{project_id="p2"} 0
# HELP knowledge_graph_nodes Number of nodes in the project knowledge graph.
# TYPE knowledge_graph_nodes gauge
knowledge_graph_nodes{project_id="p1"} 3
knowledge_graph_nodes{project_id="p2"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected)))
}

func TestGraphStatsCollector_EmptySource(t *testing.T) {
	collector := NewGraphStatsCollector(staticSource{})
	assert.Equal(t, 0, testutil.CollectAndCount(collector))
}
