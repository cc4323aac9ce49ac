// Package observability exposes the engine's health as pull-based state:
// callers and the prometheus collector read snapshots on demand instead of
// subscribing to a broadcast.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProjectStats is a point-in-time structural summary of one project graph,
// refreshed whenever the engine touches the project.
type ProjectStats struct {
	ProjectID  string
	NodeCount  int
	EdgeCount  int
	Density    float64
	Evolutions int
	UpdatedAt  time.Time
}

// StatsSource supplies current per-project stats snapshots.
type StatsSource interface {
	Stats() []ProjectStats
}

// GraphStatsCollector is a prometheus.Collector that pulls project stats
// from the engine at scrape time.
type GraphStatsCollector struct {
	source StatsSource

	nodes      *prometheus.Desc
	edges      *prometheus.Desc
	density    *prometheus.Desc
	evolutions *prometheus.Desc
}

// NewGraphStatsCollector creates a collector over the given source.
func NewGraphStatsCollector(source StatsSource) *GraphStatsCollector {
	labels := []string{"project_id"}
	return &GraphStatsCollector{
		source: source,
		nodes: prometheus.NewDesc(
			"knowledge_graph_nodes",
			"Number of nodes in the project knowledge graph.",
			labels, nil,
		),
		edges: prometheus.NewDesc(
			"knowledge_graph_edges",
			"Number of undirected edges in the project knowledge graph.",
			labels, nil,
		),
		density: prometheus.NewDesc(
			"knowledge_graph_density",
			"Edge density of the project knowledge graph.",
			labels, nil,
		),
		evolutions: prometheus.NewDesc(
			"knowledge_graph_evolution_passes_total",
			"Number of completed evolution passes for the project.",
			labels, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *GraphStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.nodes
	ch <- c.edges
	ch <- c.density
	ch <- c.evolutions
}

// Collect implements prometheus.Collector.
func (c *GraphStatsCollector) Collect(ch chan<- prometheus.Metric) {
	for _, stats := range c.source.Stats() {
		ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(stats.NodeCount), stats.ProjectID)
		ch <- prometheus.MustNewConstMetric(c.edges, prometheus.GaugeValue, float64(stats.EdgeCount), stats.ProjectID)
		ch <- prometheus.MustNewConstMetric(c.density, prometheus.GaugeValue, stats.Density, stats.ProjectID)
		ch <- prometheus.MustNewConstMetric(c.evolutions, prometheus.CounterValue, float64(stats.Evolutions), stats.ProjectID)
	}
}
