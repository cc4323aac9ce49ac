package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"knowledge-engine/application/ports"
	"knowledge-engine/domain/graph"
	"knowledge-engine/domain/knowledge"
	"knowledge-engine/pkg/cache"
	pkgerrors "knowledge-engine/pkg/errors"
	"knowledge-engine/pkg/observability"
)

// ProjectKnowledge is the full graph view of a project.
type ProjectKnowledge struct {
	Nodes []*knowledge.KnowledgeNode `json:"nodes"`
	Stats GraphSummary               `json:"stats"`
}

// GraphSummary is the lightweight stats block attached to graph reads.
type GraphSummary struct {
	NodeCount    int     `json:"nodeCount"`
	EdgeCount    int     `json:"edgeCount"`
	ClusterCount int     `json:"clusterCount"`
	Density      float64 `json:"density"`
}

// SimilarityParams identifies the node pair to analyze.
type SimilarityParams struct {
	ProjectID string `json:"projectId" validate:"required"`
	NodeA     string `json:"nodeA" validate:"required"`
	NodeB     string `json:"nodeB" validate:"required"`
}

// ClustersParams controls cluster discovery.
type ClustersParams struct {
	ProjectID     string  `json:"projectId" validate:"required"`
	MinSimilarity float64 `json:"minSimilarity" validate:"gte=0,lte=1"`
}

// SuggestParams controls connection suggestion.
type SuggestParams struct {
	ProjectID      string `json:"projectId" validate:"required"`
	NodeID         string `json:"nodeId" validate:"required"`
	MaxSuggestions int    `json:"maxSuggestions" validate:"gt=0,lte=100"`
}

// RelatedParams controls bounded graph traversal.
type RelatedParams struct {
	ProjectID string `json:"projectId" validate:"required"`
	NodeID    string `json:"nodeId" validate:"required"`
	MaxDepth  int    `json:"maxDepth" validate:"gte=0,lte=10"`
}

// KnowledgeService is the entry point the transport layer consumes. Every
// query loads the project's nodes from the Store, builds a fresh graph
// index, and delegates to the relevant engine. Queries are read-only and
// may run concurrently with an evolution pass; they then observe a mix of
// pre- and post-evolution state, which is the documented contract.
type KnowledgeService struct {
	store      ports.Store
	similarity *SimilarityEngine
	clusters   *ClusterEngine
	metrics    *MetricsEngine
	suggester  *ConnectionSuggester
	evolution  *EvolutionEngine
	ingestion  *NodeIngestion
	cache      *cache.Cache
	validate   *validator.Validate
	logger     *zap.Logger

	stats sync.Map // projectID -> observability.ProjectStats
}

// NewKnowledgeService wires the engines behind one facade.
func NewKnowledgeService(
	store ports.Store,
	usage ports.UsageSignal,
	rules RuleSource,
	cache *cache.Cache,
	logger *zap.Logger,
) *KnowledgeService {
	similarity := NewSimilarityEngine(cache, logger)
	metrics := NewMetricsEngine(cache, logger)
	suggester := NewConnectionSuggester(similarity, rules, logger)

	return &KnowledgeService{
		store:      store,
		similarity: similarity,
		clusters:   NewClusterEngine(similarity, logger),
		metrics:    metrics,
		suggester:  suggester,
		evolution:  NewEvolutionEngine(store, usage, suggester, metrics, cache, logger),
		ingestion:  NewNodeIngestion(store, cache, logger),
		cache:      cache,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Ingestion returns the artifact ingestion adapter.
func (s *KnowledgeService) Ingestion() *NodeIngestion {
	return s.ingestion
}

// GetProjectKnowledge returns a project's nodes with a stats summary.
func (s *KnowledgeService) GetProjectKnowledge(ctx context.Context, projectID string) (*ProjectKnowledge, error) {
	if projectID == "" {
		return nil, pkgerrors.NewValidationError("projectId cannot be empty")
	}

	ix, err := s.loadIndex(ctx, projectID)
	if err != nil {
		return nil, err
	}

	nodes := make([]*knowledge.KnowledgeNode, 0, ix.Len())
	for _, id := range ix.NodeIDs() {
		node, _ := ix.Node(id)
		nodes = append(nodes, node)
	}

	summary := summarize(ix)
	s.recordStats(projectID, ix, 0)

	return &ProjectKnowledge{Nodes: nodes, Stats: summary}, nil
}

// AnalyzeSemanticSimilarity returns the similarity verdict for a node pair.
func (s *KnowledgeService) AnalyzeSemanticSimilarity(ctx context.Context, params SimilarityParams) (*SimilarityResult, error) {
	if err := s.validateParams(params); err != nil {
		return nil, err
	}

	ix, err := s.loadIndex(ctx, params.ProjectID)
	if err != nil {
		return nil, err
	}
	return s.similarity.Analyze(ix, params.ProjectID, params.NodeA, params.NodeB)
}

// FindSemanticClusters discovers similarity clusters above a threshold.
func (s *KnowledgeService) FindSemanticClusters(ctx context.Context, params ClustersParams) ([]Cluster, error) {
	if err := s.validateParams(params); err != nil {
		return nil, err
	}

	ix, err := s.loadIndex(ctx, params.ProjectID)
	if err != nil {
		return nil, err
	}
	return s.clusters.FindClusters(ix, params.ProjectID, params.MinSimilarity)
}

// SuggestConnections proposes new edges for a node.
func (s *KnowledgeService) SuggestConnections(ctx context.Context, params SuggestParams) ([]ConnectionSuggestion, error) {
	if err := s.validateParams(params); err != nil {
		return nil, err
	}

	ix, err := s.loadIndex(ctx, params.ProjectID)
	if err != nil {
		return nil, err
	}
	return s.suggester.Suggest(ix, params.ProjectID, params.NodeID, params.MaxSuggestions)
}

// CalculateGraphMetrics computes the structural metrics of a project graph.
func (s *KnowledgeService) CalculateGraphMetrics(ctx context.Context, projectID string) (*GraphMetrics, error) {
	if projectID == "" {
		return nil, pkgerrors.NewValidationError("projectId cannot be empty")
	}

	ix, err := s.loadIndex(ctx, projectID)
	if err != nil {
		return nil, err
	}

	metrics, err := s.metrics.Compute(ix, projectID)
	if err != nil {
		return nil, err
	}

	s.recordStats(projectID, ix, 0)
	return metrics, nil
}

// EvolveKnowledgeGraph runs one evolution pass for a project. Passes for
// the same project are serialized by the evolution engine.
func (s *KnowledgeService) EvolveKnowledgeGraph(ctx context.Context, projectID string) (*EvolutionResult, error) {
	if projectID == "" {
		return nil, pkgerrors.NewValidationError("projectId cannot be empty")
	}

	result, err := s.evolution.Evolve(ctx, projectID)
	if err != nil {
		return result, err
	}

	if ix, loadErr := s.loadIndex(ctx, projectID); loadErr == nil {
		s.recordStats(projectID, ix, 1)
	}
	return result, nil
}

// FindRelatedNodes returns the nodes reachable from a node within maxDepth
// hops, including the node itself.
func (s *KnowledgeService) FindRelatedNodes(ctx context.Context, params RelatedParams) ([]*knowledge.KnowledgeNode, error) {
	if err := s.validateParams(params); err != nil {
		return nil, err
	}

	ix, err := s.loadIndex(ctx, params.ProjectID)
	if err != nil {
		return nil, err
	}

	ids, ok := ix.Related(params.NodeID, params.MaxDepth)
	if !ok {
		return nil, pkgerrors.NewNodeNotFoundError(params.ProjectID, params.NodeID)
	}
	sort.Strings(ids)

	related := make([]*knowledge.KnowledgeNode, 0, len(ids))
	for _, id := range ids {
		if node, ok := ix.Node(id); ok {
			related = append(related, node)
		}
	}
	return related, nil
}

// Stats implements observability.StatsSource with the latest snapshot per
// project the service has touched.
func (s *KnowledgeService) Stats() []observability.ProjectStats {
	var all []observability.ProjectStats
	s.stats.Range(func(_, value interface{}) bool {
		all = append(all, value.(observability.ProjectStats))
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ProjectID < all[j].ProjectID })
	return all
}

// loadIndex loads a project's nodes and builds a fresh adjacency view.
// Store failures are propagated unchanged: re-querying is the caller's
// responsibility.
func (s *KnowledgeService) loadIndex(ctx context.Context, projectID string) (*graph.Index, error) {
	nodes, err := s.store.GetNodes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return graph.NewIndex(nodes), nil
}

func (s *KnowledgeService) validateParams(params interface{}) error {
	if err := s.validate.Struct(params); err != nil {
		return pkgerrors.NewValidationError(err.Error()).WithCause(err)
	}
	return nil
}

func (s *KnowledgeService) recordStats(projectID string, ix *graph.Index, evolutions int) {
	stats := observability.ProjectStats{
		ProjectID: projectID,
		NodeCount: ix.Len(),
		EdgeCount: ix.EdgeCount(),
		Density:   density(ix),
		UpdatedAt: time.Now(),
	}
	if prev, ok := s.stats.Load(projectID); ok {
		stats.Evolutions = prev.(observability.ProjectStats).Evolutions
	}
	stats.Evolutions += evolutions
	s.stats.Store(projectID, stats)
}

func summarize(ix *graph.Index) GraphSummary {
	return GraphSummary{
		NodeCount:    ix.Len(),
		EdgeCount:    ix.EdgeCount(),
		ClusterCount: ix.ComponentCount(),
		Density:      density(ix),
	}
}

func density(ix *graph.Index) float64 {
	n := ix.Len()
	if n < 2 {
		return 0
	}
	return float64(ix.EdgeCount()) / float64(n*(n-1)/2)
}
