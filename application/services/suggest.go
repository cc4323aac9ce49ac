package services

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"knowledge-engine/domain/graph"
	"knowledge-engine/domain/knowledge"
	pkgerrors "knowledge-engine/pkg/errors"
)

// ConnectionSuggestion proposes a new edge from the analyzed node.
type ConnectionSuggestion struct {
	TargetNodeID   string  `json:"targetNodeId"`
	ConnectionType string  `json:"connectionType"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// RuleSource supplies the current suggestion rule table. Implementations
// may serve a static table or reload one from configuration at runtime.
type RuleSource interface {
	Rules() knowledge.RuleTable
}

// StaticRules is a RuleSource serving a fixed table.
type StaticRules struct {
	Table knowledge.RuleTable
}

// Rules implements RuleSource.
func (s StaticRules) Rules() knowledge.RuleTable {
	return s.Table
}

// Suggestion thresholds and confidence boosts.
const (
	suggestionThreshold = 0.6

	strongPairingBoost  = 1.2
	sharedConceptsBoost = 1.1
	relationshipBoost   = 1.15

	sharedConceptsFloor = 2
	relationshipFloor   = 0.5
)

// ConnectionSuggester proposes typed, scored connections between a node and
// the rest of its project's graph.
type ConnectionSuggester struct {
	similarity *SimilarityEngine
	rules      RuleSource
	logger     *zap.Logger
}

// NewConnectionSuggester creates a connection suggester.
func NewConnectionSuggester(similarity *SimilarityEngine, rules RuleSource, logger *zap.Logger) *ConnectionSuggester {
	return &ConnectionSuggester{similarity: similarity, rules: rules, logger: logger}
}

// Suggest scores the node against every other node of the project and
// returns up to maxSuggestions proposals, ordered by descending confidence.
// Nodes already connected to the source, in either direction, are skipped.
func (s *ConnectionSuggester) Suggest(ix *graph.Index, projectID, nodeID string, maxSuggestions int) ([]ConnectionSuggestion, error) {
	if maxSuggestions <= 0 {
		return nil, pkgerrors.NewValidationError("maxSuggestions must be positive")
	}

	source, ok := ix.Node(nodeID)
	if !ok {
		return nil, pkgerrors.NewNodeNotFoundError(projectID, nodeID)
	}

	table := s.rules.Rules()
	suggestions := []ConnectionSuggestion{}

	for _, targetID := range ix.NodeIDs() {
		if targetID == nodeID {
			continue
		}
		target, ok := ix.Node(targetID)
		if !ok {
			continue
		}
		if source.HasConnection(targetID) || target.HasConnection(nodeID) {
			continue
		}

		result, err := s.similarity.Analyze(ix, projectID, nodeID, targetID)
		if err != nil {
			return nil, err
		}
		if result.Similarity <= suggestionThreshold {
			continue
		}

		suggestions = append(suggestions, s.score(source, target, table, result))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		return suggestions[i].TargetNodeID < suggestions[j].TargetNodeID
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	s.logger.Debug("Suggested connections",
		zap.String("projectID", projectID),
		zap.String("nodeID", nodeID),
		zap.Int("suggestions", len(suggestions)),
	)

	return suggestions, nil
}

// score derives the connection type from the rule table and scales the
// similarity by the boosts whose conditions hold, clamped to 1.0.
func (s *ConnectionSuggester) score(source, target *knowledge.KnowledgeNode, table knowledge.RuleTable, result *SimilarityResult) ConnectionSuggestion {
	connectionType, strong := table.Match(source.NodeType, target.NodeType)

	confidence := result.Similarity
	reasons := []string{fmt.Sprintf("semantic similarity %.2f", result.Similarity)}

	if strong {
		confidence *= strongPairingBoost
		reasons = append(reasons, fmt.Sprintf("strong %s/%s pairing", source.NodeType, target.NodeType))
	}
	if len(result.CommonConcepts) > sharedConceptsFloor {
		confidence *= sharedConceptsBoost
		reasons = append(reasons, fmt.Sprintf("%d shared concepts", len(result.CommonConcepts)))
	}
	if result.RelationshipStrength > relationshipFloor {
		confidence *= relationshipBoost
		reasons = append(reasons, fmt.Sprintf("existing relationship strength %.2f", result.RelationshipStrength))
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return ConnectionSuggestion{
		TargetNodeID:   target.NodeID,
		ConnectionType: connectionType,
		Confidence:     confidence,
		Reasoning:      strings.Join(reasons, "; "),
	}
}
