package knowledge

// SuggestionRule maps a source/target node type pairing to the connection
// type a suggested edge should carry. Rules are evaluated in order; the
// first match wins. An empty SourceType or TargetType matches any type, and
// SameType restricts the rule to pairs of equal type. Strong pairings give
// suggestions a confidence boost.
type SuggestionRule struct {
	SourceType     NodeType
	TargetType     NodeType
	SameType       bool
	ConnectionType string
	Strong         bool
}

// RuleTable is an ordered list of suggestion rules plus the fallback
// connection type used when nothing matches.
type RuleTable struct {
	Rules    []SuggestionRule
	Fallback string
}

// Match returns the connection type for a source/target type pairing and
// whether the matched rule is a strong pairing.
func (t RuleTable) Match(source, target NodeType) (string, bool) {
	for _, rule := range t.Rules {
		if rule.SameType {
			if source == target {
				return rule.ConnectionType, rule.Strong
			}
			continue
		}
		if rule.SourceType != "" && rule.SourceType != source {
			continue
		}
		if rule.TargetType != "" && rule.TargetType != target {
			continue
		}
		return rule.ConnectionType, rule.Strong
	}
	if t.Fallback != "" {
		return t.Fallback, false
	}
	return "uses", false
}

// DefaultRuleTable returns the built-in type pairing rules. Deployments
// override these with a rules file so heuristics change without a release.
func DefaultRuleTable() RuleTable {
	return RuleTable{
		Rules: []SuggestionRule{
			{SourceType: NodeTypeTask, TargetType: NodeTypeCode, ConnectionType: "generates", Strong: true},
			{SourceType: NodeTypeCode, TargetType: NodeTypeTask, ConnectionType: "generated_by", Strong: true},
			{SourceType: NodeTypeCode, TargetType: NodeTypeDocumentation, ConnectionType: "documented_by", Strong: true},
			{SourceType: NodeTypeDocumentation, TargetType: NodeTypeCode, ConnectionType: "documents", Strong: true},
			{SourceType: NodeTypeDocumentation, TargetType: NodeTypeTask, ConnectionType: "describes"},
			{SameType: true, ConnectionType: "relates_to"},
		},
		Fallback: "uses",
	}
}
