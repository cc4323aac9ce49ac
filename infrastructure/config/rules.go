package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"knowledge-engine/domain/knowledge"
)

// ruleFile is the YAML shape of a suggestion rule table.
type ruleFile struct {
	Rules []struct {
		SourceType     string `yaml:"source_type"`
		TargetType     string `yaml:"target_type"`
		SameType       bool   `yaml:"same_type"`
		ConnectionType string `yaml:"connection_type"`
		Strong         bool   `yaml:"strong"`
	} `yaml:"rules"`
	Fallback string `yaml:"fallback"`
}

// LoadRuleTable reads a suggestion rule table from a YAML file.
func LoadRuleTable(path string) (knowledge.RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return knowledge.RuleTable{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return knowledge.RuleTable{}, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if len(file.Rules) == 0 {
		return knowledge.RuleTable{}, fmt.Errorf("rules file %s defines no rules", path)
	}

	table := knowledge.RuleTable{Fallback: file.Fallback}
	for i, rule := range file.Rules {
		if rule.ConnectionType == "" {
			return knowledge.RuleTable{}, fmt.Errorf("rule %d is missing connection_type", i)
		}
		table.Rules = append(table.Rules, knowledge.SuggestionRule{
			SourceType:     knowledge.NodeType(rule.SourceType),
			TargetType:     knowledge.NodeType(rule.TargetType),
			SameType:       rule.SameType,
			ConnectionType: rule.ConnectionType,
			Strong:         rule.Strong,
		})
	}
	return table, nil
}
