package knowledge

import (
	"regexp"
	"sort"
	"strings"
)

// FeatureSet is the bag of semantic terms extracted from a node's payload.
// Concepts and Keywords are sets with first-seen order preserved.
type FeatureSet struct {
	Concepts []string
	Keywords []string
}

// Terms returns the combined term bag used for vectorization.
func (f FeatureSet) Terms() []string {
	terms := make([]string, 0, len(f.Concepts)+len(f.Keywords))
	terms = append(terms, f.Concepts...)
	terms = append(terms, f.Keywords...)
	return terms
}

// topKeywords is the number of frequency-ranked keywords kept per node.
const topKeywords = 10

// Declaration and import patterns for the languages the pipeline produces.
// Extraction is best-effort pattern matching over source text: malformed
// input yields partial results, never an error.
var (
	goFuncPattern     = regexp.MustCompile(`func\s+(?:\([^)]*\)\s+)?([A-Za-z_]\w*)\s*\(`)
	jsFuncPattern     = regexp.MustCompile(`function\s+([A-Za-z_$][\w$]*)\s*\(`)
	pyFuncPattern     = regexp.MustCompile(`def\s+([A-Za-z_]\w*)\s*\(`)
	importPathPattern = regexp.MustCompile(`import\s+(?:[\w{},*\s]+\s+from\s+)?["']([^"']+)["']`)
	goImportPattern   = regexp.MustCompile(`(?m)^\s*(?:import\s+(?:[\w.]+\s+)?)?"([^"]+)"\s*$`)
	pyImportPattern   = regexp.MustCompile(`(?m)^\s*(?:from\s+([\w.]+)\s+import|import\s+([\w.]+))`)
	requirePattern    = regexp.MustCompile(`require\(["']([^"']+)["']\)`)
	headingPattern    = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"this": true, "that": true, "these": true, "those": true, "from": true,
	"into": true, "then": true, "than": true, "when": true, "which": true,
}

// ExtractFeatures derives concepts and keywords from a node's payload
// according to its type. It is a pure function of the payload and never
// fails; unparseable content degrades to an empty feature set.
func ExtractFeatures(node *KnowledgeNode) FeatureSet {
	if node == nil {
		return FeatureSet{}
	}

	switch node.NodeType {
	case NodeTypeCode:
		return extractCodeFeatures(node.NodeData)
	case NodeTypeDocumentation:
		return extractDocumentationFeatures(node.NodeData)
	case NodeTypeTask:
		return extractTaskFeatures(node.NodeData)
	default:
		// Unknown node types still get generic keywords so they can
		// participate in similarity.
		return FeatureSet{
			Keywords: topFrequentWords(node.NodeData.Title+" "+node.NodeData.Description+" "+node.NodeData.Content, topKeywords),
		}
	}
}

func extractCodeFeatures(data NodeData) FeatureSet {
	set := newTermSet()

	// Declared lists take precedence; pattern matching fills the gaps.
	set.addAll(data.Functions)
	for _, pattern := range []*regexp.Regexp{goFuncPattern, jsFuncPattern, pyFuncPattern} {
		for _, match := range pattern.FindAllStringSubmatch(data.Content, -1) {
			set.add(match[1])
		}
	}

	set.addAll(data.Imports)
	set.addAll(data.Exports)
	for _, match := range importPathPattern.FindAllStringSubmatch(data.Content, -1) {
		set.add(moduleName(match[1]))
	}
	for _, match := range goImportPattern.FindAllStringSubmatch(data.Content, -1) {
		set.add(moduleName(match[1]))
	}
	for _, match := range pyImportPattern.FindAllStringSubmatch(data.Content, -1) {
		set.add(match[1] + match[2])
	}
	for _, match := range requirePattern.FindAllStringSubmatch(data.Content, -1) {
		set.add(moduleName(match[1]))
	}

	var keywords []string
	if data.Language != "" {
		keywords = []string{strings.ToLower(data.Language)}
	}

	return FeatureSet{Concepts: set.values, Keywords: keywords}
}

func extractDocumentationFeatures(data NodeData) FeatureSet {
	set := newTermSet()
	set.addAll(data.Sections)
	for _, match := range headingPattern.FindAllStringSubmatch(data.Content, -1) {
		set.add(strings.TrimSpace(match[1]))
	}

	return FeatureSet{
		Concepts: set.values,
		Keywords: topFrequentWords(data.Title+" "+data.Content, topKeywords),
	}
}

func extractTaskFeatures(data NodeData) FeatureSet {
	set := newTermSet()
	set.add(data.Priority)
	set.add(data.Status)

	return FeatureSet{
		Concepts: set.values,
		Keywords: topFrequentWords(data.Title+" "+data.Description, topKeywords),
	}
}

// topFrequentWords returns the n most frequent words longer than three
// characters, stop words excluded. Ties are broken by first appearance.
func topFrequentWords(text string, n int) []string {
	words := strings.Fields(strings.ToLower(text))

	counts := make(map[string]int)
	order := make(map[string]int)
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if len(word) <= 3 || stopWords[word] {
			continue
		}
		if _, seen := counts[word]; !seen {
			order[word] = len(order)
		}
		counts[word]++
	}

	ranked := make([]string, 0, len(counts))
	for word := range counts {
		ranked = append(ranked, word)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return order[ranked[i]] < order[ranked[j]]
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// moduleName reduces an import path to its module identifier.
func moduleName(path string) string {
	path = strings.TrimPrefix(path, "@")
	if idx := strings.LastIndex(path, "/"); idx >= 0 && idx < len(path)-1 {
		return path[idx+1:]
	}
	return path
}

// termSet is an insertion-ordered string set.
type termSet struct {
	seen   map[string]bool
	values []string
}

func newTermSet() *termSet {
	return &termSet{seen: make(map[string]bool), values: []string{}}
}

func (s *termSet) add(value string) {
	value = strings.TrimSpace(value)
	if value == "" || s.seen[value] {
		return
	}
	s.seen[value] = true
	s.values = append(s.values, value)
}

func (s *termSet) addAll(values []string) {
	for _, v := range values {
		s.add(v)
	}
}
