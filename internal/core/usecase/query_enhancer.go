package usecase

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// IntentRule maps detected query intent to synonym expansion text. A rule
// fires when any trigger appears in the lowercased query and, if phrases
// are set, at least one phrase appears too.
type IntentRule struct {
	Triggers []string `yaml:"triggers"`
	Phrases  []string `yaml:"phrases,omitempty"`
	Append   string   `yaml:"append"`
}

// QueryEnhancer rewrites raw queries by appending domain synonym terms.
// Enhancement is purely additive: original query text is never removed or
// reordered, and re-enhancing an enhanced query at worst duplicates terms.
type QueryEnhancer struct {
	rules []IntentRule
}

func NewQueryEnhancer(rules []IntentRule) *QueryEnhancer {
	if len(rules) == 0 {
		rules = defaultIntentRules()
	}
	return &QueryEnhancer{rules: rules}
}

func (e *QueryEnhancer) Enhance(query string) string {
	lower := strings.ToLower(query)
	out := query
	for _, rule := range e.rules {
		if !containsAny(lower, rule.Triggers) {
			continue
		}
		if len(rule.Phrases) > 0 && !containsAny(lower, rule.Phrases) {
			continue
		}
		out += " " + rule.Append
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// LoadIntentRules reads an intent-rule table from a YAML file, so new
// categories are data additions rather than code changes.
func LoadIntentRules(path string) ([]IntentRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent rules: %w", err)
	}

	var doc struct {
		Rules []IntentRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse intent rules: %w", err)
	}
	return doc.Rules, nil
}

func defaultIntentRules() []IntentRule {
	temporal := []string{"when", "date", "deadline"}
	return []IntentRule{
		{Triggers: temporal, Phrases: []string{"winter break", "winter holiday"}, Append: "vacation december january"},
		{Triggers: temporal, Phrases: []string{"summer break", "summer holiday"}, Append: "vacation june july august"},
		{Triggers: temporal, Phrases: []string{"exam"}, Append: "examination test assessment schedule"},
		{Triggers: temporal, Phrases: []string{"registration"}, Append: "enroll enrollment course selection"},
		{Triggers: []string{"attendance", "absent"}, Append: "presence class participation requirement policy"},
		{Triggers: []string{"fee", "cost", "tuition", "price"}, Append: "payment euro cost tuition financial"},
		{Triggers: []string{"requirement", "required"}, Append: "must need mandatory necessary prerequisite"},
	}
}
