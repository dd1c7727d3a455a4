// Package sections maps free-form paper section headings to a small set of
// canonical labels ("introduction", "methods", "results", ...).
package sections

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sections.yaml
var defaultTable []byte

// Rule maps any heading containing one of Contains to Label.
type Rule struct {
	Contains []string `yaml:"contains"`
	Label    string   `yaml:"label"`
}

// Table is the on-disk form of a canonicalizer.
type Table struct {
	Labels     map[string][]string `yaml:"labels"`
	Heuristics []Rule              `yaml:"heuristics"`
	Cleanup    []Rule              `yaml:"cleanup"`
}

// Canonicalizer resolves section headings to labels.
type Canonicalizer struct {
	names      map[string]string
	heuristics []Rule
	cleanup    []Rule
}

// Default returns the canonicalizer built from the embedded table.
func Default() *Canonicalizer {
	c, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("sections: embedded table: %v", err))
	}
	return c
}

// Parse builds a canonicalizer from YAML.
func Parse(data []byte) (*Canonicalizer, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse section table: %w", err)
	}
	return New(t), nil
}

// New builds a canonicalizer. A heading listed under two labels resolves to
// the alphabetically first one.
func New(t Table) *Canonicalizer {
	labels := make([]string, 0, len(t.Labels))
	for l := range t.Labels {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	c := &Canonicalizer{names: make(map[string]string), heuristics: lowerRules(t.Heuristics), cleanup: lowerRules(t.Cleanup)}
	for _, label := range labels {
		for _, name := range t.Labels[label] {
			key := strings.ToLower(strings.TrimSpace(name))
			if _, ok := c.names[key]; !ok {
				c.names[key] = label
			}
		}
	}
	return c
}

func lowerRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Label: r.Label, Contains: make([]string, len(r.Contains))}
		for j, s := range r.Contains {
			out[i].Contains[j] = strings.ToLower(s)
		}
	}
	return out
}

// Canonical returns the label for a heading, or the lowercased heading when
// nothing matches. An empty heading stays empty.
func (c *Canonicalizer) Canonical(name string) string {
	text := strings.ToLower(strings.TrimSpace(name))
	if text == "" {
		return ""
	}
	if label, ok := c.names[text]; ok {
		return label
	}
	if label, ok := firstMatch(c.heuristics, text); ok {
		return label
	}
	if label, ok := firstMatch(c.cleanup, text); ok {
		return label
	}
	return text
}

func firstMatch(rules []Rule, text string) (string, bool) {
	for _, r := range rules {
		for _, s := range r.Contains {
			if s != "" && strings.Contains(text, s) {
				return r.Label, true
			}
		}
	}
	return "", false
}
