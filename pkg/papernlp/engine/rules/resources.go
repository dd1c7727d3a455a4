package rules

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed resources.yaml
var defaultResources []byte

// SynonymGroup maps variants to their canonical lemma.
type SynonymGroup struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// Resources is everything the builtin backend loads.
type Resources struct {
	VectorDim int                            `yaml:"vector_dim"`
	Stopwords []string                       `yaml:"stopwords"`
	Synonyms  []SynonymGroup                 `yaml:"synonyms"`
	Protected []string                       `yaml:"protected"`
	Concepts  []Concept                      `yaml:"concepts"`
	Models    map[string]map[string][]string `yaml:"models"`
}

// ParseResources decodes a resources document.
func ParseResources(data []byte) (*Resources, error) {
	var r Resources
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse resources: %w", err)
	}
	return &r, nil
}

// DefaultResources returns the embedded resources.
func DefaultResources() (*Resources, error) {
	return ParseResources(defaultResources)
}

// Merge overlays o onto r. List sections are extended; a model present in o
// replaces r's label table for that model.
func (r *Resources) Merge(o *Resources) {
	if o == nil {
		return
	}
	if o.VectorDim > 0 {
		r.VectorDim = o.VectorDim
	}
	r.Stopwords = append(r.Stopwords, o.Stopwords...)
	r.Synonyms = append(r.Synonyms, o.Synonyms...)
	r.Protected = append(r.Protected, o.Protected...)
	r.Concepts = append(r.Concepts, o.Concepts...)
	if len(o.Models) > 0 && r.Models == nil {
		r.Models = make(map[string]map[string][]string, len(o.Models))
	}
	for name, labels := range o.Models {
		r.Models[name] = labels
	}
}
