package config

import (
	"fmt"
	"os"

	"github.com/cognicore/papernlp/pkg/papernlp/engine/rules"
	"github.com/cognicore/papernlp/pkg/papernlp/sections"
)

// Loader loads the annotation resource files. Every path is optional; the
// embedded defaults are used for what is not given.
type Loader struct {
	ResourcesPath string // rules resources overlay (YAML)
	StoplistPath  string // extra stopwords (YAML terms:)
	ConceptsPath  string // extra concepts (pipe-separated)
	SectionsPath  string // replacement section table (YAML)
}

// Components holds the loaded resources
type Components struct {
	Resources *rules.Resources
	Sections  *sections.Canonicalizer
}

// Load reads all resource files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	res, err := rules.DefaultResources()
	if err != nil {
		return nil, err
	}
	comp := &Components{Resources: res, Sections: sections.Default()}

	if l.ResourcesPath != "" {
		data, err := os.ReadFile(l.ResourcesPath)
		if err != nil {
			return nil, fmt.Errorf("load resources: %w", err)
		}
		overlay, err := rules.ParseResources(data)
		if err != nil {
			return nil, fmt.Errorf("load resources: %w", err)
		}
		res.Merge(overlay)
	}

	if l.StoplistPath != "" {
		stoplist, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		res.Stopwords = append(res.Stopwords, stoplist.Terms...)
	}

	if l.ConceptsPath != "" {
		concepts, err := LoadConcepts(l.ConceptsPath)
		if err != nil {
			return nil, fmt.Errorf("load concepts: %w", err)
		}
		res.Concepts = append(res.Concepts, concepts...)
	}

	if l.SectionsPath != "" {
		data, err := os.ReadFile(l.SectionsPath)
		if err != nil {
			return nil, fmt.Errorf("load sections: %w", err)
		}
		comp.Sections, err = sections.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("load sections: %w", err)
		}
	}

	return comp, nil
}
