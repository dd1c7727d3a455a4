package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/papernlp/pkg/papernlp/engine/rules"
)

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

// LoadConcepts loads a concept dictionary from a file
// Format: concept_id|canonical name|alias1|alias2
func LoadConcepts(path string) ([]rules.Concept, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var concepts []rules.Concept
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] == "" || parts[1] == "" {
			continue
		}

		var aliases []string
		for _, a := range parts[2:] {
			if a != "" {
				aliases = append(aliases, a)
			}
		}
		concepts = append(concepts, rules.Concept{ID: parts[0], Name: parts[1], Aliases: aliases})
	}

	return concepts, nil
}
