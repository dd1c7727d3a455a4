// Package rules is the builtin annotation backend: a rule-based segmenter,
// tokenizer and lemmatizer, a Schwartz-Hearst abbreviation detector, hashed
// word vectors, and gazetteer-driven entity extraction and concept linking.
package rules

import (
	"context"
	"fmt"

	"github.com/cognicore/papernlp/pkg/papernlp/engine"
)

// Backend is the factory name of this backend.
const Backend = "builtin"

// secondaryBreaks makes secondary models also split on line breaks and
// semicolons, so their sentence counts can differ from the primary parse.
const secondaryBreaks = "\n;"

// New builds an engine from res with the selected models.
func New(res *Resources, models engine.Models) (*engine.Engine, error) {
	if res == nil {
		return nil, fmt.Errorf("rules: resources required")
	}
	lex := NewLexicon()
	for _, g := range res.Synonyms {
		lex.AddSynonymGroup(g.Canonical, g.Variants)
	}

	mentions := make([]Entry, 0, len(res.Concepts))
	for _, c := range res.Concepts {
		mentions = append(mentions, Entry{ID: c.ID, Canonical: c.Name, Label: EntityLabel, Variants: c.Aliases})
	}

	eng := &engine.Engine{
		Parser: &Parser{
			seg:      NewSegmenter(res.Protected, ""),
			stops:    NewStoplist(res.Stopwords),
			lex:      lex,
			vec:      Vectorizer{Dim: res.VectorDim},
			mentions: NewGazetteer(mentions),
		},
	}
	if models.UMLS {
		eng.Linker = NewConceptLinker(res.Concepts, lex)
	}
	for _, name := range models.Secondary() {
		labels, ok := res.Models[name]
		if !ok {
			return nil, fmt.Errorf("rules: no gazetteer for model %q", name)
		}
		eng.Secondary = append(eng.Secondary, NewGazetteerExtractor(name, labels, NewSegmenter(res.Protected, secondaryBreaks)))
	}
	return eng, nil
}

// Builder adapts New to the engine factory. A nil res means the embedded
// defaults.
func Builder(res *Resources) engine.Builder {
	return func(_ context.Context, models engine.Models) (*engine.Engine, error) {
		if res == nil {
			def, err := DefaultResources()
			if err != nil {
				return nil, err
			}
			res = def
		}
		return New(res, models)
	}
}
