package rules

import (
	"context"
	"sort"
	"strings"

	"github.com/cognicore/papernlp/pkg/papernlp/engine"
)

// Concept is an ontology entry the linker can resolve mentions to.
type Concept struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

const (
	exactScore  = 1.0
	foldedScore = 0.8
)

// ConceptLinker resolves mentions against a concept table. Exact alias
// matches rank above matches after case folding and lemmatization.
type ConceptLinker struct {
	exact  map[string][]Concept
	folded map[string][]Concept
	lex    *Lexicon
}

// NewConceptLinker indexes concepts by name and alias.
func NewConceptLinker(concepts []Concept, lex *Lexicon) *ConceptLinker {
	l := &ConceptLinker{
		exact:  make(map[string][]Concept),
		folded: make(map[string][]Concept),
		lex:    lex,
	}
	for _, c := range concepts {
		for _, alias := range append([]string{c.Name}, c.Aliases...) {
			alias = strings.TrimSpace(alias)
			if alias == "" {
				continue
			}
			l.exact[alias] = appendConcept(l.exact[alias], c)
			key := l.fold(alias)
			l.folded[key] = appendConcept(l.folded[key], c)
		}
	}
	return l
}

func appendConcept(list []Concept, c Concept) []Concept {
	for _, have := range list {
		if have.ID == c.ID {
			return list
		}
	}
	return append(list, c)
}

func (l *ConceptLinker) fold(s string) string {
	pieces := Tokenize(s)
	parts := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p.Word {
			parts = append(parts, l.lex.Lemma(p.Text))
		}
	}
	return strings.Join(parts, " ")
}

// Link returns ranked candidates per mention, best first.
func (l *ConceptLinker) Link(ctx context.Context, mentions []string) ([][]engine.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]engine.Candidate, len(mentions))
	for i, m := range mentions {
		m = strings.TrimSpace(m)
		seen := map[string]bool{}
		var cands []engine.Candidate
		for _, c := range l.exact[m] {
			seen[c.ID] = true
			cands = append(cands, engine.Candidate{ConceptID: c.ID, CanonicalName: c.Name, Score: exactScore})
		}
		for _, c := range l.folded[l.fold(m)] {
			if !seen[c.ID] {
				seen[c.ID] = true
				cands = append(cands, engine.Candidate{ConceptID: c.ID, CanonicalName: c.Name, Score: foldedScore})
			}
		}
		sort.SliceStable(cands, func(a, b int) bool {
			if cands[a].Score != cands[b].Score {
				return cands[a].Score > cands[b].Score
			}
			return cands[a].ConceptID < cands[b].ConceptID
		})
		out[i] = cands
	}
	return out, nil
}
