// Package sentence builds the per-sentence annotations of one section:
// lemmas, concept-linked entities, a summed vector and the spans of every
// secondary entity model.
package sentence

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/papernlp/pkg/papernlp/engine"
	"github.com/cognicore/papernlp/pkg/papernlp/ids"
)

// DefaultMinLongForm is the shortest long form that replaces an abbreviation.
const DefaultMinLongForm = 6

// Entity is a concept-linked mention.
type Entity struct {
	CanonicalName string `json:"canonical_name"`
	ConceptID     string `json:"concept_id"`
}

// Sentence is the persisted record of one sentence.
type Sentence struct {
	ID       string   `json:"sentence_id"`
	Text     string   `json:"tokens"`
	Lemmas   []string `json:"lemmas"`
	Entities []Entity `json:"entities"`
	// Secondary maps every known label to the span texts found for it.
	Secondary map[string][]string `json:"secondary_entities"`
	// Vector is nil when the sentence has no non-stop token with an
	// embedding, which is not the same as an all-zero vector.
	Vector []float32 `json:"vector"`
}

// Alignment records how one secondary model lined up with the primary parse.
type Alignment struct {
	Model        string
	Primary      int
	Secondary    int
	Merged       int
	DroppedSpans int
}

// Section is the result of building one section.
type Section struct {
	Sentences  []Sentence
	IDs        []string
	Text       string // text actually parsed, after abbreviation expansion
	Alignments []Alignment
}

// Builder annotates section texts. One Builder serves a whole shard.
type Builder struct {
	Engine      *engine.Engine
	Schema      *Schema
	IDs         ids.Generator
	MinLongForm int
	Log         *logrus.Entry
}

// Build annotates text. Errors from any engine fail the whole section.
func (b *Builder) Build(ctx context.Context, text string) (*Section, error) {
	parsed, err := b.Engine.Parser.Parse(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if expanded, ok := ExpandAbbreviations(text, parsed.Abbreviations, b.minLongForm()); ok {
		text = expanded
		if parsed, err = b.Engine.Parser.Parse(ctx, text); err != nil {
			return nil, fmt.Errorf("parse expanded text: %w", err)
		}
	}

	out := &Section{Text: text, Sentences: make([]Sentence, len(parsed.Sentences))}
	for i, ps := range parsed.Sentences {
		out.Sentences[i] = Sentence{
			ID:        b.IDs.New(),
			Text:      ps.Text,
			Lemmas:    lemmas(ps.Tokens),
			Entities:  []Entity{},
			Secondary: map[string][]string{},
			Vector:    sumVectors(ps.Tokens),
		}
	}

	if err := b.link(ctx, parsed, out.Sentences); err != nil {
		return nil, err
	}
	for _, x := range b.Engine.Secondary {
		al, err := b.mergeSecondary(ctx, x, text, out.Sentences)
		if err != nil {
			return nil, err
		}
		out.Alignments = append(out.Alignments, al)
	}

	labels := b.Schema.Labels()
	for i := range out.Sentences {
		sec := out.Sentences[i].Secondary
		for _, l := range labels {
			if _, ok := sec[l]; !ok {
				sec[l] = []string{}
			}
		}
		out.IDs = append(out.IDs, out.Sentences[i].ID)
	}
	return out, nil
}

// link resolves every entity span with one Linker call and keeps the top
// candidate of each span that has any.
func (b *Builder) link(ctx context.Context, parsed *engine.Parsed, sents []Sentence) error {
	if b.Engine.Linker == nil {
		return nil
	}
	var mentions []string
	for _, ps := range parsed.Sentences {
		for _, e := range ps.Entities {
			mentions = append(mentions, e.Text)
		}
	}
	if len(mentions) == 0 {
		return nil
	}
	cands, err := b.Engine.Linker.Link(ctx, mentions)
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}
	if len(cands) != len(mentions) {
		return fmt.Errorf("link: %d candidate lists for %d mentions", len(cands), len(mentions))
	}

	k := 0
	for i, ps := range parsed.Sentences {
		for range ps.Entities {
			if list := cands[k]; len(list) > 0 {
				sents[i].Entities = append(sents[i].Entities, Entity{CanonicalName: list[0].CanonicalName, ConceptID: list[0].ConceptID})
			}
			k++
		}
	}
	return nil
}

func (b *Builder) mergeSecondary(ctx context.Context, x engine.Extractor, text string, sents []Sentence) (Alignment, error) {
	spans, err := x.Extract(ctx, text)
	if err != nil {
		return Alignment{}, fmt.Errorf("%s: %w", x.Name(), err)
	}
	al := Alignment{Model: x.Name(), Primary: len(sents), Secondary: len(spans)}

	for _, p := range Align(len(sents), len(spans)) {
		target := sents[p.Primary].Secondary
		for _, s := range spans[p.Secondary] {
			label := strings.TrimSpace(s.Label)
			if label == "" {
				continue
			}
			if b.Schema.Observe(label) && b.Log != nil {
				b.Log.WithField("label", label).Info("new secondary entity label")
			}
			target[label] = append(target[label], s.Text)
		}
		al.Merged++
	}
	for i := al.Merged; i < len(spans); i++ {
		al.DroppedSpans += len(spans[i])
	}

	if al.Primary != al.Secondary && b.Log != nil {
		b.Log.WithFields(logrus.Fields{
			"model":         al.Model,
			"primary":       al.Primary,
			"secondary":     al.Secondary,
			"dropped_spans": al.DroppedSpans,
		}).Debug("segmentation mismatch, truncated to shorter")
	}
	return al, nil
}

// lemmas keeps the lowercased lemma of every non-stop token that contains a
// letter, in token order.
func lemmas(tokens []engine.Token) []string {
	out := []string{}
	for _, t := range tokens {
		if t.Stop || !hasLetter(t.Text) {
			continue
		}
		lemma := t.Lemma
		if lemma == "" {
			lemma = t.Text
		}
		out = append(out, strings.ToLower(lemma))
	}
	return out
}

// sumVectors adds the vectors of non-stop tokens. It returns nil when no
// such token carries a vector.
func sumVectors(tokens []engine.Token) []float32 {
	var sum []float32
	for _, t := range tokens {
		if t.Stop || len(t.Vector) == 0 {
			continue
		}
		if sum == nil {
			sum = make([]float32, len(t.Vector))
		}
		for i := 0; i < len(sum) && i < len(t.Vector); i++ {
			sum[i] += t.Vector[i]
		}
	}
	return sum
}

// hasLetter reports an ASCII letter. Tokens made only of Greek letters or
// symbols ("β", "±") carry no lemma.
func hasLetter(s string) bool {
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func (b *Builder) minLongForm() int {
	if b.MinLongForm <= 0 {
		return DefaultMinLongForm
	}
	return b.MinLongForm
}
