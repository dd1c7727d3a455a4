// Package engine defines the contract between the annotation pipeline and
// the NLP backends that segment, tag, link and embed text.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrModelDisabled is returned when a component is asked for a model that the
// run configuration switched off.
var ErrModelDisabled = errors.New("engine: model disabled")

// Token is one token of a parsed sentence.
type Token struct {
	Text   string
	Lemma  string
	Stop   bool
	Vector []float32 // nil when the backend has no embedding for the token
}

// Span is an entity mention. Start and End are byte offsets into the text
// that was handed to the backend.
type Span struct {
	Text  string
	Label string
	Start int
	End   int
}

// Abbreviation is one occurrence of a short form whose long form is known.
type Abbreviation struct {
	Start    int
	End      int
	Short    string
	LongForm string
}

// ParsedSentence is one sentence of the primary segmentation.
type ParsedSentence struct {
	Text     string
	Tokens   []Token
	Entities []Span
}

// Parsed is the primary parse of a block of text.
type Parsed struct {
	Text          string
	Sentences     []ParsedSentence
	Abbreviations []Abbreviation
}

// Candidate is a ranked concept-link candidate for a mention.
type Candidate struct {
	ConceptID     string
	CanonicalName string
	Score         float64
}

// Parser segments text and produces tokens, lemmas, vectors, entity spans
// and abbreviation occurrences.
type Parser interface {
	Parse(ctx context.Context, text string) (*Parsed, error)
}

// Linker maps mentions to ranked ontology concepts. The result has one
// (possibly empty) candidate list per mention, best first.
type Linker interface {
	Link(ctx context.Context, mentions []string) ([][]Candidate, error)
}

// Extractor is a secondary entity model. It segments text on its own, so
// the number of span lists it returns can differ from the primary parse.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, text string) ([][]Span, error)
}

// Engine bundles the backends one worker loads once and reuses for every
// document of its shard.
type Engine struct {
	Parser    Parser
	Linker    Linker // nil when concept linking is disabled
	Secondary []Extractor

	closers []io.Closer
}

// OnClose registers a resource released by Close.
func (e *Engine) OnClose(c io.Closer) {
	e.closers = append(e.closers, c)
}

// Close releases backend resources.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Validate checks that the bundle is usable.
func (e *Engine) Validate() error {
	if e == nil || e.Parser == nil {
		return fmt.Errorf("engine: parser required")
	}
	for i, x := range e.Secondary {
		if x == nil {
			return fmt.Errorf("engine: secondary extractor %d is nil", i)
		}
	}
	return nil
}
