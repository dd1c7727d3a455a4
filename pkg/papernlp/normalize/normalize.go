// Package normalize turns a raw paper record into an ordered, English-only
// section list ready for annotation, or explains why the paper is skipped.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/papernlp/pkg/papernlp/corpus"
	"github.com/cognicore/papernlp/pkg/papernlp/ids"
	"github.com/cognicore/papernlp/pkg/papernlp/langsvc"
	"github.com/cognicore/papernlp/pkg/papernlp/sections"
)

// Reason names why a document was skipped.
type Reason string

const (
	ReasonEmpty         Reason = "empty_document"
	ReasonUndetectable  Reason = "language_undetectable"
	ReasonTranslation   Reason = "translation_failed"
	ReasonInvalidRecord Reason = "invalid_record"
	ReasonModelError    Reason = "model_error"
)

// SkipError marks a document-local failure: the document is dropped and the
// shard moves on.
type SkipError struct {
	Reason Reason
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err == nil {
		return "skip: " + string(e.Reason)
	}
	return fmt.Sprintf("skip: %s: %v", e.Reason, e.Err)
}

func (e *SkipError) Unwrap() error { return e.Err }

// Skip wraps err as a SkipError with reason.
func Skip(reason Reason, err error) error {
	return &SkipError{Reason: reason, Err: err}
}

// AsSkip extracts the SkipError from err's chain.
func AsSkip(err error) (*SkipError, bool) {
	var se *SkipError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Section is one section ready for annotation.
type Section struct {
	ID       string
	Name     string
	Text     string
	Abstract bool
}

// BodyRef is a body entry of the annotation tree.
type BodyRef struct {
	SectionID   string `json:"section_id"`
	SectionName string `json:"section_name"`
}

// Document is a normalized paper.
type Document struct {
	PaperID string
	// Language is the detected language of the source text.
	Language string
	// OriginalText is set only when the paper was translated.
	OriginalText string
	Sections     []Section
	AbstractIDs  []string
	Body         []BodyRef
	Tables       []corpus.Table
}

// Defaults for Normalizer fields left zero.
const (
	DefaultTarget     = "en"
	DefaultMinChars   = 6
	DefaultProbeChars = 100
)

// Normalizer prepares raw documents.
type Normalizer struct {
	Lang     langsvc.Service
	Sections *sections.Canonicalizer
	IDs      ids.Generator

	Target     string // language every section ends up in
	MinChars   int    // shorter concatenated text is an empty document
	ProbeChars int    // detection only looks at this many leading runes

	Log *logrus.Entry
}

// Normalize checks content, detects language, translates when needed and
// assigns section ids. Skips are returned as *SkipError.
func (n *Normalizer) Normalize(ctx context.Context, raw *corpus.RawDocument) (*Document, error) {
	secs := raw.Sections()

	texts := make([]string, len(secs))
	for i, s := range secs {
		texts[i] = s.Text
	}
	all := strings.TrimSpace(strings.Join(texts, " "))
	if utf8.RuneCountInString(all) < n.minChars() {
		return nil, Skip(ReasonEmpty, fmt.Errorf("%d characters of text", utf8.RuneCountInString(all)))
	}

	lang, err := n.Lang.Detect(ctx, prefix(all, n.probeChars()))
	if err == nil && strings.TrimSpace(lang) == "" {
		err = langsvc.ErrUndetectable
	}
	if err != nil {
		return nil, Skip(ReasonUndetectable, err)
	}
	lang = langsvc.Normalize(lang)

	doc := &Document{PaperID: raw.PaperID, Language: lang, Tables: corpus.ExtractTables(raw)}
	if !langsvc.Same(lang, n.target()) {
		doc.OriginalText = originalText(secs)
		translated, err := n.translate(ctx, secs)
		if err != nil {
			return nil, Skip(ReasonTranslation, err)
		}
		secs = translated
	}

	for i, s := range secs {
		sec := Section{ID: n.IDs.New(), Name: s.Name, Text: s.Text, Abstract: i < len(raw.Abstract)}
		if sec.Abstract {
			doc.AbstractIDs = append(doc.AbstractIDs, sec.ID)
		} else {
			sec.Name = n.Sections.Canonical(sec.Name)
			doc.Body = append(doc.Body, BodyRef{SectionID: sec.ID, SectionName: sec.Name})
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc, nil
}

// translate renders every section text and name in the target language.
// The first failure fails the whole document: a half-translated paper is
// never returned.
func (n *Normalizer) translate(ctx context.Context, secs []corpus.Section) ([]corpus.Section, error) {
	out := make([]corpus.Section, len(secs))
	for i, s := range secs {
		text, err := n.Lang.Translate(ctx, s.Text, n.target())
		if err != nil {
			return nil, fmt.Errorf("section %d text: %w", i, err)
		}
		name, err := n.Lang.Translate(ctx, s.Name, n.target())
		if err != nil {
			return nil, fmt.Errorf("section %d name: %w", i, err)
		}
		out[i] = corpus.Section{Text: text, Name: name}
	}
	if n.Log != nil {
		n.Log.WithField("sections", len(out)).Debug("translated document")
	}
	return out, nil
}

// originalText interleaves section names and texts in section order.
func originalText(secs []corpus.Section) string {
	parts := make([]string, len(secs))
	for i, s := range secs {
		parts[i] = s.Name + "\n" + s.Text
	}
	return strings.Join(parts, "\n\n")
}

func prefix(s string, runes int) string {
	if runes <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == runes {
			return s[:pos]
		}
		i++
	}
	return s
}

func (n *Normalizer) target() string {
	if n.Target == "" {
		return DefaultTarget
	}
	return n.Target
}

func (n *Normalizer) minChars() int {
	if n.MinChars <= 0 {
		return DefaultMinChars
	}
	return n.MinChars
}

func (n *Normalizer) probeChars() int {
	if n.ProbeChars <= 0 {
		return DefaultProbeChars
	}
	return n.ProbeChars
}
