// Package assemble folds a normalized document and its built sections into
// the persisted annotation tree.
package assemble

import (
	"errors"
	"fmt"

	"github.com/cognicore/papernlp/pkg/papernlp/corpus"
	"github.com/cognicore/papernlp/pkg/papernlp/normalize"
	"github.com/cognicore/papernlp/pkg/papernlp/sentence"
)

var (
	// ErrDanglingID means a referenced id has no entry in the tree.
	ErrDanglingID = errors.New("assemble: dangling id")
	// ErrIDCollision means two entries would share one key.
	ErrIDCollision = errors.New("assemble: id collision")
)

// Reserved top-level keys of the tree.
const (
	KeyPaperID      = "paper_id"
	KeyLanguage     = "language"
	KeyOriginalText = "original_text"
	KeyAbstract     = "abstract"
	KeyTextBody     = "text_body"
	KeyTables       = "tables"
)

var reserved = map[string]bool{
	KeyPaperID: true, KeyLanguage: true, KeyOriginalText: true,
	KeyAbstract: true, KeyTextBody: true, KeyTables: true,
}

// Tree is the annotation tree of one paper. Sections and sentences share one
// id namespace with the reserved keys once serialized.
type Tree struct {
	PaperID      string
	Language     string
	OriginalText string
	Abstract     []string
	TextBody     []normalize.BodyRef
	Tables       []corpus.Table
	Sections     map[string][]string // section id -> sentence ids, in order
	Sentences    map[string]sentence.Sentence
}

// Assemble builds the tree. It makes no model or network calls.
func Assemble(doc *normalize.Document, built map[string]*sentence.Section) (*Tree, error) {
	t := &Tree{
		PaperID:      doc.PaperID,
		Language:     doc.Language,
		OriginalText: doc.OriginalText,
		Abstract:     append([]string{}, doc.AbstractIDs...),
		TextBody:     append([]normalize.BodyRef{}, doc.Body...),
		Tables:       doc.Tables,
		Sections:     make(map[string][]string, len(doc.Sections)),
		Sentences:    make(map[string]sentence.Sentence),
	}

	for _, sec := range doc.Sections {
		b, ok := built[sec.ID]
		if !ok || b == nil {
			return nil, fmt.Errorf("%w: section %s was not built", ErrDanglingID, sec.ID)
		}
		if reserved[sec.ID] {
			return nil, fmt.Errorf("%w: section id %q is reserved", ErrIDCollision, sec.ID)
		}
		if _, dup := t.Sections[sec.ID]; dup {
			return nil, fmt.Errorf("%w: section %s appears twice", ErrIDCollision, sec.ID)
		}

		list := make([]string, 0, len(b.Sentences))
		for _, s := range b.Sentences {
			if reserved[s.ID] {
				return nil, fmt.Errorf("%w: sentence id %q is reserved", ErrIDCollision, s.ID)
			}
			if _, dup := t.Sentences[s.ID]; dup {
				return nil, fmt.Errorf("%w: sentence %s appears twice", ErrIDCollision, s.ID)
			}
			t.Sentences[s.ID] = s
			list = append(list, s.ID)
		}
		t.Sections[sec.ID] = list
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the closure invariant: every section referenced from
// abstract or text_body has a sentence list, every listed sentence exists,
// and no section id is also a sentence id.
func (t *Tree) Validate() error {
	check := func(id string) error {
		if _, ok := t.Sections[id]; !ok {
			return fmt.Errorf("%w: section %s", ErrDanglingID, id)
		}
		return nil
	}
	for _, id := range t.Abstract {
		if err := check(id); err != nil {
			return err
		}
	}
	for _, ref := range t.TextBody {
		if err := check(ref.SectionID); err != nil {
			return err
		}
	}
	for secID, list := range t.Sections {
		if _, clash := t.Sentences[secID]; clash {
			return fmt.Errorf("%w: %s is both a section and a sentence", ErrIDCollision, secID)
		}
		for _, sid := range list {
			if _, ok := t.Sentences[sid]; !ok {
				return fmt.Errorf("%w: sentence %s of section %s", ErrDanglingID, sid, secID)
			}
		}
	}
	return nil
}
