package assemble

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cognicore/papernlp/pkg/papernlp/sentence"
)

// MarshalJSON writes the tree as one flat object: reserved keys, then every
// section id mapped to its sentence ids and every sentence id mapped to its
// record. original_text is omitted for papers that were not translated.
func (t *Tree) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 6+len(t.Sections)+len(t.Sentences))
	out[KeyPaperID] = t.PaperID
	out[KeyLanguage] = t.Language
	if t.OriginalText != "" {
		out[KeyOriginalText] = t.OriginalText
	}
	out[KeyAbstract] = nonNil(t.Abstract)
	if t.TextBody == nil {
		out[KeyTextBody] = []struct{}{}
	} else {
		out[KeyTextBody] = t.TextBody
	}
	if t.Tables == nil {
		out[KeyTables] = []struct{}{}
	} else {
		out[KeyTables] = t.Tables
	}
	for id, list := range t.Sections {
		out[id] = nonNil(list)
	}
	for id, s := range t.Sentences {
		out[id] = s
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat form back. Non-reserved keys holding arrays
// are sections; those holding objects are sentences.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Tree{Sections: map[string][]string{}, Sentences: map[string]sentence.Sentence{}}

	fields := map[string]interface{}{
		KeyPaperID:      &t.PaperID,
		KeyLanguage:     &t.Language,
		KeyOriginalText: &t.OriginalText,
		KeyAbstract:     &t.Abstract,
		KeyTextBody:     &t.TextBody,
		KeyTables:       &t.Tables,
	}
	for key, msg := range raw {
		if dst, ok := fields[key]; ok {
			if err := json.Unmarshal(msg, dst); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			continue
		}
		switch firstByte(msg) {
		case '[':
			var list []string
			if err := json.Unmarshal(msg, &list); err != nil {
				return fmt.Errorf("decode section %s: %w", key, err)
			}
			t.Sections[key] = list
		case '{':
			var s sentence.Sentence
			if err := json.Unmarshal(msg, &s); err != nil {
				return fmt.Errorf("decode sentence %s: %w", key, err)
			}
			s.ID = key
			t.Sentences[key] = s
		default:
			return fmt.Errorf("unexpected value for key %q", key)
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func firstByte(b []byte) byte {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}
