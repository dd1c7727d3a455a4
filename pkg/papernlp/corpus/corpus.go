package corpus

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// File is one corpus record on disk.
type File struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// ID returns the file identifier: the base name without extensions.
// Some corpus files carry double extensions (".xml.json"), so everything
// after the first dot is dropped.
func (f File) ID() string {
	base := filepath.Base(f.Path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// Section is one titled block of paper text.
type Section struct {
	Text string `json:"text"`
	Name string `json:"section"`
}

// RefEntry is a figure or table reference attached to a paper.
type RefEntry struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

// RawDocument is a paper record as read from the corpus.
type RawDocument struct {
	PaperID    string              `json:"paper_id"`
	Abstract   []Section           `json:"abstract"`
	BodyText   []Section           `json:"body_text"`
	RefEntries map[string]RefEntry `json:"ref_entries"`
}

// Sections returns abstract sections followed by body sections.
func (d *RawDocument) Sections() []Section {
	out := make([]Section, 0, len(d.Abstract)+len(d.BodyText))
	out = append(out, d.Abstract...)
	return append(out, d.BodyText...)
}

//go:embed schema.json
var recordSchema []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", bytes.NewReader(recordSchema)); err != nil {
			schemaErr = fmt.Errorf("load record schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("record.json")
	})
	return schema, schemaErr
}

// Load reads, validates and cleans one paper record.
func Load(path string) (*RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw JSON against the record schema and decodes it.
// Section texts and names go through Clean.
func Parse(data []byte) (*RawDocument, error) {
	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if err := sch.Validate(generic); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}

	var doc RawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	for i := range doc.Abstract {
		doc.Abstract[i] = cleanSection(doc.Abstract[i])
	}
	for i := range doc.BodyText {
		doc.BodyText[i] = cleanSection(doc.BodyText[i])
	}
	return &doc, nil
}

func cleanSection(s Section) Section {
	return Section{Text: Clean(s.Text), Name: Clean(s.Name)}
}
