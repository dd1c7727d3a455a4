package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseRecord(t *testing.T) {
	doc, err := Parse([]byte(`{
		"paper_id": "P1",
		"abstract": [{"text": "Short <i>abstract</i>.", "section": "Abstract"}],
		"body_text": [
			{"text": "COVID-19 is a disease.", "section": "intro", "cite_spans": []},
			{"text": "We used PCR &amp; ELISA.", "section": "methods"}
		],
		"ref_entries": {"TABREF0": {"text": "Table 1", "type": "table"}}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "P1", doc.PaperID)
	require.Len(t, doc.Abstract, 1)
	assert.Equal(t, "Short abstract.", doc.Abstract[0].Text)
	require.Len(t, doc.BodyText, 2)
	assert.Equal(t, "We used PCR & ELISA.", doc.BodyText[1].Text)
	assert.Len(t, doc.Sections(), 3)
}

func TestParseRejectsInvalidRecords(t *testing.T) {
	cases := map[string]string{
		"missing paper id":  `{"body_text": []}`,
		"missing body":      `{"paper_id": "P1"}`,
		"section not object": `{"paper_id": "P1", "body_text": ["text"]}`,
		"not json":          `{`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestParseNullAbstract(t *testing.T) {
	doc, err := Parse([]byte(`{"paper_id":"P2","abstract":null,"body_text":[{"text":"x","section":""}]}`))
	require.NoError(t, err)
	assert.Empty(t, doc.Abstract)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestCleanLeavesComparisonsAlone(t *testing.T) {
	assert.Equal(t, "p < 0.05 was significant", Clean("p < 0.05 was significant"))
	assert.Equal(t, "CO2 levels", Clean("CO<sub>2</sub> levels"))
	assert.Equal(t, "text", Clean("<script>alert(1)</script>text"))
	assert.Equal(t, "a & b", Clean("a &amp; b"))
	// NFC composes e + combining acute.
	assert.Equal(t, "café", Clean("café"))
}

func TestCleanKeepsTextAfterBareLessThan(t *testing.T) {
	in := "Cases & controls with age<fifty were excluded. Next sentence follows."
	assert.Equal(t, in, Clean(in))
	assert.Equal(t, "x<y & CO2 rose", Clean("x<y &amp; CO<sub>2</sub> rose"))
}

func TestFileID(t *testing.T) {
	assert.Equal(t, "abc123", File{Path: "/data/pdf_json/abc123.json"}.ID())
	assert.Equal(t, "PMC42", File{Path: "PMC42.xml.json"}.ID())
}

func TestScanAndDelta(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/P1.json", `{}`)
	writeFile(t, dir, "a/P2.json", `{"x": 1}`)
	writeFile(t, dir, "b/P3.json", `{}`)
	writeFile(t, dir, "b/readme.txt", `ignore me`)

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, int64(8), files[1].Size)

	deltaPath := writeFile(t, dir, "delta.json", `{"delta list": ["P1", " "]}`)
	delta, err := LoadDelta(deltaPath)
	require.NoError(t, err)
	assert.Equal(t, Delta{"P1"}, delta)

	kept := delta.Filter(files)
	require.Len(t, kept, 2)
	for _, f := range kept {
		assert.NotEqual(t, "P1", f.ID())
	}
}

func TestDeltaRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delta.json")
	require.NoError(t, WriteDelta(path, []string{"P9"}))
	delta, err := LoadDelta(path)
	require.NoError(t, err)
	assert.True(t, delta.Excludes(File{Path: "x/P9.json"}))
	assert.False(t, delta.Excludes(File{Path: "x/P8.json"}))
}

func TestEmptyDeltaKeepsEverything(t *testing.T) {
	files := []File{{Path: "P1.json"}, {Path: "P2.json"}}
	assert.Equal(t, files, Delta(nil).Filter(files))
}

func TestExtractTablesOrdered(t *testing.T) {
	doc := &RawDocument{RefEntries: map[string]RefEntry{
		"TABREF1": {Text: "second"},
		"FIGREF0": {Text: "first"},
	}}
	tables := ExtractTables(doc)
	require.Len(t, tables, 2)
	assert.Equal(t, "FIGREF0", tables[0].RefID)
	assert.Equal(t, "figref", tables[0].Kind)
	assert.Equal(t, "second", tables[1].Text)
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard-0.json")
	files := []File{{Path: "a.json", Size: 3}, {Path: "b.json", Size: 5}}
	require.NoError(t, WriteManifest(path, files))
	got, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, files, got)
}
