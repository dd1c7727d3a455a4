package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoaderAllEmpty(t *testing.T) {
	comp, err := (&Loader{}).Load()
	require.NoError(t, err)

	require.NotNil(t, comp.Resources)
	assert.NotEmpty(t, comp.Resources.Concepts, "should fall back to embedded resources")
	assert.NotNil(t, comp.Sections)
}

func TestLoaderNonExistentFiles(t *testing.T) {
	for name, loader := range map[string]Loader{
		"resources": {ResourcesPath: "/nonexistent/resources.yaml"},
		"stoplist":  {StoplistPath: "/nonexistent/stoplist.yaml"},
		"concepts":  {ConceptsPath: "/nonexistent/concepts.txt"},
		"sections":  {SectionsPath: "/nonexistent/sections.yaml"},
	} {
		_, err := loader.Load()
		assert.Error(t, err, name)
	}
}

func TestLoaderValidFiles(t *testing.T) {
	dir := t.TempDir()
	loader := Loader{
		StoplistPath: writeFile(t, dir, "stoplist.yaml", "terms:\n  - herein\n  - thereof\n"),
		ConceptsPath: writeFile(t, dir, "concepts.txt", `# id|name|aliases
C0042210|Vaccines|vaccine|vaccination
bad line
C0000001|Orphan
`),
		ResourcesPath: writeFile(t, dir, "resources.yaml", `vector_dim: 16
models:
  craft:
    SO: [plasmid]
`),
		SectionsPath: writeFile(t, dir, "sections.yaml", "labels:\n  summary: [synopsis]\n"),
	}

	comp, err := loader.Load()
	require.NoError(t, err)

	res := comp.Resources
	assert.Equal(t, 16, res.VectorDim)
	assert.Equal(t, map[string][]string{"SO": {"plasmid"}}, res.Models["craft"], "craft gazetteer is replaced")
	assert.NotEmpty(t, res.Models["jnlpba"], "models absent from the overlay keep their defaults")
	assert.Contains(t, res.Stopwords, "thereof")

	n := len(res.Concepts)
	require.GreaterOrEqual(t, n, 2)
	last, prev := res.Concepts[n-1], res.Concepts[n-2]
	assert.Equal(t, "C0000001", last.ID)
	assert.Equal(t, "Orphan", last.Name)
	assert.Empty(t, last.Aliases)
	assert.Equal(t, "C0042210", prev.ID)
	assert.Equal(t, []string{"vaccine", "vaccination"}, prev.Aliases)

	assert.Equal(t, "summary", comp.Sections.Canonical("Synopsis"))
}

func TestLoadConceptsSkipsMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "concepts.txt", "|no id\nC1|\nC2|Name| |alias\n")
	concepts, err := LoadConcepts(path)
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, []string{"alias"}, concepts[0].Aliases, "blank aliases are dropped")
}

func TestLoadStoplist(t *testing.T) {
	sl, err := LoadStoplist(writeFile(t, t.TempDir(), "s.yaml", "terms: [a, b]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sl.Terms)
}
