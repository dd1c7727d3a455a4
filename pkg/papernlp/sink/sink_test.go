package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/papernlp/pkg/papernlp/assemble"
	"github.com/cognicore/papernlp/pkg/papernlp/sentence"
)

func tree(id string) *assemble.Tree {
	return &assemble.Tree{
		PaperID:   id,
		Language:  "en",
		Sections:  map[string][]string{"s1": {"t1"}},
		Abstract:  []string{"s1"},
		Sentences: map[string]sentence.Sentence{"t1": {ID: "t1", Text: "Hello.", Lemmas: []string{"hello"}}},
	}
}

func TestFileSinkWriteAndRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "preprocessed")
	s := &FileSink{Dir: dir}

	require.NoError(t, s.Write(context.Background(), tree("P1")))
	got, err := Read(filepath.Join(dir, "P1.json"))
	require.NoError(t, err)
	assert.Equal(t, "P1", got.PaperID)
	assert.Equal(t, []string{"t1"}, got.Sections["s1"])

	// overwrite, and no temp files left behind
	require.NoError(t, s.Write(context.Background(), tree("P1")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "P1.json", entries[0].Name())
}

func TestFileSinkRejectsBadIDs(t *testing.T) {
	s := &FileSink{Dir: t.TempDir()}
	for _, id := range []string{"", "  ", "../evil", "a/b", ".."} {
		assert.Error(t, s.Write(context.Background(), tree(id)), id)
	}
}

func TestValidatePaperID(t *testing.T) {
	for _, id := range []string{"", "  ", ".", "..", "a/b", `a\b`} {
		assert.ErrorIs(t, ValidatePaperID(id), ErrInvalidPaperID, "id %q", id)
	}
	assert.NoError(t, ValidatePaperID("PMC7096724"))
}

func TestFileSinkCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &FileSink{Dir: t.TempDir()}
	assert.ErrorIs(t, s.Write(ctx, tree("P1")), context.Canceled)
	_, err := os.Stat(s.Path("P1"))
	assert.True(t, os.IsNotExist(err))
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}
