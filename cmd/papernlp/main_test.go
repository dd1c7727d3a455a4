package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/papernlp/internal/logging"
	"github.com/cognicore/papernlp/pkg/papernlp/config"
	"github.com/cognicore/papernlp/pkg/papernlp/corpus"
	"github.com/cognicore/papernlp/pkg/papernlp/status"
)

const record = `{"paper_id": "%s", "abstract": null, "body_text": [{"text": "COVID-19 is a disease.", "section": "intro"}]}`

func writeCorpus(t *testing.T, ids ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, id := range ids {
		body := fmt.Sprintf(record, id)
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte(body), 0o644))
	}
	return dir
}

func TestScanCorpusAppliesDelta(t *testing.T) {
	dir := writeCorpus(t, "P1", "P2", "P3")
	delta := filepath.Join(t.TempDir(), "delta.json")
	require.NoError(t, corpus.WriteDelta(delta, []string{"P2"}))

	cfg := &config.Config{Corpus: config.CorpusConfig{Path: dir, DeltaFile: delta}}
	files, err := scanCorpus(cfg)
	require.NoError(t, err)

	var ids []string
	for _, f := range files {
		ids = append(ids, f.ID())
	}
	assert.Equal(t, []string{"P1", "P3"}, ids)
}

func TestChildEnvPinsSharedSettings(t *testing.T) {
	cfg := &config.Config{
		Output:  config.OutputConfig{Dir: "/out"},
		Status:  config.StatusConfig{DB: "/out/_status.db"},
		Logging: config.LoggingConfig{Level: "debug", Format: "json"},
	}
	env := childEnv(cfg)
	assert.Contains(t, env, "PAPERNLP_OUTPUT_DIR=/out")
	assert.Contains(t, env, "PAPERNLP_STATUS_DB=/out/_status.db")
	assert.Contains(t, env, "PAPERNLP_LOGGING_LEVEL=debug")
}

func TestWorkerWiring(t *testing.T) {
	dir := writeCorpus(t, "P1")
	out := t.TempDir()
	t.Setenv("PAPERNLP_OUTPUT_DIR", out)
	t.Setenv("PAPERNLP_STATUS_DB", filepath.Join(out, "_status.db"))
	cfg, err := config.Load(config.Options{})
	require.NoError(t, err)

	ctx := context.Background()
	ledger, err := status.Open(ctx, cfg.Status.DB)
	require.NoError(t, err)
	defer ledger.Close()
	require.NoError(t, ledger.StartRun(ctx, status.Run{ID: "r1", Files: 1, Workers: 1}))

	w, eng, err := newWorker(ctx, cfg, ledger, "r1", 0, logging.Discard())
	require.NoError(t, err)
	defer eng.Close()
	assert.Len(t, eng.Secondary, 4)

	files, err := corpus.Scan(dir)
	require.NoError(t, err)
	sum, err := w.Run(ctx, files)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.OK)
	assert.FileExists(t, filepath.Join(out, "P1.json"))

	var buf bytes.Buffer
	s, err := ledger.Summary(ctx, "r1")
	require.NoError(t, err)
	printSummary(&buf, s)
	assert.Contains(t, buf.String(), "success")
}
