package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "preprocessed", cfg.Output.Dir)
	assert.Equal(t, filepath.Join("preprocessed", "_status.db"), cfg.Status.DB)
	assert.Equal(t, "en", cfg.Language.Target)
	assert.Equal(t, 100, cfg.Language.ProbeChars)
	assert.Equal(t, 6, cfg.Document.MinChars)
	assert.Equal(t, 6, cfg.Abbreviation.MinLongForm)
	assert.Equal(t, "builtin", cfg.Engine.Backend)
	assert.True(t, cfg.Models.UMLS)
	assert.True(t, cfg.Models.BioNLP13CG)
	assert.Equal(t, uint64(4<<30), cfg.Budget())
	assert.Equal(t, filepath.Join("preprocessed", "_shards"), cfg.ManifestDir())
	assert.ErrorIs(t, cfg.RequireCorpus(), ErrInvalidConfig)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "papernlp.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
corpus:
  path: /data/corpus
  max_files: 50
output:
  dir: /data/out
language:
  timeout: 5s
models:
  craft: false
`), 0o644))
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("PAPERNLP_CORPUS_MAX_FILES=7\n"), 0o644))
	t.Setenv("PAPERNLP_OUTPUT_DIR", "/env/out")
	t.Cleanup(func() { os.Unsetenv("PAPERNLP_CORPUS_MAX_FILES") })

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("max", 0, "")
	fs.String("out", "", "")
	require.NoError(t, fs.Parse([]string{"--max", "3"}))

	cfg, err := Load(Options{
		File:    file,
		EnvFile: env,
		Flags:   map[string]*pflag.Flag{"corpus.max_files": fs.Lookup("max"), "output.dir": fs.Lookup("out")},
	})
	require.NoError(t, err)

	assert.Equal(t, "/data/corpus", cfg.Corpus.Path)
	assert.Equal(t, 3, cfg.Corpus.MaxFiles, "a set flag wins")
	assert.Equal(t, "/env/out", cfg.Output.Dir, "an unset flag does not shadow the environment")
	assert.Equal(t, 5*time.Second, cfg.Language.Timeout)
	assert.False(t, cfg.Models.Craft)
	assert.True(t, cfg.Models.JNLPBA)
	assert.NoError(t, cfg.RequireCorpus())
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "absent.env")})
	assert.NoError(t, err)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown engine backend", map[string]string{"PAPERNLP_ENGINE_BACKEND": "spacy"}},
		{"remote engine without url", map[string]string{"PAPERNLP_ENGINE_BACKEND": "remote"}},
		{"remote language without url", map[string]string{"PAPERNLP_LANGUAGE_BACKEND": "remote"}},
		{"zero memory budget", map[string]string{"PAPERNLP_WORKER_MEMORY_GIB": "0"}},
		{"bad log format", map[string]string{"PAPERNLP_LOGGING_FORMAT": "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(Options{})
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Setenv("PAPERNLP_ENGINE_BACKEND", "remote")
	t.Setenv("PAPERNLP_ENGINE_URL", "http://nlp:8000")
	_, err := Load(Options{})
	assert.NoError(t, err)
}
