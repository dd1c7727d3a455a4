// Package config resolves the run configuration from defaults, an optional
// YAML file, an optional .env file, PAPERNLP_ environment variables and
// command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cognicore/papernlp/pkg/papernlp/engine"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override, e.g. PAPERNLP_CORPUS_PATH.
const EnvPrefix = "PAPERNLP"

// Config is the full run configuration.
type Config struct {
	Corpus       CorpusConfig       `mapstructure:"corpus"`
	Output       OutputConfig       `mapstructure:"output"`
	Status       StatusConfig       `mapstructure:"status"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Language     LanguageConfig     `mapstructure:"language"`
	Document     DocumentConfig     `mapstructure:"document"`
	Abbreviation AbbreviationConfig `mapstructure:"abbreviation"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Sections     SectionsConfig     `mapstructure:"sections"`
	Models       engine.Models      `mapstructure:"models"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type CorpusConfig struct {
	Path      string `mapstructure:"path"`
	DeltaFile string `mapstructure:"delta_file"`
	MaxFiles  int    `mapstructure:"max_files" validate:"gte=0"` // 0 means all
	Seed      int64  `mapstructure:"seed"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type StatusConfig struct {
	DB string `mapstructure:"db" validate:"required"`
}

type WorkerConfig struct {
	MemoryGiB float64 `mapstructure:"memory_gib" validate:"gt=0"`
	Dir       string  `mapstructure:"dir"` // shard manifests; defaults under output.dir
}

type LanguageConfig struct {
	Target     string        `mapstructure:"target" validate:"required"`
	ProbeChars int           `mapstructure:"probe_chars" validate:"gt=0"`
	Backend    string        `mapstructure:"backend" validate:"oneof=builtin remote"`
	URL        string        `mapstructure:"url" validate:"required_if=Backend remote"`
	APIKey     string        `mapstructure:"api_key"`
	RatePerSec float64       `mapstructure:"rate_per_sec" validate:"gte=0"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

type DocumentConfig struct {
	MinChars int `mapstructure:"min_chars" validate:"gte=0"`
}

type AbbreviationConfig struct {
	MinLongForm int `mapstructure:"min_long_form" validate:"gte=1"`
}

type EngineConfig struct {
	Backend   string        `mapstructure:"backend" validate:"oneof=builtin remote"`
	URL       string        `mapstructure:"url" validate:"required_if=Backend remote"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Resources string        `mapstructure:"resources"`
	Stoplist  string        `mapstructure:"stoplist"`
	Concepts  string        `mapstructure:"concepts"`
}

type SectionsConfig struct {
	File string `mapstructure:"file"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format     string `mapstructure:"format" validate:"oneof=text json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Budget is the per-worker memory budget in bytes.
func (c *Config) Budget() uint64 {
	return uint64(c.Worker.MemoryGiB * (1 << 30))
}

// RequireCorpus reports a missing corpus path. Commands that only read the
// ledger do not need one.
func (c *Config) RequireCorpus() error {
	if strings.TrimSpace(c.Corpus.Path) == "" {
		return fmt.Errorf("%w: corpus.path is required", ErrInvalidConfig)
	}
	return nil
}

// ManifestDir is where shard manifests are written.
func (c *Config) ManifestDir() string {
	if c.Worker.Dir != "" {
		return c.Worker.Dir
	}
	return filepath.Join(c.Output.Dir, "_shards")
}

// Loader returns the resource loader for the configured files.
func (c *Config) Loader() *Loader {
	return &Loader{
		ResourcesPath: c.Engine.Resources,
		StoplistPath:  c.Engine.Stoplist,
		ConceptsPath:  c.Engine.Concepts,
		SectionsPath:  c.Sections.File,
	}
}

// Options selects the configuration sources.
type Options struct {
	File    string // optional YAML config file
	EnvFile string // optional .env file; missing is not an error
	// Flags maps config keys to command-line flags. Only flags the user set
	// override lower sources.
	Flags map[string]*pflag.Flag
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("corpus.path", "")
	v.SetDefault("corpus.delta_file", "")
	v.SetDefault("corpus.max_files", 0)
	v.SetDefault("corpus.seed", 1)

	v.SetDefault("output.dir", "preprocessed")
	v.SetDefault("status.db", filepath.Join("preprocessed", "_status.db"))

	v.SetDefault("worker.memory_gib", 4)
	v.SetDefault("worker.dir", "")

	v.SetDefault("language.target", "en")
	v.SetDefault("language.probe_chars", 100)
	v.SetDefault("language.backend", "builtin")
	v.SetDefault("language.url", "")
	v.SetDefault("language.api_key", "")
	v.SetDefault("language.rate_per_sec", 5)
	v.SetDefault("language.timeout", 30*time.Second)
	v.SetDefault("language.cache_ttl", time.Hour)

	v.SetDefault("document.min_chars", 6)
	v.SetDefault("abbreviation.min_long_form", 6)

	v.SetDefault("engine.backend", "builtin")
	v.SetDefault("engine.url", "")
	v.SetDefault("engine.api_key", "")
	v.SetDefault("engine.timeout", 2*time.Minute)
	v.SetDefault("engine.resources", "")
	v.SetDefault("engine.stoplist", "")
	v.SetDefault("engine.concepts", "")
	v.SetDefault("sections.file", "")

	for _, m := range []string{"umls", engine.ModelCraft, engine.ModelJNLPBA, engine.ModelBC5CDR, engine.ModelBioNLP13CG} {
		v.SetDefault("models."+m, true)
	}

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 5)
}

// Load resolves and validates the configuration.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
