package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cognicore/papernlp/internal/logging"
	"github.com/cognicore/papernlp/pkg/papernlp/config"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "papernlp",
	Short: "Annotate a corpus of scientific papers",
	Long: `papernlp turns a corpus of scientific-paper JSON records into per-paper
annotation trees: sections, sentences, lemmas, linked concepts, secondary
entity labels and sentence vectors.

The corpus is split into shards sized by free memory and CPU count, and each
shard runs in its own worker process.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (YAML)")
	pf.StringVar(&envFile, "env-file", ".env", "optional .env file")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "text or json")
	pf.String("log-file", "", "also write logs to this rotating file")
	pf.String("out", "", "output directory for annotation trees")
	pf.String("status-db", "", "status ledger path")

	rootCmd.AddCommand(runCmd, workerCmd, scanCmd, statusCmd)
}

// persistent flag name -> config key
var rootBindings = map[string]string{
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"log-file":   "logging.file",
	"out":        "output.dir",
	"status-db":  "status.db",
}

// loadConfig resolves the configuration with the command's flags bound on top.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	flags := make(map[string]*pflag.Flag, len(rootBindings)+len(bindings))
	for _, b := range []map[string]string{rootBindings, bindings} {
		for name, key := range b {
			if f := cmd.Flags().Lookup(name); f != nil {
				flags[key] = f
			}
		}
	}
	return config.Load(config.Options{File: cfgFile, EnvFile: envFile, Flags: flags})
}

func newLogger(cfg *config.Config) *logrus.Logger {
	return logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}
