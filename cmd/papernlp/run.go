package main

import (
	"fmt"
	"math/rand"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cognicore/papernlp/pkg/papernlp/config"
	"github.com/cognicore/papernlp/pkg/papernlp/corpus"
	"github.com/cognicore/papernlp/pkg/papernlp/dispatch"
	"github.com/cognicore/papernlp/pkg/papernlp/status"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Annotate the corpus with one worker process per shard",
	RunE:  runRun,
}

var runBindings = map[string]string{
	"corpus":     "corpus.path",
	"delta":      "corpus.delta_file",
	"max-files":  "corpus.max_files",
	"seed":       "corpus.seed",
	"memory-gib": "worker.memory_gib",
}

func init() {
	f := runCmd.Flags()
	f.String("corpus", "", "corpus directory")
	f.String("delta", "", "delta file listing already processed papers")
	f.Int("max-files", 0, "process at most this many files (0 = all)")
	f.Int64("seed", 1, "shuffle seed")
	f.Float64("memory-gib", 4, "memory budget per worker in GiB")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, runBindings)
	if err != nil {
		return err
	}
	if err := cfg.RequireCorpus(); err != nil {
		return err
	}
	logger := newLogger(cfg)
	log := logger.WithField("cmd", "run")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := scanCorpus(cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warn("nothing to process")
		return nil
	}

	ledger, err := status.Open(ctx, cfg.Status.DB)
	if err != nil {
		return err
	}
	defer ledger.Close()

	d := &dispatch.Dispatcher{
		Launcher: &dispatch.ProcessLauncher{
			Dir:  cfg.ManifestDir(),
			Args: childArgs(),
			Env:  childEnv(cfg),
		},
		Ledger:   ledger,
		Budget:   cfg.Budget(),
		Rand:     rand.New(rand.NewSource(cfg.Corpus.Seed)),
		MaxFiles: cfg.Corpus.MaxFiles,
		Log:      log,
	}
	report, err := d.Run(ctx, files)
	if err != nil {
		return err
	}

	sum, err := ledger.Summary(ctx, report.RunID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %s files across %d workers\n", report.RunID, humanize.Comma(int64(report.Files)), report.Workers)
	printSummary(out, sum)

	if failed := report.Failed(); len(failed) > 0 {
		for _, s := range failed {
			fmt.Fprintf(out, "shard %d (%d files) failed: %v\n", s.Index, s.Files, s.Err)
		}
		return fmt.Errorf("%d of %d shards failed", len(failed), report.Workers)
	}
	return nil
}

// scanCorpus lists the corpus and drops papers named in the delta file.
func scanCorpus(cfg *config.Config) ([]corpus.File, error) {
	files, err := corpus.Scan(cfg.Corpus.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Corpus.DeltaFile == "" {
		return files, nil
	}
	delta, err := corpus.LoadDelta(cfg.Corpus.DeltaFile)
	if err != nil {
		return nil, err
	}
	return delta.Filter(files), nil
}

// childArgs forwards the config sources to worker processes.
func childArgs() []string {
	var args []string
	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	if envFile != "" {
		args = append(args, "--env-file", envFile)
	}
	return args
}

// childEnv pins the values a worker must agree on with the dispatcher, flags
// included.
func childEnv(cfg *config.Config) []string {
	env := func(key, value string) string { return config.EnvPrefix + "_" + key + "=" + value }
	return []string{
		env("OUTPUT_DIR", cfg.Output.Dir),
		env("STATUS_DB", cfg.Status.DB),
		env("LOGGING_LEVEL", cfg.Logging.Level),
		env("LOGGING_FORMAT", cfg.Logging.Format),
		env("LOGGING_FILE", cfg.Logging.File),
	}
}
