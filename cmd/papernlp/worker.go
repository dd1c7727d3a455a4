package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cognicore/papernlp/pkg/papernlp/corpus"
	"github.com/cognicore/papernlp/pkg/papernlp/status"
)

var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Process one shard (started by run)",
	Hidden: true,
	RunE:   runWorker,
}

var (
	workerManifest string
	workerShard    int
	workerRun      string
)

func init() {
	f := workerCmd.Flags()
	f.StringVar(&workerManifest, "manifest", "", "shard manifest")
	f.IntVar(&workerShard, "shard", 0, "shard index")
	f.StringVar(&workerRun, "run", "", "run id")
}

func runWorker(cmd *cobra.Command, _ []string) error {
	if workerManifest == "" || workerRun == "" {
		return errors.New("--manifest and --run are required")
	}
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	log := newLogger(cfg).WithFields(logrus.Fields{"run": workerRun, "shard": workerShard})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := corpus.ReadManifest(workerManifest)
	if err != nil {
		return err
	}
	ledger, err := status.Open(ctx, cfg.Status.DB)
	if err != nil {
		return err
	}
	defer ledger.Close()

	w, eng, err := newWorker(ctx, cfg, ledger, workerRun, workerShard, log)
	if err != nil {
		log.WithError(err).Error("worker setup failed")
		return err
	}
	defer eng.Close()

	_, err = w.Run(ctx, files)
	return err
}
