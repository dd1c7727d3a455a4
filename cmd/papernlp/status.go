package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cognicore/papernlp/pkg/papernlp/corpus"
	"github.com/cognicore/papernlp/pkg/papernlp/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-document outcomes of a run",
	RunE:  runStatus,
}

var (
	statusRun   string
	statusDelta string
)

func init() {
	f := statusCmd.Flags()
	f.StringVar(&statusRun, "run", "", "run id (default: latest run)")
	f.StringVar(&statusDelta, "write-delta", "", "write every successfully annotated paper id to this delta file")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	ledger, err := status.Open(ctx, cfg.Status.DB)
	if err != nil {
		return err
	}
	defer ledger.Close()

	out := cmd.OutOrStdout()
	runID := statusRun
	if runID == "" {
		run, ok, err := ledger.LatestRun(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "no runs recorded")
			return nil
		}
		runID = run.ID
		fmt.Fprintf(out, "run %s started %s: %s files, %d workers\n",
			run.ID, humanize.Time(run.StartedAt), humanize.Comma(int64(run.Files)), run.Workers)
	}

	sum, err := ledger.Summary(ctx, runID)
	if err != nil {
		return err
	}
	printSummary(out, sum)

	if statusDelta != "" {
		ids, err := ledger.Processed(ctx)
		if err != nil {
			return err
		}
		if err := corpus.WriteDelta(statusDelta, ids); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s paper ids to %s\n", humanize.Comma(int64(len(ids))), statusDelta)
	}
	return nil
}

func printSummary(w io.Writer, sum status.Summary) {
	for _, s := range []status.Status{status.Success, status.Skipped, status.Failed, status.ShardCrash} {
		fmt.Fprintf(w, "  %-12s %s\n", s, humanize.Comma(int64(sum.Counts[s])))
	}
	reasons := make([]string, 0, len(sum.Reasons))
	for r := range sum.Reasons {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "    %-22s %s\n", r, humanize.Comma(int64(sum.Reasons[r])))
	}
}
