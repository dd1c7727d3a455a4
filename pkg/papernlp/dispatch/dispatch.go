package dispatch

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/papernlp/pkg/papernlp/corpus"
	"github.com/cognicore/papernlp/pkg/papernlp/status"
)

// Ledger is the part of the status store the dispatcher writes.
type Ledger interface {
	StartRun(ctx context.Context, r status.Run) error
	MarkCrashed(ctx context.Context, runID string, shard int, paths []string, detail string) (int, error)
}

// Dispatcher plans a run and waits for every shard.
type Dispatcher struct {
	Launcher Launcher
	Ledger   Ledger // optional
	Probe    Probe  // defaults to SystemResources
	Budget   uint64 // bytes of memory per worker
	Rand     *rand.Rand
	MaxFiles int
	RunID    string // generated when empty
	Log      *logrus.Entry
}

// ShardReport is the outcome of one shard.
type ShardReport struct {
	Index   int
	Files   int
	Err     error
	Elapsed time.Duration
}

// Report summarizes a dispatch.
type Report struct {
	RunID   string
	Workers int
	Files   int
	Shards  []ShardReport
}

// Failed returns the shards that did not complete.
func (r *Report) Failed() []ShardReport {
	var out []ShardReport
	for _, s := range r.Shards {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Run launches all shards concurrently and waits for all of them. A failed
// shard does not stop its siblings. The returned error covers planning and
// ledger failures only; shard failures are in the report.
func (d *Dispatcher) Run(ctx context.Context, files []corpus.File) (*Report, error) {
	log := d.log()
	probe := d.Probe
	if probe == nil {
		probe = SystemResources
	}
	res := probe()
	plan, err := NewPlan(files, res, d.Budget, d.Rand, d.MaxFiles)
	if err != nil {
		return nil, err
	}

	runID := d.RunID
	if runID == "" {
		runID = status.NewRunID()
	}
	log = log.WithField("run", runID)
	fields := logrus.Fields{
		"cpus":     res.CPUs,
		"free_mem": humanize.IBytes(res.FreeMemory),
		"budget":   humanize.IBytes(plan.Budget),
		"workers":  plan.Workers,
		"files":    plan.Files(),
	}
	if plan.Degraded {
		log.WithFields(fields).Warn("free memory below one worker budget, running a single worker")
	} else {
		log.WithFields(fields).Info("dispatch planned")
	}

	if d.Ledger != nil {
		run := status.Run{ID: runID, Files: plan.Files(), Workers: len(plan.Shards)}
		if err := d.Ledger.StartRun(ctx, run); err != nil {
			return nil, fmt.Errorf("register run: %w", err)
		}
	}

	report := &Report{RunID: runID, Workers: len(plan.Shards), Files: plan.Files()}
	report.Shards = make([]ShardReport, len(plan.Shards))

	var g errgroup.Group
	for i, shard := range plan.Shards {
		i, shard := i, shard
		g.Go(func() error {
			entry := log.WithFields(logrus.Fields{"shard": shard.Index, "files": len(shard.Files)})
			entry.Info("worker started")
			start := time.Now()
			err := d.Launcher.Launch(ctx, runID, shard)
			report.Shards[i] = ShardReport{Index: shard.Index, Files: len(shard.Files), Err: err, Elapsed: time.Since(start)}
			if err != nil {
				entry.WithError(err).Error("worker failed")
			} else {
				entry.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("worker finished")
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range report.Failed() {
		d.markCrashed(ctx, log, runID, plan.Shards[s.Index], s.Err)
	}
	return report, nil
}

func (d *Dispatcher) markCrashed(ctx context.Context, log *logrus.Entry, runID string, shard Shard, cause error) {
	if d.Ledger == nil {
		return
	}
	paths := make([]string, len(shard.Files))
	for i, f := range shard.Files {
		paths[i] = f.Path
	}
	n, err := d.Ledger.MarkCrashed(context.WithoutCancel(ctx), runID, shard.Index, paths, cause.Error())
	entry := log.WithField("shard", shard.Index)
	if err != nil {
		entry.WithError(err).Error("could not record shard crash")
		return
	}
	if n > 0 {
		entry.WithField("documents", n).Warn("documents left without status marked as shard crash")
	}
}

func (d *Dispatcher) log() *logrus.Entry {
	if d.Log != nil {
		return d.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
