// Package pipeline runs one worker shard: every document is loaded,
// normalized, annotated section by section, assembled and persisted, in
// shard order, one at a time.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/papernlp/pkg/papernlp/assemble"
	"github.com/cognicore/papernlp/pkg/papernlp/corpus"
	"github.com/cognicore/papernlp/pkg/papernlp/normalize"
	"github.com/cognicore/papernlp/pkg/papernlp/sentence"
	"github.com/cognicore/papernlp/pkg/papernlp/sink"
	"github.com/cognicore/papernlp/pkg/papernlp/status"
)

// Outcome classifies a document result.
type Outcome int

const (
	OK Outcome = iota
	Skip
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Skip:
		return "skip"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// ReasonInvalidTree marks a document whose assembled tree broke the
// closure invariant.
const ReasonInvalidTree normalize.Reason = "invalid_tree"

// Result is the outcome of one document.
type Result struct {
	Outcome Outcome
	PaperID string
	Reason  normalize.Reason // set for Skip
	Err     error
	Tree    *assemble.Tree // set for OK
}

func ok(tree *assemble.Tree) Result {
	return Result{Outcome: OK, PaperID: tree.PaperID, Tree: tree}
}

func skip(paperID string, reason normalize.Reason, err error) Result {
	return Result{Outcome: Skip, PaperID: paperID, Reason: reason, Err: err}
}

func fatal(paperID string, err error) Result {
	return Result{Outcome: Fatal, PaperID: paperID, Err: err}
}

// Recorder stores document outcomes.
type Recorder interface {
	Record(ctx context.Context, r status.Record) error
}

// Worker processes one shard.
type Worker struct {
	Normalizer *normalize.Normalizer
	Builder    *sentence.Builder
	Sink       sink.Sink
	Ledger     Recorder // optional

	RunID string
	Shard int
	Log   *logrus.Entry
}

// Summary counts shard outcomes.
type Summary struct {
	OK      int
	Skipped int
	Reasons map[normalize.Reason]int
}

// Process handles one file. It never panics: a panic inside the document's
// processing becomes a model_error skip.
func (w *Worker) Process(ctx context.Context, f corpus.File) (res Result) {
	paperID := f.ID()
	defer func() {
		if r := recover(); r != nil {
			if w.Log != nil {
				w.Log.WithField("path", f.Path).Debugf("recovered panic: %v\n%s", r, debug.Stack())
			}
			res = skip(paperID, normalize.ReasonModelError, fmt.Errorf("panic: %v", r))
		}
	}()

	raw, err := corpus.Load(f.Path)
	if err != nil {
		return skip(paperID, normalize.ReasonInvalidRecord, err)
	}
	paperID = raw.PaperID
	if err := sink.ValidatePaperID(paperID); err != nil {
		return skip(paperID, normalize.ReasonInvalidRecord, err)
	}

	doc, err := w.Normalizer.Normalize(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return fatal(paperID, ctx.Err())
		}
		if se, isSkip := normalize.AsSkip(err); isSkip {
			return skip(paperID, se.Reason, se.Err)
		}
		return skip(paperID, normalize.ReasonModelError, err)
	}

	built := make(map[string]*sentence.Section, len(doc.Sections))
	for _, sec := range doc.Sections {
		b, err := w.Builder.Build(ctx, sec.Text)
		if err != nil {
			if ctx.Err() != nil {
				return fatal(paperID, ctx.Err())
			}
			return skip(paperID, normalize.ReasonModelError, fmt.Errorf("section %s: %w", sec.ID, err))
		}
		built[sec.ID] = b
	}

	tree, err := assemble.Assemble(doc, built)
	if err != nil {
		return skip(paperID, ReasonInvalidTree, err)
	}
	if err := w.Sink.Write(ctx, tree); err != nil {
		return fatal(paperID, fmt.Errorf("persist %s: %w", paperID, err))
	}
	return ok(tree)
}

// Run processes files in order. Skips are logged and recorded; the first
// fatal result (or ledger failure) stops the shard and is returned.
func (w *Worker) Run(ctx context.Context, files []corpus.File) (Summary, error) {
	sum := Summary{Reasons: map[normalize.Reason]int{}}
	log := w.log()

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res := w.Process(ctx, f)
		entry := log.WithFields(logrus.Fields{"path": f.Path, "paper_id": res.PaperID})

		rec := status.Record{RunID: w.RunID, Path: f.Path, PaperID: res.PaperID, Shard: w.Shard}
		switch res.Outcome {
		case OK:
			sum.OK++
			rec.Status = status.Success
			entry.Debug("document annotated")
		case Skip:
			sum.Skipped++
			sum.Reasons[res.Reason]++
			rec.Status, rec.Reason = status.Skipped, string(res.Reason)
			if res.Err != nil {
				rec.Detail = res.Err.Error()
			}
			entry.WithField("reason", res.Reason).WithError(res.Err).Warn("document skipped")
		case Fatal:
			rec.Status, rec.Detail = status.Failed, res.Err.Error()
			if err := w.record(context.WithoutCancel(ctx), rec); err != nil {
				entry.WithError(err).Error("could not record shard failure")
			}
			entry.WithError(res.Err).Error("shard aborted")
			return sum, res.Err
		}
		if err := w.record(ctx, rec); err != nil {
			entry.WithError(err).Error("status ledger unavailable")
			return sum, err
		}
		if (i+1)%100 == 0 {
			log.WithFields(logrus.Fields{"done": i + 1, "total": len(files)}).Info("shard progress")
		}
	}
	log.WithFields(logrus.Fields{"ok": sum.OK, "skipped": sum.Skipped}).Info("shard finished")
	return sum, nil
}

func (w *Worker) record(ctx context.Context, r status.Record) error {
	if w.Ledger == nil || w.RunID == "" {
		return nil
	}
	return w.Ledger.Record(ctx, r)
}

func (w *Worker) log() *logrus.Entry {
	if w.Log != nil {
		return w.Log.WithField("shard", w.Shard)
	}
	return logrus.NewEntry(logrus.StandardLogger()).WithField("shard", w.Shard)
}
