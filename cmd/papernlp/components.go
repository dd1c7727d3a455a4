package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/papernlp/pkg/papernlp/config"
	"github.com/cognicore/papernlp/pkg/papernlp/engine"
	"github.com/cognicore/papernlp/pkg/papernlp/engine/remote"
	"github.com/cognicore/papernlp/pkg/papernlp/engine/rules"
	"github.com/cognicore/papernlp/pkg/papernlp/ids"
	"github.com/cognicore/papernlp/pkg/papernlp/langsvc"
	"github.com/cognicore/papernlp/pkg/papernlp/normalize"
	"github.com/cognicore/papernlp/pkg/papernlp/pipeline"
	"github.com/cognicore/papernlp/pkg/papernlp/sentence"
	"github.com/cognicore/papernlp/pkg/papernlp/sink"
	"github.com/cognicore/papernlp/pkg/papernlp/status"
)

func newFactory(cfg *config.Config, res *rules.Resources) *engine.Factory {
	f := engine.NewFactory()
	f.Register(rules.Backend, rules.Builder(res))
	f.Register(remote.Backend, remote.Builder(remote.Config{
		URL:     cfg.Engine.URL,
		APIKey:  cfg.Engine.APIKey,
		Timeout: cfg.Engine.Timeout,
	}))
	return f
}

func newLanguageService(cfg *config.Config) (langsvc.Service, error) {
	switch cfg.Language.Backend {
	case "remote":
		return langsvc.NewHTTPService(langsvc.HTTPConfig{
			URL:        cfg.Language.URL,
			APIKey:     cfg.Language.APIKey,
			RatePerSec: cfg.Language.RatePerSec,
			Timeout:    cfg.Language.Timeout,
			CacheTTL:   cfg.Language.CacheTTL,
		})
	case "builtin", "":
		return langsvc.NewOffline()
	}
	return nil, fmt.Errorf("%w: unknown language backend %q", config.ErrInvalidConfig, cfg.Language.Backend)
}

// newWorker wires a shard worker. The engine is built once per process and
// must be closed by the caller.
func newWorker(ctx context.Context, cfg *config.Config, ledger *status.Ledger, runID string, shard int, log *logrus.Entry) (*pipeline.Worker, *engine.Engine, error) {
	comp, err := cfg.Loader().Load()
	if err != nil {
		return nil, nil, err
	}
	eng, err := newFactory(cfg, comp.Resources).New(ctx, cfg.Engine.Backend, cfg.Models)
	if err != nil {
		return nil, nil, fmt.Errorf("build engine: %w", err)
	}
	lang, err := newLanguageService(cfg)
	if err != nil {
		eng.Close()
		return nil, nil, err
	}

	gen := ids.NewULID()
	log.WithFields(logrus.Fields{"backend": cfg.Engine.Backend, "models": cfg.Models.String()}).Info("engine ready")
	return &pipeline.Worker{
		Normalizer: &normalize.Normalizer{
			Lang:       lang,
			Sections:   comp.Sections,
			IDs:        gen,
			Target:     cfg.Language.Target,
			MinChars:   cfg.Document.MinChars,
			ProbeChars: cfg.Language.ProbeChars,
			Log:        log,
		},
		Builder: &sentence.Builder{
			Engine:      eng,
			Schema:      sentence.NewSchema(engine.DefaultLabels),
			IDs:         gen,
			MinLongForm: cfg.Abbreviation.MinLongForm,
			Log:         log,
		},
		Sink:   &sink.FileSink{Dir: cfg.Output.Dir},
		Ledger: ledger,
		RunID:  runID,
		Shard:  shard,
		Log:    log,
	}, eng, nil
}
