package commands

import (
	"context"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	"git.home.luguber.info/inful/docmigrate/internal/feishu"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/metrics"
	"git.home.luguber.info/inful/docmigrate/internal/notify"
	"git.home.luguber.info/inful/docmigrate/internal/pipeline"
	"git.home.luguber.info/inful/docmigrate/internal/publish"
	"git.home.luguber.info/inful/docmigrate/internal/transcache"
	"git.home.luguber.info/inful/docmigrate/internal/translate"
)

// runtime holds the long-lived collaborators of one invocation.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	source   pipeline.Source
	client   *feishu.Client
	cache    *transcache.Cache
	recorder *metrics.PrometheusRecorder
	notifier *notify.NATSNotifier
}

// openRuntime opens the cache and connects the optional collaborators. A
// notification server that cannot be reached only disables notifications.
func openRuntime(cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: logger}

	if cfg.Source.Offline() {
		rt.source = feishu.FileSource{Path: cfg.Source.File}
	} else {
		rt.client = feishu.NewClient(cfg.Source, feishu.WithLogger(logger))
		rt.source = rt.client
	}

	if cfg.Cache.Enabled {
		c, err := transcache.Open(cfg.Cache.Path)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.cache = c
	}

	if cfg.Metrics.Enabled {
		rt.recorder = metrics.NewPrometheusRecorder(prom.NewRegistry(), cfg.Metrics.Namespace)
	}

	if cfg.Notify.Enabled {
		n, err := notify.Connect(cfg.Notify, logger)
		if err != nil {
			logger.Warn("Run notifications disabled", logfields.URL(cfg.Notify.URL), logfields.Error(err))
		} else {
			rt.notifier = n
		}
	}
	return rt, nil
}

// Close releases every collaborator.
func (rt *runtime) Close() {
	if rt.notifier != nil {
		rt.notifier.Close()
	}
	if rt.cache != nil {
		if err := rt.cache.Close(); err != nil {
			rt.logger.Warn("Failed to close cache", logfields.Error(err))
		}
	}
	if rt.client != nil {
		rt.client.Close()
	}
}

// runner builds a pipeline runner. The translator is only created when the
// run translates, so a missing backend does not affect source-only runs.
func (rt *runtime) runner(withTranslator bool) (*pipeline.Runner, error) {
	opts := []pipeline.Option{pipeline.WithLogger(rt.logger)}
	if withTranslator {
		var memory translate.Memory
		if rt.cache != nil {
			memory = rt.cache
		}
		tr, err := translate.New(rt.cfg.Translation, memory, rt.logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithTranslator(tr))
	}
	if rt.cache != nil {
		opts = append(opts, pipeline.WithFileIndex(rt.cache), pipeline.WithRunLog(rt.cache))
	}
	if rt.recorder != nil {
		opts = append(opts, pipeline.WithRecorder(rt.recorder))
	}
	if rt.notifier != nil {
		opts = append(opts, pipeline.WithNotifier(rt.notifier))
	}
	return pipeline.New(rt.cfg, rt.source, opts...), nil
}

// publishFunc commits and pushes the site root after a run.
func (rt *runtime) publishFunc() pipeline.PublishFunc {
	p := publish.New(rt.cfg.Publish, rt.logger)
	return func(ctx context.Context) (string, error) {
		res, err := p.Publish(ctx, rt.cfg.Site.Root, "")
		return res.Commit, err
	}
}

// exportMetrics writes the textfile export when metrics are enabled.
func (rt *runtime) exportMetrics() {
	if rt.recorder == nil || rt.cfg.Metrics.TextfilePath == "" {
		return
	}
	if err := metrics.WriteTextfile(rt.cfg.Metrics.TextfilePath, rt.recorder.Registry()); err != nil {
		rt.logger.Warn("Failed to write metrics textfile", logfields.Path(rt.cfg.Metrics.TextfilePath), logfields.Error(err))
	}
}
