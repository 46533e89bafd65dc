package config

import (
	"path/filepath"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// appliers run in order; later domains may depend on earlier ones (cache path uses work dir).
var appliers = []DefaultApplier{
	sourceDefaults{},
	siteDefaults{},
	translationDefaults{},
	cacheDefaults{},
	metricsDefaults{},
	notifyDefaults{},
	publishDefaults{},
	scheduleDefaults{},
}

// ApplyDefaults fills every unset field with its default value.
func ApplyDefaults(cfg *Config) error {
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

const (
	DefaultFeishuBaseURL = "https://open.feishu.cn"
	DefaultBaiduBaseURL  = "https://aip.baidubce.com"
	DefaultIntroSuffix   = "介绍"
)

type sourceDefaults struct{}

func (sourceDefaults) Domain() string { return "source" }

func (sourceDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = DefaultFeishuBaseURL
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = Duration(30 * time.Second)
	}
	applyRetryDefaults(&cfg.Source.Retry)
	return nil
}

type siteDefaults struct{}

func (siteDefaults) Domain() string { return "site" }

func (siteDefaults) ApplyDefaults(cfg *Config) error {
	s := &cfg.Site
	if s.Root == "" {
		s.Root = "."
	}
	if s.DocsDir == "" {
		s.DocsDir = "docs"
	}
	if s.WorkDir == "" {
		s.WorkDir = ".docmigrate"
	}
	if s.SidebarFile == "" {
		s.SidebarFile = "sidebars.ts"
	}
	if s.IntroSuffix == "" {
		s.IntroSuffix = DefaultIntroSuffix
	}
	// intro.md holds position 1 in the site sidebar
	if s.CategoryStart <= 0 {
		s.CategoryStart = 2
	}
	if s.DegradedDumpBlocks <= 0 {
		s.DegradedDumpBlocks = 100
	}
	return nil
}

type translationDefaults struct{}

func (translationDefaults) Domain() string { return "translation" }

func (translationDefaults) ApplyDefaults(cfg *Config) error {
	t := &cfg.Translation
	if t.Provider == "" {
		t.Provider = ProviderBaidu
	} else if p, ok := providers.Normalize(string(t.Provider)); ok {
		t.Provider = p
	}
	if t.SourceLanguage.Code == "" {
		t.SourceLanguage = SourceLanguage()
	} else {
		t.SourceLanguage = completeLanguage(t.SourceLanguage)
	}
	if len(t.Languages) == 0 {
		t.Languages = DefaultLanguages()
	}
	for i := range t.Languages {
		t.Languages[i] = completeLanguage(t.Languages[i])
	}
	if t.MinInterval == 0 {
		t.MinInterval = Duration(500 * time.Millisecond)
	}
	if t.Timeout == 0 {
		t.Timeout = Duration(30 * time.Second)
	}
	if t.FailurePolicy == "" {
		t.FailurePolicy = FailurePolicySkip
	} else if p, ok := failurePolicies.Normalize(string(t.FailurePolicy)); ok {
		t.FailurePolicy = p
	}
	applyRetryDefaults(&t.Retry)
	if t.Baidu.BaseURL == "" {
		t.Baidu.BaseURL = DefaultBaiduBaseURL
	}
	if t.LLM.APIVersion == "" {
		t.LLM.APIVersion = "2024-02-01"
	}
	return nil
}

func applyRetryDefaults(rc *RetryConfig) {
	mode := NormalizeRetryBackoff(rc.Backoff)
	if mode == "" {
		mode = RetryBackoffExponential
	}
	rc.Backoff = string(mode)
	if rc.Initial == 0 {
		rc.Initial = Duration(time.Second)
	}
	if rc.Max == 0 {
		rc.Max = Duration(30 * time.Second)
	}
	if rc.MaxRetries == 0 {
		rc.MaxRetries = 2
	}
}

type cacheDefaults struct{}

func (cacheDefaults) Domain() string { return "cache" }

func (cacheDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = filepath.Join(cfg.Site.WorkDir, "cache.db")
	}
	return nil
}

type metricsDefaults struct{}

func (metricsDefaults) Domain() string { return "metrics" }

func (metricsDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "docmigrate"
	}
	if cfg.Metrics.TextfilePath == "" {
		cfg.Metrics.TextfilePath = filepath.Join(cfg.Site.WorkDir, "docmigrate.prom")
	}
	return nil
}

type notifyDefaults struct{}

func (notifyDefaults) Domain() string { return "notify" }

func (notifyDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.URL == "" {
		cfg.Notify.URL = "nats://127.0.0.1:4222"
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "docmigrate.runs"
	}
	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = Duration(5 * time.Second)
	}
	return nil
}

type publishDefaults struct{}

func (publishDefaults) Domain() string { return "publish" }

func (publishDefaults) ApplyDefaults(cfg *Config) error {
	p := &cfg.Publish
	if p.Remote == "" {
		p.Remote = "origin"
	}
	if p.Username == "" {
		p.Username = "token"
	}
	if p.AuthorName == "" {
		p.AuthorName = "docmigrate"
	}
	if p.AuthorEmail == "" {
		p.AuthorEmail = "docmigrate@localhost"
	}
	if p.Message == "" {
		p.Message = "docs: sync translated documentation"
	}
	return nil
}

type scheduleDefaults struct{}

func (scheduleDefaults) Domain() string { return "schedule" }

func (scheduleDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Schedule.Interval == 0 {
		cfg.Schedule.Interval = Duration(24 * time.Hour)
	}
	return nil
}
