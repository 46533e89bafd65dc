package config

import (
	"strings"
	"time"

	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/foundation/normalization"
)

// Provider selects the translation backend.
type Provider string

const (
	ProviderBaidu Provider = "baidu"
	ProviderLLM   Provider = "llm"
	ProviderNone  Provider = "none"
)

// FailurePolicy decides what happens to a file whose translation partly failed.
type FailurePolicy string

const (
	// FailurePolicySkip leaves the file unwritten and counts it as failed.
	FailurePolicySkip FailurePolicy = "skip"
	// FailurePolicyPartial writes the degraded content but still counts the file as failed.
	FailurePolicyPartial FailurePolicy = "partial"
)

var (
	providers       = normalization.New(ProviderBaidu, ProviderLLM, ProviderNone)
	failurePolicies = normalization.New(FailurePolicySkip, FailurePolicyPartial)
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateSource,
		c.validateSite,
		c.validateTranslation,
		c.validateSchedule,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(message, field string) error {
	return foundationerrors.ConfigError(message).WithContext("field", field).Build()
}

func (c *Config) validateSource() error {
	if c.Source.Offline() {
		return nil
	}
	if c.Source.DocumentID == "" {
		return invalid("document id is required unless source.file is set", "source.document_id")
	}
	if c.Source.AppID == "" || c.Source.AppSecret == "" {
		return invalid("app id and app secret are required unless source.file is set", "source.app_id")
	}
	return nil
}

func (c *Config) validateSite() error {
	if strings.TrimSpace(c.Site.Root) == "" {
		return invalid("site root cannot be empty", "site.root")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	t := c.Translation
	switch t.Provider {
	case ProviderBaidu:
		if t.Baidu.APIKey == "" || t.Baidu.SecretKey == "" {
			return invalid("baidu provider requires api_key and secret_key", "translation.baidu")
		}
	case ProviderLLM:
		if t.LLM.Endpoint == "" || t.LLM.APIKey == "" || t.LLM.Deployment == "" {
			return invalid("llm provider requires endpoint, api_key and deployment", "translation.llm")
		}
	case ProviderNone:
	default:
		return invalid("unknown translation provider: "+string(t.Provider)+" (valid: "+providers.Valid()+")", "translation.provider")
	}

	switch t.FailurePolicy {
	case FailurePolicySkip, FailurePolicyPartial:
	default:
		return invalid("unknown failure policy: "+string(t.FailurePolicy)+" (valid: "+failurePolicies.Valid()+")", "translation.failure_policy")
	}

	if _, err := t.SourceLanguage.Tag(); err != nil {
		return invalid("invalid source language code: "+t.SourceLanguage.Code, "translation.source_language")
	}
	seenCode := map[string]bool{}
	seenDir := map[string]bool{}
	for _, l := range t.Languages {
		if _, err := l.Tag(); err != nil {
			return invalid("invalid language code: "+l.Code, "translation.languages")
		}
		if seenCode[l.Code] {
			return invalid("duplicate language code: "+l.Code, "translation.languages")
		}
		if seenDir[l.LocaleDir] {
			return invalid("duplicate locale dir: "+l.LocaleDir, "translation.languages")
		}
		if l.Code == t.SourceLanguage.Code {
			return invalid("target language equals source language: "+l.Code, "translation.languages")
		}
		seenCode[l.Code] = true
		seenDir[l.LocaleDir] = true
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if c.Schedule.Interval.Std() < time.Minute {
		return invalid("schedule interval must be at least 1m", "schedule.interval")
	}
	return nil
}
