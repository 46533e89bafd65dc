package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "docmigrate.yaml"

// Config represents the application configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Site        SiteConfig        `yaml:"site"`
	Translation TranslationConfig `yaml:"translation"`
	Cache       CacheConfig       `yaml:"cache"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Notify      NotifyConfig      `yaml:"notify"`
	Publish     PublishConfig     `yaml:"publish"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
}

// SourceConfig describes where the document blocks come from.
type SourceConfig struct {
	BaseURL    string      `yaml:"base_url,omitempty"`
	AppID      string      `yaml:"app_id,omitempty"`
	AppSecret  string      `yaml:"app_secret,omitempty"`
	DocumentID string      `yaml:"document_id,omitempty"`
	File       string      `yaml:"file,omitempty"` // offline api_response.json, takes precedence over the API
	Timeout    Duration    `yaml:"timeout,omitempty"`
	Retry      RetryConfig `yaml:"retry"`
}

// Offline reports whether blocks are read from a saved payload instead of the API.
func (s SourceConfig) Offline() bool { return s.File != "" }

// SiteConfig describes the Docusaurus site that receives the generated pages.
type SiteConfig struct {
	Root                string `yaml:"root"`
	DocsDir             string `yaml:"docs_dir,omitempty"`
	WorkDir             string `yaml:"work_dir,omitempty"`
	SidebarFile         string `yaml:"sidebar_file,omitempty"`
	BackupSidebar       *bool  `yaml:"backup_sidebar,omitempty"`
	IntroSuffix         string `yaml:"intro_suffix,omitempty"`
	CategoryStart       int    `yaml:"category_start,omitempty"`
	HideTableOfContents bool   `yaml:"hide_table_of_contents"`
	HideTitle           bool   `yaml:"hide_title"`
	DegradedDumpBlocks  int    `yaml:"degraded_dump_blocks,omitempty"`
}

// ShouldBackupSidebar reports whether the sidebar file is copied before a sync.
func (s SiteConfig) ShouldBackupSidebar() bool {
	return s.BackupSidebar == nil || *s.BackupSidebar
}

// TranslationConfig configures the translation backends and target locales.
type TranslationConfig struct {
	Provider        Provider      `yaml:"provider"`
	SourceLanguage  Language      `yaml:"source_language"`
	Languages       []Language    `yaml:"languages"`
	MinInterval     Duration      `yaml:"min_interval,omitempty"`
	Timeout         Duration      `yaml:"timeout,omitempty"`
	Retry           RetryConfig   `yaml:"retry"`
	FailurePolicy   FailurePolicy `yaml:"failure_policy,omitempty"`
	TranslateLabels *bool         `yaml:"translate_labels,omitempty"`
	Baidu           BaiduConfig   `yaml:"baidu,omitempty"`
	LLM             LLMConfig     `yaml:"llm,omitempty"`
}

// ShouldTranslateLabels reports whether category labels are translated for locale directories.
func (t TranslationConfig) ShouldTranslateLabels() bool {
	return t.TranslateLabels == nil || *t.TranslateLabels
}

// BaiduConfig holds the OAuth client credentials of the Baidu machine translation API.
type BaiduConfig struct {
	BaseURL   string `yaml:"base_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// LLMConfig configures an Azure OpenAI chat completions deployment.
type LLMConfig struct {
	Endpoint    string  `yaml:"endpoint,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Deployment  string  `yaml:"deployment,omitempty"`
	APIVersion  string  `yaml:"api_version,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
}

// CacheConfig configures the SQLite translation memory.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// MetricsConfig configures the Prometheus textfile export written after each run.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Namespace    string `yaml:"namespace,omitempty"`
	TextfilePath string `yaml:"textfile_path,omitempty"`
}

// NotifyConfig configures the NATS run summary publisher.
type NotifyConfig struct {
	Enabled bool     `yaml:"enabled"`
	URL     string   `yaml:"url,omitempty"`
	Subject string   `yaml:"subject,omitempty"`
	Timeout Duration `yaml:"timeout,omitempty"`
}

// PublishConfig configures committing and pushing the site repository.
type PublishConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Remote      string `yaml:"remote,omitempty"`
	Branch      string `yaml:"branch,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Token       string `yaml:"token,omitempty"`
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
	Message     string `yaml:"message,omitempty"`
	Pull        bool   `yaml:"pull"`
}

// ScheduleConfig configures the periodic runner.
type ScheduleConfig struct {
	Interval  Duration `yaml:"interval,omitempty"`
	// Cron, when set, takes precedence over Interval (standard 5-field expression).
	Cron      string   `yaml:"cron,omitempty"`
	Translate bool     `yaml:"translate"`
	Publish   bool     `yaml:"publish"`
}

// Load loads configuration from the specified file, applying defaults and validation.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, foundationerrors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse expands environment variables in raw YAML, decodes it, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			Build()
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return foundationerrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	data, err := yaml.Marshal(exampleConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

func exampleConfig() Config {
	return Config{
		Source: SourceConfig{
			AppID:      "${FEISHU_APP_ID}",
			AppSecret:  "${FEISHU_APP_SECRET}",
			DocumentID: "doxcnEXAMPLE",
		},
		Site: SiteConfig{
			Root:                "./website",
			HideTableOfContents: true,
			HideTitle:           true,
		},
		Translation: TranslationConfig{
			Provider:  ProviderBaidu,
			Languages: DefaultLanguages(),
			Baidu: BaiduConfig{
				APIKey:    "${BAIDU_API_KEY}",
				SecretKey: "${BAIDU_SECRET_KEY}",
			},
		},
		Cache: CacheConfig{Enabled: true, Path: ".docmigrate/cache.db"},
		Publish: PublishConfig{
			Remote: "origin",
			Token:  "${GIT_TOKEN}",
		},
	}
}
