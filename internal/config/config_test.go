package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
)

const minimalYAML = `
source:
  app_id: cli_a
  app_secret: s3cret
  document_id: doxcn123
site:
  root: ./website
translation:
  provider: none
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, DefaultFeishuBaseURL, cfg.Source.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout.Std())
	assert.Equal(t, "docs", cfg.Site.DocsDir)
	assert.Equal(t, ".docmigrate", cfg.Site.WorkDir)
	assert.Equal(t, "sidebars.ts", cfg.Site.SidebarFile)
	assert.Equal(t, "介绍", cfg.Site.IntroSuffix)
	assert.Equal(t, 2, cfg.Site.CategoryStart)
	assert.True(t, cfg.Site.ShouldBackupSidebar())

	assert.Equal(t, 500*time.Millisecond, cfg.Translation.MinInterval.Std())
	assert.Equal(t, FailurePolicySkip, cfg.Translation.FailurePolicy)
	assert.Equal(t, "exponential", cfg.Translation.Retry.Backoff)
	assert.Equal(t, time.Second, cfg.Translation.Retry.Initial.Std())
	assert.Equal(t, 30*time.Second, cfg.Translation.Retry.Max.Std())
	assert.Equal(t, 2, cfg.Translation.Retry.MaxRetries)
	assert.True(t, cfg.Translation.ShouldTranslateLabels())

	assert.Equal(t, SourceLanguage(), cfg.Translation.SourceLanguage)
	assert.Equal(t, DefaultLanguages(), cfg.Translation.Languages)
	assert.Equal(t, filepath.Join(".docmigrate", "cache.db"), cfg.Cache.Path)
	assert.Equal(t, 24*time.Hour, cfg.Schedule.Interval.Std())
}

func TestDefaultLanguageMappingsAreIndependent(t *testing.T) {
	want := map[string][2]string{
		"en":      {"en", "en"},
		"ja":      {"ja", "jp"},
		"ko":      {"ko", "kor"},
		"zh-Hant": {"zh_tw", "cht"},
	}
	for _, l := range DefaultLanguages() {
		pair, ok := want[l.Code]
		require.True(t, ok, l.Code)
		assert.Equal(t, pair[0], l.LocaleDir, l.Code)
		assert.Equal(t, pair[1], l.APICode, l.Code)
	}
	src := SourceLanguage()
	assert.Equal(t, "zh_cn", src.LocaleDir)
	assert.Equal(t, "zh", src.APICode)
}

func TestLanguagesCompletedFromCode(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
  languages:
    - code: ja
    - code: fr
      name: French
`))
	require.NoError(t, err)
	require.Len(t, cfg.Translation.Languages, 2)
	assert.Equal(t, Language{Code: "ja", LocaleDir: "ja", APICode: "jp"}, cfg.Translation.Languages[0])
	assert.Equal(t, Language{Code: "fr", LocaleDir: "fr", APICode: "fr", Name: "French"}, cfg.Translation.Languages[1])
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Japanese", Language{Code: "ja"}.DisplayName())
	assert.Equal(t, "Traditional Chinese", Language{Code: "zh-Hant"}.DisplayName())
	assert.Equal(t, "Klingon-ish", Language{Code: "en", Name: "Klingon-ish"}.DisplayName())
}

func TestSelectLanguages(t *testing.T) {
	tc := TranslationConfig{Languages: DefaultLanguages()}

	all, err := tc.SelectLanguages(nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	some, err := tc.SelectLanguages([]string{"zh_tw", "JA", "ja"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "zh-Hant", some[0].Code)
	assert.Equal(t, "ja", some[1].Code)

	_, err = tc.SelectLanguages([]string{"de"})
	assert.Error(t, err)
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("DOCMIGRATE_TEST_SECRET", "from-env")
	cfg, err := Parse([]byte(`
source:
  app_id: a
  app_secret: ${DOCMIGRATE_TEST_SECRET}
  document_id: d
translation:
  provider: none
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Source.AppSecret)
}

func TestDurationForms(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
  min_interval: 250ms
  timeout: 12
`))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Translation.MinInterval.Std())
	assert.Equal(t, 12*time.Second, cfg.Translation.Timeout.Std())

	_, err = Parse([]byte(minimalYAML + "\n  min_interval: soon\n"))
	assert.Error(t, err)
}

func TestValidationErrors(t *testing.T) {
	cases := map[string]string{
		"missing document": `
source: {app_id: a, app_secret: b}
translation: {provider: none}`,
		"baidu without keys": `
source: {file: api_response.json}
translation: {provider: baidu}`,
		"llm without endpoint": `
source: {file: api_response.json}
translation: {provider: llm}`,
		"unknown provider": `
source: {file: api_response.json}
translation: {provider: deepl}`,
		"bad policy": `
source: {file: api_response.json}
translation: {provider: none, failure_policy: explode}`,
		"duplicate locale": `
source: {file: api_response.json}
translation:
  provider: none
  languages: [{code: en, locale_dir: x}, {code: ja, locale_dir: x}]`,
		"target equals source": `
source: {file: api_response.json}
translation:
  provider: none
  languages: [{code: zh-Hans}]`,
		"short schedule": `
source: {file: api_response.json}
translation: {provider: none}
schedule: {interval: 10s}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
		})
	}
}

func TestOfflineSourceNeedsNoCredentials(t *testing.T) {
	cfg, err := Parse([]byte("source: {file: api_response.json}\ntranslation: {provider: none}\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Source.Offline())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestInitWritesLoadableExample(t *testing.T) {
	t.Setenv("FEISHU_APP_ID", "id")
	t.Setenv("FEISHU_APP_SECRET", "secret")
	t.Setenv("BAIDU_API_KEY", "k")
	t.Setenv("BAIDU_SECRET_KEY", "s")
	path := filepath.Join(t.TempDir(), DefaultPath)

	require.NoError(t, Init(path, false))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderBaidu, cfg.Translation.Provider)
	assert.Equal(t, "id", cfg.Source.AppID)

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
	require.NoError(t, Init(path, true))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEnumValuesAreCaseInsensitive(t *testing.T) {
	cfg, err := Parse([]byte(`
source: {file: api_response.json}
translation:
  provider: " None "
  failure_policy: PARTIAL
  retry: {backoff: Linear}
`))
	require.NoError(t, err)
	assert.Equal(t, ProviderNone, cfg.Translation.Provider)
	assert.Equal(t, FailurePolicyPartial, cfg.Translation.FailurePolicy)
	assert.Equal(t, string(RetryBackoffLinear), cfg.Translation.Retry.Backoff)
	assert.Empty(t, NormalizeRetryBackoff("jittered"))
}
