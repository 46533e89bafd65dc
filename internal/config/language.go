package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language maps one BCP 47 language to the two independent identifiers the
// pipeline needs: the site locale directory and the translation API code.
type Language struct {
	Code      string `yaml:"code"`
	LocaleDir string `yaml:"locale_dir"`
	APICode   string `yaml:"api_code"`
	Name      string `yaml:"name,omitempty"`
}

// Tag parses Code as a language tag.
func (l Language) Tag() (language.Tag, error) {
	return language.Parse(l.Code)
}

// DisplayName returns Name, or the English display name of the tag.
func (l Language) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	tag, err := l.Tag()
	if err != nil {
		return l.Code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return l.Code
}

func (l Language) String() string { return l.Code }

// SourceLanguage is the language the document is written in.
func SourceLanguage() Language {
	return Language{Code: "zh-Hans", LocaleDir: "zh_cn", APICode: "zh"}
}

// DefaultLanguages returns the default target locales.
func DefaultLanguages() []Language {
	return []Language{
		{Code: "en", LocaleDir: "en", APICode: "en"},
		{Code: "ja", LocaleDir: "ja", APICode: "jp"},
		{Code: "ko", LocaleDir: "ko", APICode: "kor"},
		{Code: "zh-Hant", LocaleDir: "zh_tw", APICode: "cht"},
	}
}

// knownLanguages fills in missing mappings for languages given only by code.
var knownLanguages = func() map[string]Language {
	m := map[string]Language{}
	for _, l := range append(DefaultLanguages(), SourceLanguage()) {
		m[strings.ToLower(l.Code)] = l
	}
	return m
}()

func completeLanguage(l Language) Language {
	if known, ok := knownLanguages[strings.ToLower(l.Code)]; ok {
		if l.LocaleDir == "" {
			l.LocaleDir = known.LocaleDir
		}
		if l.APICode == "" {
			l.APICode = known.APICode
		}
	}
	if l.LocaleDir == "" {
		l.LocaleDir = l.Code
	}
	if l.APICode == "" {
		l.APICode = l.Code
	}
	return l
}

// SelectLanguages returns the configured languages whose code or locale dir matches
// one of the requested names, in configuration order. An empty request selects all.
func (t TranslationConfig) SelectLanguages(names []string) ([]Language, error) {
	if len(names) == 0 {
		return t.Languages, nil
	}
	var out []Language
	for _, n := range names {
		n = strings.TrimSpace(n)
		found := false
		for _, l := range t.Languages {
			if strings.EqualFold(l.Code, n) || strings.EqualFold(l.LocaleDir, n) {
				found = true
				if !containsLanguage(out, l) {
					out = append(out, l)
				}
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("language %q is not configured", n)
		}
	}
	return out, nil
}

func containsLanguage(list []Language, l Language) bool {
	for _, x := range list {
		if x.Code == l.Code {
			return true
		}
	}
	return false
}
