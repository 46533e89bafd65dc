// Package site reads and writes the Docusaurus site tree: the source locale
// under docs/ and one i18n directory per target locale.
package site

import (
	"path/filepath"

	"git.home.luguber.info/inful/docmigrate/internal/config"
)

// Docusaurus keeps translated docs of the default docs plugin here.
const localeDocsSubdir = "docusaurus-plugin-content-docs/current"

// Layout resolves site paths.
type Layout struct {
	Root    string
	DocsDir string
	Sidebar string
}

// NewLayout builds a layout from the site configuration.
func NewLayout(cfg config.SiteConfig) Layout {
	docs := cfg.DocsDir
	if docs == "" {
		docs = "docs"
	}
	return Layout{Root: cfg.Root, DocsDir: docs, Sidebar: cfg.SidebarFile}
}

// DocsPath is the directory of the source locale.
func (l Layout) DocsPath() string {
	return filepath.Join(l.Root, l.DocsDir)
}

// LocalePath is the docs directory of a target locale.
func (l Layout) LocalePath(lang config.Language) string {
	return filepath.Join(l.Root, "i18n", lang.LocaleDir, filepath.FromSlash(localeDocsSubdir))
}

// SidebarPath is the sidebar definition file, or "" when none is configured.
func (l Layout) SidebarPath() string {
	if l.Sidebar == "" {
		return ""
	}
	if filepath.IsAbs(l.Sidebar) {
		return l.Sidebar
	}
	return filepath.Join(l.Root, l.Sidebar)
}

// Bases returns the docs path followed by every locale path, in language order.
func (l Layout) Bases(langs []config.Language) []string {
	out := make([]string, 0, len(langs)+1)
	out = append(out, l.DocsPath())
	for _, lang := range langs {
		out = append(out, l.LocalePath(lang))
	}
	return out
}
