// Package projector maps a document structure onto Docusaurus directories and
// pages with sidebar ordering metadata. It performs no I/O.
package projector

import (
	"fmt"
	"strconv"

	"git.home.luguber.info/inful/docmigrate/internal/doctree"
	"git.home.luguber.info/inful/docmigrate/internal/frontmatter"
)

// Options controls the projection.
type Options struct {
	// CategoryStart is the sidebar position of the first directory.
	CategoryStart       int
	HideTableOfContents bool
	HideTitle           bool
}

// DefaultOptions returns the defaults used by the site: directories start at
// position 2 because intro.md holds position 1.
func DefaultOptions() Options {
	return Options{CategoryStart: 2, HideTableOfContents: true, HideTitle: true}
}

// File is one generated page.
type File struct {
	Name     string // sanitized, with .md extension
	Title    string // entry title as found in the document
	Heading  string // first heading of the page body
	Position int
	Intro    bool
	Content  string // entry content without heading
	First    bool
	Last     bool
}

// FrontMatter returns the ordered front matter fields of the page.
func (f File) FrontMatter(opts Options) frontmatter.Fields {
	fields := frontmatter.Fields{
		{Key: "sidebar_position", Value: f.Position},
		{Key: "hide_table_of_contents", Value: opts.HideTableOfContents},
		{Key: "hide_title", Value: opts.HideTitle},
	}
	if f.First {
		fields = append(fields, frontmatter.Field{Key: "pagination_prev", Value: nil})
	}
	if f.Last {
		fields = append(fields, frontmatter.Field{Key: "pagination_next", Value: nil})
	}
	return fields
}

// Body returns "# <heading>" followed by the content.
func (f File) Body() string {
	if f.Content == "" {
		return "# " + f.Heading + "\n"
	}
	return "# " + f.Heading + "\n\n" + f.Content + "\n"
}

// Render returns the complete page: front matter, blank line, body.
func (f File) Render(opts Options) (string, error) {
	fm, err := f.FrontMatter(opts).Render()
	if err != nil {
		return "", fmt.Errorf("render front matter of %s: %w", f.Name, err)
	}
	return frontmatter.Join(fm, f.Body()), nil
}

// Directory is one top-level section.
type Directory struct {
	Label    string
	Name     string
	Position int
	Files    []File
}

// Category is the content of a directory's _category_.json.
type Category struct {
	Label    string `json:"label"`
	Position int    `json:"position"`
}

// Category returns the sidebar metadata of the directory.
func (d Directory) Category() Category {
	return Category{Label: d.Label, Position: d.Position}
}

// Project produces one Directory per section and one File per entry, in
// structure order. Positions start at 1 within a directory.
func Project(s *doctree.Structure, opts Options) []Directory {
	if opts.CategoryStart <= 0 {
		opts.CategoryStart = DefaultOptions().CategoryStart
	}
	dirs := make([]Directory, 0, len(s.Sections))
	usedDirs := map[string]int{}
	for i, sec := range s.Sections {
		dir := Directory{
			Label:    sec.Title,
			Name:     unique(Sanitize(sec.Title), usedDirs),
			Position: opts.CategoryStart + i,
		}
		usedFiles := map[string]int{}
		n := len(sec.Entries)
		for j, e := range sec.Entries {
			heading := e.Title
			if e.Intro {
				heading = sec.Title
			}
			dir.Files = append(dir.Files, File{
				Name:     unique(Sanitize(e.Title), usedFiles) + ".md",
				Title:    e.Title,
				Heading:  heading,
				Position: j + 1,
				Intro:    e.Intro,
				Content:  e.Content,
				First:    j == 0,
				Last:     j == n-1,
			})
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// unique disambiguates names that collide after sanitizing by appending _2, _3, ...
func unique(name string, used map[string]int) string {
	used[name]++
	if used[name] == 1 {
		return name
	}
	candidate := name + "_" + strconv.Itoa(used[name])
	for used[candidate] > 0 {
		used[name]++
		candidate = name + "_" + strconv.Itoa(used[name])
	}
	used[candidate]++
	return candidate
}
