package site

import (
	"cmp"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docmigrate/internal/doctree"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/frontmatterops"
	"git.home.luguber.info/inful/docmigrate/internal/markdown"
	"git.home.luguber.info/inful/docmigrate/internal/projector"
)

type scannedDir struct {
	name     string
	category projector.Category
}

type scannedFile struct {
	name     string
	position int
	heading  string
	content  string
}

// ScanDocs rebuilds a structure from a docs tree previously written by the
// projector. Directories are ordered by their _category_.json position and
// pages by sidebar_position; names break ties. Labels come from the category
// metadata and entry titles from the first heading of each page. A page whose
// name matches the sanitized intro key of its section becomes the intro entry.
func ScanDocs(docsDir, introSuffix string) (*doctree.Structure, error) {
	entries, err := os.ReadDir(docsDir)
	if err != nil {
		return nil, fsError(err, "read docs directory", docsDir)
	}
	var dirs []scannedDir
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		c, err := ReadCategory(filepath.Join(docsDir, e.Name()))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if c.Label == "" {
			c.Label = e.Name()
		}
		dirs = append(dirs, scannedDir{name: e.Name(), category: c})
	}
	slices.SortStableFunc(dirs, func(a, b scannedDir) int {
		return cmp.Or(cmp.Compare(a.category.Position, b.category.Position), cmp.Compare(a.name, b.name))
	})

	s := doctree.NewStructure(introSuffix)
	for _, d := range dirs {
		files, err := scanFiles(filepath.Join(docsDir, d.name))
		if err != nil {
			return nil, err
		}
		sec := s.AddSection(d.category.Label)
		introName := projector.Sanitize(s.IntroKey(d.category.Label)) + ".md"
		for _, f := range files {
			if f.name == introName {
				sec.Set(s.IntroKey(d.category.Label), f.content, true)
				continue
			}
			title := f.heading
			if title == "" {
				title = strings.TrimSuffix(f.name, ".md")
			}
			sec.Set(title, f.content, false)
		}
	}
	if len(s.Sections) == 0 {
		return nil, foundationerrors.NotFoundError("no categories found in docs directory").
			WithContext("path", docsDir).
			Build()
	}
	return s, nil
}

func scanFiles(dir string) ([]scannedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fsError(err, "read category directory", dir)
	}
	var files []scannedFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fsError(err, "read page", path)
		}
		fields, body, _, _, err := frontmatterops.Read(data)
		if err != nil {
			return nil, fsError(err, "parse front matter", path)
		}
		heading, content := splitHeading(string(body))
		files = append(files, scannedFile{
			name:     e.Name(),
			position: intField(fields, "sidebar_position"),
			heading:  heading,
			content:  content,
		})
	}
	slices.SortStableFunc(files, func(a, b scannedFile) int {
		return cmp.Or(cmp.Compare(a.position, b.position), cmp.Compare(a.name, b.name))
	})
	return files, nil
}

// splitHeading separates a leading "# title" line from the rest of a page body.
func splitHeading(body string) (heading, content string) {
	body = strings.TrimLeft(body, "\r\n")
	heading = markdown.FirstHeading(body)
	if strings.HasPrefix(body, "# ") {
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			body = body[nl+1:]
		} else {
			body = ""
		}
	}
	return heading, strings.TrimSpace(body)
}

func intField(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
