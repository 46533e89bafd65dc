package site

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docmigrate/internal/doctree"
	"git.home.luguber.info/inful/docmigrate/internal/frontmatterops"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/projector"
)

// ReorderStats summarises a reorder pass over one or more docs trees.
type ReorderStats struct {
	CategoriesUpdated int
	FilesUpdated      int
	Missing           []string
}

// Reorder sets the sidebar positions of existing directories and pages under
// every base to match s. Category labels already on disk are kept, so
// translated labels in locale trees survive. Pages and directories that do
// not exist are listed in Missing and left alone.
func (w *Writer) Reorder(bases []string, s *doctree.Structure, opts projector.Options) (ReorderStats, error) {
	var stats ReorderStats
	dirs := projector.Project(s, opts)
	for _, base := range bases {
		for _, dir := range dirs {
			dirPath := filepath.Join(base, dir.Name)
			if info, err := os.Stat(dirPath); err != nil || !info.IsDir() {
				stats.Missing = append(stats.Missing, dirPath)
				continue
			}
			changed, err := w.reorderCategory(dirPath, dir)
			if err != nil {
				return stats, err
			}
			if changed {
				stats.CategoriesUpdated++
			}
			for _, f := range dir.Files {
				path := filepath.Join(dirPath, f.Name)
				changed, err := w.reorderFile(path, f.Position)
				if errors.Is(err, fs.ErrNotExist) {
					stats.Missing = append(stats.Missing, path)
					continue
				}
				if err != nil {
					return stats, err
				}
				if changed {
					stats.FilesUpdated++
				}
			}
		}
	}
	w.logger.Info("Reorder complete",
		slog.Int("categories_updated", stats.CategoriesUpdated),
		slog.Int("files_updated", stats.FilesUpdated),
		slog.Int("missing", len(stats.Missing)))
	return stats, nil
}

func (w *Writer) reorderCategory(dirPath string, dir projector.Directory) (bool, error) {
	current, err := ReadCategory(dirPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		current = dir.Category()
	case err != nil:
		return false, err
	case current.Position == dir.Position && current.Label != "":
		return false, nil
	}
	if current.Label == "" {
		current.Label = dir.Label
	}
	current.Position = dir.Position
	if err := w.WriteCategory(dirPath, current); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Writer) reorderFile(path string, position int) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	out, changed, err := frontmatterops.Update(content, map[string]any{"sidebar_position": position})
	if err != nil {
		return false, fsError(err, "update front matter", path)
	}
	if !changed {
		return false, nil
	}
	if err := w.WriteFile(path, out); err != nil {
		return false, err
	}
	w.logger.Debug("Updated sidebar position", logfields.Path(path), slog.Int("position", position))
	return true, nil
}
