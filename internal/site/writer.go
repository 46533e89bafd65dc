package site

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/projector"
)

// CategoryFile is the Docusaurus directory metadata file name.
const CategoryFile = "_category_.json"

// Writer writes generated pages and metadata.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a writer. A nil logger uses slog.Default.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// WriteFile writes content to path through a temporary file in the same
// directory followed by a rename, creating parent directories as needed.
func (w *Writer) WriteFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fsError(err, "create directory", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fsError(err, "create temporary file", path)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fsError(err, "write temporary file", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fsError(err, "close temporary file", path)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fsError(err, "chmod temporary file", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fsError(err, "replace file", path)
	}
	w.logger.Debug("Wrote file", logfields.Path(path), slog.Int("bytes", len(content)))
	return nil
}

// WriteCategory writes dir/_category_.json with two-space indentation and
// unescaped UTF-8.
func (w *Writer) WriteCategory(dir string, c projector.Category) error {
	data, err := EncodeCategory(c)
	if err != nil {
		return err
	}
	return w.WriteFile(filepath.Join(dir, CategoryFile), data)
}

// EncodeCategory renders category metadata as written to disk.
func EncodeCategory(c projector.Category) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode category: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadCategory reads dir/_category_.json.
func ReadCategory(dir string) (projector.Category, error) {
	var c projector.Category
	data, err := os.ReadFile(filepath.Join(dir, CategoryFile))
	if err != nil {
		return c, fsError(err, "read category", dir)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "decode category").
			WithContext("path", filepath.Join(dir, CategoryFile)).
			Build()
	}
	return c, nil
}

// Exists reports whether path is a regular file with content.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Exists reports whether path already holds a generated page.
func (w *Writer) Exists(path string) bool { return Exists(path) }

// Backup copies path to path+".bak". A missing source is not an error and
// returns an empty backup path.
func Backup(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fsError(err, "open file for backup", path)
	}
	defer src.Close()

	dst := path + ".bak"
	out, err := os.Create(dst)
	if err != nil {
		return "", fsError(err, "create backup", dst)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return "", fsError(err, "copy backup", dst)
	}
	if err := out.Close(); err != nil {
		return "", fsError(err, "close backup", dst)
	}
	return dst, nil
}

func fsError(err error, msg, path string) error {
	return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, msg).
		WithContext("path", path).
		Build()
}
