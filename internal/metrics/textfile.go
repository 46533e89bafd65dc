package metrics

import (
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
)

// WriteTextfile writes the metrics of g to path in the text exposition format
// used by the node_exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string, g prom.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "create metrics directory").
			WithContext("path", path).
			Build()
	}
	if err := prom.WriteToTextfile(path, g); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "write metrics textfile").
			WithContext("path", path).
			Build()
	}
	return nil
}
