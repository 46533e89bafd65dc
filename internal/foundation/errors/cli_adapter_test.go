package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitGeneral},
		{"validation", ValidationError("bad flag").Build(), ExitUsage},
		{"structure", StructureError("orphan heading2").Build(), ExitStructure},
		{"wrapped structure", fmt.Errorf("run: %w", StructureError("x").Build()), ExitStructure},
		{"auth", AuthError("unauthorized").Build(), ExitAuth},
		{"config", ConfigError("missing app_id").Build(), ExitConfig},
		{"network", NetworkError("timeout").Build(), ExitExternal},
		{"not found", NotFoundError("no doc").Build(), ExitExternal},
		{"filesystem", FileSystemError("write failed").Build(), ExitFileSystem},
		{"cache", CacheError("locked").Build(), ExitFileSystem},
		{"internal", NewError(CategoryInternal, "bug").Fatal().Build(), ExitInternal},
		{"unknown category", NewError(ErrorCategory("other"), "x").Build(), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	structure := StructureError("heading2 before heading1").
		WithContext("block_id", "doxcn1").
		Build()

	assert.Empty(t, quiet.FormatError(nil))
	assert.Equal(t, "Error: boom", quiet.FormatError(errors.New("boom")))
	assert.Equal(t, "Document structure error: heading2 before heading1 (block_id=doxcn1)", quiet.FormatError(structure))
	assert.Equal(t, "Error (config): missing app_id", quiet.FormatError(ConfigError("missing app_id").Build()))
	assert.Contains(t, quiet.FormatError(NewError(CategoryInternal, "nil map").Build()), "use -v")
	assert.Equal(t, structure.Error(), verbose.FormatError(structure))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(StructureError("bad tree").Build())

	assert.Equal(t, ExitStructure, code)
	assert.Contains(t, out.String(), "Document structure error: bad tree")
	assert.Contains(t, logs.String(), "category=structure")

	code = -1
	adapter.HandleError(nil)
	assert.Equal(t, -1, code)
}
