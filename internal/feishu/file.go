package feishu

import (
	"context"
	"os"

	"git.home.luguber.info/inful/docmigrate/internal/blocks"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
)

// FileSource reads a previously saved api_response.json instead of calling the API.
type FileSource struct {
	Path string
}

// FetchDocument decodes the saved payload. The document id is only recorded.
func (f FileSource) FetchDocument(_ context.Context, documentID string) (*Document, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, foundationerrors.NotFoundError("source file not found").
				WithContext("path", f.Path).
				Build()
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "read source file").
			WithContext("path", f.Path).
			Build()
	}
	list, err := blocks.Decode(data)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "decode source file").
			WithContext("path", f.Path).
			Build()
	}
	return &Document{ID: documentID, Blocks: list, Raw: data}, nil
}
