package documents

import (
	"context"
	"path/filepath"
	"time"

	"github.com/chunklab/chunklab/pkg/types"
)

// TextLoader loads plain text documents verbatim
type TextLoader struct{}

// NewTextLoader creates a new plain text loader
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads the file at path and returns its content unchanged
func (tl *TextLoader) Load(ctx context.Context, path string) (*types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	return &types.Document{
		Name:    filepath.Base(path),
		Path:    path,
		Format:  types.DocumentFormatText,
		Content: string(data),
		Metadata: map[string]interface{}{
			"file_size": len(data),
		},
		LoadedAt: time.Now(),
	}, nil
}

// SupportedExtensions returns the file extensions this loader handles
func (tl *TextLoader) SupportedExtensions() []string {
	return []string{".txt"}
}
