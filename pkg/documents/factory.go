package documents

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/interfaces"
	"github.com/chunklab/chunklab/pkg/types"
)

// LoaderFactory routes documents to format specific loaders by file
// extension
type LoaderFactory struct {
	loaders map[string]interfaces.DocumentLoader
}

// NewLoaderFactory creates a factory with all built in loaders registered
func NewLoaderFactory() *LoaderFactory {
	factory := &LoaderFactory{
		loaders: make(map[string]interfaces.DocumentLoader),
	}

	factory.Register(NewTextLoader())
	factory.Register(NewMarkdownLoader())
	factory.Register(NewHTMLLoader())
	factory.Register(NewPDFLoader())

	return factory
}

// Register maps every extension the loader supports to it, replacing any
// previous registration for the same extension
func (lf *LoaderFactory) Register(loader interfaces.DocumentLoader) {
	for _, ext := range loader.SupportedExtensions() {
		lf.loaders[strings.ToLower(ext)] = loader
	}
}

// LoaderFor returns the loader registered for the extension of path
func (lf *LoaderFactory) LoaderFor(path string) (interfaces.DocumentLoader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := lf.loaders[ext]
	if !ok {
		return nil, errors.NewUnsupportedFormatError(ext).
			WithDetail("supported", lf.SupportedExtensions())
	}
	return loader, nil
}

// Load loads the document at path with the loader matching its extension
func (lf *LoaderFactory) Load(ctx context.Context, path string) (*types.Document, error) {
	loader, err := lf.LoaderFor(path)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, path)
}

// SupportedExtensions returns every registered extension in sorted order
func (lf *LoaderFactory) SupportedExtensions() []string {
	extensions := make([]string, 0, len(lf.loaders))
	for ext := range lf.loaders {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}
