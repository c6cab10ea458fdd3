package documents

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/types"
)

// PDFLoader extracts plain text from PDF documents page by page
type PDFLoader struct{}

// NewPDFLoader creates a new PDF loader
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load reads the PDF at path and concatenates the plain text of each
// page, skipping pages that cannot be decoded
func (pl *PDFLoader) Load(ctx context.Context, path string) (*types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewDocumentParseError(path, err)
	}

	var content strings.Builder
	textPages := 0
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}

		if content.Len() > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(pageText)
		textPages++
	}

	return &types.Document{
		Name:    filepath.Base(path),
		Path:    path,
		Format:  types.DocumentFormatPDF,
		Content: content.String(),
		Metadata: map[string]interface{}{
			"file_size":  len(data),
			"page_count": reader.NumPage(),
			"text_pages": textPages,
		},
		LoadedAt: time.Now(),
	}, nil
}

// SupportedExtensions returns the file extensions this loader handles
func (pl *PDFLoader) SupportedExtensions() []string {
	return []string{".pdf"}
}
