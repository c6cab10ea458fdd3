package documents

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/types"
)

// blockSelector matches the elements whose text makes up the extracted
// document, in document order
const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, pre"

// HTMLLoader extracts readable text from HTML documents
type HTMLLoader struct{}

// NewHTMLLoader creates a new HTML loader
func NewHTMLLoader() *HTMLLoader {
	return &HTMLLoader{}
}

// Load parses the HTML file at path and extracts its visible text with
// script and style content stripped
func (hl *HTMLLoader) Load(ctx context.Context, path string) (*types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewDocumentParseError(path, err)
	}

	doc.Find("script, style, noscript").Remove()

	var blocks []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// An ancestor list item already contributes this element's text
		if s.ParentsFiltered("li").Length() > 0 {
			return
		}
		if blockText := strings.TrimSpace(s.Text()); blockText != "" {
			blocks = append(blocks, blockText)
		}
	})

	content := strings.Join(blocks, "\n\n")
	if content == "" {
		content = strings.TrimSpace(doc.Find("body").Text())
	}

	metadata := map[string]interface{}{
		"file_size": len(data),
	}
	if title := strings.TrimSpace(doc.Find("title").Text()); title != "" {
		metadata["title"] = title
	}

	return &types.Document{
		Name:     filepath.Base(path),
		Path:     path,
		Format:   types.DocumentFormatHTML,
		Content:  content,
		Metadata: metadata,
		LoadedAt: time.Now(),
	}, nil
}

// SupportedExtensions returns the file extensions this loader handles
func (hl *HTMLLoader) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}
