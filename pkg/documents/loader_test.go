package documents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/types"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTextLoader(t *testing.T) {
	loader := NewTextLoader()

	t.Run("Load", func(t *testing.T) {
		path := writeTestFile(t, "doc.txt", "Plain text body.\nSecond line.")

		doc, err := loader.Load(context.Background(), path)
		require.NoError(t, err)

		assert.Equal(t, "doc.txt", doc.Name)
		assert.Equal(t, path, doc.Path)
		assert.Equal(t, types.DocumentFormatText, doc.Format)
		assert.Equal(t, "Plain text body.\nSecond line.", doc.Content)
		assert.Equal(t, len(doc.Content), doc.Metadata["file_size"])
		assert.False(t, doc.LoadedAt.IsZero())
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
		require.Error(t, err)

		var clErr *errors.ChunkLabError
		require.ErrorAs(t, err, &clErr)
		assert.Equal(t, errors.ErrCodeDocumentNotFound, clErr.Code)
	})

	t.Run("SupportedExtensions", func(t *testing.T) {
		assert.Equal(t, []string{".txt"}, loader.SupportedExtensions())
	})
}

const markdownFixture = `# Title

Intro paragraph with plain text.

## Usage

Call the tool with an input file.

* first item
* second item

` + "```go\nfunc main() {}\n```" + `

---

Closing note.
`

func TestMarkdownLoader(t *testing.T) {
	loader := NewMarkdownLoader()

	t.Run("Load", func(t *testing.T) {
		path := writeTestFile(t, "doc.md", markdownFixture)

		doc, err := loader.Load(context.Background(), path)
		require.NoError(t, err)

		expected := "Title\n\n" +
			"Intro paragraph with plain text.\n\n" +
			"Usage\n\n" +
			"Call the tool with an input file.\n\n" +
			"first item\nsecond item\n\n" +
			"func main() {}\n\n" +
			"Closing note."
		assert.Equal(t, expected, doc.Content)
		assert.Equal(t, types.DocumentFormatMarkdown, doc.Format)
		assert.Equal(t, 7, doc.Metadata["blocks"])
	})

	t.Run("DropsMarkupOnly", func(t *testing.T) {
		path := writeTestFile(t, "doc.md", "# Heading\n\nBody text.\n")

		doc, err := loader.Load(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "Heading\n\nBody text.", doc.Content)
	})

	t.Run("SupportedExtensions", func(t *testing.T) {
		assert.Equal(t, []string{".md", ".markdown"}, loader.SupportedExtensions())
	})
}

const htmlFixture = `<!DOCTYPE html>
<html>
<head>
<title>Sample Page</title>
<style>body { color: red; }</style>
</head>
<body>
<h1>Heading One</h1>
<p>First paragraph.</p>
<script>console.log("ignored");</script>
<ul>
<li>Alpha</li>
<li>Beta</li>
</ul>
<pre>code block</pre>
</body>
</html>`

func TestHTMLLoader(t *testing.T) {
	loader := NewHTMLLoader()

	t.Run("Load", func(t *testing.T) {
		path := writeTestFile(t, "page.html", htmlFixture)

		doc, err := loader.Load(context.Background(), path)
		require.NoError(t, err)

		expected := "Heading One\n\n" +
			"First paragraph.\n\n" +
			"Alpha\n\n" +
			"Beta\n\n" +
			"code block"
		assert.Equal(t, expected, doc.Content)
		assert.Equal(t, types.DocumentFormatHTML, doc.Format)
		assert.Equal(t, "Sample Page", doc.Metadata["title"])
		assert.NotContains(t, doc.Content, "console.log")
		assert.NotContains(t, doc.Content, "color: red")
	})

	t.Run("SupportedExtensions", func(t *testing.T) {
		assert.Equal(t, []string{".html", ".htm"}, loader.SupportedExtensions())
	})
}

func TestPDFLoader(t *testing.T) {
	loader := NewPDFLoader()

	t.Run("Missing", func(t *testing.T) {
		_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
		require.Error(t, err)

		var clErr *errors.ChunkLabError
		require.ErrorAs(t, err, &clErr)
		assert.Equal(t, errors.ErrCodeDocumentNotFound, clErr.Code)
	})

	t.Run("Corrupt", func(t *testing.T) {
		path := writeTestFile(t, "broken.pdf", "this is not a pdf document")

		_, err := loader.Load(context.Background(), path)
		require.Error(t, err)

		var clErr *errors.ChunkLabError
		require.ErrorAs(t, err, &clErr)
		assert.Equal(t, errors.ErrCodeDocumentParseFailed, clErr.Code)
	})

	t.Run("SupportedExtensions", func(t *testing.T) {
		assert.Equal(t, []string{".pdf"}, loader.SupportedExtensions())
	})
}

func TestLoaderFactory(t *testing.T) {
	factory := NewLoaderFactory()

	t.Run("RoutesByExtension", func(t *testing.T) {
		cases := []struct {
			path   string
			loader interface{}
		}{
			{"doc.txt", &TextLoader{}},
			{"doc.md", &MarkdownLoader{}},
			{"doc.markdown", &MarkdownLoader{}},
			{"page.html", &HTMLLoader{}},
			{"page.htm", &HTMLLoader{}},
			{"paper.pdf", &PDFLoader{}},
			{"DOC.MD", &MarkdownLoader{}},
		}
		for _, tc := range cases {
			loader, err := factory.LoaderFor(tc.path)
			require.NoError(t, err, tc.path)
			assert.IsType(t, tc.loader, loader, tc.path)
		}
	})

	t.Run("UnsupportedExtension", func(t *testing.T) {
		_, err := factory.LoaderFor("doc.docx")
		require.Error(t, err)

		var clErr *errors.ChunkLabError
		require.ErrorAs(t, err, &clErr)
		assert.Equal(t, errors.ErrCodeUnsupportedFormat, clErr.Code)

		_, err = factory.LoaderFor("no_extension")
		assert.Error(t, err)
	})

	t.Run("Load", func(t *testing.T) {
		path := writeTestFile(t, "doc.md", "# Heading\n\nBody text.\n")

		doc, err := factory.Load(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, types.DocumentFormatMarkdown, doc.Format)
		assert.Equal(t, "Heading\n\nBody text.", doc.Content)
	})

	t.Run("SupportedExtensions", func(t *testing.T) {
		expected := []string{".htm", ".html", ".markdown", ".md", ".pdf", ".txt"}
		assert.Equal(t, expected, factory.SupportedExtensions())
	})
}

func TestLoaderCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeTestFile(t, "doc.txt", "content")
	_, err := NewTextLoader().Load(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
