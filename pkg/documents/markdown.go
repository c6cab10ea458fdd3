package documents

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/chunklab/chunklab/pkg/types"
)

// MarkdownLoader extracts plain text from markdown documents by walking
// the parsed AST
type MarkdownLoader struct {
	md goldmark.Markdown
}

// NewMarkdownLoader creates a new markdown loader
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{md: goldmark.New()}
}

// Load parses the markdown file at path and flattens its headings,
// paragraphs, lists and code blocks into plain text blocks separated by
// blank lines. Thematic breaks and markup syntax are dropped.
func (ml *MarkdownLoader) Load(ctx context.Context, path string) (*types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := readSource(path)
	if err != nil {
		return nil, err
	}

	blocks := ml.extractBlocks(source)

	return &types.Document{
		Name:    filepath.Base(path),
		Path:    path,
		Format:  types.DocumentFormatMarkdown,
		Content: strings.Join(blocks, "\n\n"),
		Metadata: map[string]interface{}{
			"file_size": len(source),
			"blocks":    len(blocks),
		},
		LoadedAt: time.Now(),
	}, nil
}

// SupportedExtensions returns the file extensions this loader handles
func (ml *MarkdownLoader) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// extractBlocks walks the AST and collects the text of each block level
// node in document order
func (ml *MarkdownLoader) extractBlocks(source []byte) []string {
	root := ml.md.Parser().Parse(text.NewReader(source))

	var blocks []string
	appendBlock := func(block string) {
		if block != "" {
			blocks = append(blocks, block)
		}
	}

	ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			appendBlock(ml.inlineText(n, source))
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			appendBlock(ml.inlineText(n, source))
			return ast.WalkSkipChildren, nil
		case *ast.List:
			appendBlock(strings.Join(ml.listItems(n, source), "\n"))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			appendBlock(ml.blockLines(n, source))
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			appendBlock(ml.blockLines(n, source))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return blocks
}

// listItems collects the text of each item in a list node
func (ml *MarkdownLoader) listItems(list *ast.List, source []byte) []string {
	var items []string
	for child := list.FirstChild(); child != nil; child = child.NextSibling() {
		item, ok := child.(*ast.ListItem)
		if !ok {
			continue
		}
		if itemText := ml.inlineText(item, source); itemText != "" {
			items = append(items, itemText)
		}
	}
	return items
}

// inlineText collects the raw text segments beneath a node, keeping line
// breaks between wrapped source lines
func (ml *MarkdownLoader) inlineText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if textNode, ok := child.(*ast.Text); ok {
			buf.Write(textNode.Segment.Value(source))
			if textNode.SoftLineBreak() || textNode.HardLineBreak() {
				buf.WriteByte('\n')
			}
		} else if child.HasChildren() {
			buf.WriteString(ml.inlineText(child, source))
		}
	}
	return strings.TrimSpace(buf.String())
}

// blockLines returns the literal lines of a code block node
func (ml *MarkdownLoader) blockLines(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	return strings.TrimRight(buf.String(), "\n")
}
