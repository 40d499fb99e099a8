// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package paletteui

import (
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// maxPreviewLines bounds the description preview under the list.
const maxPreviewLines = 8

var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func markdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParserInstance
}

// renderPreview renders a result description as wrapped, styled
// terminal text, at most maxPreviewLines lines. Descriptions are
// markdown; headings, emphasis, inline code, lists and fenced code
// blocks (highlighted with chroma) are rendered, everything else
// degrades to its text.
func renderPreview(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" || width <= 0 {
		return ""
	}
	source := []byte(input)
	document := markdownParser().Parser().Parse(text.NewReader(source))

	// The output is always for the alt screen, so skip color
	// detection, which yields no color without a TTY.
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &previewRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)

	lines := strings.Split(strings.TrimRight(renderer.output.String(), "\n"), "\n")
	if len(lines) > maxPreviewLines {
		lines = append(lines[:maxPreviewLines-1], renderer.style().Foreground(theme.FaintText).Render("…"))
	}
	return strings.Join(lines, "\n")
}

type previewRenderer struct {
	source      []byte
	theme       Theme
	width       int
	lipRenderer *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	// Counters rather than booleans so nested emphasis unwinds.
	boldCount   int
	italicCount int

	// bullet prefixes the next flushed block inside a list item.
	bullet string
}

func (renderer *previewRenderer) style() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

func (renderer *previewRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := node.(type) {
	case *ast.Heading:
		if entering {
			renderer.inline.Reset()
		} else {
			content := renderer.style().Bold(true).Foreground(renderer.theme.HeaderForeground).
				Render(ansi.Strip(renderer.inline.String()))
			renderer.flush(content)
		}

	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			renderer.inline.Reset()
		} else {
			renderer.flush(renderer.inline.String())
		}

	case *ast.ListItem:
		if entering {
			renderer.bullet = "• "
		}

	case *ast.FencedCodeBlock:
		if entering {
			renderer.writeCode(node.Lines(), string(node.Language(renderer.source)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			renderer.writeCode(node.Lines(), "")
		}
		return ast.WalkSkipChildren, nil

	case *ast.Emphasis:
		delta := 1
		if !entering {
			delta = -1
		}
		if node.Level >= 2 {
			renderer.boldCount += delta
		} else {
			renderer.italicCount += delta
		}

	case *ast.CodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(renderer.source))
				}
			}
			renderer.inline.WriteString(renderer.style().Foreground(renderer.theme.WarningText).Render(code.String()))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			renderer.writeInline(string(node.Segment.Value(renderer.source)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				renderer.inline.WriteByte(' ')
			}
		}

	case *ast.String:
		if entering {
			renderer.writeInline(string(node.Value))
		}
	}
	return ast.WalkContinue, nil
}

func (renderer *previewRenderer) writeInline(content string) {
	style := renderer.style().Foreground(renderer.theme.NormalText)
	if renderer.boldCount > 0 {
		style = style.Bold(true)
	}
	if renderer.italicCount > 0 {
		style = style.Italic(true)
	}
	renderer.inline.WriteString(style.Render(content))
}

// flush wraps one block to the width and appends it to the output.
func (renderer *previewRenderer) flush(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	prefix := renderer.bullet
	renderer.bullet = ""
	wrapWidth := renderer.width - ansi.StringWidth(prefix)
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	wrapped := ansi.Wrap(content, wrapWidth, " ,.;-+|")
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			renderer.output.WriteString(prefix)
		} else {
			renderer.output.WriteString(strings.Repeat(" ", ansi.StringWidth(prefix)))
		}
		renderer.output.WriteString(line)
		renderer.output.WriteByte('\n')
	}
}

func (renderer *previewRenderer) writeCode(lines *text.Segments, language string) {
	var code strings.Builder
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		code.Write(segment.Value(renderer.source))
	}
	highlighted := renderer.style().Foreground(renderer.theme.FaintText).Render(code.String())
	if language != "" {
		var buffer strings.Builder
		if err := quick.Highlight(&buffer, code.String(), language, "terminal256", "monokai"); err == nil {
			highlighted = buffer.String()
		}
	}
	for _, line := range strings.Split(strings.TrimRight(highlighted, "\n"), "\n") {
		renderer.output.WriteString("  ")
		renderer.output.WriteString(ansi.Truncate(line, renderer.width-2, "…"))
		renderer.output.WriteByte('\n')
	}
}
