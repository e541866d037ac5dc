// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taigaui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownParser     goldmark.Markdown
	markdownParserOnce sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// renderMarkdown renders a Taiga description for the terminal, wrapped
// to width. Soft line breaks reflow; code blocks keep their lines and
// are syntax highlighted.
func renderMarkdown(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	// The output always goes to the TUI, so the profile is forced
	// rather than detected from the environment.
	renderer := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.ANSI256))
	renderer.SetColorProfile(termenv.ANSI256)

	writer := &markdownWriter{
		source:   source,
		theme:    theme,
		width:    width,
		renderer: renderer,
	}
	writer.blocks(document, "", "")
	return strings.TrimRight(writer.output.String(), "\n")
}

type markdownWriter struct {
	source   []byte
	theme    Theme
	width    int
	renderer *lipgloss.Renderer
	output   strings.Builder
}

func (w *markdownWriter) style() lipgloss.Style {
	return w.renderer.NewStyle()
}

// blocks renders the block children of parent. The first line written
// uses firstPrefix, later lines use prefix.
func (w *markdownWriter) blocks(parent ast.Node, firstPrefix, prefix string) {
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		w.block(child, firstPrefix, prefix)
		firstPrefix = prefix
	}
}

func (w *markdownWriter) block(node ast.Node, firstPrefix, prefix string) {
	switch node := node.(type) {
	case *ast.Heading:
		heading := w.style().Bold(true).Foreground(w.theme.HeaderForeground).Render(w.inline(node))
		w.wrapped(heading, firstPrefix, prefix)
		w.blank()

	case *ast.Paragraph:
		w.wrapped(w.inline(node), firstPrefix, prefix)
		if !tightListChild(node) {
			w.blank()
		}

	case *ast.TextBlock:
		w.wrapped(w.inline(node), firstPrefix, prefix)

	case *ast.List:
		number := node.Start
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			bullet := "• "
			if node.IsOrdered() {
				bullet = fmt.Sprintf("%d. ", number)
				number++
			}
			w.blocks(item, firstPrefix+bullet, prefix+strings.Repeat(" ", ansi.StringWidth(bullet)))
			firstPrefix = prefix
		}
		if node.Parent() == nil || node.Parent().Kind() == ast.KindDocument {
			w.blank()
		}

	case *ast.FencedCodeBlock:
		w.code(w.lines(node), string(node.Language(w.source)), firstPrefix, prefix)

	case *ast.CodeBlock:
		w.code(w.lines(node), "", firstPrefix, prefix)

	case *ast.Blockquote:
		bar := w.style().Foreground(w.theme.BorderColor).Render("│ ")
		w.blocks(node, firstPrefix+bar, prefix+bar)

	case *ast.ThematicBreak:
		w.line(firstPrefix + w.style().Foreground(w.theme.BorderColor).Render(strings.Repeat("─", w.width-ansi.StringWidth(prefix))))
		w.blank()

	case *ast.HTMLBlock:
		w.code(w.lines(node), "html", firstPrefix, prefix)

	case *extast.Table:
		for row := node.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, w.inline(cell))
			}
			rendered := strings.Join(cells, w.style().Foreground(w.theme.BorderColor).Render(" │ "))
			if row.Kind() == extast.KindTableHeader {
				rendered = w.style().Bold(true).Render(rendered)
			}
			w.line(firstPrefix + ansi.Truncate(rendered, w.width-ansi.StringWidth(firstPrefix), "…"))
			firstPrefix = prefix
		}
		w.blank()

	default:
		w.blocks(node, firstPrefix, prefix)
	}
}

func tightListChild(node ast.Node) bool {
	item := node.Parent()
	if item == nil || item.Kind() != ast.KindListItem {
		return false
	}
	list, ok := item.Parent().(*ast.List)
	return ok && list.IsTight
}

// inline renders the inline children of node as one styled string.
func (w *markdownWriter) inline(node ast.Node) string {
	var builder strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch child := child.(type) {
		case *ast.Text:
			builder.Write(child.Segment.Value(w.source))
			switch {
			case child.HardLineBreak():
				builder.WriteByte('\n')
			case child.SoftLineBreak():
				builder.WriteByte(' ')
			}
		case *ast.String:
			builder.Write(child.Value)
		case *ast.CodeSpan:
			builder.WriteString(w.style().Foreground(w.theme.Open).Render(w.plain(child)))
		case *ast.Emphasis:
			style := w.style().Italic(true)
			if child.Level >= 2 {
				style = w.style().Bold(true)
			}
			builder.WriteString(style.Render(w.inline(child)))
		case *extast.Strikethrough:
			builder.WriteString(w.style().Strikethrough(true).Render(w.inline(child)))
		case *ast.Link:
			label := w.inline(child)
			destination := string(child.Destination)
			builder.WriteString(w.style().Foreground(w.theme.LinkForeground).Underline(true).Render(label))
			if destination != "" && destination != label {
				builder.WriteString(w.style().Foreground(w.theme.FaintText).Render(" (" + destination + ")"))
			}
		case *ast.AutoLink:
			builder.WriteString(w.style().Foreground(w.theme.LinkForeground).Underline(true).Render(string(child.URL(w.source))))
		case *ast.Image:
			builder.WriteString(w.style().Foreground(w.theme.FaintText).Render("[image: " + w.plain(child) + "]"))
		case *ast.RawHTML:
			for i := 0; i < child.Segments.Len(); i++ {
				segment := child.Segments.At(i)
				builder.Write(segment.Value(w.source))
			}
		default:
			builder.WriteString(w.inline(child))
		}
	}
	return builder.String()
}

// plain returns the unstyled text of node's inline children.
func (w *markdownWriter) plain(node ast.Node) string {
	var builder strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch child := child.(type) {
		case *ast.Text:
			builder.Write(child.Segment.Value(w.source))
		case *ast.String:
			builder.Write(child.Value)
		default:
			builder.WriteString(w.plain(child))
		}
	}
	return builder.String()
}

func (w *markdownWriter) lines(node ast.Node) string {
	var builder strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		builder.Write(segment.Value(w.source))
	}
	return strings.TrimRight(builder.String(), "\n")
}

func (w *markdownWriter) code(code, language, firstPrefix, prefix string) {
	var highlighted strings.Builder
	if err := quick.Highlight(&highlighted, code, language, "terminal256", "monokai"); err != nil {
		highlighted.Reset()
		highlighted.WriteString(w.style().Foreground(w.theme.FaintText).Render(code))
	}
	limit := w.width - ansi.StringWidth(prefix) - 2
	for _, line := range strings.Split(strings.TrimRight(highlighted.String(), "\n"), "\n") {
		w.line(firstPrefix + "  " + ansi.Truncate(line, limit, "…"))
		firstPrefix = prefix
	}
	w.blank()
}

// wrapped writes styled text word-wrapped to the available width.
func (w *markdownWriter) wrapped(styled, firstPrefix, prefix string) {
	limit := w.width - max(ansi.StringWidth(firstPrefix), ansi.StringWidth(prefix))
	if limit < 10 {
		limit = 10
	}
	for _, line := range strings.Split(ansi.Wordwrap(styled, limit, ""), "\n") {
		w.line(firstPrefix + line)
		firstPrefix = prefix
	}
}

func (w *markdownWriter) line(line string) {
	w.output.WriteString(strings.TrimRight(line, " "))
	w.output.WriteByte('\n')
}

// blank ends a block with one empty line, never two.
func (w *markdownWriter) blank() {
	current := w.output.String()
	if current == "" || strings.HasSuffix(current, "\n\n") {
		return
	}
	w.output.WriteByte('\n')
}
