package chat

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ToMrkdwn converts the model's markdown output to the chat platform's
// mrkdwn dialect: *bold* single-asterisk, _italic_ underscore, links as
// <url|label>, headings rendered as bold lines.
func ToMrkdwn(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var b strings.Builder
	renderBlocks(&b, doc, source, "")
	return strings.TrimRight(b.String(), "\n")
}

func renderBlocks(b *strings.Builder, parent ast.Node, source []byte, indent string) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Heading:
			fmt.Fprintf(b, "%s*%s*\n\n", indent, renderInline(n, source))

		case *ast.Paragraph:
			fmt.Fprintf(b, "%s%s\n\n", indent, renderInline(n, source))

		case *ast.TextBlock:
			fmt.Fprintf(b, "%s%s\n", indent, renderInline(n, source))

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			b.WriteString(indent + "```\n")
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
			}
			b.WriteString("```\n\n")

		case *ast.List:
			renderList(b, n, source, indent)
			b.WriteString("\n")

		case *ast.Blockquote:
			var inner strings.Builder
			renderBlocks(&inner, n, source, "")
			for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
				fmt.Fprintf(b, "%s> %s\n", indent, line)
			}
			b.WriteString("\n")

		case *ast.ThematicBreak:
			b.WriteString(indent + "---\n\n")

		default:
			renderBlocks(b, n, source, indent)
		}
	}
}

func renderList(b *strings.Builder, list *ast.List, source []byte, indent string) {
	num := list.Start
	if num == 0 {
		num = 1
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if list.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}

		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.List:
				renderList(b, c, source, indent+"  ")
			default:
				line := renderInline(c, source)
				if first {
					fmt.Fprintf(b, "%s%s%s\n", indent, marker, line)
					first = false
				} else {
					fmt.Fprintf(b, "%s  %s\n", indent, line)
				}
			}
		}
	}
}

func renderInline(parent ast.Node, source []byte) string {
	var b strings.Builder
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				b.WriteString("\n")
			}

		case *ast.String:
			b.Write(n.Value)

		case *ast.CodeSpan:
			b.WriteString("`" + renderInline(n, source) + "`")

		case *ast.Emphasis:
			if n.Level >= 2 {
				b.WriteString("*" + renderInline(n, source) + "*")
			} else {
				b.WriteString("_" + renderInline(n, source) + "_")
			}

		case *ast.Link:
			label := renderInline(n, source)
			dest := string(n.Destination)
			if label == "" || label == dest {
				b.WriteString("<" + dest + ">")
			} else {
				b.WriteString("<" + dest + "|" + label + ">")
			}

		case *ast.AutoLink:
			b.WriteString("<" + string(n.URL(source)) + ">")

		case *ast.Image:
			b.WriteString("<" + string(n.Destination) + ">")

		default:
			b.WriteString(renderInline(n, source))
		}
	}
	return b.String()
}
