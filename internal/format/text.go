// Package format renders mail bodies for terminal and assistant consumption.
package format

import (
	"strings"

	"golang.org/x/net/html"
)

var skipElements = map[string]bool{
	"head": true, "script": true, "style": true, "title": true, "noscript": true, "template": true,
}

// paragraphElements are separated by a blank line, lineElements by a line break.
var paragraphElements = map[string]bool{
	"p": true, "blockquote": true, "pre": true, "table": true, "hr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var lineElements = map[string]bool{
	"div": true, "section": true, "article": true, "header": true, "footer": true,
	"ul": true, "ol": true, "tr": true, "center": true, "dt": true, "dd": true,
}

// HTMLToText renders an HTML mail body as plain text. Layout tables become
// one line per cell; data tables keep one line per row with cells joined by
// " | ". Link targets follow their text when they differ from it.
func HTMLToText(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return src
	}

	r := &textRenderer{}
	r.render(doc, false)

	return tidyLines(r.b.String())
}

type textRenderer struct {
	b strings.Builder
}

func (r *textRenderer) render(n *html.Node, layout bool) {
	switch n.Type {
	case html.TextNode:
		r.b.WriteString(collapseSpace(n.Data))
		return
	case html.DocumentNode:
		r.renderChildren(n, layout)
		return
	case html.ElementNode:
	default:
		return
	}

	if skipElements[n.Data] {
		return
	}

	switch n.Data {
	case "br":
		r.b.WriteString("\n")
		return
	case "table":
		r.paragraph()
		r.renderChildren(n, isLayoutTable(n))
		r.paragraph()
		return
	case "td", "th":
		if layout {
			r.newline()
		} else if prevCell(n) != nil {
			r.b.WriteString(" | ")
		}
		r.renderChildren(n, layout)
		return
	case "li":
		r.newline()
		r.b.WriteString("- ")
		r.renderChildren(n, layout)
		r.newline()
		return
	case "a":
		start := r.b.Len()
		r.renderChildren(n, layout)
		text := strings.TrimSpace(r.b.String()[start:])
		if href := attr(n, "href"); href != "" && href != text && !strings.HasPrefix(href, "mailto:") && !strings.HasPrefix(href, "#") {
			r.b.WriteString(" (" + href + ")")
		}
		return
	}

	switch {
	case paragraphElements[n.Data]:
		r.paragraph()
		r.renderChildren(n, layout)
		r.paragraph()
	case lineElements[n.Data]:
		r.newline()
		r.renderChildren(n, layout)
		r.newline()
	default:
		r.renderChildren(n, layout)
	}
}

// newline ends the current line unless it is already empty.
func (r *textRenderer) newline() {
	s := strings.TrimRight(r.b.String(), " ")
	if s != "" && !strings.HasSuffix(s, "\n") {
		r.b.WriteString("\n")
	}
}

func (r *textRenderer) paragraph() {
	r.b.WriteString("\n\n")
}

func (r *textRenderer) renderChildren(n *html.Node, layout bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.render(c, layout)
	}
}

func prevCell(n *html.Node) *html.Node {
	for p := n.PrevSibling; p != nil; p = p.PrevSibling {
		if isCell(p) {
			return p
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseSpace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}

	fields := strings.Fields(s)
	out := strings.Join(fields, " ")
	if first := s[0]; first == ' ' || first == '\t' || first == '\n' || first == '\r' {
		out = " " + out
	}
	if last := s[len(s)-1]; last == ' ' || last == '\t' || last == '\n' || last == '\r' {
		out += " "
	}
	return out
}

// tidyLines trims every line and keeps at most one blank line in a row.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true

	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
