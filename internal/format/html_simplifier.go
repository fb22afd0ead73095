package format

import (
	"strings"

	"golang.org/x/net/html"
)

// isLayoutTable reports whether a table only arranges content visually, as
// newsletter and notification mails do, rather than holding tabular data.
// Layout tables are flattened to lines when rendering text.
func isLayoutTable(table *html.Node) bool {
	if hasTableHeaders(table) {
		return false
	}

	cells := rowCellCounts(table)
	if maxOf(cells) > 1 {
		return false
	}

	for _, attr := range table.Attr {
		if attr.Key == "id" && (attr.Val == "main" || strings.Contains(attr.Val, "layout") || strings.Contains(attr.Val, "wrapper")) {
			return true
		}
	}

	// Many uniform single-cell rows read as a list of data.
	if countContentRows(table) > 5 && allEqual(cells) {
		return false
	}

	return true
}

func hasTableHeaders(table *html.Node) bool {
	found := false
	walkTable(table, func(n *html.Node) {
		if n.Data == "th" || n.Data == "thead" {
			found = true
		}
	})
	return found
}

func rowCellCounts(table *html.Node) []int {
	var counts []int
	walkTable(table, func(n *html.Node) {
		if n.Data == "tr" {
			counts = append(counts, countCellsInRow(n))
		}
	})
	return counts
}

func countContentRows(table *html.Node) int {
	rows := 0
	walkTable(table, func(n *html.Node) {
		if n.Data == "tr" && hasTextContent(n) {
			rows++
		}
	})
	return rows
}

// walkTable visits the element nodes of table without descending into nested
// tables, which are judged on their own.
func walkTable(table *html.Node, visit func(*html.Node)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data == "table" {
				continue
			}
			visit(c)
			walk(c)
		}
	}
	walk(table)
}

func countCellsInRow(row *html.Node) int {
	cols := 0
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if isCell(c) {
			cols++
		}
	}
	return cols
}

func isCell(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th")
}

func hasTextContent(n *html.Node) bool {
	if n.Type == html.TextNode {
		text := strings.TrimSpace(strings.ReplaceAll(n.Data, "\u00a0", " "))
		return text != ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasTextContent(c) {
			return true
		}
	}
	return false
}

func maxOf(counts []int) int {
	m := 0
	for _, c := range counts {
		m = max(m, c)
	}
	return m
}

func allEqual(counts []int) bool {
	if len(counts) < 2 {
		return false
	}
	for _, c := range counts[1:] {
		if c != counts[0] {
			return false
		}
	}
	return true
}
