package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hal9000y/gmail-reader/internal/format"
)

func TestHTMLToTextTables(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "single_column_layout_table",
			input: `<html><body>
				<table id="main">
					<tbody>
						<tr><td>Content line 1</td></tr>
						<tr><td>Content line 2</td></tr>
					</tbody>
				</table>
			</body></html>`,
			expected: "Content line 1\nContent line 2",
		},
		{
			name: "nested_single_column_tables",
			input: `<html><body>
				<table>
					<tr><td>
						<table>
							<tr><td>
								<p>Nested content</p>
							</td></tr>
						</table>
					</td></tr>
				</table>
			</body></html>`,
			expected: "Nested content",
		},
		{
			name: "data_table_with_headers",
			input: `<html><body>
				<table>
					<thead>
						<tr><th>Name</th><th>Age</th></tr>
					</thead>
					<tbody>
						<tr><td>Alice</td><td>30</td></tr>
						<tr><td>Bob</td><td>25</td></tr>
					</tbody>
				</table>
			</body></html>`,
			expected: "Name | Age\nAlice | 30\nBob | 25",
		},
		{
			name: "multi_column_data_table",
			input: `<table>
					<tr><td>Cell 1</td><td>Cell 2</td><td>Cell 3</td></tr>
					<tr><td>Cell 4</td><td>Cell 5</td><td>Cell 6</td></tr>
				</table>`,
			expected: "Cell 1 | Cell 2 | Cell 3\nCell 4 | Cell 5 | Cell 6",
		},
		{
			name: "layout_table_around_data_table",
			input: `<table id="wrapper"><tr><td>
					<p>Your order</p>
					<table><tr><th>Item</th><th>Qty</th></tr><tr><td>Book</td><td>2</td></tr></table>
				</td></tr></table>`,
			expected: "Your order\n\nItem | Qty\nBook | 2",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, format.HTMLToText(tc.input))
		})
	}
}
