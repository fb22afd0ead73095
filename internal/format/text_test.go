package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hal9000y/gmail-reader/internal/format"
)

func TestHTMLToText(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "paragraphs",
			input:    `<p>Hello <b>World</b></p><p>Second</p>`,
			expected: "Hello World\n\nSecond",
		},
		{
			name:     "line_breaks",
			input:    `<div>one<br>two</div><div>three</div>`,
			expected: "one\ntwo\nthree",
		},
		{
			name:     "skips_script_and_style",
			input:    `<html><head><title>T</title><style>p{color:red}</style></head><body><script>alert(1)</script><p>ok</p></body></html>`,
			expected: "ok",
		},
		{
			name:     "list_items",
			input:    `<ul><li>One</li><li>Two</li></ul>`,
			expected: "- One\n- Two",
		},
		{
			name:     "links",
			input:    `<p>Visit <a href="https://example.com">our site</a> or <a href="mailto:a@b.c">mail</a></p>`,
			expected: "Visit our site (https://example.com) or mail",
		},
		{
			name:     "bare_link",
			input:    `<a href="https://example.com">https://example.com</a>`,
			expected: "https://example.com",
		},
		{
			name:     "entities_and_whitespace",
			input:    "<p>Fish&nbsp;&amp;   chips\n\n  today</p>",
			expected: "Fish & chips today",
		},
		{
			name:     "plain_text_passthrough",
			input:    "just text",
			expected: "just text",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, format.HTMLToText(tc.input))
		})
	}
}

func TestDecodeText(t *testing.T) {
	cases := []struct {
		name     string
		data     []byte
		charset  string
		expected string
	}{
		{name: "utf8", data: []byte("café"), expected: "café"},
		{name: "windows1252_fallback", data: []byte("caf\xe9 \x93quoted\x94"), expected: "café “quoted”"},
		{name: "declared_latin1", data: []byte("na\xefve"), charset: "ISO-8859-1", expected: "naïve"},
		{name: "declared_utf8_invalid_bytes", data: []byte("caf\xe9"), charset: "utf-8", expected: "café"},
		{name: "unknown_charset", data: []byte("plain"), charset: "x-made-up", expected: "plain"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, format.DecodeText(tc.data, tc.charset))
		})
	}
}
