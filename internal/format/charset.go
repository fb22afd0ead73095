package format

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// DecodeText converts raw body bytes to UTF-8. A declared charset other than
// UTF-8 is honoured first; otherwise valid UTF-8 is kept as is and anything
// else is read as Windows-1252, then ISO-8859-1.
func DecodeText(data []byte, declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))

	if declared != "" && declared != "utf-8" && declared != "utf8" && declared != "us-ascii" {
		if enc, err := ianaindex.MIME.Encoding(declared); err == nil && enc != nil {
			if out, err := enc.NewDecoder().Bytes(data); err == nil {
				return string(out)
			}
		}
	}

	if utf8.Valid(data) {
		return string(data)
	}

	if out, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		return string(out)
	}
	if out, err := charmap.ISO8859_1.NewDecoder().Bytes(data); err == nil {
		return string(out)
	}

	return strings.ToValidUTF8(string(data), "\uFFFD")
}
