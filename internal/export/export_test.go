package export_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-reader/internal/export"
	"github.com/hal9000y/gmail-reader/internal/gservice"
	"github.com/hal9000y/gmail-reader/internal/mail"
)

func TestJSONArrayWriter(t *testing.T) {
	var buf bytes.Buffer
	w := export.NewJSONArrayWriter[mail.Label](&buf)

	require.NoError(t, w.Write(mail.Label{ID: "INBOX", Name: "INBOX"}))
	require.NoError(t, w.Write(mail.Label{ID: "Label_1", Name: "Work", Type: "user"}))
	require.NoError(t, w.Close())

	var got []mail.Label
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []mail.Label{{ID: "INBOX", Name: "INBOX"}, {ID: "Label_1", Name: "Work", Type: "user"}}, got)
	assert.Equal(t, 2, w.Count())

	assert.ErrorIs(t, w.Write(mail.Label{}), export.ErrClosed)
	assert.NoError(t, w.Close())
}

func TestJSONArrayWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := export.NewJSONArrayWriter[mail.Message](&buf)
	require.NoError(t, w.Close())

	assert.Equal(t, "[]\n", buf.String())
}

func TestJSONArrayWriterStreams(t *testing.T) {
	var buf bytes.Buffer
	w := export.NewJSONArrayWriter[int](&buf)

	for i := range 10000 {
		require.NoError(t, w.Write(i))
	}
	// Only the bufio buffer may be pending before Close.
	assert.Greater(t, buf.Len(), 0)

	require.NoError(t, w.Close())

	var got []int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got, 10000)
}

func TestCollector(t *testing.T) {
	c := &export.Collector[string]{Max: 2}

	require.NoError(t, c.Write("a"))
	require.NoError(t, c.Write("b"))

	err := c.Write("c")
	assert.True(t, errors.Is(err, gservice.ErrStopPagination))
	assert.True(t, c.Truncated)
	assert.Equal(t, []string{"a", "b"}, c.Items)
}
