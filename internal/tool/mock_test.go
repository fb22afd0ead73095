package tool_test

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-reader/internal/logging"
	"github.com/hal9000y/gmail-reader/internal/mail"
	"github.com/hal9000y/gmail-reader/internal/reader"
	"github.com/hal9000y/gmail-reader/internal/tool"
)

type readerMock struct {
	ListRecentFunc func(ctx context.Context, maxResults int) (reader.Listing, error)
	SearchFunc     func(ctx context.Context, query string, maxResults int) (reader.Listing, error)
	GetMessageFunc func(ctx context.Context, id string, detail reader.Detail) (mail.Message, error)
	GetThreadFunc  func(ctx context.Context, id string) (mail.Thread, error)
	ListLabelsFunc func(ctx context.Context) ([]mail.Label, error)
	ExportFunc     func(ctx context.Context, start, end string, limit int, sink reader.Sink) (reader.ExportResult, error)
}

func (m *readerMock) ListRecent(ctx context.Context, maxResults int) (reader.Listing, error) {
	return m.ListRecentFunc(ctx, maxResults)
}

func (m *readerMock) Search(ctx context.Context, query string, maxResults int) (reader.Listing, error) {
	return m.SearchFunc(ctx, query, maxResults)
}

func (m *readerMock) GetMessage(ctx context.Context, id string, detail reader.Detail) (mail.Message, error) {
	return m.GetMessageFunc(ctx, id, detail)
}

func (m *readerMock) GetThread(ctx context.Context, id string) (mail.Thread, error) {
	return m.GetThreadFunc(ctx, id)
}

func (m *readerMock) ListLabels(ctx context.Context) ([]mail.Label, error) {
	return m.ListLabelsFunc(ctx)
}

func (m *readerMock) Export(ctx context.Context, start, end string, limit int, sink reader.Sink) (reader.ExportResult, error) {
	return m.ExportFunc(ctx, start, end, limit, sink)
}

// connect starts an in-memory client/server pair around svc.
func connect(t *testing.T, svc *readerMock, exportLimit int) *mcp.ClientSession {
	t.Helper()

	server := tool.NewServer(svc, tool.Options{Version: "test", ExportLimit: exportLimit, Logger: logging.Discard()})
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}

func summary(id string) mail.MessageSummary {
	return mail.MessageSummary{
		ID:        id,
		ThreadID:  "t-" + id,
		Date:      "2025-09-14 12:12:32",
		Timestamp: 1757851952000,
		From:      mail.Address{Name: "Test User", Email: "test+" + id + "@test.com"},
		Subject:   "Super important email " + id,
		Snippet:   "test summary " + id,
	}
}
