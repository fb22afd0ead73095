// Package tool exposes the read-only mailbox operations as MCP tools.
package tool

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-reader/internal/logging"
)

// DefaultExportLimit caps gmail_export when Options.ExportLimit is zero.
const DefaultExportLimit = 100

type readerSvc interface {
	listMessagesSvc
	readMessageSvc
	threadSvc
	labelsSvc
	exportSvc
}

// Options configures NewServer.
type Options struct {
	Version     string
	ExportLimit int
	Logger      *slog.Logger
}

// NewServer creates an MCP server with the Gmail tools. None of them modifies
// the mailbox.
func NewServer(r readerSvc, opts Options) *mcp.Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.ExportLimit <= 0 {
		opts.ExportLimit = DefaultExportLimit
	}
	logger := logging.OrDefault(opts.Logger)

	server := mcp.NewServer(&mcp.Implementation{Name: "gmail-reader", Version: opts.Version}, nil)

	list := NewListMessages(r, logging.WithTool(logger, "gmail_list"))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "gmail_list",
		Description: "List recent emails with sender, subject, date and snippet, newest first. Returns up to max_results emails (default: 50).",
	}, list.List)

	search := NewListMessages(r, logging.WithTool(logger, "gmail_search"))
	mcp.AddTool(server, &mcp.Tool{
		Name: "gmail_search",
		Description: "Search Gmail with its query operators: from:, to:, subject:, after:YYYY/MM/DD, " +
			"before:YYYY/MM/DD, is:unread, label:, has:attachment. Returns matching emails with sender, subject, date and snippet.",
	}, search.Search)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gmail_read",
		Description: "Read an email including headers, body (text and HTML) and attachment metadata. Use a message ID from gmail_list or gmail_search.",
	}, NewReadMessage(r).Read)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gmail_labels",
		Description: "List all Gmail labels, both system labels like INBOX and user-created ones.",
	}, NewLabels(r).Labels)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gmail_thread",
		Description: "View all messages of a thread in chronological order.",
	}, NewThread(r).Thread)

	mcp.AddTool(server, &mcp.Tool{
		Name: "gmail_export",
		Description: "Export emails received in a date range (end date exclusive) as full records. " +
			"Limited to a fixed number of messages; use the CLI export command for complete exports.",
	}, NewExport(r, opts.ExportLimit, logging.WithTool(logger, "gmail_export")).Export)

	return server
}
