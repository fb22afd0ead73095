package tool

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-reader/internal/mail"
	"github.com/hal9000y/gmail-reader/internal/reader"
)

const maxListResults = 500

// ListRequest is the input of gmail_list.
type ListRequest struct {
	MaxResults int `json:"max_results,omitempty" jsonschema:"maximum number of emails to return (default: 50)"`
}

// SearchRequest is the input of gmail_search.
type SearchRequest struct {
	Query      string `json:"query" jsonschema:"Gmail search query, e.g. 'from:boss@company.com is:unread after:2026/02/01'"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results (default: 50)"`
}

// ListResponse is the output of gmail_list and gmail_search.
type ListResponse struct {
	Messages     []mail.MessageSummary `json:"messages" jsonschema:"message summaries, newest first"`
	TotalResults int                   `json:"total_results" jsonschema:"number of messages returned"`
	Skipped      int                   `json:"skipped,omitempty" jsonschema:"messages that disappeared while listing"`
	Truncated    bool                  `json:"truncated,omitempty" jsonschema:"true when a page or memory limit cut the listing short"`
}

type listMessagesSvc interface {
	ListRecent(ctx context.Context, maxResults int) (reader.Listing, error)
	Search(ctx context.Context, query string, maxResults int) (reader.Listing, error)
}

func NewListMessages(svc listMessagesSvc, logger *slog.Logger) *ListMessages {
	return &ListMessages{svc: svc, logger: logger}
}

type ListMessages struct {
	svc    listMessagesSvc
	logger *slog.Logger
}

func (t *ListMessages) List(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListRequest,
) (*mcp.CallToolResult, ListResponse, error) {
	listing, err := t.svc.ListRecent(ctx, normalizeMaxResults(input.MaxResults))
	if err != nil {
		return nil, ListResponse{}, toolError("list", err)
	}

	return nil, t.response(listing), nil
}

func (t *ListMessages) Search(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchRequest,
) (*mcp.CallToolResult, ListResponse, error) {
	listing, err := t.svc.Search(ctx, input.Query, normalizeMaxResults(input.MaxResults))
	if err != nil {
		return nil, ListResponse{}, toolError("search", err)
	}

	return nil, t.response(listing), nil
}

func (t *ListMessages) response(l reader.Listing) ListResponse {
	if l.Summary.Truncated {
		t.logger.Warn("listing truncated", slog.String("reason", string(l.Summary.StopReason)))
	}
	if l.Messages == nil {
		l.Messages = []mail.MessageSummary{}
	}
	return ListResponse{
		Messages:     l.Messages,
		TotalResults: len(l.Messages),
		Skipped:      l.Skipped,
		Truncated:    l.Summary.Truncated,
	}
}

func normalizeMaxResults(maxResults int) int {
	if maxResults <= 0 {
		return reader.DefaultMaxResults
	}
	if maxResults > maxListResults {
		return maxListResults
	}
	return maxResults
}
