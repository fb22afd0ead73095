package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-reader/internal/mail"
	"github.com/hal9000y/gmail-reader/internal/reader"
)

// ReadRequest is the input of gmail_read.
type ReadRequest struct {
	MessageID string `json:"message_id" jsonschema:"Gmail message ID from gmail_list or gmail_search"`
	Format    string `json:"format,omitempty" jsonschema:"detail level: 'snippet' for a preview or 'full' for the complete body (default: full)"`
}

// ReadResponse is the output of gmail_read.
type ReadResponse struct {
	Message mail.Message `json:"message" jsonschema:"the message"`
}

type readMessageSvc interface {
	GetMessage(ctx context.Context, id string, detail reader.Detail) (mail.Message, error)
}

func NewReadMessage(svc readMessageSvc) *ReadMessage {
	return &ReadMessage{svc: svc}
}

type ReadMessage struct {
	svc readMessageSvc
}

func (t *ReadMessage) Read(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadRequest,
) (*mcp.CallToolResult, ReadResponse, error) {
	detail, err := reader.ParseDetail(input.Format)
	if err != nil {
		return nil, ReadResponse{}, toolError("read", err)
	}

	msg, err := t.svc.GetMessage(ctx, input.MessageID, detail)
	if err != nil {
		return nil, ReadResponse{}, toolError("read", err)
	}

	return nil, ReadResponse{Message: msg}, nil
}
