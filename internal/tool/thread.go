package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-reader/internal/mail"
)

// ThreadRequest is the input of gmail_thread.
type ThreadRequest struct {
	ThreadID string `json:"thread_id" jsonschema:"Gmail thread ID from gmail_list or gmail_search"`
}

// ThreadResponse is the output of gmail_thread.
type ThreadResponse struct {
	Thread       mail.Thread `json:"thread" jsonschema:"the thread"`
	MessageCount int         `json:"message_count" jsonschema:"number of messages in the thread"`
}

type threadSvc interface {
	GetThread(ctx context.Context, id string) (mail.Thread, error)
}

func NewThread(svc threadSvc) *Thread {
	return &Thread{svc: svc}
}

type Thread struct {
	svc threadSvc
}

func (t *Thread) Thread(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ThreadRequest,
) (*mcp.CallToolResult, ThreadResponse, error) {
	thread, err := t.svc.GetThread(ctx, input.ThreadID)
	if err != nil {
		return nil, ThreadResponse{}, toolError("thread", err)
	}

	return nil, ThreadResponse{Thread: thread, MessageCount: len(thread.Messages)}, nil
}
