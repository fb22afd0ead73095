package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-reader/internal/mail"
)

// LabelsRequest is the (empty) input of gmail_labels.
type LabelsRequest struct{}

// LabelsResponse is the output of gmail_labels.
type LabelsResponse struct {
	Labels []mail.Label `json:"labels" jsonschema:"every label of the mailbox"`
}

type labelsSvc interface {
	ListLabels(ctx context.Context) ([]mail.Label, error)
}

func NewLabels(svc labelsSvc) *Labels {
	return &Labels{svc: svc}
}

type Labels struct {
	svc labelsSvc
}

func (t *Labels) Labels(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ LabelsRequest,
) (*mcp.CallToolResult, LabelsResponse, error) {
	labels, err := t.svc.ListLabels(ctx)
	if err != nil {
		return nil, LabelsResponse{}, toolError("labels", err)
	}

	return nil, LabelsResponse{Labels: labels}, nil
}
