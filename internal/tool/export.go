package tool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-reader/internal/export"
	"github.com/hal9000y/gmail-reader/internal/mail"
	"github.com/hal9000y/gmail-reader/internal/reader"
)

// ExportRequest is the input of gmail_export.
type ExportRequest struct {
	StartDate string `json:"start_date" jsonschema:"first day to export, YYYY-MM-DD"`
	EndDate   string `json:"end_date" jsonschema:"day after the last day to export, YYYY-MM-DD"`
}

// ExportResponse is the output of gmail_export.
type ExportResponse struct {
	Messages  []mail.Message `json:"messages" jsonschema:"exported messages"`
	Exported  int            `json:"exported" jsonschema:"number of messages exported"`
	Skipped   int            `json:"skipped,omitempty" jsonschema:"messages that could not be fetched"`
	Truncated bool           `json:"truncated,omitempty" jsonschema:"true when more messages exist than the tool returns"`
	Note      string         `json:"note,omitempty" jsonschema:"how to get a complete export when truncated"`
}

type exportSvc interface {
	Export(ctx context.Context, start, end string, limit int, sink reader.Sink) (reader.ExportResult, error)
}

func NewExport(svc exportSvc, limit int, logger *slog.Logger) *Export {
	return &Export{svc: svc, limit: limit, logger: logger}
}

type Export struct {
	svc    exportSvc
	limit  int
	logger *slog.Logger
}

func (t *Export) Export(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExportRequest,
) (*mcp.CallToolResult, ExportResponse, error) {
	sink := &export.Collector[mail.Message]{Max: t.limit}

	res, err := t.svc.Export(ctx, input.StartDate, input.EndDate, t.limit, sink)
	if err != nil {
		return nil, ExportResponse{}, toolError("export", err)
	}

	out := ExportResponse{
		Messages:  sink.Items,
		Exported:  res.Exported,
		Skipped:   res.Skipped,
		Truncated: res.LimitReached || sink.Truncated || res.Summary.Truncated,
	}
	if out.Messages == nil {
		out.Messages = []mail.Message{}
	}
	if out.Truncated {
		out.Note = fmt.Sprintf("Only the first %d messages were exported. For a complete export use the CLI: "+
			"gmail-reader export --start-date %s --end-date %s --file output.json", t.limit, input.StartDate, input.EndDate)
		t.logger.Info("export truncated", slog.Int("limit", t.limit), slog.String("query", res.Query))
	}

	return nil, out, nil
}
