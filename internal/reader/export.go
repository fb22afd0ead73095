package reader

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reader/internal/gservice"
	"github.com/hal9000y/gmail-reader/internal/logging"
	"github.com/hal9000y/gmail-reader/internal/mail"
	"github.com/hal9000y/gmail-reader/internal/validate"
)

// Sink receives exported messages one at a time, in listing order.
type Sink interface {
	Write(msg mail.Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(mail.Message) error

func (f SinkFunc) Write(msg mail.Message) error { return f(msg) }

// ExportResult counts what an export delivered. It is returned together with
// any error so callers see how far a failed export got.
type ExportResult struct {
	Query    string
	Exported int
	Skipped  int
	Summary  gservice.Summary
	// LimitReached is set when the export stopped at its limit while the
	// service still had more messages.
	LimitReached bool
}

// Export streams every message received on or after start and before end
// (YYYY-MM-DD) to sink as full records. Only one page of messages is held at
// a time. limit caps the number of listed messages; zero means no cap.
// Messages the service reports as gone are skipped and counted; any other
// failure aborts the export.
func (r *Reader) Export(ctx context.Context, start, end string, limit int, sink Sink) (ExportResult, error) {
	query, err := validate.DateQuery(start, end)
	if err != nil {
		return ExportResult{}, err
	}

	res := ExportResult{Query: query}
	opts := gservice.PageOptions{MaxPages: r.opts.MaxPages, Limit: limit}

	sum, err := r.svc.ListMessages(ctx, query, opts, func(ctx context.Context, page []*gmail.Message) error {
		ids := make([]string, len(page))
		for i, m := range page {
			ids[i] = m.Id
		}

		items, err := r.svc.GetMessages(ctx, ids, gservice.FormatFull)
		if err != nil {
			return fmt.Errorf("GetMessages failed: %w", err)
		}

		for _, it := range items {
			if it.Err != nil {
				r.logger.Warn("skipping message", logging.ID(it.ID), logging.Err(it.Err))
				res.Skipped++
				continue
			}
			if err := sink.Write(mail.Project(it.Message)); err != nil {
				return fmt.Errorf("sink.Write failed: %w", err)
			}
			res.Exported++
		}

		r.logger.Debug("export progress", slog.Int("exported", res.Exported), slog.Int("skipped", res.Skipped))

		return nil
	})
	res.Summary = sum
	res.LimitReached = sum.StopReason == gservice.StopLimit

	if err != nil {
		return res, fmt.Errorf("ListMessages failed: %w", err)
	}

	return res, nil
}
