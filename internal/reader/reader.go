// Package reader implements the caller-facing mailbox operations shared by the
// CLI and the MCP tools: list, search, read, threads, labels and export.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reader/internal/gservice"
	"github.com/hal9000y/gmail-reader/internal/logging"
	"github.com/hal9000y/gmail-reader/internal/mail"
	"github.com/hal9000y/gmail-reader/internal/validate"
)

// DefaultMaxResults is used when a listing asks for zero results.
const DefaultMaxResults = 50

// Detail selects how much of a message GetMessage returns.
type Detail string

const (
	DetailSnippet Detail = "snippet"
	DetailFull    Detail = "full"
)

// ParseDetail accepts "snippet" or "full"; empty means full.
func ParseDetail(s string) (Detail, error) {
	switch Detail(s) {
	case "", DetailFull:
		return DetailFull, nil
	case DetailSnippet:
		return DetailSnippet, nil
	default:
		return "", &validate.Error{Field: "format", Reason: fmt.Sprintf("%q is not one of snippet, full", s)}
	}
}

type gmailSvc interface {
	ListMessages(ctx context.Context, q string, opts gservice.PageOptions, sink func(context.Context, []*gmail.Message) error) (gservice.Summary, error)
	CollectMessages(ctx context.Context, q string, opts gservice.CollectOptions) ([]*gmail.Message, gservice.Summary, error)
	GetMessages(ctx context.Context, ids []string, format gservice.MessageFormat) ([]gservice.BatchItem, error)
	GetMessage(ctx context.Context, msgID string, format gservice.MessageFormat) (*gmail.Message, error)
	GetThread(ctx context.Context, threadID string) (*gmail.Thread, error)
	ListLabels(ctx context.Context) ([]*gmail.Label, error)
	GetProfile(ctx context.Context) (*gmail.Profile, error)
}

// Options bounds reader operations.
type Options struct {
	MaxQueryLength int
	MaxPages       int
	// MaxInMemory caps listings that accumulate results.
	MaxInMemory int
	Partial     gservice.PartialPolicy
	Logger      *slog.Logger
}

// Reader is safe for concurrent use when the underlying service is.
type Reader struct {
	svc    gmailSvc
	opts   Options
	logger *slog.Logger
}

// New wraps svc, normally a *gservice.GMail.
func New(svc gmailSvc, opts Options) *Reader {
	if opts.MaxQueryLength <= 0 {
		opts.MaxQueryLength = validate.DefaultMaxQueryLength
	}
	return &Reader{svc: svc, opts: opts, logger: logging.OrDefault(opts.Logger)}
}

// Listing is the result of ListRecent and Search. Summary describes the
// underlying pagination. Skipped counts messages that vanished between
// listing and fetching.
type Listing struct {
	Messages []mail.MessageSummary
	Summary  gservice.Summary
	Skipped  int
}

// ListRecent returns up to maxResults messages, newest first.
func (r *Reader) ListRecent(ctx context.Context, maxResults int) (Listing, error) {
	return r.list(ctx, "", maxResults)
}

// Search returns up to maxResults messages matching query, newest first. The
// query uses Gmail search syntax and is only checked for length.
func (r *Reader) Search(ctx context.Context, query string, maxResults int) (Listing, error) {
	if err := validate.Query(query, r.opts.MaxQueryLength); err != nil {
		return Listing{}, err
	}
	return r.list(ctx, query, maxResults)
}

func (r *Reader) list(ctx context.Context, query string, maxResults int) (Listing, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	stubs, sum, err := r.svc.CollectMessages(ctx, query, gservice.CollectOptions{
		PageOptions: gservice.PageOptions{MaxPages: r.opts.MaxPages, Limit: maxResults},
		MaxInMemory: r.opts.MaxInMemory,
		Partial:     r.opts.Partial,
	})
	if err != nil && len(stubs) == 0 {
		return Listing{Summary: sum}, fmt.Errorf("CollectMessages failed: %w", err)
	}

	listing, fetchErr := r.summaries(ctx, stubs)
	listing.Summary = sum

	return listing, errors.Join(wrapErr("CollectMessages", err), fetchErr)
}

// summaries fetches metadata for stubs in order, skipping messages the
// service reports as fatal (e.g. deleted since listing).
func (r *Reader) summaries(ctx context.Context, stubs []*gmail.Message) (Listing, error) {
	if len(stubs) == 0 {
		return Listing{Messages: []mail.MessageSummary{}}, nil
	}

	ids := make([]string, len(stubs))
	for i, s := range stubs {
		ids[i] = s.Id
	}

	items, err := r.svc.GetMessages(ctx, ids, gservice.FormatMetadata)
	if err != nil {
		return Listing{}, fmt.Errorf("GetMessages failed: %w", err)
	}

	out := Listing{Messages: make([]mail.MessageSummary, 0, len(items))}
	for _, it := range items {
		if it.Err != nil {
			r.logger.Warn("skipping message", logging.ID(it.ID), logging.Err(it.Err))
			out.Skipped++
			continue
		}
		out.Messages = append(out.Messages, mail.Summarize(it.Message))
	}

	return out, nil
}

// GetMessage fetches one message. DetailSnippet drops the bodies.
func (r *Reader) GetMessage(ctx context.Context, id string, detail Detail) (mail.Message, error) {
	if err := validate.ResourceID(id, "message ID"); err != nil {
		return mail.Message{}, err
	}

	msg, err := r.svc.GetMessage(ctx, id, gservice.FormatFull)
	if err != nil {
		return mail.Message{}, fmt.Errorf("GetMessage failed: %w", err)
	}

	m := mail.Project(msg)
	if detail == DetailSnippet {
		m.TextBody = ""
		m.HTMLBody = ""
	}

	return m, nil
}

// GetThread returns the messages of a thread in service order.
func (r *Reader) GetThread(ctx context.Context, id string) (mail.Thread, error) {
	if err := validate.ResourceID(id, "thread ID"); err != nil {
		return mail.Thread{}, err
	}

	t, err := r.svc.GetThread(ctx, id)
	if err != nil {
		return mail.Thread{}, fmt.Errorf("GetThread failed: %w", err)
	}

	return mail.ProjectThread(t), nil
}

// ListLabels returns every label of the mailbox.
func (r *Reader) ListLabels(ctx context.Context) ([]mail.Label, error) {
	labels, err := r.svc.ListLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListLabels failed: %w", err)
	}
	return mail.ProjectLabels(labels), nil
}

// Profile returns the authenticated mailbox address and totals.
func (r *Reader) Profile(ctx context.Context) (mail.Profile, error) {
	p, err := r.svc.GetProfile(ctx)
	if err != nil {
		return mail.Profile{}, fmt.Errorf("GetProfile failed: %w", err)
	}
	return mail.ProjectProfile(p), nil
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
