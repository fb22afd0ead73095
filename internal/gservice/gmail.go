// Package gservice executes read-only Gmail API calls through a shared rate
// limiter and retry policy, and paginates list calls.
package gservice

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	gmailUserID = "me"

	// DefaultBatchConcurrency bounds parallel gets in GetMessages.
	DefaultBatchConcurrency = 4
)

// MessageFormat selects how much of a message is fetched.
type MessageFormat int

const (
	// FormatMetadata fetches headers and snippet only.
	FormatMetadata MessageFormat = iota
	// FormatFull fetches the complete payload including bodies.
	FormatFull
)

func (f MessageFormat) String() string {
	if f == FormatFull {
		return "full"
	}
	return "metadata"
}

// GMail is the read-only Gmail surface. It exposes list and get operations
// only; every call goes through the Executor.
type GMail struct {
	svc              *gmail.Service
	ex               *Executor
	batchConcurrency int
}

type gmailOptions struct {
	base             http.RoundTripper
	clientOpts       []option.ClientOption
	batchConcurrency int
}

// Option configures NewGmail.
type Option func(*gmailOptions)

// WithBaseTransport sets the transport under the credential injector.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *gmailOptions) { o.base = rt }
}

// WithEndpoint points the client at another API root, e.g. a test server.
func WithEndpoint(url string) Option {
	return func(o *gmailOptions) { o.clientOpts = append(o.clientOpts, option.WithEndpoint(url)) }
}

// WithBatchConcurrency bounds parallel gets in GetMessages.
func WithBatchConcurrency(n int) Option {
	return func(o *gmailOptions) {
		if n > 0 {
			o.batchConcurrency = n
		}
	}
}

// NewGmail builds the Gmail client. The HTTP client it uses carries no
// credential of its own; the executor attaches one per attempt.
func NewGmail(ctx context.Context, ex *Executor, opts ...Option) (*GMail, error) {
	o := gmailOptions{batchConcurrency: DefaultBatchConcurrency}
	for _, opt := range opts {
		opt(&o)
	}

	clt := &http.Client{Transport: &authTransport{base: o.base}}
	clientOpts := append([]option.ClientOption{option.WithHTTPClient(clt)}, o.clientOpts...)

	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gmail.NewService failed: %w", err)
	}

	return &GMail{
		svc:              svc,
		ex:               ex,
		batchConcurrency: o.batchConcurrency,
	}, nil
}

// MessagesPage returns the page template for messages.list with query q.
func (m *GMail) MessagesPage(q string, labelIDs ...string) PageRequest[*gmail.Message] {
	labels := append([]string(nil), labelIDs...)

	return func(pageToken string, pageSize int64) Descriptor[Page[*gmail.Message]] {
		return Descriptor[Page[*gmail.Message]]{
			Method: MethodMessagesList,
			Params: map[string]string{
				"q":          q,
				"labelIds":   strings.Join(labels, ","),
				"pageToken":  pageToken,
				"maxResults": strconv.FormatInt(pageSize, 10),
			},
			Fields: FieldsMessageList,
			Do: func(ctx context.Context, fields googleapi.Field) (Page[*gmail.Message], error) {
				call := m.svc.Users.Messages.List(gmailUserID).
					MaxResults(pageSize).
					Fields(fields).
					Context(ctx)
				if q != "" {
					call = call.Q(q)
				}
				if len(labels) > 0 {
					call = call.LabelIds(labels...)
				}
				if pageToken != "" {
					call = call.PageToken(pageToken)
				}

				res, err := call.Do()
				if err != nil {
					return Page[*gmail.Message]{}, fmt.Errorf("messages.List failed: %w", err)
				}

				return Page[*gmail.Message]{Items: res.Messages, NextPageToken: res.NextPageToken}, nil
			},
		}
	}
}

// ListMessages streams message stubs (id and thread id) page by page.
func (m *GMail) ListMessages(
	ctx context.Context,
	q string,
	opts PageOptions,
	sink func(context.Context, []*gmail.Message) error,
) (Summary, error) {
	return Paginate(ctx, m.ex, m.MessagesPage(q), opts, sink)
}

// CollectMessages accumulates message stubs in memory.
func (m *GMail) CollectMessages(ctx context.Context, q string, opts CollectOptions) ([]*gmail.Message, Summary, error) {
	return Collect(ctx, m.ex, m.MessagesPage(q), opts)
}

func (m *GMail) messageDescriptor(msgID string, format MessageFormat) Descriptor[*gmail.Message] {
	fields := FieldsMessageMeta
	if format == FormatFull {
		fields = FieldsMessageFull
	}

	return Descriptor[*gmail.Message]{
		Method: MethodMessagesGet,
		Params: map[string]string{"id": msgID, "format": format.String()},
		Fields: fields,
		Do: func(ctx context.Context, fields googleapi.Field) (*gmail.Message, error) {
			call := m.svc.Users.Messages.Get(gmailUserID, msgID).
				Fields(fields).
				Context(ctx)
			if format == FormatFull {
				call = call.Format("full")
			} else {
				call = call.Format("metadata").MetadataHeaders(metadataHeaders...)
			}

			msg, err := call.Do()
			if err != nil {
				return nil, fmt.Errorf("messages.Get failed: %w", err)
			}

			return msg, nil
		},
	}
}

// GetMessage fetches one message.
func (m *GMail) GetMessage(ctx context.Context, msgID string, format MessageFormat) (*gmail.Message, error) {
	return Execute(ctx, m.ex, m.messageDescriptor(msgID, format))
}

// GetThread fetches a thread with its messages in service order.
func (m *GMail) GetThread(ctx context.Context, threadID string) (*gmail.Thread, error) {
	return Execute(ctx, m.ex, Descriptor[*gmail.Thread]{
		Method: MethodThreadsGet,
		Params: map[string]string{"id": threadID},
		Fields: FieldsThread,
		Do: func(ctx context.Context, fields googleapi.Field) (*gmail.Thread, error) {
			thread, err := m.svc.Users.Threads.Get(gmailUserID, threadID).
				Format("full").
				Fields(fields).
				Context(ctx).
				Do()
			if err != nil {
				return nil, fmt.Errorf("threads.Get failed: %w", err)
			}

			return thread, nil
		},
	})
}

// ListLabels returns every label of the mailbox.
func (m *GMail) ListLabels(ctx context.Context) ([]*gmail.Label, error) {
	return Execute(ctx, m.ex, Descriptor[[]*gmail.Label]{
		Method: MethodLabelsList,
		Fields: FieldsLabelList,
		Do: func(ctx context.Context, fields googleapi.Field) ([]*gmail.Label, error) {
			res, err := m.svc.Users.Labels.List(gmailUserID).
				Fields(fields).
				Context(ctx).
				Do()
			if err != nil {
				return nil, fmt.Errorf("labels.List failed: %w", err)
			}

			return res.Labels, nil
		},
	})
}

// GetProfile returns the mailbox address and totals.
func (m *GMail) GetProfile(ctx context.Context) (*gmail.Profile, error) {
	return Execute(ctx, m.ex, Descriptor[*gmail.Profile]{
		Method: MethodGetProfile,
		Fields: FieldsProfile,
		Do: func(ctx context.Context, fields googleapi.Field) (*gmail.Profile, error) {
			p, err := m.svc.Users.GetProfile(gmailUserID).
				Fields(fields).
				Context(ctx).
				Do()
			if err != nil {
				return nil, fmt.Errorf("users.GetProfile failed: %w", err)
			}

			return p, nil
		},
	})
}
