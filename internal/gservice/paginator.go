package gservice

import (
	"context"
	"errors"

	"github.com/hal9000y/gmail-reader/internal/logging"
)

const (
	// DefaultMaxPages bounds a single pagination.
	DefaultMaxPages = 50
	// MaxPageSize is the largest page Gmail serves for messages.list.
	MaxPageSize = 500
)

// ErrStopPagination may be returned by a sink to end pagination cleanly.
var ErrStopPagination = errors.New("stop pagination")

// Page is one page of a list call.
type Page[T any] struct {
	Items         []T
	NextPageToken string
}

// PageRequest builds the descriptor for one page. pageToken is empty for
// the first page.
type PageRequest[T any] func(pageToken string, pageSize int64) Descriptor[Page[T]]

// StopReason tells why pagination ended.
type StopReason string

const (
	StopEndOfResults   StopReason = "end_of_results"
	StopLimit          StopReason = "limit_reached"
	StopMaxPages       StopReason = "max_pages"
	StopMemoryCap      StopReason = "memory_cap"
	StopDuplicateToken StopReason = "duplicate_token"
	StopSink           StopReason = "sink_stopped"
	StopError          StopReason = "error"
)

// Summary describes a finished (or failed) pagination. Truncated is set when
// a policy cutoff ended it while the service still had more results.
type Summary struct {
	Pages      int
	Items      int
	Truncated  bool
	StopReason StopReason
}

// PageOptions bounds one pagination.
type PageOptions struct {
	// MaxPages caps the number of list calls; DefaultMaxPages when zero.
	MaxPages int
	// Limit caps the number of items delivered; zero means no limit.
	Limit int
	// PageSize is the requested page size; MaxPageSize when zero.
	PageSize int64
}

func (o PageOptions) withDefaults() PageOptions {
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.PageSize <= 0 || o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	return o
}

// Paginate fetches pages until the results end, a cap is reached or a call
// fails, pushing each page to sink as it arrives. Nothing is retained between
// pages. On failure the returned Summary still counts what sink received.
func Paginate[T any](
	ctx context.Context,
	ex *Executor,
	req PageRequest[T],
	opts PageOptions,
	sink func(context.Context, []T) error,
) (Summary, error) {
	opts = opts.withDefaults()

	var (
		sum    Summary
		token  string
		method string
		seen   = map[string]struct{}{}
	)

	for {
		if sum.Pages >= opts.MaxPages {
			sum.Truncated = true
			sum.StopReason = StopMaxPages
			ex.logger.Warn("reached maximum page limit, returning partial results",
				logging.Method(method), "max_pages", opts.MaxPages, "items", sum.Items)
			ex.metrics.RecordTruncation(ctx, method, string(StopMaxPages))
			return sum, nil
		}

		size := opts.PageSize
		remaining := 0
		if opts.Limit > 0 {
			remaining = opts.Limit - sum.Items
			size = min(size, int64(remaining))
		}

		d := req(token, size)
		method = d.Method

		page, err := Execute(ctx, ex, d)
		if err != nil {
			sum.StopReason = StopError
			return sum, err
		}
		sum.Pages++
		ex.metrics.RecordPage(ctx, method)

		items := page.Items
		if opts.Limit > 0 && len(items) > remaining {
			items = items[:remaining]
		}

		if len(items) > 0 {
			if err := sink(ctx, items); err != nil {
				if errors.Is(err, ErrStopPagination) {
					sum.Items += len(items)
					sum.StopReason = StopSink
					return sum, nil
				}
				sum.StopReason = StopError
				return sum, err
			}
			sum.Items += len(items)
		}

		if sum.Pages%5 == 0 {
			ex.logger.Debug("pagination progress", logging.Method(method), "pages", sum.Pages, "items", sum.Items)
		}

		if page.NextPageToken == "" {
			sum.StopReason = StopEndOfResults
			return sum, nil
		}

		if opts.Limit > 0 && sum.Items >= opts.Limit {
			sum.StopReason = StopLimit
			return sum, nil
		}

		if _, dup := seen[page.NextPageToken]; dup {
			sum.Truncated = true
			sum.StopReason = StopDuplicateToken
			ex.logger.Warn("duplicate next page token, stopping pagination", logging.Method(method), "page", sum.Pages)
			ex.metrics.RecordTruncation(ctx, method, string(StopDuplicateToken))
			return sum, nil
		}

		seen[page.NextPageToken] = struct{}{}
		token = page.NextPageToken
	}
}

// PartialPolicy decides what Collect returns alongside an error.
type PartialPolicy int

const (
	// SurfacePartial returns the items collected before the failure.
	SurfacePartial PartialPolicy = iota
	// DiscardPartial returns no items when pagination fails.
	DiscardPartial
)

// CollectOptions extends PageOptions with an in-memory bound.
type CollectOptions struct {
	PageOptions
	// MaxInMemory caps accumulated items; reaching it is reported as
	// truncation. Zero means no cap beyond Limit.
	MaxInMemory int
	Partial     PartialPolicy
}

// Collect accumulates every page into a slice. The Summary is returned even
// on error so callers always see how many items were fetched.
func Collect[T any](ctx context.Context, ex *Executor, req PageRequest[T], opts CollectOptions) ([]T, Summary, error) {
	po := opts.PageOptions
	capped := false
	if opts.MaxInMemory > 0 && (po.Limit <= 0 || po.Limit > opts.MaxInMemory) {
		po.Limit = opts.MaxInMemory
		capped = true
	}

	var items []T
	sum, err := Paginate(ctx, ex, req, po, func(_ context.Context, page []T) error {
		items = append(items, page...)
		return nil
	})

	if capped && sum.StopReason == StopLimit {
		sum.Truncated = true
		sum.StopReason = StopMemoryCap
		ex.logger.Warn("reached maximum in-memory item limit, returning partial results",
			"max_in_memory", opts.MaxInMemory)
		ex.metrics.RecordTruncation(ctx, "collect", string(StopMemoryCap))
	}

	if err != nil && opts.Partial == DiscardPartial {
		return nil, sum, err
	}

	return items, sum, err
}
