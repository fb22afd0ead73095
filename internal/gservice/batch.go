package gservice

import (
	"context"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
)

// BatchItem is the result for one id of GetMessages.
type BatchItem struct {
	ID      string
	Message *gmail.Message
	Err     error
}

// GetMessages fetches ids with bounded concurrency. Results keep the order of
// ids. A fatal service error for one id (e.g. 404) is stored on its item and
// does not stop the others; any other failure cancels the batch and is
// returned.
func (m *GMail) GetMessages(ctx context.Context, ids []string, format MessageFormat) ([]BatchItem, error) {
	items := make([]BatchItem, len(ids))

	descs := make([]Descriptor[*gmail.Message], len(ids))
	for i, id := range ids {
		items[i].ID = id
		descs[i] = m.messageDescriptor(id, format)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.batchConcurrency)

	for i, d := range descs {
		g.Go(func() error {
			msg, err := Execute(gctx, m.ex, d)
			items[i].Message = msg
			items[i].Err = err

			if err != nil && KindOf(err) != KindFatal {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return items, err
	}

	return items, nil
}
