package reader_test

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-reader/internal/gservice"
)

type gmailSvcMock struct {
	ListMessagesFunc    func(ctx context.Context, q string, opts gservice.PageOptions, sink func(context.Context, []*gmail.Message) error) (gservice.Summary, error)
	CollectMessagesFunc func(ctx context.Context, q string, opts gservice.CollectOptions) ([]*gmail.Message, gservice.Summary, error)
	GetMessagesFunc     func(ctx context.Context, ids []string, format gservice.MessageFormat) ([]gservice.BatchItem, error)
	GetMessageFunc      func(ctx context.Context, msgID string, format gservice.MessageFormat) (*gmail.Message, error)
	GetThreadFunc       func(ctx context.Context, threadID string) (*gmail.Thread, error)
	ListLabelsFunc      func(ctx context.Context) ([]*gmail.Label, error)
	GetProfileFunc      func(ctx context.Context) (*gmail.Profile, error)
}

func (m *gmailSvcMock) ListMessages(ctx context.Context, q string, opts gservice.PageOptions, sink func(context.Context, []*gmail.Message) error) (gservice.Summary, error) {
	return m.ListMessagesFunc(ctx, q, opts, sink)
}

func (m *gmailSvcMock) CollectMessages(ctx context.Context, q string, opts gservice.CollectOptions) ([]*gmail.Message, gservice.Summary, error) {
	return m.CollectMessagesFunc(ctx, q, opts)
}

func (m *gmailSvcMock) GetMessages(ctx context.Context, ids []string, format gservice.MessageFormat) ([]gservice.BatchItem, error) {
	return m.GetMessagesFunc(ctx, ids, format)
}

func (m *gmailSvcMock) GetMessage(ctx context.Context, msgID string, format gservice.MessageFormat) (*gmail.Message, error) {
	return m.GetMessageFunc(ctx, msgID, format)
}

func (m *gmailSvcMock) GetThread(ctx context.Context, threadID string) (*gmail.Thread, error) {
	return m.GetThreadFunc(ctx, threadID)
}

func (m *gmailSvcMock) ListLabels(ctx context.Context) ([]*gmail.Label, error) {
	return m.ListLabelsFunc(ctx)
}

func (m *gmailSvcMock) GetProfile(ctx context.Context) (*gmail.Profile, error) {
	return m.GetProfileFunc(ctx)
}

func stubs(ids ...string) []*gmail.Message {
	out := make([]*gmail.Message, len(ids))
	for i, id := range ids {
		out[i] = &gmail.Message{Id: id}
	}
	return out
}

func testMessage(id string) *gmail.Message {
	return &gmail.Message{
		Id:           id,
		ThreadId:     "t-" + id,
		Snippet:      "snippet " + id,
		InternalDate: 1757851952000,
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: fmt.Sprintf("Test User <test+%s@test.com>", id)},
				{Name: "Subject", Value: "Subject " + id},
			},
			Body: &gmail.MessagePartBody{Data: "Ym9keQ=="},
		},
	}
}

// batchFrom answers each id with testMessage unless failing lists it.
func batchFrom(failing map[string]error) func(context.Context, []string, gservice.MessageFormat) ([]gservice.BatchItem, error) {
	return func(_ context.Context, ids []string, _ gservice.MessageFormat) ([]gservice.BatchItem, error) {
		items := make([]gservice.BatchItem, len(ids))
		for i, id := range ids {
			items[i].ID = id
			if err, ok := failing[id]; ok {
				items[i].Err = err
				continue
			}
			items[i].Message = testMessage(id)
		}
		return items, nil
	}
}

func notFound(method string) error {
	return &gservice.Error{Kind: gservice.KindFatal, Method: method, StatusCode: 404, Attempts: 1, Err: fmt.Errorf("not found")}
}
