package gmail

import (
	"context"
	"fmt"
	"net/http"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const maxPageSize = 100

// Client wraps the Gmail Users service.
type Client struct {
	svc *gmail.UsersService
}

// NewClient creates a Gmail client on top of an OAuth2-authenticated
// HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Client{svc: svc.Users}, nil
}

// ForeachUnread fetches up to max unread inbox messages and invokes fn
// for each, paging through the listing lazily. The listing is not
// restartable: any error aborts the iteration and is returned.
func (c *Client) ForeachUnread(ctx context.Context, max int64, fn func(*Message) error) error {
	seen := int64(0)
	pageToken := ""
	for {
		remaining := max - seen
		if remaining <= 0 {
			return nil
		}
		pageSize := remaining
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		req := c.svc.Messages.List("me").
			LabelIds("UNREAD", "INBOX").
			MaxResults(pageSize)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		res, err := req.Context(ctx).Do()
		if err != nil {
			return wrapErr(err)
		}

		for _, stub := range res.Messages {
			if seen >= max {
				return nil
			}
			full, err := c.svc.Messages.Get("me", stub.Id).Format("full").Context(ctx).Do()
			if err != nil {
				return wrapErr(err)
			}
			seen++
			if err := fn(parseMessage(full)); err != nil {
				return err
			}
		}

		pageToken = res.NextPageToken
		if pageToken == "" {
			return nil
		}
	}
}

// Archive removes a message from the active inbox view by stripping the
// UNREAD and INBOX labels.
func (c *Client) Archive(ctx context.Context, id string) error {
	_, err := c.svc.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD", "INBOX"},
	}).Context(ctx).Do()
	return wrapErr(err)
}
