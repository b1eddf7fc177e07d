package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"changewatch/triggerd/internal/model"
)

type redditCommentData struct {
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	CreatedUTC float64 `json:"created_utc"`
}

type redditComment struct {
	Data redditCommentData `json:"data"`
}

type redditListing struct {
	Data struct {
		Children []redditComment `json:"children"`
	} `json:"data"`
}

// RedditCommentsURL returns the public comment feed of user.
func (c *Client) RedditCommentsURL(user string) string {
	return fmt.Sprintf("%s/user/%s/comments.json", c.redditBaseURL, url.PathEscape(user))
}

// RedditComments returns the latest comments of user, newest first, as the
// feed delivers them. Each sample carries "author: body" as its message.
func (c *Client) RedditComments(ctx context.Context, user string) ([]model.Sample, error) {
	u := c.RedditCommentsURL(user)
	body, err := c.get(ctx, "reddit", u)
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &FetchError{Source: "reddit", URL: u, Err: fmt.Errorf("decode response: %w", err)}
	}

	samples := make([]model.Sample, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		samples = append(samples, model.Sample{
			Timestamp: child.Data.CreatedUTC,
			Message:   fmt.Sprintf("%s: %s", child.Data.Author, child.Data.Body),
		})
	}
	return samples, nil
}
