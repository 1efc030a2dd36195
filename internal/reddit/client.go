// Package reddit implements the search client for the Reddit API, in both
// authenticated (OAuth bearer) and anonymous modes.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

const (
	defaultOAuthBaseURL = "https://oauth.reddit.com"
	defaultAnonBaseURL  = "https://www.reddit.com"
)

// Post is a Reddit submission returned by the search endpoint.
type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

// CreatedAt converts the epoch-seconds creation time to a time.Time.
func (p Post) CreatedAt() time.Time {
	return time.Unix(int64(p.Created), 0).UTC()
}

// URL is the canonical reddit.com link to the post.
func (p Post) URL() string {
	return "https://reddit.com" + p.Permalink
}

// Comment is a single comment on a post.
type Comment struct {
	ID       string  `json:"id"`
	Body     string  `json:"body"`
	Author   string  `json:"author"`
	Score    int     `json:"score"`
	ParentID string  `json:"parent_id"`
	Created  float64 `json:"created_utc"`
}

// CreatedAt converts the epoch-seconds creation time to a time.Time.
func (c Comment) CreatedAt() time.Time {
	return time.Unix(int64(c.Created), 0).UTC()
}

type listing struct {
	Data struct {
		Children []json.RawMessage `json:"children"`
	} `json:"data"`
}

type postChild struct {
	Data Post `json:"data"`
}

type commentChild struct {
	Kind string  `json:"kind"`
	Data Comment `json:"data"`
}

// Client queries the Reddit search and comments endpoints. Upstream failures
// degrade to empty results; only transport-level errors are returned.
type Client struct {
	userAgent     string
	client        *resty.Client
	retryAttempts uint64
	retryDelay    time.Duration
	oauthBaseURL  string
	anonBaseURL   string
}

// NewClient creates a Reddit search client. Rate-limited calls (429/503) are
// retried up to retryAttempts times with a constant retryDelay backoff.
func NewClient(userAgent string, retryAttempts int, retryDelay time.Duration) *Client {
	if retryAttempts < 0 {
		retryAttempts = 0
	}
	return &Client{
		userAgent:     userAgent,
		client:        resty.New().SetTimeout(30 * time.Second),
		retryAttempts: uint64(retryAttempts),
		retryDelay:    retryDelay,
		oauthBaseURL:  defaultOAuthBaseURL,
		anonBaseURL:   defaultAnonBaseURL,
	}
}

// SearchPosts queries Reddit for posts matching the keyword, newest first.
// A non-empty token selects the authenticated endpoint; the mode never
// switches within one call. Non-2xx responses are logged and yield an empty
// slice, so a failed search reads as "zero posts found".
func (c *Client) SearchPosts(ctx context.Context, keyword, token string, limit int) ([]Post, error) {
	searchURL := c.anonBaseURL + "/search.json"
	if token != "" {
		searchURL = c.oauthBaseURL + "/search"
	}

	resp, err := c.get(ctx, searchURL, token, map[string]string{
		"q":     keyword,
		"limit": strconv.Itoa(limit),
		"sort":  "new",
		"t":     "week",
	})
	if err != nil {
		return nil, fmt.Errorf("search request for %q: %w", keyword, err)
	}
	if !c.statusOK("search", resp) {
		return nil, nil
	}

	var list listing
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return nil, fmt.Errorf("parse search response for %q: %w", keyword, err)
	}

	var posts []Post
	for _, raw := range list.Data.Children {
		var child postChild
		if err := json.Unmarshal(raw, &child); err != nil {
			continue
		}
		if isPlaceholder(child.Data.Selftext) || isPlaceholder(child.Data.Author) {
			continue
		}
		posts = append(posts, child.Data)
	}

	return posts, nil
}

// GetComments fetches up to limit top comments for a post. Failures degrade
// to an empty list so one post's comments never abort its processing.
func (c *Client) GetComments(ctx context.Context, subreddit, postID, token string, limit int) ([]Comment, error) {
	commentsURL := fmt.Sprintf("%s/r/%s/comments/%s.json", c.anonBaseURL, subreddit, postID)
	if token != "" {
		commentsURL = fmt.Sprintf("%s/r/%s/comments/%s", c.oauthBaseURL, subreddit, postID)
	}

	resp, err := c.get(ctx, commentsURL, token, map[string]string{
		"limit": strconv.Itoa(limit),
		"sort":  "top",
		"depth": "1",
	})
	if err != nil {
		return nil, fmt.Errorf("comments request for %s: %w", postID, err)
	}
	if !c.statusOK("comments", resp) {
		return nil, nil
	}

	// The comments endpoint returns a two-element array: the post listing
	// followed by the comment listing.
	var listings []listing
	if err := json.Unmarshal(resp.Body(), &listings); err != nil {
		return nil, fmt.Errorf("parse comments response for %s: %w", postID, err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []Comment
	for _, raw := range listings[1].Data.Children {
		var child commentChild
		if err := json.Unmarshal(raw, &child); err != nil {
			continue
		}
		if child.Kind != "t1" {
			continue
		}
		if isPlaceholder(child.Data.Body) || isPlaceholder(child.Data.Author) {
			continue
		}
		comments = append(comments, child.Data)
		if len(comments) >= limit {
			break
		}
	}

	return comments, nil
}

// get performs a GET with the identifying User-Agent, bearer auth when a
// token is present, and bounded retries on 429/503. When retries are
// exhausted the last response is returned so the caller can log the status.
func (c *Client) get(ctx context.Context, url, token string, query map[string]string) (*resty.Response, error) {
	var resp *resty.Response

	backoff := retry.WithMaxRetries(c.retryAttempts, retry.NewConstant(c.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req := c.client.R().
			SetContext(ctx).
			SetHeader("User-Agent", c.userAgent).
			SetQueryParams(query)
		if token != "" {
			req.SetHeader("Authorization", "Bearer "+token)
		}

		r, err := req.Get(url)
		if err != nil {
			return retry.RetryableError(err)
		}
		resp = r

		if r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() == http.StatusServiceUnavailable {
			return retry.RetryableError(fmt.Errorf("upstream status %d", r.StatusCode()))
		}
		return nil
	})

	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// statusOK logs the distinguishing condition for non-2xx responses and
// reports whether the response carries a usable body.
func (c *Client) statusOK(op string, resp *resty.Response) bool {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return true
	}

	switch code {
	case http.StatusUnauthorized:
		logrus.Warnf("reddit %s unauthorized: access token invalid or expired", op)
	case http.StatusForbidden:
		logrus.Warnf("reddit %s forbidden: client blocked by upstream", op)
	case http.StatusTooManyRequests:
		logrus.Warnf("reddit %s rate limited after retries", op)
	default:
		logrus.Warnf("reddit %s returned status %d", op, code)
	}
	return false
}

func isPlaceholder(s string) bool {
	return s == "[deleted]" || s == "[removed]"
}
