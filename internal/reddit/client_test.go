package reddit

import (
	"context"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	c := NewClient("TestAgent/1.0", 1, time.Millisecond)
	gock.InterceptClient(c.client.GetClient())
	return c
}

func searchListing(children ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"children": children,
		},
	}
}

func postChildJSON(id, title, selftext, author string) map[string]interface{} {
	return map[string]interface{}{
		"kind": "t3",
		"data": map[string]interface{}{
			"id":           id,
			"title":        title,
			"selftext":     selftext,
			"author":       author,
			"subreddit":    "technology",
			"permalink":    "/r/technology/comments/" + id + "/x/",
			"created_utc":  1700000000.0,
			"score":        42,
			"num_comments": 7,
		},
	}
}

func TestSearchPosts_Anonymous(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.reddit.com").
		Get("/search.json").
		Reply(200).
		JSON(searchListing(postChildJSON("p1", "Acme is great", "love the pricing", "alice")))

	c := newTestClient()
	posts, err := c.SearchPosts(context.Background(), "acme", "", 25)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, "alice", posts[0].Author)
	assert.Equal(t, "https://reddit.com/r/technology/comments/p1/x/", posts[0].URL())
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), posts[0].CreatedAt())
}

func TestSearchPosts_AuthenticatedUsesOAuthHost(t *testing.T) {
	defer gock.Off()
	gock.New("https://oauth.reddit.com").
		Get("/search").
		MatchHeader("Authorization", "Bearer token-123").
		Reply(200).
		JSON(searchListing(postChildJSON("p1", "Acme", "", "alice")))

	c := newTestClient()
	posts, err := c.SearchPosts(context.Background(), "acme", "token-123", 25)

	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestSearchPosts_UpstreamErrorsDegradeToEmpty(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "unauthorized", status: 401},
		{name: "forbidden", status: 403},
		{name: "server error", status: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			gock.New("https://www.reddit.com").
				Get("/search.json").
				Reply(tt.status)

			c := newTestClient()
			posts, err := c.SearchPosts(context.Background(), "acme", "", 25)

			require.NoError(t, err, "upstream status failures never surface as errors")
			assert.Empty(t, posts)
		})
	}
}

func TestSearchPosts_RateLimitExhaustsRetries(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.reddit.com").
		Get("/search.json").
		Times(2).
		Reply(429)

	c := newTestClient()
	posts, err := c.SearchPosts(context.Background(), "acme", "", 25)

	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.True(t, gock.IsDone(), "rate-limited call is retried before giving up")
}

func TestSearchPosts_RetriesThenSucceeds(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.reddit.com").
		Get("/search.json").
		Reply(429)
	gock.New("https://www.reddit.com").
		Get("/search.json").
		Reply(200).
		JSON(searchListing(postChildJSON("p1", "Acme", "", "alice")))

	c := newTestClient()
	posts, err := c.SearchPosts(context.Background(), "acme", "", 25)

	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestSearchPosts_FiltersPlaceholders(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.reddit.com").
		Get("/search.json").
		Reply(200).
		JSON(searchListing(
			postChildJSON("p1", "Acme review", "still here", "alice"),
			postChildJSON("p2", "gone", "[removed]", "bob"),
			postChildJSON("p3", "gone too", "fine text", "[deleted]"),
		))

	c := newTestClient()
	posts, err := c.SearchPosts(context.Background(), "acme", "", 25)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
}

func TestGetComments_ParsesSecondListing(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.reddit.com").
		Get("/r/technology/comments/p1.json").
		Reply(200).
		JSON([]interface{}{
			searchListing(postChildJSON("p1", "Acme", "", "alice")),
			searchListing(
				map[string]interface{}{
					"kind": "t1",
					"data": map[string]interface{}{"id": "c1", "body": "acme works great", "author": "carol", "score": 5, "created_utc": 1700000100.0},
				},
				map[string]interface{}{
					"kind": "t1",
					"data": map[string]interface{}{"id": "c2", "body": "[deleted]", "author": "dave", "score": 1, "created_utc": 1700000200.0},
				},
				map[string]interface{}{
					"kind": "more",
					"data": map[string]interface{}{"id": "m1"},
				},
				map[string]interface{}{
					"kind": "t1",
					"data": map[string]interface{}{"id": "c3", "body": "meh", "author": "erin", "score": 0, "created_utc": 1700000300.0},
				},
			),
		})

	c := newTestClient()
	comments, err := c.GetComments(context.Background(), "technology", "p1", "", 3)

	require.NoError(t, err)
	require.Len(t, comments, 2, "deleted bodies and non-comment children are filtered")
	assert.Equal(t, "c1", comments[0].ID)
	assert.Equal(t, "c3", comments[1].ID)
}

func TestGetComments_LimitCapsResults(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.reddit.com").
		Get("/r/technology/comments/p1.json").
		Reply(200).
		JSON([]interface{}{
			searchListing(),
			searchListing(
				map[string]interface{}{"kind": "t1", "data": map[string]interface{}{"id": "c1", "body": "a", "author": "x"}},
				map[string]interface{}{"kind": "t1", "data": map[string]interface{}{"id": "c2", "body": "b", "author": "y"}},
				map[string]interface{}{"kind": "t1", "data": map[string]interface{}{"id": "c3", "body": "c", "author": "z"}},
			),
		})

	c := newTestClient()
	comments, err := c.GetComments(context.Background(), "technology", "p1", "", 2)

	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestGetComments_FailureDegradesToEmpty(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.reddit.com").
		Get("/r/technology/comments/p1.json").
		Reply(403)

	c := newTestClient()
	comments, err := c.GetComments(context.Background(), "technology", "p1", "", 3)

	require.NoError(t, err)
	assert.Empty(t, comments)
}
