package models

import "time"

// Sentiment labels assigned to mentions.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentMixed    = "mixed"
	SentimentNeutral  = "neutral"
)

// PlatformReddit identifies mentions sourced from Reddit.
const PlatformReddit = "reddit"

// KeywordJob is a user's standing request to periodically search for a term.
type KeywordJob struct {
	ID                 int64      `json:"id"`
	UserID             string     `json:"user_id"`
	Keyword            string     `json:"keyword"`
	Active             bool       `json:"active"`
	SearchFrequency    int        `json:"search_frequency"` // hours between scheduled searches
	LastSearchedAt     *time.Time `json:"last_searched_at,omitempty"`
	NextSearchAt       time.Time  `json:"next_search_at"`
	TotalMentionsFound int        `json:"total_mentions_found"`
	LastError          string     `json:"last_error,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Credential holds a user's OAuth link to the external platform.
type Credential struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Username     string    `json:"username"`
}

// Mention is one deduplicated external item (post or comment) matching a keyword.
type Mention struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Keyword      string    `json:"keyword"`
	Platform     string    `json:"platform"`
	Author       string    `json:"author"`
	Content      string    `json:"content"`
	Sentiment    string    `json:"sentiment"`
	Subreddit    string    `json:"subreddit"`
	PostID       string    `json:"post_id"`
	CommentID    string    `json:"comment_id,omitempty"` // empty for post-level mentions
	URL          string    `json:"url"`
	Score        int       `json:"score"`
	CommentCount int       `json:"comment_count"`
	Tags         []string  `json:"tags"`
	MentionedAt  time.Time `json:"mentioned_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunSummary is the aggregate result of one monitoring invocation.
type RunSummary struct {
	Success            bool   `json:"success"`
	Processed          int    `json:"processed"`
	TotalMentionsFound int    `json:"totalMentionsFound"`
	Message            string `json:"message"`
}

// Alert groups the negative mentions found for one keyword in a single pass.
type Alert struct {
	UserID    string    `json:"user_id"`
	Keyword   string    `json:"keyword"`
	Mentions  []Mention `json:"mentions"`
	CreatedAt time.Time `json:"created_at"`
}
