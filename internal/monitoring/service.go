// Package monitoring drives the keyword ingestion pipeline: job selection,
// per-keyword search, dedup, classification, persistence, and bookkeeping.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/models"
	"github.com/brandpulse/mentions-bot/internal/notifications"
	"github.com/brandpulse/mentions-bot/internal/reddit"
	"github.com/brandpulse/mentions-bot/internal/sentiment"
	"github.com/brandpulse/mentions-bot/internal/store"
)

// SearchClient is the subset of the Reddit client the pipeline uses.
type SearchClient interface {
	SearchPosts(ctx context.Context, keyword, token string, limit int) ([]reddit.Post, error)
	GetComments(ctx context.Context, subreddit, postID, token string, limit int) ([]reddit.Comment, error)
}

// TokenProvider resolves a valid access token for a user, "" meaning
// anonymous access.
type TokenProvider interface {
	GetValidToken(ctx context.Context, userID string) (string, error)
}

// Service orchestrates monitoring runs over keyword jobs
type Service struct {
	config   *config.Config
	jobs     store.JobStore
	mentions store.MentionStore
	tokens   TokenProvider
	search   SearchClient
	notifier notifications.NotificationInterface
	metrics  *Metrics
	mu       sync.RWMutex
}

// Metrics holds monitoring metrics
type Metrics struct {
	JobsProcessed      int            `json:"jobs_processed"`
	TotalMentions      int            `json:"total_mentions"`
	LastRun            time.Time      `json:"last_run"`
	LastRunDuration    string         `json:"last_run_duration"`
	SentimentBreakdown map[string]int `json:"sentiment_breakdown"`
	ErrorCount         int            `json:"error_count"`
}

// NewService creates a new monitoring service. notifier may be nil when no
// alert channel is configured.
func NewService(cfg *config.Config, jobs store.JobStore, mentions store.MentionStore,
	tokens TokenProvider, search SearchClient, notifier notifications.NotificationInterface) *Service {
	return &Service{
		config:   cfg,
		jobs:     jobs,
		mentions: mentions,
		tokens:   tokens,
		search:   search,
		notifier: notifier,
		metrics: &Metrics{
			SentimentBreakdown: make(map[string]int),
		},
	}
}

// RunScheduled processes all due keyword jobs across users, oldest-due-first,
// advancing each job's next search time.
func (s *Service) RunScheduled(ctx context.Context) *models.RunSummary {
	jobs, err := s.jobs.ListDue(ctx, time.Now().UTC())
	if err != nil {
		logrus.Errorf("Failed to select due jobs: %v", err)
		return &models.RunSummary{Message: fmt.Sprintf("failed to select due jobs: %v", err)}
	}

	if s.config.MaxJobsPerRun > 0 && len(jobs) > s.config.MaxJobsPerRun {
		logrus.Warnf("Backlog of %d due jobs exceeds per-run budget, processing first %d",
			len(jobs), s.config.MaxJobsPerRun)
		jobs = jobs[:s.config.MaxJobsPerRun]
	}

	return s.runJobs(ctx, jobs, true)
}

// RunForUser processes all of one user's active jobs regardless of due time.
// Manual runs never advance next_search_at.
func (s *Service) RunForUser(ctx context.Context, userID string) *models.RunSummary {
	jobs, err := s.jobs.ListForUser(ctx, userID)
	if err != nil {
		logrus.Errorf("Failed to select jobs for user %s: %v", userID, err)
		return &models.RunSummary{Message: fmt.Sprintf("failed to select jobs: %v", err)}
	}

	return s.runJobs(ctx, jobs, false)
}

// runJobs drives the sequential job loop. Jobs are processed one at a time to
// respect upstream rate limits; a failing keyword never blocks the others.
func (s *Service) runJobs(ctx context.Context, jobs []models.KeywordJob, scheduled bool) *models.RunSummary {
	start := time.Now()
	logrus.Infof("Starting monitoring run over %d keyword jobs (scheduled=%t)", len(jobs), scheduled)

	summary := &models.RunSummary{Success: true}
	sentiments := make(map[string]int)
	errorCount := 0

	for i := range jobs {
		job := jobs[i]
		found, err := s.processJob(ctx, &job, scheduled)
		summary.Processed++
		summary.TotalMentionsFound += len(found)
		for _, mention := range found {
			sentiments[mention.Sentiment]++
		}
		if err != nil {
			errorCount++
		}
	}

	summary.Message = fmt.Sprintf("processed %d keyword jobs, found %d new mentions",
		summary.Processed, summary.TotalMentionsFound)

	s.updateMetrics(summary, sentiments, time.Since(start), errorCount)
	logrus.Infof("Monitoring run completed in %v: %s", time.Since(start), summary.Message)
	return summary
}

// processJob runs the full pipeline for one keyword job and persists its
// bookkeeping. Job-level failures are recorded into last_error; the error is
// returned only so the run can count it.
func (s *Service) processJob(ctx context.Context, job *models.KeywordJob, scheduled bool) ([]models.Mention, error) {
	logrus.Debugf("Processing keyword %q for user %s", job.Keyword, job.UserID)

	found, err := s.searchKeyword(ctx, job)

	now := time.Now().UTC()
	job.LastSearchedAt = &now
	if err != nil {
		logrus.Errorf("Keyword job %d (%q) failed: %v", job.ID, job.Keyword, err)
		job.LastError = err.Error()
	} else {
		job.LastError = ""
		job.TotalMentionsFound += len(found)
	}
	if scheduled {
		job.NextSearchAt = now.Add(time.Duration(job.SearchFrequency) * time.Hour)
	}

	if uerr := s.jobs.UpdateJob(ctx, job); uerr != nil {
		logrus.Errorf("Failed to update keyword job %d: %v", job.ID, uerr)
	}

	s.alertOnNegatives(job, found, now)

	return found, err
}

// alertOnNegatives forwards any negative mentions from this pass to the
// notifier. Alert failures are logged, never fatal to the run.
func (s *Service) alertOnNegatives(job *models.KeywordJob, found []models.Mention, now time.Time) {
	if s.notifier == nil {
		return
	}

	var negatives []models.Mention
	for _, mention := range found {
		if mention.Sentiment == models.SentimentNegative {
			negatives = append(negatives, mention)
		}
	}
	if len(negatives) == 0 {
		return
	}

	alert := &models.Alert{
		UserID:    job.UserID,
		Keyword:   job.Keyword,
		Mentions:  negatives,
		CreatedAt: now,
	}
	if err := s.notifier.SendAlert(alert); err != nil {
		logrus.Errorf("Failed to send alert for keyword %q: %v", job.Keyword, err)
	}
}

// searchKeyword resolves a token, fetches posts, and processes each post with
// per-post failure containment. It returns the mentions inserted this pass.
func (s *Service) searchKeyword(ctx context.Context, job *models.KeywordJob) ([]models.Mention, error) {
	token, err := s.tokens.GetValidToken(ctx, job.UserID)
	if err != nil {
		logrus.Warnf("Token resolution failed for user %s, searching anonymously: %v", job.UserID, err)
		token = ""
	}

	posts, err := s.search.SearchPosts(ctx, job.Keyword, token, s.config.PostLimit)
	if err != nil {
		return nil, fmt.Errorf("search posts for %q: %w", job.Keyword, err)
	}

	var found []models.Mention

	for i, post := range posts {
		if i > 0 && s.config.PostDelay > 0 {
			time.Sleep(s.config.PostDelay)
		}

		inserted, perr := s.processPost(ctx, job, token, post)
		if perr != nil {
			logrus.Errorf("Failed to process post %s for keyword %q: %v", post.ID, job.Keyword, perr)
			continue
		}
		found = append(found, inserted...)
	}

	return found, nil
}

// processPost dedups, classifies, and stores one post, then its comments.
// Comments are only fetched after the post mention was stored, and only
// comments containing the keyword are considered.
func (s *Service) processPost(ctx context.Context, job *models.KeywordJob, token string, post reddit.Post) ([]models.Mention, error) {
	exists, err := s.mentions.MentionExists(ctx, job.UserID, models.PlatformReddit, post.ID, "")
	if err != nil {
		return nil, fmt.Errorf("dedup check: %w", err)
	}
	if exists {
		return nil, nil
	}

	result := sentiment.Classify(post.Title+" "+post.Selftext, job.Keyword)
	mention := &models.Mention{
		UserID:       job.UserID,
		Keyword:      job.Keyword,
		Platform:     models.PlatformReddit,
		Author:       post.Author,
		Content:      strings.TrimSpace(post.Title + "\n\n" + post.Selftext),
		Sentiment:    result.Sentiment,
		Subreddit:    post.Subreddit,
		PostID:       post.ID,
		URL:          post.URL(),
		Score:        post.Score,
		CommentCount: post.NumComments,
		Tags:         result.Tags,
		MentionedAt:  post.CreatedAt(),
	}

	ok, err := s.mentions.InsertMention(ctx, mention)
	if err != nil {
		return nil, fmt.Errorf("insert mention: %w", err)
	}
	if !ok {
		// Lost a check-then-insert race; the item is already recorded.
		return nil, nil
	}

	inserted := []models.Mention{*mention}

	comments, err := s.search.GetComments(ctx, post.Subreddit, post.ID, token, s.config.CommentLimit)
	if err != nil {
		logrus.Warnf("Failed to fetch comments for post %s: %v", post.ID, err)
		return inserted, nil
	}

	keyword := strings.ToLower(job.Keyword)
	for _, comment := range comments {
		if !strings.Contains(strings.ToLower(comment.Body), keyword) {
			continue
		}

		exists, err := s.mentions.MentionExists(ctx, job.UserID, models.PlatformReddit, post.ID, comment.ID)
		if err != nil {
			logrus.Errorf("Dedup check failed for comment %s: %v", comment.ID, err)
			continue
		}
		if exists {
			continue
		}

		cresult := sentiment.Classify(comment.Body, job.Keyword)
		cmention := &models.Mention{
			UserID:      job.UserID,
			Keyword:     job.Keyword,
			Platform:    models.PlatformReddit,
			Author:      comment.Author,
			Content:     comment.Body,
			Sentiment:   cresult.Sentiment,
			Subreddit:   post.Subreddit,
			PostID:      post.ID,
			CommentID:   comment.ID,
			URL:         post.URL(),
			Score:       comment.Score,
			Tags:        cresult.Tags,
			MentionedAt: comment.CreatedAt(),
		}

		ok, err := s.mentions.InsertMention(ctx, cmention)
		if err != nil {
			logrus.Errorf("Failed to insert comment mention %s: %v", comment.ID, err)
			continue
		}
		if ok {
			inserted = append(inserted, *cmention)
		}
	}

	return inserted, nil
}

func (s *Service) updateMetrics(summary *models.RunSummary, sentiments map[string]int, duration time.Duration, errorCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.JobsProcessed = summary.Processed
	s.metrics.TotalMentions = summary.TotalMentionsFound
	s.metrics.LastRun = time.Now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.SentimentBreakdown = sentiments
	s.metrics.ErrorCount = errorCount
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
