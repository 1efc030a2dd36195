package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/brandpulse/mentions-bot/internal/models"
	"github.com/brandpulse/mentions-bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements JobStore, CredentialStore, and MentionStore
// backed by a single SQLite database.
type SQLite struct {
	db         *sql.DB
	maxContent int
}

var (
	_ JobStore        = (*SQLite)(nil)
	_ CredentialStore = (*SQLite)(nil)
	_ MentionStore    = (*SQLite)(nil)
)

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
// Mention content is truncated to maxContent characters before insert.
func NewSQLite(dsn string, maxContent int) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, maxContent: maxContent}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateJob inserts a new keyword job and populates its ID and CreatedAt.
func (s *SQLite) CreateJob(ctx context.Context, job *models.KeywordJob) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO keyword_jobs
		 (user_id, keyword, active, search_frequency_hours, next_search_at, total_mentions_found, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.UserID, job.Keyword, boolToInt(job.Active), job.SearchFrequency,
		job.NextSearchAt.UTC().Format(timeLayout), job.TotalMentionsFound, now,
	)
	if err != nil {
		return fmt.Errorf("insert keyword job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	job.ID = id
	job.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListDue returns all active jobs whose next_search_at is at or before now,
// oldest-due-first.
func (s *SQLite) ListDue(ctx context.Context, now time.Time) ([]models.KeywordJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, keyword, active, search_frequency_hours, last_searched_at,
		        next_search_at, total_mentions_found, last_error, created_at
		 FROM keyword_jobs
		 WHERE active = 1 AND next_search_at <= ?
		 ORDER BY next_search_at`,
		now.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query due jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanJobs(rows)
}

// ListForUser returns all active jobs belonging to the given user, regardless
// of due time.
func (s *SQLite) ListForUser(ctx context.Context, userID string) ([]models.KeywordJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, keyword, active, search_frequency_hours, last_searched_at,
		        next_search_at, total_mentions_found, last_error, created_at
		 FROM keyword_jobs
		 WHERE active = 1 AND user_id = ?
		 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanJobs(rows)
}

// UpdateJob persists a job's bookkeeping fields after a processing attempt.
func (s *SQLite) UpdateJob(ctx context.Context, job *models.KeywordJob) error {
	var lastSearched *string
	if job.LastSearchedAt != nil {
		v := job.LastSearchedAt.UTC().Format(timeLayout)
		lastSearched = &v
	}
	var lastError *string
	if job.LastError != "" {
		lastError = &job.LastError
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE keyword_jobs
		 SET active = ?, last_searched_at = ?, next_search_at = ?, total_mentions_found = ?, last_error = ?
		 WHERE id = ?`,
		boolToInt(job.Active), lastSearched, job.NextSearchAt.UTC().Format(timeLayout),
		job.TotalMentionsFound, lastError, job.ID,
	)
	if err != nil {
		return fmt.Errorf("update keyword job: %w", err)
	}
	return nil
}

// GetCredential returns the user's credential, or nil when none exists.
func (s *SQLite) GetCredential(ctx context.Context, userID string) (*models.Credential, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, access_token, refresh_token, expires_at, username
		 FROM credentials WHERE user_id = ?`,
		userID,
	)
	var cred models.Credential
	var expires string
	err := row.Scan(&cred.UserID, &cred.AccessToken, &cred.RefreshToken, &expires, &cred.Username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	cred.ExpiresAt, _ = time.Parse(timeLayout, expires)
	return &cred, nil
}

// UpdateToken stores a refreshed access token and its expiry for the user.
func (s *SQLite) UpdateToken(ctx context.Context, userID, accessToken string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET access_token = ?, expires_at = ? WHERE user_id = ?`,
		accessToken, expiresAt.UTC().Format(timeLayout), userID,
	)
	if err != nil {
		return fmt.Errorf("update token: %w", err)
	}
	return nil
}

// UpsertCredential creates or replaces the user's credential row.
func (s *SQLite) UpsertCredential(ctx context.Context, cred *models.Credential) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (user_id, access_token, refresh_token, expires_at, username)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   expires_at = excluded.expires_at,
		   username = excluded.username`,
		cred.UserID, cred.AccessToken, cred.RefreshToken,
		cred.ExpiresAt.UTC().Format(timeLayout), cred.Username,
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

// MentionExists reports whether a mention with the given dedup key is already
// recorded. Post-level mentions use an empty commentID; a post and one of its
// comments are distinct keys even though they share a post id.
func (s *SQLite) MentionExists(ctx context.Context, userID, platform, postID, commentID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mentions
		 WHERE user_id = ? AND platform = ? AND post_id = ? AND comment_id = ?`,
		userID, platform, postID, commentID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check mention exists: %w", err)
	}
	return count > 0, nil
}

// InsertMention stores a new mention, truncating its content first. A unique
// index backs the dedup key; a conflict is reported as (false, nil) rather
// than an error so concurrent check-then-insert races stay idempotent.
func (s *SQLite) InsertMention(ctx context.Context, mention *models.Mention) (bool, error) {
	content := mention.Content
	if s.maxContent > 0 && len(content) > s.maxContent {
		content = content[:s.maxContent]
	}
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO mentions
		 (user_id, keyword, platform, author, content, sentiment, subreddit,
		  post_id, comment_id, url, score, comment_count, tags, mentioned_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mention.UserID, mention.Keyword, mention.Platform, mention.Author, content,
		mention.Sentiment, mention.Subreddit, mention.PostID, mention.CommentID,
		mention.URL, mention.Score, mention.CommentCount, strings.Join(mention.Tags, ","),
		mention.MentionedAt.UTC().Format(timeLayout), now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return false, nil
		}
		return false, fmt.Errorf("insert mention: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("last insert id: %w", err)
	}
	mention.ID = id
	mention.Content = content
	mention.CreatedAt, _ = time.Parse(timeLayout, now)
	return true, nil
}

// CountMentions returns the number of stored mentions for a user.
func (s *SQLite) CountMentions(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mentions WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count mentions: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanJobs(rows *sql.Rows) ([]models.KeywordJob, error) {
	var jobs []models.KeywordJob
	for rows.Next() {
		var job models.KeywordJob
		var active int
		var lastSearched, lastError, created sql.NullString
		var next string
		err := rows.Scan(&job.ID, &job.UserID, &job.Keyword, &active, &job.SearchFrequency,
			&lastSearched, &next, &job.TotalMentionsFound, &lastError, &created)
		if err != nil {
			return nil, fmt.Errorf("scan keyword job: %w", err)
		}
		job.Active = active == 1
		if lastSearched.Valid {
			t, _ := time.Parse(timeLayout, lastSearched.String)
			job.LastSearchedAt = &t
		}
		job.NextSearchAt, _ = time.Parse(timeLayout, next)
		if lastError.Valid {
			job.LastError = lastError.String
		}
		if created.Valid {
			job.CreatedAt, _ = time.Parse(timeLayout, created.String)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
