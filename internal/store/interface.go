// Package store defines the persistence interfaces and their SQLite implementation.
package store

import (
	"context"
	"time"

	"github.com/brandpulse/mentions-bot/internal/models"
)

// JobStore manages keyword job rows and their scheduling bookkeeping.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.KeywordJob) error
	ListDue(ctx context.Context, now time.Time) ([]models.KeywordJob, error)
	ListForUser(ctx context.Context, userID string) ([]models.KeywordJob, error)
	UpdateJob(ctx context.Context, job *models.KeywordJob) error
}

// CredentialStore manages per-user OAuth credentials.
type CredentialStore interface {
	// GetCredential returns nil without error when the user has no credential.
	GetCredential(ctx context.Context, userID string) (*models.Credential, error)
	UpdateToken(ctx context.Context, userID, accessToken string, expiresAt time.Time) error
	UpsertCredential(ctx context.Context, cred *models.Credential) error
}

// MentionStore manages deduplicated mention records.
type MentionStore interface {
	MentionExists(ctx context.Context, userID, platform, postID, commentID string) (bool, error)
	// InsertMention returns false when the dedup key already exists.
	InsertMention(ctx context.Context, mention *models.Mention) (bool, error)
}
