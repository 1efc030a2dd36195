// Package auth implements the per-user OAuth token lifecycle: returning a
// currently valid access token and transparently refreshing expired ones.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/brandpulse/mentions-bot/internal/models"
)

const defaultTokenURL = "https://www.reddit.com/api/v1/access_token"

// expiryBuffer is how far in the future a stored token's expiry must be for
// the token to be reused without a refresh.
const expiryBuffer = 5 * time.Minute

// CredentialStore is the subset of the store the token manager needs.
type CredentialStore interface {
	GetCredential(ctx context.Context, userID string) (*models.Credential, error)
	UpdateToken(ctx context.Context, userID, accessToken string, expiresAt time.Time) error
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Manager resolves valid access tokens for users, refreshing when needed.
type Manager struct {
	clientID     string
	clientSecret string
	userAgent    string
	store        CredentialStore
	client       *resty.Client
	tokenURL     string
}

// NewManager creates a token lifecycle manager.
func NewManager(clientID, clientSecret, userAgent string, store CredentialStore) *Manager {
	return &Manager{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		store:        store,
		client:       resty.New().SetTimeout(30 * time.Second),
		tokenURL:     defaultTokenURL,
	}
}

// GetValidToken returns a usable access token for the user, or "" when the
// pipeline should proceed unauthenticated: no credential on file, no refresh
// token for an expired credential, or a rejected refresh. Errors are reserved
// for credential store failures.
func (m *Manager) GetValidToken(ctx context.Context, userID string) (string, error) {
	cred, err := m.store.GetCredential(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		logrus.Debugf("no credential for user %s, searching anonymously", userID)
		return "", nil
	}

	if time.Until(cred.ExpiresAt) > expiryBuffer {
		return cred.AccessToken, nil
	}

	if cred.RefreshToken == "" {
		logrus.Warnf("access token expired for user %s and no refresh token on file", userID)
		return "", nil
	}

	return m.refresh(ctx, userID, cred.RefreshToken)
}

func (m *Manager) refresh(ctx context.Context, userID, refreshToken string) (string, error) {
	resp, err := m.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", m.userAgent).
		SetBasicAuth(m.clientID, m.clientSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
		}).
		Post(m.tokenURL)

	if err != nil {
		logrus.Errorf("token refresh request failed for user %s: %v", userID, err)
		return "", nil
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		logrus.Warnf("token refresh rejected for user %s with status %d", userID, resp.StatusCode())
		return "", nil
	}

	var tok tokenResponse
	if err := json.Unmarshal(resp.Body(), &tok); err != nil {
		logrus.Errorf("token refresh response unreadable for user %s: %v", userID, err)
		return "", nil
	}
	if tok.AccessToken == "" {
		logrus.Warnf("token refresh for user %s returned no access token", userID)
		return "", nil
	}

	expiresAt := time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if err := m.store.UpdateToken(ctx, userID, tok.AccessToken, expiresAt); err != nil {
		return "", fmt.Errorf("persist refreshed token: %w", err)
	}

	logrus.Infof("refreshed access token for user %s (expires in %ds)", userID, tok.ExpiresIn)
	return tok.AccessToken, nil
}
