package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/mentions-bot/internal/models"
)

type fakeCredentialStore struct {
	cred       *models.Credential
	getErr     error
	updatedTok string
	updatedExp time.Time
	updates    int
}

func (f *fakeCredentialStore) GetCredential(_ context.Context, _ string) (*models.Credential, error) {
	return f.cred, f.getErr
}

func (f *fakeCredentialStore) UpdateToken(_ context.Context, _, accessToken string, expiresAt time.Time) error {
	f.updatedTok = accessToken
	f.updatedExp = expiresAt
	f.updates++
	return nil
}

func newTestManager(store CredentialStore) *Manager {
	m := NewManager("client-id", "client-secret", "TestAgent/1.0", store)
	gock.InterceptClient(m.client.GetClient())
	return m
}

func TestGetValidToken_NoCredential(t *testing.T) {
	defer gock.Off()
	store := &fakeCredentialStore{}
	m := newTestManager(store)

	token, err := m.GetValidToken(context.Background(), "u1")

	require.NoError(t, err)
	assert.Empty(t, token, "missing credential means anonymous access")
}

func TestGetValidToken_FreshTokenSkipsNetwork(t *testing.T) {
	defer gock.Off()
	// No HTTP mocks registered: any network call would fail the refresh path
	// and return an empty token instead of the stored one.
	store := &fakeCredentialStore{cred: &models.Credential{
		UserID:       "u1",
		AccessToken:  "fresh-token",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}
	m := newTestManager(store)

	token, err := m.GetValidToken(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Zero(t, store.updates, "no store write without a refresh")
}

func TestGetValidToken_RefreshesExpiredToken(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.reddit.com").
		Post("/api/v1/access_token").
		Reply(200).
		JSON(map[string]interface{}{
			"access_token": "new-token",
			"token_type":   "bearer",
			"expires_in":   3600,
			"scope":        "read",
		})

	store := &fakeCredentialStore{cred: &models.Credential{
		UserID:       "u1",
		AccessToken:  "stale-token",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Minute), // inside the 5-minute buffer
	}}
	m := newTestManager(store)

	token, err := m.GetValidToken(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
	assert.Equal(t, 1, store.updates, "exactly one store write per refresh")
	assert.Equal(t, "new-token", store.updatedTok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), store.updatedExp, time.Minute)
}

func TestGetValidToken_RejectedRefreshMeansAnonymous(t *testing.T) {
	defer gock.Off()
	gock.New("https://www.reddit.com").
		Post("/api/v1/access_token").
		Reply(400).
		JSON(map[string]interface{}{"error": "invalid_grant"})

	store := &fakeCredentialStore{cred: &models.Credential{
		UserID:       "u1",
		AccessToken:  "stale-token",
		RefreshToken: "bad-refresh",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}}
	m := newTestManager(store)

	token, err := m.GetValidToken(context.Background(), "u1")

	require.NoError(t, err, "a rejected refresh is not fatal")
	assert.Empty(t, token)
	assert.Zero(t, store.updates)
}

func TestGetValidToken_ExpiredWithoutRefreshToken(t *testing.T) {
	defer gock.Off()
	store := &fakeCredentialStore{cred: &models.Credential{
		UserID:      "u1",
		AccessToken: "stale-token",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}}
	m := newTestManager(store)

	token, err := m.GetValidToken(context.Background(), "u1")

	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestGetValidToken_StoreFailure(t *testing.T) {
	defer gock.Off()
	store := &fakeCredentialStore{getErr: errors.New("db locked")}
	m := newTestManager(store)

	_, err := m.GetValidToken(context.Background(), "u1")

	assert.Error(t, err)
}
