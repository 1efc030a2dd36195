// Package notifications delivers alerts about newly found negative mentions
// via an optional webhook and/or email.
package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/models"
)

// Service handles sending alerts via configured channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

type webhookPayload struct {
	Title    string           `json:"title"`
	Text     string           `json:"text"`
	Keyword  string           `json:"keyword"`
	Mentions []models.Mention `json:"mentions"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// Enabled reports whether any alert channel is configured.
func (s *Service) Enabled() bool {
	return s.config.AlertWebhookURL != "" || s.config.AlertEmail != ""
}

// SendAlert sends an alert through every configured channel.
func (s *Service) SendAlert(alert *models.Alert) error {
	var errors []string

	if s.config.AlertWebhookURL != "" {
		if err := s.sendToWebhook(alert); err != nil {
			logrus.Errorf("Failed to send webhook alert: %v", err)
			errors = append(errors, fmt.Sprintf("webhook: %v", err))
		} else {
			logrus.Infof("Sent webhook alert for keyword %q", alert.Keyword)
		}
	}

	if s.config.AlertEmail != "" {
		if err := s.sendEmail(alert); err != nil {
			logrus.Errorf("Failed to send email alert: %v", err)
			errors = append(errors, fmt.Sprintf("email: %v", err))
		} else {
			logrus.Infof("Sent email alert for keyword %q", alert.Keyword)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("alert errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToWebhook(alert *models.Alert) error {
	payload := &webhookPayload{
		Title:    fmt.Sprintf("Negative mentions for %q", alert.Keyword),
		Text:     fmt.Sprintf("Found %d negative mentions of %q", len(alert.Mentions), alert.Keyword),
		Keyword:  alert.Keyword,
		Mentions: alert.Mentions,
	}

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.config.AlertWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) sendEmail(alert *models.Alert) error {
	subject := fmt.Sprintf("Negative mentions alert - %q (%d mentions)", alert.Keyword, len(alert.Mentions))

	var body strings.Builder
	fmt.Fprintf(&body, "Found %d negative mentions of %q on %s:\n\n",
		len(alert.Mentions), alert.Keyword, alert.CreatedAt.Format("2006-01-02 15:04 UTC"))
	for _, mention := range alert.Mentions {
		fmt.Fprintf(&body, "- %s (r/%s, score %d)\n  %s\n\n",
			mention.Author, mention.Subreddit, mention.Score, mention.URL)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.AlertEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body.String())

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
