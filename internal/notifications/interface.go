package notifications

import "github.com/brandpulse/mentions-bot/internal/models"

// NotificationInterface defines the contract for alert delivery
type NotificationInterface interface {
	SendAlert(alert *models.Alert) error
}
