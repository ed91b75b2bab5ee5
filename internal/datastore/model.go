// model.go this code defines the data model for the application
package datastore

import "time"

// Recipient represents a registered notification target. A recipient receives
// wildlife alerts for every detection event at their location code.
type Recipient struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"type:varchar(50);not null" json:"name"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	LocationCode   string     `gorm:"index:idx_recipients_location;type:varchar(6);not null" json:"location_code"`
	IsActive       bool       `gorm:"index:idx_recipients_active;default:true" json:"is_active"`
	AlertsReceived int        `gorm:"default:0" json:"alerts_received"`
	LastAlertAt    *time.Time `json:"last_alert_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// RecipientStats is the aggregate view over all recipients.
type RecipientStats struct {
	TotalRecipients  int64 `json:"total_recipients"`
	ActiveRecipients int64 `json:"active_recipients"`
	TotalAlerts      int64 `json:"total_alerts"`
}
