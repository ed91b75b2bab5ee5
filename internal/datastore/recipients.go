// recipients.go: Database operations for the recipient directory
package datastore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wildwatch/wildwatch-go/internal/errors"
	"gorm.io/gorm"
)

// CreateRecipient inserts a new recipient record. Email addresses are unique
// across all recipients; registering an already present address returns a
// conflict error.
func (ds *DataStore) CreateRecipient(ctx context.Context, recipient *Recipient) error {
	if recipient == nil {
		return validationError("recipient cannot be nil", "recipient", nil)
	}
	if recipient.Email == "" {
		return validationError("email cannot be empty", "email", "")
	}

	recipient.Email = strings.ToLower(strings.TrimSpace(recipient.Email))
	recipient.Name = strings.TrimSpace(recipient.Name)
	recipient.LocationCode = strings.TrimSpace(recipient.LocationCode)
	recipient.IsActive = true

	err := ds.DB.WithContext(ctx).Create(recipient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return conflictError(err, "create_recipient",
				"email", recipient.Email)
		}
		return dbError(err, "create_recipient", errors.PriorityHigh,
			"email", recipient.Email,
			"table", "recipients")
	}

	return nil
}

// GetRecipientByEmail retrieves a recipient by email address.
func (ds *DataStore) GetRecipientByEmail(ctx context.Context, email string) (*Recipient, error) {
	if email == "" {
		return nil, validationError("email cannot be empty", "email", "")
	}

	var recipient Recipient
	err := ds.DB.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&recipient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("recipient", email)
		}
		return nil, dbError(err, "get_recipient_by_email", errors.PriorityMedium,
			"email", email)
	}

	return &recipient, nil
}

// RecipientsByLocation returns all active recipients registered for the given
// location code, newest registration first.
func (ds *DataStore) RecipientsByLocation(ctx context.Context, locationCode string) ([]Recipient, error) {
	if locationCode == "" {
		return nil, validationError("location code cannot be empty", "location_code", "")
	}

	var recipients []Recipient
	err := ds.DB.WithContext(ctx).
		Where("location_code = ? AND is_active = ?", locationCode, true).
		Order("created_at DESC").
		Find(&recipients).Error
	if err != nil {
		return nil, dbError(err, "recipients_by_location", errors.PriorityHigh,
			"location_code", locationCode)
	}

	return recipients, nil
}

// IncrementAlertCount bumps a recipient's lifetime alert counter by one and
// stamps the last alert time. This is a single atomic UPDATE on one record;
// the counter only ever increases.
func (ds *DataStore) IncrementAlertCount(ctx context.Context, id uint) error {
	now := time.Now()
	result := ds.DB.WithContext(ctx).
		Model(&Recipient{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"alerts_received": gorm.Expr("alerts_received + 1"),
			"last_alert_at":   now,
		})
	if result.Error != nil {
		return dbError(result.Error, "increment_alert_count", errors.PriorityMedium,
			"recipient_id", id)
	}
	if result.RowsAffected == 0 {
		return notFoundError("recipient", fmt.Sprintf("%d", id))
	}

	return nil
}

// AllRecipients returns every recipient, newest registration first.
func (ds *DataStore) AllRecipients(ctx context.Context) ([]Recipient, error) {
	var recipients []Recipient
	err := ds.DB.WithContext(ctx).
		Order("created_at DESC").
		Find(&recipients).Error
	if err != nil {
		return nil, dbError(err, "all_recipients", errors.PriorityMedium)
	}

	return recipients, nil
}

// Stats computes the aggregate recipient statistics in a single query.
func (ds *DataStore) Stats(ctx context.Context) (RecipientStats, error) {
	var stats RecipientStats
	err := ds.DB.WithContext(ctx).
		Model(&Recipient{}).
		Select("COUNT(*) AS total_recipients, " +
			"COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active_recipients, " +
			"COALESCE(SUM(alerts_received), 0) AS total_alerts").
		Scan(&stats).Error
	if err != nil {
		return RecipientStats{}, dbError(err, "recipient_stats", errors.PriorityLow)
	}

	return stats, nil
}

// isUniqueViolation reports whether err looks like a unique constraint
// violation from either the SQLite or MySQL driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}
