// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"context"
	"fmt"
	"log"

	"github.com/wildwatch/wildwatch-go/internal/conf"
	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// operations the rest of the application may perform on the recipient store.
type Interface interface {
	Open() error
	Close() error
	CreateRecipient(ctx context.Context, recipient *Recipient) error
	GetRecipientByEmail(ctx context.Context, email string) (*Recipient, error)
	RecipientsByLocation(ctx context.Context, locationCode string) ([]Recipient, error)
	IncrementAlertCount(ctx context.Context, id uint) error
	AllRecipients(ctx context.Context) ([]Recipient, error)
	Stats(ctx context.Context) (RecipientStats, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// performAutoMigration runs gorm auto-migration for all model types.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Recipient{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}

	return nil
}
