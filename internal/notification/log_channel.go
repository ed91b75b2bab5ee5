package notification

import (
	"context"
	"log/slog"

	"github.com/wildwatch/wildwatch-go/internal/logging"
)

// LogChannel writes alerts to the application log instead of delivering
// them. It is used when notification delivery is disabled, so detection
// cycles still run end to end in development setups.
type LogChannel struct {
	log *slog.Logger
}

// NewLogChannel creates a channel that logs alerts instead of sending them.
func NewLogChannel() *LogChannel {
	return &LogChannel{log: logging.ForService("notification")}
}

// Send records the alert in the log and reports success.
func (c *LogChannel) Send(ctx context.Context, recipientEmail, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.log != nil {
		c.log.Info("alert delivery disabled, logging instead",
			"recipient", recipientEmail,
			"title", title)
	}
	return nil
}
