package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/wildwatch/wildwatch-go/internal/conf"
	"github.com/wildwatch/wildwatch-go/internal/errors"
)

// Channel is the external send capability the dispatcher fans out over.
// Implementations must be safe for concurrent use.
type Channel interface {
	Send(ctx context.Context, recipientEmail, title, body string) error
}

// EmailChannel sends alerts over SMTP via shoutrrr.
type EmailChannel struct {
	smtp conf.SMTPSettings
}

// NewEmailChannel builds the email channel and validates the configured
// relay by constructing a probe sender once. A failure here is a fatal
// configuration error: the dispatcher cannot operate without a channel.
func NewEmailChannel(settings *conf.Settings) (*EmailChannel, error) {
	c := &EmailChannel{smtp: settings.Notification.SMTP}

	if c.smtp.Host == "" || c.smtp.Username == "" {
		return nil, errors.Newf("SMTP relay is not configured").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	// Validate the URL shape once with the sender address as probe recipient.
	if _, err := shoutrrr.CreateSender(c.serviceURL(c.smtp.From)); err != nil {
		return nil, errors.Newf("invalid SMTP configuration: %w", err).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return c, nil
}

// serviceURL renders the shoutrrr smtp service URL for one recipient.
func (c *EmailChannel) serviceURL(to string) string {
	return fmt.Sprintf("smtp://%s:%s@%s:%d/?from=%s&to=%s",
		url.QueryEscape(c.smtp.Username),
		url.QueryEscape(c.smtp.Password),
		c.smtp.Host,
		c.smtp.Port,
		url.QueryEscape(c.smtp.From),
		url.QueryEscape(to),
	)
}

// Send delivers one alert email. The shoutrrr router handles its own
// timeouts; ctx cancellation between sends is honored by the caller.
func (c *EmailChannel) Send(ctx context.Context, recipientEmail, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sender, err := shoutrrr.CreateSender(c.serviceURL(recipientEmail))
	if err != nil {
		return errors.Newf("building mail sender: %w", err).
			Component("notification").
			Category(errors.CategoryNotification).
			Build()
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			sender.Timeout = remaining
		}
	}

	params := stypes.Params{}
	params.SetTitle(title)
	errs := sender.Send(body, &params)
	for _, e := range errs {
		if e != nil {
			return errors.Newf("sending alert email: %w", e).
				Component("notification").
				Category(errors.CategoryNotification).
				Build()
		}
	}
	return nil
}
