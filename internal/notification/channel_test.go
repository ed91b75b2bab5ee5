package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildwatch/wildwatch-go/internal/conf"
	"github.com/wildwatch/wildwatch-go/internal/errors"
)

func smtpSettings() *conf.Settings {
	return &conf.Settings{
		Notification: conf.NotificationSettings{
			Enabled: true,
			SMTP: conf.SMTPSettings{
				Host:     "smtp.example.com",
				Port:     465,
				Username: "alerts@example.com",
				Password: "s3cret/with?chars",
				From:     "alerts@example.com",
			},
		},
	}
}

func TestNewEmailChannel(t *testing.T) {
	t.Parallel()

	channel, err := NewEmailChannel(smtpSettings())

	require.NoError(t, err)
	assert.NotNil(t, channel)
}

func TestNewEmailChannelMissingConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*conf.Settings)
	}{
		{name: "missing host", mutate: func(s *conf.Settings) { s.Notification.SMTP.Host = "" }},
		{name: "missing username", mutate: func(s *conf.Settings) { s.Notification.SMTP.Username = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			settings := smtpSettings()
			tt.mutate(settings)

			channel, err := NewEmailChannel(settings)

			require.Error(t, err)
			assert.Nil(t, channel)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfiguration),
				"channel construction failure is a configuration error")
		})
	}
}

func TestEmailChannelServiceURLEscapesCredentials(t *testing.T) {
	t.Parallel()

	channel, err := NewEmailChannel(smtpSettings())
	require.NoError(t, err)

	url := channel.serviceURL("user@example.com")

	assert.Contains(t, url, "smtp://")
	assert.Contains(t, url, "s3cret%2Fwith%3Fchars")
	assert.Contains(t, url, "to=user%40example.com")
	assert.NotContains(t, url, "s3cret/with?chars")
}
