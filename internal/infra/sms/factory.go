package sms

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/church-platform/internal/config"
	"github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
)

// New builds the adapter selected by SMS_PROVIDER. It returns a nil provider
// and no error when that provider's credentials are missing; SMS endpoints
// then answer sms_not_configured.
func New(opts config.SMSOptions, log logrus.FieldLogger) (broadcast.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "bird", "":
		c := opts.Bird
		if c.APIKey == "" || c.WorkspaceID == "" || c.ChannelID == "" {
			return nil, nil
		}
		return NewBird(BirdConfig{
			APIURL:      c.APIURL,
			APIKey:      c.APIKey,
			WorkspaceID: c.WorkspaceID,
			ChannelID:   c.ChannelID,
			Sender:      c.Sender,
		}, log), nil

	case "messagebird":
		c := opts.MessageBird
		if c.APIKey == "" {
			return nil, nil
		}
		return NewMessageBird(MessageBirdConfig{
			APIURL: c.APIURL,
			APIKey: c.APIKey,
			Sender: c.Sender,
		}, log), nil

	case "twilio":
		c := opts.Twilio
		if c.AccountSID == "" || c.AuthToken == "" || c.From == "" {
			return nil, nil
		}
		return NewTwilio(TwilioConfig{
			AccountSID: c.AccountSID,
			AuthToken:  c.AuthToken,
			From:       c.From,
		}, log), nil

	case "azure":
		c := opts.Azure
		if c.Endpoint == "" || c.AccessKey == "" || c.From == "" {
			return nil, nil
		}
		a, err := NewAzure(AzureConfig{
			Endpoint:    c.Endpoint,
			AccessKey:   c.AccessKey,
			From:        c.From,
			Concurrency: c.Concurrency,
		}, log)
		if err != nil {
			return nil, err
		}
		return a, nil

	default:
		return nil, fmt.Errorf("unknown SMS_PROVIDER %q", opts.Provider)
	}
}
