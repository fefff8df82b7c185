package sms

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
)

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// twilioMessages is the slice of the Twilio REST client the adapter uses.
type twilioMessages interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Twilio has no batch endpoint; recipients are sent one by one.
type Twilio struct {
	from string
	api  twilioMessages
	log  logrus.FieldLogger
}

func NewTwilio(cfg TwilioConfig, log logrus.FieldLogger) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilio(cfg.From, client.Api, log)
}

func newTwilio(from string, api twilioMessages, log logrus.FieldLogger) *Twilio {
	return &Twilio{
		from: from,
		api:  api,
		log:  log.WithField("provider", "twilio"),
	}
}

func (t *Twilio) Name() string   { return "twilio" }
func (t *Twilio) Sender() string { return t.from }

func (t *Twilio) Send(ctx context.Context, recipients []broadcast.Recipient, body string) ([]broadcast.Outcome, error) {
	outcomes := make([]broadcast.Outcome, 0, len(recipients))
	sent := 0

	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		params := &openapi.CreateMessageParams{}
		params.SetTo(r.Phone)
		params.SetFrom(t.from)
		params.SetBody(body)

		msg, err := t.api.CreateMessage(params)
		if err != nil {
			t.log.WithError(err).WithField("member_id", r.MemberID).Warn("twilio message rejected")
			outcomes = append(outcomes, broadcast.Failed(r.MemberID, err.Error()))
			continue
		}

		sid := ""
		if msg != nil && msg.Sid != nil {
			sid = *msg.Sid
		}
		outcomes = append(outcomes, broadcast.Sent(r.MemberID, sid))
		sent++
	}

	t.log.WithFields(logrus.Fields{
		"recipients": len(recipients),
		"sent":       sent,
	}).Info("twilio dispatch finished")

	return outcomes, nil
}
