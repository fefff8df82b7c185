package sms

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
)

type BirdConfig struct {
	APIURL      string
	APIKey      string
	WorkspaceID string
	ChannelID   string
	Sender      string
}

// Bird sends one channel message addressed to every recipient.
type Bird struct {
	cfg    BirdConfig
	client *http.Client
	log    logrus.FieldLogger
}

func NewBird(cfg BirdConfig, log logrus.FieldLogger) *Bird {
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &Bird{
		cfg:    cfg,
		client: newHTTPClient(),
		log:    log.WithField("provider", "bird"),
	}
}

func (b *Bird) Name() string   { return "bird" }
func (b *Bird) Sender() string { return b.cfg.Sender }

type birdContact struct {
	IdentifierKey   string `json:"identifierKey"`
	IdentifierValue string `json:"identifierValue"`
}

type birdRequest struct {
	Receiver struct {
		Contacts []birdContact `json:"contacts"`
	} `json:"receiver"`
	Body struct {
		Type string `json:"type"`
		Text struct {
			Text string `json:"text"`
		} `json:"text"`
	} `json:"body"`
}

type birdResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (b *Bird) Send(ctx context.Context, recipients []broadcast.Recipient, body string) ([]broadcast.Outcome, error) {
	var req birdRequest
	req.Receiver.Contacts = make([]birdContact, 0, len(recipients))
	for _, r := range recipients {
		req.Receiver.Contacts = append(req.Receiver.Contacts, birdContact{
			IdentifierKey:   "phonenumber",
			IdentifierValue: broadcast.Digits(r.Phone),
		})
	}
	req.Body.Type = "text"
	req.Body.Text.Text = body

	url := fmt.Sprintf("%s/workspaces/%s/channels/%s/messages", b.cfg.APIURL, b.cfg.WorkspaceID, b.cfg.ChannelID)

	start := time.Now()
	var resp birdResponse
	err := postJSON(ctx, b.client, "bird", url, req, &resp, func(r *http.Request, _ []byte) error {
		r.Header.Set("Authorization", "AccessKey "+b.cfg.APIKey)
		return nil
	})
	if err != nil {
		b.log.WithError(err).WithField("recipients", len(recipients)).Error("bird send failed")
		return nil, err
	}

	b.log.WithFields(logrus.Fields{
		"recipients": len(recipients),
		"message_id": resp.ID,
		"duration":   time.Since(start),
	}).Info("bird batch accepted")

	outcomes := make([]broadcast.Outcome, 0, len(recipients))
	for _, r := range recipients {
		outcomes = append(outcomes, broadcast.Sent(r.MemberID, resp.ID))
	}
	return outcomes, nil
}
