package sms

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
)

type MessageBirdConfig struct {
	APIURL string
	APIKey string
	Sender string
}

// MessageBird posts one message with all recipients and reads per-recipient
// status from the answer when the gateway includes it.
type MessageBird struct {
	cfg    MessageBirdConfig
	client *http.Client
	log    logrus.FieldLogger
}

func NewMessageBird(cfg MessageBirdConfig, log logrus.FieldLogger) *MessageBird {
	return &MessageBird{
		cfg:    cfg,
		client: newHTTPClient(),
		log:    log.WithField("provider", "messagebird"),
	}
}

func (m *MessageBird) Name() string   { return "messagebird" }
func (m *MessageBird) Sender() string { return m.cfg.Sender }

type messageBirdRequest struct {
	Originator string   `json:"originator"`
	Recipients []string `json:"recipients"`
	Body       string   `json:"body"`
}

type messageBirdResponse struct {
	ID         string `json:"id"`
	Recipients struct {
		Items []struct {
			Recipient int64  `json:"recipient"`
			Status    string `json:"status"`
		} `json:"items"`
	} `json:"recipients"`
}

var messageBirdFailed = map[string]bool{
	"delivery_failed": true,
	"expired":         true,
	"failed":          true,
}

func (m *MessageBird) Send(ctx context.Context, recipients []broadcast.Recipient, body string) ([]broadcast.Outcome, error) {
	numbers := make([]string, 0, len(recipients))
	for _, r := range recipients {
		numbers = append(numbers, broadcast.Digits(r.Phone))
	}

	start := time.Now()
	var resp messageBirdResponse
	err := postJSON(ctx, m.client, "messagebird", m.cfg.APIURL, messageBirdRequest{
		Originator: m.cfg.Sender,
		Recipients: numbers,
		Body:       body,
	}, &resp, func(r *http.Request, _ []byte) error {
		r.Header.Set("Authorization", "AccessKey "+m.cfg.APIKey)
		return nil
	})
	if err != nil {
		m.log.WithError(err).WithField("recipients", len(recipients)).Error("messagebird send failed")
		return nil, err
	}

	status := make(map[string]string, len(resp.Recipients.Items))
	for _, item := range resp.Recipients.Items {
		status[strconv.FormatInt(item.Recipient, 10)] = item.Status
	}

	outcomes := make([]broadcast.Outcome, 0, len(recipients))
	for i, r := range recipients {
		if s, ok := status[numbers[i]]; ok && messageBirdFailed[s] {
			outcomes = append(outcomes, broadcast.Failed(r.MemberID, s))
			continue
		}
		outcomes = append(outcomes, broadcast.Sent(r.MemberID, resp.ID))
	}

	m.log.WithFields(logrus.Fields{
		"recipients": len(recipients),
		"message_id": resp.ID,
		"duration":   time.Since(start),
	}).Info("messagebird batch accepted")

	return outcomes, nil
}
