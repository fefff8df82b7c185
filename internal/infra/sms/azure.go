package sms

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
)

const azureAPIVersion = "2021-03-07"

type AzureConfig struct {
	Endpoint    string
	AccessKey   string
	From        string
	Concurrency int
}

// Azure talks to Azure Communication Services. One request is made per
// recipient so each gets its own message id; requests run concurrently up to
// Concurrency.
type Azure struct {
	cfg    AzureConfig
	key    []byte
	client *http.Client
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewAzure(cfg AzureConfig, log logrus.FieldLogger) (*Azure, error) {
	key, err := base64.StdEncoding.DecodeString(cfg.AccessKey)
	if err != nil {
		return nil, fmt.Errorf("azure access key must be base64: %w", err)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Azure{
		cfg:    cfg,
		key:    key,
		client: newHTTPClient(),
		log:    log.WithField("provider", "azure"),
		now:    time.Now,
	}, nil
}

func (a *Azure) Name() string   { return "azure" }
func (a *Azure) Sender() string { return a.cfg.From }

type azureRecipient struct {
	To                     string `json:"to"`
	RepeatabilityRequestID string `json:"repeatabilityRequestId"`
	RepeatabilityFirstSent string `json:"repeatabilityFirstSent"`
}

type azureRequest struct {
	From          string           `json:"from"`
	SMSRecipients []azureRecipient `json:"smsRecipients"`
	Message       string           `json:"message"`
}

type azureResponse struct {
	Value []struct {
		To             string `json:"to"`
		MessageID      string `json:"messageId"`
		HTTPStatusCode int    `json:"httpStatusCode"`
		Successful     bool   `json:"successful"`
		ErrorMessage   string `json:"errorMessage"`
	} `json:"value"`
}

func (a *Azure) Send(ctx context.Context, recipients []broadcast.Recipient, body string) ([]broadcast.Outcome, error) {
	outcomes := make([]broadcast.Outcome, len(recipients))
	endpoint := fmt.Sprintf("%s/sms?api-version=%s", a.cfg.Endpoint, azureAPIVersion)

	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)

	for i, r := range recipients {
		g.Go(func() error {
			outcomes[i] = a.sendOne(ctx, endpoint, r, body)
			return nil
		})
	}
	_ = g.Wait()

	sent := 0
	for _, o := range outcomes {
		if o.Status == broadcast.StatusSent {
			sent++
		}
	}
	a.log.WithFields(logrus.Fields{
		"recipients": len(recipients),
		"sent":       sent,
	}).Info("azure dispatch finished")

	return outcomes, nil
}

func (a *Azure) sendOne(ctx context.Context, endpoint string, r broadcast.Recipient, body string) broadcast.Outcome {
	req := azureRequest{
		From: a.cfg.From,
		SMSRecipients: []azureRecipient{{
			To:                     r.Phone,
			RepeatabilityRequestID: uuid.NewString(),
			RepeatabilityFirstSent: a.now().UTC().Format(http.TimeFormat),
		}},
		Message: body,
	}

	var resp azureResponse
	err := postJSON(ctx, a.client, "azure", endpoint, req, &resp, a.sign)
	if err != nil {
		a.log.WithError(err).WithField("member_id", r.MemberID).Warn("azure request failed")
		return broadcast.Failed(r.MemberID, err.Error())
	}
	if len(resp.Value) == 0 {
		return broadcast.Failed(r.MemberID, "azure: empty response")
	}

	v := resp.Value[0]
	if !v.Successful {
		reason := v.ErrorMessage
		if reason == "" {
			reason = fmt.Sprintf("azure: status %d", v.HTTPStatusCode)
		}
		return broadcast.Failed(r.MemberID, reason)
	}
	return broadcast.Sent(r.MemberID, v.MessageID)
}

// sign applies the ACS HMAC-SHA256 request signature.
func (a *Azure) sign(req *http.Request, body []byte) error {
	sum := sha256.Sum256(body)
	contentHash := base64.StdEncoding.EncodeToString(sum[:])
	date := a.now().UTC().Format(http.TimeFormat)

	u, err := url.Parse(req.URL.String())
	if err != nil {
		return err
	}
	pathAndQuery := u.Path
	if u.RawQuery != "" {
		pathAndQuery += "?" + u.RawQuery
	}

	toSign := strings.Join([]string{
		req.Method,
		pathAndQuery,
		date + ";" + u.Host + ";" + contentHash,
	}, "\n")

	mac := hmac.New(sha256.New, a.key)
	mac.Write([]byte(toSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req.Header.Set("x-ms-date", date)
	req.Header.Set("x-ms-content-sha256", contentHash)
	req.Header.Set("Authorization",
		"HMAC-SHA256 SignedHeaders=x-ms-date;host;x-ms-content-sha256&Signature="+signature)
	return nil
}
