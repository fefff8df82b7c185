package sms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/BruksfildServices01/church-platform/internal/config"
	"github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
)

var recipients = []broadcast.Recipient{
	{MemberID: 1, Phone: "+4790000001"},
	{MemberID: 2, Phone: "+4790000002"},
}

func TestBird_SendsOneBatch(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/workspaces/ws/channels/ch/messages", r.URL.Path)
		assert.Equal(t, "AccessKey key", r.Header.Get("Authorization"))

		var req birdRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Receiver.Contacts, 2)
		assert.Equal(t, "4790000001", req.Receiver.Contacts[0].IdentifierValue)
		assert.Equal(t, "phonenumber", req.Receiver.Contacts[0].IdentifierKey)
		assert.Equal(t, "text", req.Body.Type)
		assert.Equal(t, "hello", req.Body.Text.Text)

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"id":"bird-1","status":"accepted"}`))
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	b := NewBird(BirdConfig{APIURL: srv.URL + "/", APIKey: "key", WorkspaceID: "ws", ChannelID: "ch", Sender: "CHURCH"}, log)

	out, err := b.Send(context.Background(), recipients, "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, out, 2)
	for _, o := range out {
		assert.Equal(t, broadcast.StatusSent, o.Status)
		assert.Equal(t, "bird-1", o.ProviderMessageID)
	}
	assert.Equal(t, "CHURCH", b.Sender())
}

func TestBird_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	log, hook := test.NewNullLogger()
	b := NewBird(BirdConfig{APIURL: srv.URL, APIKey: "x", WorkspaceID: "ws", ChannelID: "ch"}, log)

	out, err := b.Send(context.Background(), recipients, "hello")
	assert.Empty(t, out)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "bird send failed", hook.LastEntry().Message)
}

func TestMessageBird_PerRecipientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messageBirdRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "CHURCH", req.Originator)
		assert.Equal(t, []string{"4790000001", "4790000002"}, req.Recipients)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"mb-9","recipients":{"items":[
			{"recipient":4790000001,"status":"sent"},
			{"recipient":4790000002,"status":"delivery_failed"}]}}`))
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	m := NewMessageBird(MessageBirdConfig{APIURL: srv.URL, APIKey: "k", Sender: "CHURCH"}, log)

	out, err := m.Send(context.Background(), recipients, "hi")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, broadcast.Sent(1, "mb-9"), out[0])
	assert.Equal(t, broadcast.Failed(2, "delivery_failed"), out[1])
}

type fakeTwilio struct {
	fail map[string]bool
	to   []string
}

func (f *fakeTwilio) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	to := *params.To
	f.to = append(f.to, to)
	if f.fail[to] {
		return nil, errors.New("21211 invalid 'To' number")
	}
	sid := "SM" + to
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilio_SequentialPerRecipient(t *testing.T) {
	fake := &fakeTwilio{fail: map[string]bool{"+4790000002": true}}
	log, _ := test.NewNullLogger()
	tw := newTwilio("+4712345678", fake, log)

	out, err := tw.Send(context.Background(), recipients, "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"+4790000001", "+4790000002"}, fake.to)
	require.Len(t, out, 2)
	assert.Equal(t, broadcast.Sent(1, "SM+4790000001"), out[0])
	assert.Equal(t, broadcast.StatusFailed, out[1].Status)
	assert.Contains(t, out[1].Reason, "21211")
}

func TestAzure_FanOutKeepsOrder(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sms", r.URL.Path)
		assert.Equal(t, azureAPIVersion, r.URL.Query().Get("api-version"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "HMAC-SHA256 SignedHeaders=x-ms-date;host;x-ms-content-sha256&Signature="))
		assert.NotEmpty(t, r.Header.Get("x-ms-content-sha256"))

		var req azureRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.SMSRecipients, 1)
		to := req.SMSRecipients[0].To

		mu.Lock()
		seen[to] = true
		mu.Unlock()

		ok := to != "+4790000002"
		resp := map[string]any{"value": []map[string]any{{
			"to": to, "messageId": "acs-" + to, "successful": ok, "httpStatusCode": 202,
			"errorMessage": map[bool]string{true: "", false: "number blocked"}[ok],
		}}}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	a, err := NewAzure(AzureConfig{
		Endpoint:    srv.URL,
		AccessKey:   base64.StdEncoding.EncodeToString([]byte("secret")),
		From:        "+4712345678",
		Concurrency: 4,
	}, log)
	require.NoError(t, err)

	many := append([]broadcast.Recipient{}, recipients...)
	many = append(many, broadcast.Recipient{MemberID: 3, Phone: "+4790000003"})

	out, err := a.Send(context.Background(), many, "hi")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, broadcast.Sent(1, "acs-+4790000001"), out[0])
	assert.Equal(t, broadcast.Failed(2, "number blocked"), out[1])
	assert.Equal(t, broadcast.Sent(3, "acs-+4790000003"), out[2])
	assert.Len(t, seen, 3)
}

func TestAzure_RejectsNonBase64Key(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := NewAzure(AzureConfig{Endpoint: "https://x", AccessKey: "not base64!", From: "+47"}, log)
	assert.Error(t, err)
}

func TestNew_SelectsProvider(t *testing.T) {
	log, _ := test.NewNullLogger()

	p, err := New(config.SMSOptions{Provider: "bird"}, log)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = New(config.SMSOptions{
		Provider:    "MessageBird",
		MessageBird: config.MessageBirdOptions{APIKey: "k", Sender: "S"},
	}, log)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "messagebird", p.Name())

	p, err = New(config.SMSOptions{
		Provider: "twilio",
		Twilio:   config.TwilioOptions{AccountSID: "AC1", AuthToken: "t", From: "+47"},
	}, log)
	require.NoError(t, err)
	assert.Equal(t, "twilio", p.Name())

	_, err = New(config.SMSOptions{Provider: "carrier-pigeon"}, log)
	assert.Error(t, err)
}
