package broadcast

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	domain "github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
	"github.com/BruksfildServices01/church-platform/internal/metrics"
	"github.com/BruksfildServices01/church-platform/internal/models"
	"github.com/BruksfildServices01/church-platform/internal/tenant"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type SendInput struct {
	Scope     tenant.Scope
	MemberIDs []uint
	Message   string

	Actor string
	IP    string
}

type Result struct {
	LogID     uint
	Attempted int
	Sent      int
	Failed    int
	Cost      string
	Currency  string
	MessageID string
	Sender    string
	Provider  string
}

// ======================================================
// USE CASE
// ======================================================

type SendBroadcast struct {
	repo     domain.Repository
	provider domain.Provider
	cost     domain.CostPolicy
	country  string
	audit    audit.Recorder
	log      logrus.FieldLogger
}

// NewSendBroadcast wires the pipeline. provider may be nil, in which case
// every Execute fails with ErrProviderUnavailable.
func NewSendBroadcast(
	repo domain.Repository,
	provider domain.Provider,
	cost domain.CostPolicy,
	defaultCountryCode string,
	recorder audit.Recorder,
	log logrus.FieldLogger,
) *SendBroadcast {
	return &SendBroadcast{
		repo:     repo,
		provider: provider,
		cost:     cost,
		country:  defaultCountryCode,
		audit:    recorder,
		log:      log.WithField("component", "broadcast"),
	}
}

func (uc *SendBroadcast) Enabled() bool {
	return uc.provider != nil
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *SendBroadcast) Execute(ctx context.Context, in SendInput) (*Result, error) {

	// --------------------------------------------------
	// Validating
	// --------------------------------------------------
	ids := uniqueIDs(in.MemberIDs)
	if len(ids) == 0 {
		return nil, domain.ErrNoRecipients
	}
	body := strings.TrimSpace(in.Message)
	if body == "" {
		return nil, domain.ErrEmptyMessage
	}
	if uc.provider == nil {
		return nil, domain.ErrProviderUnavailable
	}

	// --------------------------------------------------
	// ResolvingRecipients
	// --------------------------------------------------
	members, err := uc.repo.ResolveEligible(ctx, in.Scope, ids)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, domain.ErrNoEligibleRecipients
	}

	// --------------------------------------------------
	// Dispatching
	// --------------------------------------------------
	// once the provider is called the broadcast must be recorded even if
	// the client goes away
	ctx = context.WithoutCancel(ctx)

	outcomes := make(map[uint]domain.Outcome, len(members))
	phones := make(map[uint]string, len(members))
	dispatch := make([]domain.Recipient, 0, len(members))

	for _, m := range members {
		phone, ok := domain.NormalizePhone(m.PhoneNumber, uc.country)
		if !ok {
			phones[m.ID] = m.PhoneNumber
			outcomes[m.ID] = domain.Failed(m.ID, domain.ReasonInvalidPhone)
			continue
		}
		phones[m.ID] = phone
		dispatch = append(dispatch, domain.Recipient{MemberID: m.ID, Phone: phone})
	}

	var providerErr error
	if len(dispatch) > 0 {
		start := time.Now()
		var got []domain.Outcome
		got, providerErr = uc.provider.Send(ctx, dispatch, body)
		metrics.SMSDispatchSeconds.WithLabelValues(uc.provider.Name()).Observe(time.Since(start).Seconds())

		for _, o := range got {
			if _, known := phones[o.MemberID]; known {
				outcomes[o.MemberID] = o
			}
		}
		if providerErr != nil {
			uc.log.WithError(providerErr).
				WithField("recipients", len(dispatch)).
				Error("provider reported a failure")
		}
		for _, r := range dispatch {
			if _, ok := outcomes[r.MemberID]; ok {
				continue
			}
			reason := "no_provider_outcome"
			if providerErr != nil {
				reason = truncate(providerErr.Error(), 255)
			}
			outcomes[r.MemberID] = domain.Failed(r.MemberID, reason)
		}
	}

	// --------------------------------------------------
	// Recording
	// --------------------------------------------------
	rows := make([]models.SMSRecipient, 0, len(members))
	res := &Result{
		Attempted: len(members),
		Currency:  uc.cost.Currency,
		Sender:    uc.provider.Sender(),
		Provider:  uc.provider.Name(),
	}

	for _, m := range members {
		o := outcomes[m.ID]
		if o.Status == domain.StatusSent {
			res.Sent++
			if res.MessageID == "" {
				res.MessageID = o.ProviderMessageID
			}
		} else {
			res.Failed++
		}
		rows = append(rows, models.SMSRecipient{
			MemberID:          m.ID,
			PhoneNumber:       truncate(phones[m.ID], 20),
			Status:            string(o.Status),
			ProviderMessageID: o.ProviderMessageID,
			ErrorReason:       truncate(o.Reason, 255),
		})
	}

	total := uc.cost.Estimate(res.Attempted, res.Sent)
	res.Cost = uc.cost.Format(total)

	entry := &models.SMSLog{
		ChurchID:        in.Scope.ChurchID,
		Message:         body,
		RecipientCount:  res.Attempted,
		SentCount:       res.Sent,
		FailedCount:     res.Failed,
		SentBy:          in.Actor,
		SenderID:        res.Sender,
		Provider:        res.Provider,
		ProviderBatchID: res.MessageID,
		CostEstimate:    total,
		Currency:        uc.cost.Currency,
	}

	if err := uc.repo.RecordBroadcast(ctx, entry, rows); err != nil {
		uc.log.WithError(err).
			WithFields(logrus.Fields{"sent": res.Sent, "failed": res.Failed}).
			Error("could not record broadcast")
		return nil, err
	}
	res.LogID = entry.ID

	// --------------------------------------------------
	// Completed
	// --------------------------------------------------
	metrics.SMSRecipients.WithLabelValues(res.Provider, string(domain.StatusSent)).Add(float64(res.Sent))
	metrics.SMSRecipients.WithLabelValues(res.Provider, string(domain.StatusFailed)).Add(float64(res.Failed))

	uc.audit.Dispatch(audit.Event{
		ChurchID: in.Scope.ChurchID,
		Actor:    in.Actor,
		Action:   audit.ActionSMSSend,
		Table:    "sms_logs",
		RecordID: &entry.ID,
		New: map[string]any{
			"recipient_count": res.Attempted,
			"sent":            res.Sent,
			"failed":          res.Failed,
			"cost":            res.Cost,
			"provider":        res.Provider,
		},
		IP: in.IP,
	})

	uc.log.WithFields(logrus.Fields{
		"log_id":   entry.ID,
		"provider": res.Provider,
		"sent":     res.Sent,
		"failed":   res.Failed,
		"cost":     res.Cost,
	}).Info("broadcast completed")

	if providerErr != nil && res.Sent == 0 {
		metrics.SMSBroadcasts.WithLabelValues(res.Provider, "provider_failed").Inc()
		return res, domain.ErrProviderFailed
	}
	metrics.SMSBroadcasts.WithLabelValues(res.Provider, "ok").Inc()
	return res, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
