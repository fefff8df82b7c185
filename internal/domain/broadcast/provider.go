package broadcast

import "context"

// Recipient is one member to dispatch to. Phone is already normalized to
// E.164 (+<country><number>).
type Recipient struct {
	MemberID uint
	Phone    string
}

// Outcome is the provider's verdict for one recipient.
type Outcome struct {
	MemberID          uint
	Status            Status
	ProviderMessageID string
	Reason            string
}

func Sent(memberID uint, providerMessageID string) Outcome {
	return Outcome{MemberID: memberID, Status: StatusSent, ProviderMessageID: providerMessageID}
}

func Failed(memberID uint, reason string) Outcome {
	return Outcome{MemberID: memberID, Status: StatusFailed, Reason: reason}
}

// Provider is the boundary to one external SMS gateway. Batch-capable and
// per-recipient gateways both implement it; the pipeline never inspects which
// one it has.
//
// Send returns an outcome per recipient it could resolve. A non-nil error is
// a provider-level failure: outcomes returned with it are kept and every
// recipient without an outcome is recorded as failed.
type Provider interface {
	Name() string
	Sender() string
	Send(ctx context.Context, recipients []Recipient, body string) ([]Outcome, error)
}
