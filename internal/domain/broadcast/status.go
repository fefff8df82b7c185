package broadcast

import "errors"

// ===============================
// Recipient status
// ===============================

type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// ===============================
// Pipeline errors
// ===============================

var (
	ErrNoRecipients         = errors.New("no_recipients")
	ErrEmptyMessage         = errors.New("empty_message")
	ErrProviderUnavailable  = errors.New("sms_not_configured")
	ErrNoEligibleRecipients = errors.New("no_eligible_recipients")
	ErrProviderFailed       = errors.New("sms_provider_failed")
)

const ReasonInvalidPhone = "invalid_phone_number"
