package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SMSLog is one row per broadcast request.
type SMSLog struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ChurchID        *uint           `gorm:"index" json:"church_id"`
	Message         string          `gorm:"type:text;not null" json:"message"`
	RecipientCount  int             `gorm:"not null" json:"recipient_count"`
	SentCount       int             `json:"sent_count"`
	FailedCount     int             `json:"failed_count"`
	SentBy          string          `gorm:"size:100" json:"sent_by"`
	SenderID        string          `gorm:"size:50" json:"sender_id"`
	Provider        string          `gorm:"size:30" json:"provider"`
	ProviderBatchID string          `gorm:"size:100" json:"provider_batch_id"`
	CostEstimate    decimal.Decimal `gorm:"type:decimal(10,2)" json:"cost_estimate"`
	Currency        string          `gorm:"size:3" json:"currency"`
	SentAt          time.Time       `gorm:"autoCreateTime;index" json:"sent_at"`

	Recipients []SMSRecipient `gorm:"constraint:OnDelete:CASCADE;" json:"recipients,omitempty"`
}

// SMSRecipient is immutable once written; a resend creates new rows.
type SMSRecipient struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	SMSLogID          uint      `gorm:"column:sms_log_id;index;not null" json:"sms_log_id"`
	MemberID          uint      `gorm:"index;not null" json:"member_id"`
	PhoneNumber       string    `gorm:"size:20;not null" json:"phone_number"`
	Status            string    `gorm:"size:20;not null" json:"status"`
	ProviderMessageID string    `gorm:"size:100" json:"provider_message_id"`
	ErrorReason       string    `gorm:"size:255" json:"error_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`

	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (SMSLog) TableName() string { return "sms_logs" }

func (SMSRecipient) TableName() string { return "sms_recipients" }
