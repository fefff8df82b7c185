package dto

import (
	"time"

	"github.com/BruksfildServices01/church-platform/internal/models"
)

type SMSRecipientDTO struct {
	MemberID          uint   `json:"member_id"`
	MemberName        string `json:"member_name"`
	PhoneNumber       string `json:"phone_number"`
	Status            string `json:"status"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	ErrorReason       string `json:"error_reason,omitempty"`
}

type SMSLogDTO struct {
	ID             uint              `json:"id"`
	ChurchID       *uint             `json:"church_id"`
	Message        string            `json:"message"`
	RecipientCount int               `json:"recipient_count"`
	SentCount      int               `json:"sent_count"`
	FailedCount    int               `json:"failed_count"`
	SentBy         string            `json:"sent_by"`
	Sender         string            `json:"sender"`
	Provider       string            `json:"provider"`
	CostEstimate   string            `json:"cost_estimate"`
	Currency       string            `json:"currency"`
	SentAt         time.Time         `json:"sent_at"`
	Recipients     []SMSRecipientDTO `json:"recipients"`
}

func NewSMSLogList(logs []models.SMSLog) []SMSLogDTO {
	out := make([]SMSLogDTO, 0, len(logs))
	for _, l := range logs {
		item := SMSLogDTO{
			ID:             l.ID,
			ChurchID:       l.ChurchID,
			Message:        l.Message,
			RecipientCount: l.RecipientCount,
			SentCount:      l.SentCount,
			FailedCount:    l.FailedCount,
			SentBy:         l.SentBy,
			Sender:         l.SenderID,
			Provider:       l.Provider,
			CostEstimate:   l.CostEstimate.StringFixed(2),
			Currency:       l.Currency,
			SentAt:         l.SentAt,
			Recipients:     make([]SMSRecipientDTO, 0, len(l.Recipients)),
		}
		for _, r := range l.Recipients {
			name := ""
			if r.Member != nil {
				name = r.Member.FullName
			}
			item.Recipients = append(item.Recipients, SMSRecipientDTO{
				MemberID:          r.MemberID,
				MemberName:        name,
				PhoneNumber:       r.PhoneNumber,
				Status:            r.Status,
				ProviderMessageID: r.ProviderMessageID,
				ErrorReason:       r.ErrorReason,
			})
		}
		out = append(out, item)
	}
	return out
}
