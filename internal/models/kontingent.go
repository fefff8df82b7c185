package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// KontingentPayment records membership dues for one member and calendar month.
type KontingentPayment struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	MemberID     uint                `gorm:"not null;uniqueIndex:idx_kontingent_member_month,priority:1" json:"member_id"`
	PaymentMonth string              `gorm:"size:7;not null;index;uniqueIndex:idx_kontingent_member_month,priority:2" json:"payment_month"`
	Paid         bool                `gorm:"not null" json:"paid"`
	PaymentDate  *time.Time          `gorm:"type:date" json:"payment_date"`
	Amount       decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"amount"`
	Notes        *string             `gorm:"type:text" json:"notes"`
	RecordedBy   string              `gorm:"size:100" json:"recorded_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KontingentPayment) TableName() string { return "kontingent_payments" }
