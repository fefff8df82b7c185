package models

import "time"

type Member struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	ChurchID     uint    `gorm:"not null;uniqueIndex:idx_members_church_phone,priority:1" json:"church_id"`
	MemberNumber *string `gorm:"size:50;uniqueIndex" json:"member_number"`

	FullName    string  `gorm:"size:200;not null;index" json:"full_name"`
	PhoneNumber string  `gorm:"size:20;not null;uniqueIndex:idx_members_church_phone,priority:2" json:"phone_number"`
	Email       *string `gorm:"size:100" json:"email"`
	NationalID  *string `gorm:"size:11" json:"national_id"`

	Address    *string `gorm:"size:500" json:"address"`
	PostalCode *string `gorm:"size:10" json:"postal_code"`
	City       *string `gorm:"size:100" json:"city"`

	MemberSince *time.Time `gorm:"type:date" json:"member_since"`
	Baptized    bool       `gorm:"not null" json:"baptized"`
	BaptismDate *time.Time `gorm:"type:date" json:"baptism_date"`

	SMSConsent  bool       `gorm:"column:sms_consent;not null" json:"sms_consent"`
	ConsentDate *time.Time `json:"consent_date"`
	IsActive    bool       `gorm:"not null;index" json:"is_active"`
	Notes       *string    `gorm:"type:text" json:"notes"`

	CreatedBy string    `gorm:"size:100" json:"created_by"`
	UpdatedBy string    `gorm:"size:100" json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
