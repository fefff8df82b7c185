package models

import "time"

type Church struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:200;not null" json:"name"`
	Slug         string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Address      string `gorm:"size:255" json:"address"`
	Phone        string `gorm:"size:30" json:"phone"`
	Email        string `gorm:"size:100" json:"email"`
	Website      string `gorm:"size:255" json:"website"`
	Facebook     string `gorm:"size:255" json:"facebook"`
	LogoURL      string `gorm:"size:500" json:"logo_url"`
	Description  string `gorm:"type:text" json:"description"`
	Mission      string `gorm:"column:mission_statement;type:text" json:"mission_statement"`
	FieldLabels  string `gorm:"type:text" json:"field_labels"`
	DisplayOrder int    `gorm:"default:0" json:"display_order"`

	PastorName  string `gorm:"size:200" json:"pastor_name"`
	PastorTitle string `gorm:"size:100" json:"pastor_title"`
	PastorPhone string `gorm:"size:30" json:"pastor_phone"`
	PastorEmail string `gorm:"size:100" json:"pastor_email"`
	PastorBio   string `gorm:"type:text" json:"pastor_bio"`

	SundayServiceTime    string `gorm:"size:100" json:"sunday_service_time"`
	WednesdayServiceTime string `gorm:"size:100" json:"wednesday_service_time"`
	OtherServiceTimes    string `gorm:"type:text" json:"other_service_times"`

	BackgroundColor string `gorm:"size:20;default:'#3b82f6'" json:"background_color"`
	Timezone        string `gorm:"size:50;default:'Europe/Oslo'" json:"timezone"`
	IsActive        bool   `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
