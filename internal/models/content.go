package models

import "time"

type News struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ChurchID      uint       `gorm:"index;not null" json:"church_id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Content       string     `gorm:"type:text" json:"content"`
	AuthorID      *uint      `json:"author_id"`
	IsPublished   bool       `gorm:"not null" json:"is_published"`
	PublishedDate *time.Time `json:"published_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (News) TableName() string { return "church_news" }

type Event struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ChurchID          uint       `gorm:"index;not null" json:"church_id"`
	Title             string     `gorm:"size:255;not null" json:"title"`
	Description       string     `gorm:"type:text" json:"description"`
	EventDate         time.Time  `gorm:"index" json:"event_date"`
	EndDate           *time.Time `json:"end_date"`
	Location          string     `gorm:"size:255" json:"location"`
	IsRecurring       bool       `gorm:"not null" json:"is_recurring"`
	RecurrencePattern string     `gorm:"size:100" json:"recurrence_pattern"`
	CreatedBy         *uint      `json:"created_by"`
	IsPublished       bool       `gorm:"not null" json:"is_published"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Event) TableName() string { return "church_events" }

type Photo struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	ChurchID     uint   `gorm:"index;not null" json:"church_id"`
	Title        string `gorm:"size:255" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	ImageURL     string `gorm:"size:500;not null" json:"image_url"`
	ThumbnailURL string `gorm:"size:500" json:"thumbnail_url"`
	StorageKey   string `gorm:"size:500" json:"-"`
	UploadedBy   *uint  `json:"uploaded_by"`
	IsPublished  bool   `gorm:"not null" json:"is_published"`
	DisplayOrder int    `gorm:"default:0" json:"display_order"`

	CreatedAt time.Time `json:"created_at"`
}

func (Photo) TableName() string { return "church_photos" }

type SiteSetting struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SettingKey   string    `gorm:"size:100;uniqueIndex;not null" json:"setting_key"`
	SettingValue string    `gorm:"type:text" json:"setting_value"`
	UpdatedAt    time.Time `json:"updated_at"`
}
