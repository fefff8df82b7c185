package models

import "time"

// ChurchAdmin manages a single church (tenant).
type ChurchAdmin struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ChurchID uint   `gorm:"index;not null" json:"church_id"`
	Church   Church `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Username     string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	FullName     string `gorm:"size:200" json:"full_name"`
	Email        string `gorm:"size:100" json:"email"`
	IsActive     bool   `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SuperAdmin is global and not tied to any church.
type SuperAdmin struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	FullName     string `gorm:"size:200;not null" json:"full_name"`
	Email        string `gorm:"size:255" json:"email"`
	IsActive     bool   `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
