package models

import "time"

type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ChurchID *uint  `gorm:"index" json:"church_id"`
	Actor    string `gorm:"size:100" json:"actor"`
	Action   string `gorm:"size:50;not null" json:"action"`

	Table     string `gorm:"column:table_name;size:100" json:"table_name"`
	RecordID  *uint  `json:"record_id"`
	OldValues string `gorm:"type:text" json:"old_values"`
	NewValues string `gorm:"type:text" json:"new_values"`
	IPAddress string `gorm:"size:50" json:"ip_address"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_log" }
