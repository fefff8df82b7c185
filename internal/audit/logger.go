package audit

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/models"
)

const (
	ActionCreate           = "CREATE"
	ActionUpdate           = "UPDATE"
	ActionDelete           = "DELETE"
	ActionLogin            = "LOGIN"
	ActionSMSSend          = "SMS_SEND"
	ActionKontingentUpdate = "KONTINGENT_UPDATE"
	ActionUpload           = "UPLOAD"
)

type Logger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Log(ctx context.Context, ev Event) error {
	entry := models.AuditLog{
		ChurchID:  ev.ChurchID,
		Actor:     ev.Actor,
		Action:    ev.Action,
		Table:     ev.Table,
		RecordID:  ev.RecordID,
		OldValues: snapshot(ev.Old),
		NewValues: snapshot(ev.New),
		IPAddress: ev.IP,
	}

	return l.db.WithContext(ctx).Create(&entry).Error
}

func snapshot(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
