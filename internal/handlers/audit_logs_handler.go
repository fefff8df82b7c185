package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/httperr"
	"github.com/BruksfildServices01/church-platform/internal/httpresp"
	"github.com/BruksfildServices01/church-platform/internal/models"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewAuditLogsHandler(db *gorm.DB, log logrus.FieldLogger) *AuditLogsHandler {
	return &AuditLogsHandler{db: db, log: log}
}

// List pages through the audit trail of the caller's scope. Super admins see
// every church unless they pass ?church_id=.
func (h *AuditLogsHandler) List(c *gin.Context) {
	page, limit, offset := httpresp.Pagination(c, 50, 200)

	// --------------------------------------------------
	// Base query (always tenant scoped)
	// --------------------------------------------------

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.AuditLog{}).
		Scopes(requestScope(c).Apply("church_id"))

	// --------------------------------------------------
	// Optional filters
	// --------------------------------------------------

	if action := c.Query("action"); action != "" {
		q = q.Where("action = ?", action)
	}
	if table := c.Query("table"); table != "" {
		q = q.Where("table_name = ?", table)
	}
	if from, err := time.Parse(dateLayout, c.Query("from")); err == nil {
		q = q.Where("created_at >= ?", from)
	}
	if to, err := time.Parse(dateLayout, c.Query("to")); err == nil {
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.log.WithError(err).Error("count audit logs failed")
		httperr.Internal(c, "audit_count_failed", "Could not count audit logs")
		return
	}

	logs := []models.AuditLog{}
	if err := q.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error; err != nil {
		h.log.WithError(err).Error("list audit logs failed")
		httperr.Internal(c, "audit_list_failed", "Could not load audit logs")
		return
	}

	httpresp.Page(c, page, limit, total, logs)
}
