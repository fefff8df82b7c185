package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	"github.com/BruksfildServices01/church-platform/internal/httperr"
	"github.com/BruksfildServices01/church-platform/internal/httpresp"
	"github.com/BruksfildServices01/church-platform/internal/models"
	"github.com/BruksfildServices01/church-platform/internal/validators"
)

// ======================================================
// HANDLER
// ======================================================

type KontingentHandler struct {
	db    *gorm.DB
	audit audit.Recorder
	log   logrus.FieldLogger
}

func NewKontingentHandler(db *gorm.DB, recorder audit.Recorder, log logrus.FieldLogger) *KontingentHandler {
	return &KontingentHandler{db: db, audit: recorder, log: log}
}

type KontingentRequest struct {
	MemberID uint             `json:"memberId" binding:"required"`
	Month    string           `json:"month" binding:"required"`
	Paid     bool             `json:"paid"`
	Amount   *decimal.Decimal `json:"amount"`
	Notes    *string          `json:"notes"`
}

// ======================================================
// UPSERT
// ======================================================

// Update records dues for one member and month. Repeated calls for the same
// pair update the existing row.
func (h *KontingentHandler) Update(c *gin.Context) {
	p := principal(c)

	var req KontingentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	req.Month = strings.TrimSpace(req.Month)
	if !validators.IsMonth(req.Month) {
		httperr.BadRequest(c, "invalid_month", "Month must be YYYY-MM")
		return
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		httperr.BadRequest(c, "invalid_amount", "Amount must not be negative")
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var member models.Member
	if err := db.Select("id", "church_id").
		Scopes(requestScope(c).Apply("church_id")).
		First(&member, req.MemberID).Error; err != nil {
		if isNotFound(err) {
			httperr.NotFound(c, "member_not_found", "Member not found")
			return
		}
		h.log.WithError(err).Error("load member for kontingent failed")
		httperr.Internal(c, "internal_error", "Could not update kontingent")
		return
	}

	var old *models.KontingentPayment
	var existing models.KontingentPayment
	if err := db.Where("member_id = ? AND payment_month = ?", member.ID, req.Month).
		First(&existing).Error; err == nil {
		old = &existing
	}

	row := models.KontingentPayment{
		MemberID:     member.ID,
		PaymentMonth: req.Month,
		Paid:         req.Paid,
		Notes:        blankToNil(req.Notes),
		RecordedBy:   p.Username,
	}
	if req.Paid {
		today := churchToday(db, member.ChurchID)
		row.PaymentDate = &today
	}
	if req.Amount != nil {
		row.Amount = decimal.NewNullDecimal(req.Amount.Round(2))
	}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "member_id"}, {Name: "payment_month"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"paid", "payment_date", "amount", "notes", "recorded_by", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		h.log.WithError(err).WithField("member_id", member.ID).Error("kontingent upsert failed")
		httperr.Internal(c, "failed_to_update_kontingent", "Could not update kontingent")
		return
	}

	var saved models.KontingentPayment
	if err := db.Where("member_id = ? AND payment_month = ?", member.ID, req.Month).
		First(&saved).Error; err != nil {
		h.log.WithError(err).Error("reload kontingent failed")
		httperr.Internal(c, "failed_to_update_kontingent", "Could not update kontingent")
		return
	}

	ev := audit.Event{
		ChurchID: uintPtr(member.ChurchID),
		Actor:    p.Username,
		Action:   audit.ActionKontingentUpdate,
		Table:    "kontingent_payments",
		RecordID: uintPtr(saved.ID),
		New:      saved,
		IP:       c.ClientIP(),
	}
	if old != nil {
		ev.Old = *old
	}
	h.audit.Dispatch(ev)

	httpresp.OK(c, saved)
}

// ======================================================
// LIST
// ======================================================

func (h *KontingentHandler) List(c *gin.Context) {
	month := strings.TrimSpace(c.Query("month"))
	if month != "" && !validators.IsMonth(month) {
		httperr.BadRequest(c, "invalid_month", "Month must be YYYY-MM")
		return
	}

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.KontingentPayment{}).
		Select("kontingent_payments.*").
		Joins("JOIN members ON members.id = kontingent_payments.member_id").
		Scopes(requestScope(c).Apply("members.church_id"))
	if month != "" {
		q = q.Where("kontingent_payments.payment_month = ?", month)
	}

	payments := []models.KontingentPayment{}
	if err := q.Order("kontingent_payments.payment_month DESC, kontingent_payments.member_id ASC").
		Find(&payments).Error; err != nil {
		h.log.WithError(err).Error("list kontingent failed")
		httperr.Internal(c, "failed_to_list_kontingent", "Could not load kontingent")
		return
	}
	httpresp.OK(c, payments)
}
