package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	"github.com/BruksfildServices01/church-platform/internal/httperr"
	"github.com/BruksfildServices01/church-platform/internal/httpresp"
	"github.com/BruksfildServices01/church-platform/internal/models"
	"github.com/BruksfildServices01/church-platform/internal/validators"
)

const dateLayout = "2006-01-02"

type MemberHandler struct {
	db    *gorm.DB
	audit audit.Recorder
	log   logrus.FieldLogger
}

func NewMemberHandler(db *gorm.DB, recorder audit.Recorder, log logrus.FieldLogger) *MemberHandler {
	return &MemberHandler{db: db, audit: recorder, log: log}
}

// --------- Requests ---------

type MemberRequest struct {
	ChurchID     *uint   `json:"church_id"`
	FullName     string  `json:"full_name" binding:"required,max=200"`
	PhoneNumber  string  `json:"phone_number" binding:"required,max=20"`
	MemberNumber *string `json:"member_number" binding:"omitempty,max=50"`
	Email        *string `json:"email" binding:"omitempty,email"`
	NationalID   *string `json:"national_id"`
	Address      *string `json:"address"`
	PostalCode   *string `json:"postal_code"`
	City         *string `json:"city"`
	MemberSince  *string `json:"member_since"`
	Baptized     bool    `json:"baptized"`
	BaptismDate  *string `json:"baptism_date"`
	SMSConsent   *bool   `json:"sms_consent"`
	IsActive     *bool   `json:"is_active"`
	Notes        *string `json:"notes"`
}

// normalize trims input and rejects malformed national ids and dates. It
// never touches the database.
func (r *MemberRequest) normalize() (code, message string) {
	r.FullName = strings.TrimSpace(r.FullName)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.NationalID = blankToNil(r.NationalID)
	r.MemberNumber = blankToNil(r.MemberNumber)
	r.Email = blankToNil(r.Email)

	if r.NationalID != nil && !validators.IsNationalID(*r.NationalID) {
		return "invalid_national_id", "National id must be 11 digits"
	}
	if r.FullName == "" || r.PhoneNumber == "" {
		return "invalid_request", "full_name and phone_number are required"
	}
	for _, d := range []*string{r.MemberSince, r.BaptismDate} {
		if d == nil || *d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, *d); err != nil {
			return "invalid_date", "Dates must be YYYY-MM-DD"
		}
	}
	return "", ""
}

func (r MemberRequest) apply(m *models.Member) {
	m.FullName = r.FullName
	m.PhoneNumber = r.PhoneNumber
	m.MemberNumber = r.MemberNumber
	m.Email = r.Email
	m.NationalID = r.NationalID
	m.Address = blankToNil(r.Address)
	m.PostalCode = blankToNil(r.PostalCode)
	m.City = blankToNil(r.City)
	m.MemberSince = parseDate(r.MemberSince)
	m.Baptized = r.Baptized
	m.BaptismDate = parseDate(r.BaptismDate)
	m.Notes = blankToNil(r.Notes)

	if r.SMSConsent != nil && *r.SMSConsent != m.SMSConsent {
		m.SMSConsent = *r.SMSConsent
		if m.SMSConsent {
			now := time.Now()
			m.ConsentDate = &now
		}
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}

// --------- Handlers ---------

func (h *MemberHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Member{}).
		Scopes(requestScope(c).Apply("church_id"))

	switch strings.TrimSpace(c.Query("active")) {
	case "true":
		q = q.Where("is_active = ?", true)
	case "false":
		q = q.Where("is_active = ?", false)
	}

	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		like := "%" + search + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR phone_number LIKE ? OR national_id LIKE ?", like, like, like)
	}

	members := []models.Member{}
	if err := q.Order("full_name ASC").Find(&members).Error; err != nil {
		h.log.WithError(err).Error("list members failed")
		httperr.Internal(c, "failed_to_list_members", "Could not load members")
		return
	}
	httpresp.OK(c, members)
}

func (h *MemberHandler) find(c *gin.Context, id uint) (models.Member, bool) {
	var m models.Member
	err := h.db.WithContext(c.Request.Context()).
		Scopes(requestScope(c).Apply("church_id")).
		First(&m, id).Error
	if err != nil {
		if isNotFound(err) {
			httperr.NotFound(c, "member_not_found", "Member not found")
		} else {
			h.log.WithError(err).Error("load member failed")
			httperr.Internal(c, "internal_error", "Could not load member")
		}
		return m, false
	}
	return m, true
}

func (h *MemberHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	m, ok := h.find(c, id)
	if !ok {
		return
	}
	httpresp.OK(c, m)
}

func (h *MemberHandler) phoneTaken(c *gin.Context, churchID uint, phone string, exceptID uint) (bool, error) {
	var n int64
	err := h.db.WithContext(c.Request.Context()).
		Model(&models.Member{}).
		Where("church_id = ? AND phone_number = ? AND id <> ?", churchID, phone, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (h *MemberHandler) Create(c *gin.Context) {
	p := principal(c)

	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if code, msg := req.normalize(); code != "" {
		httperr.BadRequest(c, code, msg)
		return
	}

	scope := p.Scope()
	if req.ChurchID != nil {
		scope = scope.Narrow(*req.ChurchID)
	}
	if !scope.Bounded() {
		httperr.BadRequest(c, "church_id_required", "church_id is required")
		return
	}
	churchID := *scope.ChurchID

	taken, err := h.phoneTaken(c, churchID, req.PhoneNumber, 0)
	if err != nil {
		h.log.WithError(err).Error("duplicate phone check failed")
		httperr.Internal(c, "failed_to_create_member", "Could not create member")
		return
	}
	if taken {
		httperr.BadRequest(c, "phone_already_exists", "A member with this phone number already exists")
		return
	}

	now := time.Now()
	member := models.Member{
		ChurchID:    churchID,
		SMSConsent:  true,
		ConsentDate: &now,
		IsActive:    true,
		CreatedBy:   p.Username,
		UpdatedBy:   p.Username,
	}
	if req.SMSConsent != nil && !*req.SMSConsent {
		member.SMSConsent = false
		member.ConsentDate = nil
	}
	req.SMSConsent = nil
	req.apply(&member)

	if err := h.db.WithContext(c.Request.Context()).Create(&member).Error; err != nil {
		if httperr.IsUniqueViolation(err, "idx_members_church_phone") {
			httperr.BadRequest(c, "phone_already_exists", "A member with this phone number already exists")
			return
		}
		if httperr.IsUniqueViolation(err, "") {
			httperr.BadRequest(c, "member_number_already_exists", "Member number already in use")
			return
		}
		h.log.WithError(err).Error("create member failed")
		httperr.Internal(c, "failed_to_create_member", "Could not create member")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: uintPtr(member.ChurchID),
		Actor:    p.Username,
		Action:   audit.ActionCreate,
		Table:    "members",
		RecordID: uintPtr(member.ID),
		New:      member,
		IP:       c.ClientIP(),
	})

	httpresp.Created(c, member)
}

func (h *MemberHandler) Update(c *gin.Context) {
	p := principal(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if code, msg := req.normalize(); code != "" {
		httperr.BadRequest(c, code, msg)
		return
	}

	member, ok := h.find(c, id)
	if !ok {
		return
	}
	old := member

	if req.PhoneNumber != member.PhoneNumber {
		taken, err := h.phoneTaken(c, member.ChurchID, req.PhoneNumber, member.ID)
		if err != nil {
			h.log.WithError(err).Error("duplicate phone check failed")
			httperr.Internal(c, "failed_to_update_member", "Could not update member")
			return
		}
		if taken {
			httperr.BadRequest(c, "phone_already_exists", "A member with this phone number already exists")
			return
		}
	}

	req.apply(&member)
	member.UpdatedBy = p.Username

	if err := h.db.WithContext(c.Request.Context()).Save(&member).Error; err != nil {
		if httperr.IsUniqueViolation(err, "idx_members_church_phone") {
			httperr.BadRequest(c, "phone_already_exists", "A member with this phone number already exists")
			return
		}
		h.log.WithError(err).Error("update member failed")
		httperr.Internal(c, "failed_to_update_member", "Could not update member")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: uintPtr(member.ChurchID),
		Actor:    p.Username,
		Action:   audit.ActionUpdate,
		Table:    "members",
		RecordID: uintPtr(member.ID),
		Old:      old,
		New:      member,
		IP:       c.ClientIP(),
	})

	httpresp.OK(c, member)
}

// Delete deactivates the member; SMS history keeps referring to the row.
func (h *MemberHandler) Delete(c *gin.Context) {
	p := principal(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	member, ok := h.find(c, id)
	if !ok {
		return
	}
	// Updates writes through to member.
	before := member

	if err := h.db.WithContext(c.Request.Context()).
		Model(&member).
		Updates(map[string]any{"is_active": false, "updated_by": p.Username}).Error; err != nil {
		h.log.WithError(err).Error("deactivate member failed")
		httperr.Internal(c, "failed_to_delete_member", "Could not delete member")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: uintPtr(member.ChurchID),
		Actor:    p.Username,
		Action:   audit.ActionDelete,
		Table:    "members",
		RecordID: uintPtr(member.ID),
		Old:      before,
		New:      gin.H{"is_active": false},
		IP:       c.ClientIP(),
	})

	httpresp.OK(c, gin.H{"message": "Member deleted"})
}

// --------- Export ---------

var exportHeader = []any{
	"ID", "Member number", "Full name", "Phone", "Email", "National id",
	"Address", "Postal code", "City", "Member since", "Baptized",
	"SMS consent", "Active",
}

func (h *MemberHandler) Export(c *gin.Context) {
	members := []models.Member{}
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(requestScope(c).Apply("church_id")).
		Order("full_name ASC").
		Find(&members).Error; err != nil {
		h.log.WithError(err).Error("export members failed")
		httperr.Internal(c, "failed_to_export_members", "Could not export members")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Members"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		httperr.Internal(c, "failed_to_export_members", "Could not export members")
		return
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		httperr.Internal(c, "failed_to_export_members", "Could not export members")
		return
	}

	for i, m := range members {
		row := []any{
			m.ID, deref(m.MemberNumber), m.FullName, m.PhoneNumber, deref(m.Email),
			deref(m.NationalID), deref(m.Address), deref(m.PostalCode), deref(m.City),
			formatDate(m.MemberSince), yesNo(m.Baptized), yesNo(m.SMSConsent), yesNo(m.IsActive),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			httperr.Internal(c, "failed_to_export_members", "Could not export members")
			return
		}
	}

	filename := fmt.Sprintf("members-%s.xlsx", time.Now().Format(dateLayout))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(c.Writer); err != nil {
		h.log.WithError(err).Error("write xlsx failed")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
