package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	"github.com/BruksfildServices01/church-platform/internal/httperr"
	"github.com/BruksfildServices01/church-platform/internal/httpresp"
	"github.com/BruksfildServices01/church-platform/internal/models"
	"github.com/BruksfildServices01/church-platform/internal/timezone"
)

// MeHandler serves the logged-in church admin's own church.
type MeHandler struct {
	db    *gorm.DB
	audit audit.Recorder
	log   logrus.FieldLogger
}

func NewMeHandler(db *gorm.DB, recorder audit.Recorder, log logrus.FieldLogger) *MeHandler {
	return &MeHandler{db: db, audit: recorder, log: log}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	p := principal(c)

	if p.SuperAdmin {
		var admin models.SuperAdmin
		if err := h.db.WithContext(c.Request.Context()).First(&admin, p.AdminID).Error; err != nil {
			httperr.NotFound(c, "admin_not_found", "Admin not found")
			return
		}
		httpresp.OK(c, gin.H{"admin": admin, "is_super_admin": true})
		return
	}

	var admin models.ChurchAdmin
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Church").
		Where("church_id = ?", *p.ChurchID).
		First(&admin, p.AdminID).Error; err != nil {
		httperr.NotFound(c, "admin_not_found", "Admin not found")
		return
	}

	httpresp.OK(c, gin.H{
		"admin":  admin,
		"church": admin.Church,
	})
}

type DashboardStats struct {
	News           int64 `json:"news"`
	UpcomingEvents int64 `json:"upcoming_events"`
	Members        int64 `json:"members"`
	Photos         int64 `json:"photos"`
}

func (h *MeHandler) Dashboard(c *gin.Context) {
	churchID := *principal(c).ChurchID
	db := h.db.WithContext(c.Request.Context())

	var church models.Church
	if err := db.First(&church, churchID).Error; err != nil {
		httperr.NotFound(c, "church_not_found", "Church not found")
		return
	}

	var stats DashboardStats
	counts := []struct {
		model any
		where string
		args  []any
		dst   *int64
	}{
		{&models.News{}, "church_id = ?", []any{churchID}, &stats.News},
		{&models.Event{}, "church_id = ? AND event_date >= ?", []any{churchID, time.Now()}, &stats.UpcomingEvents},
		{&models.Member{}, "church_id = ? AND is_active = ?", []any{churchID, true}, &stats.Members},
		{&models.Photo{}, "church_id = ?", []any{churchID}, &stats.Photos},
	}
	for _, q := range counts {
		if err := db.Model(q.model).Where(q.where, q.args...).Count(q.dst).Error; err != nil {
			h.log.WithError(err).Error("dashboard count failed")
			httperr.Internal(c, "dashboard_failed", "Could not load dashboard")
			return
		}
	}

	httpresp.OK(c, gin.H{
		"church": church,
		"stats":  stats,
	})
}

// --------- Church info ---------

type ChurchInfoRequest struct {
	Name                 *string `json:"name" binding:"omitempty,min=1,max=200"`
	Address              *string `json:"address"`
	Phone                *string `json:"phone"`
	Email                *string `json:"email" binding:"omitempty,email"`
	Website              *string `json:"website"`
	Facebook             *string `json:"facebook"`
	LogoURL              *string `json:"logo_url"`
	Description          *string `json:"description"`
	MissionStatement     *string `json:"mission_statement"`
	FieldLabels          *string `json:"field_labels"`
	DisplayOrder         *int    `json:"display_order"`
	PastorName           *string `json:"pastor_name"`
	PastorTitle          *string `json:"pastor_title"`
	PastorPhone          *string `json:"pastor_phone"`
	PastorEmail          *string `json:"pastor_email"`
	PastorBio            *string `json:"pastor_bio"`
	SundayServiceTime    *string `json:"sunday_service_time"`
	WednesdayServiceTime *string `json:"wednesday_service_time"`
	OtherServiceTimes    *string `json:"other_service_times"`
	BackgroundColor      *string `json:"background_color"`
	Timezone             *string `json:"timezone"`
}

// apply copies the present fields onto church.
func (r ChurchInfoRequest) apply(church *models.Church) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&church.Name, r.Name)
	set(&church.Address, r.Address)
	set(&church.Phone, r.Phone)
	set(&church.Email, r.Email)
	set(&church.Website, r.Website)
	set(&church.Facebook, r.Facebook)
	set(&church.LogoURL, r.LogoURL)
	set(&church.Description, r.Description)
	set(&church.Mission, r.MissionStatement)
	set(&church.FieldLabels, r.FieldLabels)
	set(&church.PastorName, r.PastorName)
	set(&church.PastorTitle, r.PastorTitle)
	set(&church.PastorPhone, r.PastorPhone)
	set(&church.PastorEmail, r.PastorEmail)
	set(&church.PastorBio, r.PastorBio)
	set(&church.SundayServiceTime, r.SundayServiceTime)
	set(&church.WednesdayServiceTime, r.WednesdayServiceTime)
	set(&church.OtherServiceTimes, r.OtherServiceTimes)
	set(&church.BackgroundColor, r.BackgroundColor)
	if r.DisplayOrder != nil {
		church.DisplayOrder = *r.DisplayOrder
	}
	if r.Timezone != nil && timezone.IsValid(*r.Timezone) {
		church.Timezone = *r.Timezone
	}
}

func (h *MeHandler) UpdateChurchInfo(c *gin.Context) {
	p := principal(c)
	db := h.db.WithContext(c.Request.Context())

	var req ChurchInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var church models.Church
	if err := db.First(&church, *p.ChurchID).Error; err != nil {
		httperr.NotFound(c, "church_not_found", "Church not found")
		return
	}
	old := church

	req.apply(&church)

	if err := db.Save(&church).Error; err != nil {
		h.log.WithError(err).Error("update church info failed")
		httperr.Internal(c, "failed_to_update_church", "Could not update church")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: p.ChurchID,
		Actor:    p.Username,
		Action:   audit.ActionUpdate,
		Table:    "churches",
		RecordID: uintPtr(church.ID),
		Old:      old,
		New:      church,
		IP:       c.ClientIP(),
	})

	httpresp.OK(c, church)
}
