package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	"github.com/BruksfildServices01/church-platform/internal/auth"
	"github.com/BruksfildServices01/church-platform/internal/httperr"
	"github.com/BruksfildServices01/church-platform/internal/httpresp"
	"github.com/BruksfildServices01/church-platform/internal/infra/storage"
	"github.com/BruksfildServices01/church-platform/internal/models"
	"github.com/BruksfildServices01/church-platform/internal/validators"
)

const siteLogoKey = "site_logo_url"

// SuperAdminHandler manages tenants, their admins and global site settings.
type SuperAdminHandler struct {
	db        *gorm.DB
	uploader  *storage.Uploader
	maxUpload int64
	audit     audit.Recorder
	log       logrus.FieldLogger
}

func NewSuperAdminHandler(
	db *gorm.DB,
	uploader *storage.Uploader,
	maxUpload int64,
	recorder audit.Recorder,
	log logrus.FieldLogger,
) *SuperAdminHandler {
	return &SuperAdminHandler{db: db, uploader: uploader, maxUpload: maxUpload, audit: recorder, log: log}
}

func (h *SuperAdminHandler) record(c *gin.Context, ev audit.Event) {
	ev.Actor = principal(c).Username
	ev.IP = c.ClientIP()
	h.audit.Dispatch(ev)
}

// ======================================================
// CHURCHES
// ======================================================

type ChurchRequest struct {
	ChurchInfoRequest
	Slug     *string `json:"slug"`
	IsActive *bool   `json:"is_active"`
}

type ChurchSummary struct {
	models.Church
	AdminCount int64 `json:"admin_count"`
	NewsCount  int64 `json:"news_count"`
}

func (h *SuperAdminHandler) ListChurches(c *gin.Context) {
	rows := []ChurchSummary{}
	err := h.db.WithContext(c.Request.Context()).
		Model(&models.Church{}).
		Select(`churches.*,
			(SELECT COUNT(*) FROM church_admins WHERE church_admins.church_id = churches.id) AS admin_count,
			(SELECT COUNT(*) FROM church_news WHERE church_news.church_id = churches.id) AS news_count`).
		Order("churches.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		h.log.WithError(err).Error("list churches failed")
		httperr.Internal(c, "failed_to_list_churches", "Could not load churches")
		return
	}
	httpresp.OK(c, rows)
}

func (h *SuperAdminHandler) findChurch(c *gin.Context) (models.Church, bool) {
	var church models.Church
	id, ok := paramID(c, "id")
	if !ok {
		return church, false
	}
	if err := h.db.WithContext(c.Request.Context()).First(&church, id).Error; err != nil {
		if isNotFound(err) {
			httperr.NotFound(c, "church_not_found", "Church not found")
		} else {
			h.log.WithError(err).Error("load church failed")
			httperr.Internal(c, "internal_error", "Could not load church")
		}
		return church, false
	}
	return church, true
}

func (h *SuperAdminHandler) GetChurch(c *gin.Context) {
	church, ok := h.findChurch(c)
	if !ok {
		return
	}
	httpresp.OK(c, church)
}

// checkSlug validates slug and reports whether it is free for exceptID.
func (h *SuperAdminHandler) checkSlug(c *gin.Context, slug string, exceptID uint) bool {
	if !validators.IsSlug(slug) {
		httperr.BadRequest(c, "invalid_slug", "Slug may only contain lowercase letters, digits and dashes")
		return false
	}
	var n int64
	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.Church{}).
		Where("slug = ? AND id <> ?", slug, exceptID).
		Count(&n).Error; err != nil {
		h.log.WithError(err).Error("slug lookup failed")
		httperr.Internal(c, "internal_error", "Could not save church")
		return false
	}
	if n > 0 {
		httperr.BadRequest(c, "slug_already_exists", "Church slug already exists")
		return false
	}
	return true
}

func (h *SuperAdminHandler) saveChurchError(c *gin.Context, err error) {
	if httperr.IsUniqueViolation(err, "idx_churches_slug") {
		httperr.BadRequest(c, "slug_already_exists", "Church slug already exists")
		return
	}
	h.log.WithError(err).Error("save church failed")
	httperr.Internal(c, "failed_to_save_church", "Could not save church")
}

func (h *SuperAdminHandler) CreateChurch(c *gin.Context) {
	var req ChurchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Slug == nil {
		httperr.BadRequest(c, "invalid_request", "name and slug are required")
		return
	}
	slug := validators.NormalizeSlug(*req.Slug)
	if !h.checkSlug(c, slug, 0) {
		return
	}

	church := models.Church{
		Slug:            slug,
		BackgroundColor: "#3b82f6",
		IsActive:        true,
	}
	req.apply(&church)
	if req.IsActive != nil {
		church.IsActive = *req.IsActive
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&church).Error; err != nil {
		h.saveChurchError(c, err)
		return
	}

	h.record(c, audit.Event{
		ChurchID: uintPtr(church.ID),
		Action:   audit.ActionCreate,
		Table:    "churches",
		RecordID: uintPtr(church.ID),
		New:      church,
	})

	httpresp.Created(c, church)
}

func (h *SuperAdminHandler) UpdateChurch(c *gin.Context) {
	church, ok := h.findChurch(c)
	if !ok {
		return
	}

	var req ChurchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	old := church

	if req.Slug != nil {
		slug := validators.NormalizeSlug(*req.Slug)
		if slug != church.Slug {
			if !h.checkSlug(c, slug, church.ID) {
				return
			}
			church.Slug = slug
		}
	}
	req.apply(&church)
	if req.IsActive != nil {
		church.IsActive = *req.IsActive
	}

	if err := h.db.WithContext(c.Request.Context()).Save(&church).Error; err != nil {
		h.saveChurchError(c, err)
		return
	}

	h.record(c, audit.Event{
		ChurchID: uintPtr(church.ID),
		Action:   audit.ActionUpdate,
		Table:    "churches",
		RecordID: uintPtr(church.ID),
		Old:      old,
		New:      church,
	})

	httpresp.OK(c, church)
}

// DeleteChurch removes the tenant; owned rows go with it through the
// foreign key cascades.
func (h *SuperAdminHandler) DeleteChurch(c *gin.Context) {
	church, ok := h.findChurch(c)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(&church).Error; err != nil {
		h.log.WithError(err).WithField("church_id", church.ID).Error("delete church failed")
		httperr.Internal(c, "failed_to_delete_church", "Could not delete church")
		return
	}

	h.record(c, audit.Event{
		ChurchID: uintPtr(church.ID),
		Action:   audit.ActionDelete,
		Table:    "churches",
		RecordID: uintPtr(church.ID),
		Old:      church,
	})

	httpresp.OK(c, gin.H{"message": "Church deleted", "church": church})
}

// ======================================================
// CHURCH ADMINS
// ======================================================

type CreateAdminRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"max=200"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type UpdateAdminRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=200"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	IsActive *bool   `json:"is_active"`
}

func (h *SuperAdminHandler) ListAdmins(c *gin.Context) {
	church, ok := h.findChurch(c)
	if !ok {
		return
	}

	admins := []models.ChurchAdmin{}
	if err := h.db.WithContext(c.Request.Context()).
		Where("church_id = ?", church.ID).
		Order("created_at DESC").
		Find(&admins).Error; err != nil {
		h.log.WithError(err).Error("list church admins failed")
		httperr.Internal(c, "failed_to_list_admins", "Could not load admins")
		return
	}
	httpresp.OK(c, admins)
}

func (h *SuperAdminHandler) CreateAdmin(c *gin.Context) {
	church, ok := h.findChurch(c)
	if !ok {
		return
	}

	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	username := strings.TrimSpace(req.Username)

	db := h.db.WithContext(c.Request.Context())

	var n int64
	if err := db.Model(&models.ChurchAdmin{}).Where("username = ?", username).Count(&n).Error; err != nil {
		h.log.WithError(err).Error("username lookup failed")
		httperr.Internal(c, "internal_error", "Could not create admin")
		return
	}
	if n > 0 {
		httperr.BadRequest(c, "username_already_exists", "Username already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httperr.Internal(c, "internal_error", "Could not create admin")
		return
	}

	admin := models.ChurchAdmin{
		ChurchID:     church.ID,
		Username:     username,
		PasswordHash: hash,
		FullName:     req.FullName,
		Email:        req.Email,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		if httperr.IsUniqueViolation(err, "idx_church_admins_username") {
			httperr.BadRequest(c, "username_already_exists", "Username already exists")
			return
		}
		h.log.WithError(err).Error("create church admin failed")
		httperr.Internal(c, "failed_to_create_admin", "Could not create admin")
		return
	}

	h.record(c, audit.Event{
		ChurchID: uintPtr(church.ID),
		Action:   audit.ActionCreate,
		Table:    "church_admins",
		RecordID: uintPtr(admin.ID),
		New:      admin,
	})

	httpresp.Created(c, admin)
}

func (h *SuperAdminHandler) findAdmin(c *gin.Context) (models.ChurchAdmin, bool) {
	var admin models.ChurchAdmin
	id, ok := paramID(c, "id")
	if !ok {
		return admin, false
	}
	if err := h.db.WithContext(c.Request.Context()).First(&admin, id).Error; err != nil {
		if isNotFound(err) {
			httperr.NotFound(c, "admin_not_found", "Admin not found")
		} else {
			h.log.WithError(err).Error("load church admin failed")
			httperr.Internal(c, "internal_error", "Could not load admin")
		}
		return admin, false
	}
	return admin, true
}

func (h *SuperAdminHandler) UpdateAdmin(c *gin.Context) {
	admin, ok := h.findAdmin(c)
	if !ok {
		return
	}

	var req UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	old := admin

	if req.FullName != nil {
		admin.FullName = *req.FullName
	}
	if req.Email != nil {
		admin.Email = *req.Email
	}
	if req.IsActive != nil {
		admin.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			httperr.Internal(c, "internal_error", "Could not update admin")
			return
		}
		admin.PasswordHash = hash
	}

	if err := h.db.WithContext(c.Request.Context()).Save(&admin).Error; err != nil {
		h.log.WithError(err).Error("update church admin failed")
		httperr.Internal(c, "failed_to_update_admin", "Could not update admin")
		return
	}

	h.record(c, audit.Event{
		ChurchID: uintPtr(admin.ChurchID),
		Action:   audit.ActionUpdate,
		Table:    "church_admins",
		RecordID: uintPtr(admin.ID),
		Old:      old,
		New:      admin,
	})

	httpresp.OK(c, admin)
}

// DeleteAdmin deactivates the admin; the row is kept.
func (h *SuperAdminHandler) DeleteAdmin(c *gin.Context) {
	admin, ok := h.findAdmin(c)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(&admin).
		Update("is_active", false).Error; err != nil {
		h.log.WithError(err).Error("deactivate church admin failed")
		httperr.Internal(c, "failed_to_delete_admin", "Could not delete admin")
		return
	}

	h.record(c, audit.Event{
		ChurchID: uintPtr(admin.ChurchID),
		Action:   audit.ActionDelete,
		Table:    "church_admins",
		RecordID: uintPtr(admin.ID),
		Old:      admin,
	})

	httpresp.OK(c, gin.H{"message": "Admin deactivated"})
}

// ======================================================
// SITE SETTINGS
// ======================================================

type SiteSettingRequest struct {
	SettingKey   string `json:"setting_key" binding:"required,max=100"`
	SettingValue string `json:"setting_value"`
}

func (h *SuperAdminHandler) upsertSetting(c *gin.Context, key, value string) (models.SiteSetting, error) {
	db := h.db.WithContext(c.Request.Context())

	setting := models.SiteSetting{SettingKey: key, SettingValue: value}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return setting, err
	}
	err = db.Where("setting_key = ?", key).First(&setting).Error
	return setting, err
}

func (h *SuperAdminHandler) UpdateSiteSetting(c *gin.Context) {
	var req SiteSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	setting, err := h.upsertSetting(c, strings.TrimSpace(req.SettingKey), req.SettingValue)
	if err != nil {
		h.log.WithError(err).Error("upsert site setting failed")
		httperr.Internal(c, "failed_to_update_setting", "Could not update setting")
		return
	}

	h.record(c, audit.Event{
		Action:   audit.ActionUpdate,
		Table:    "site_settings",
		RecordID: uintPtr(setting.ID),
		New:      setting,
	})

	httpresp.OK(c, setting)
}

func (h *SuperAdminHandler) UploadSiteLogo(c *gin.Context) {
	r, ok := readUpload(c, "logo", h.maxUpload)
	if !ok {
		return
	}

	obj, err := h.uploader.SaveImage(c.Request.Context(), "site", r)
	if err != nil {
		h.log.WithError(err).Warn("site logo upload failed")
		uploadFailed(c, err)
		return
	}

	setting, err := h.upsertSetting(c, siteLogoKey, obj.URL)
	if err != nil {
		h.log.WithError(err).Error("store site logo failed")
		httperr.Internal(c, "failed_to_update_setting", "Could not store logo")
		return
	}

	h.record(c, audit.Event{
		Action:   audit.ActionUpload,
		Table:    "site_settings",
		RecordID: uintPtr(setting.ID),
		New:      setting,
	})

	httpresp.OK(c, gin.H{"logo_url": obj.URL})
}
