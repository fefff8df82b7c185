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

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type PublicHandler struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewPublicHandler(db *gorm.DB, log logrus.FieldLogger) *PublicHandler {
	return &PublicHandler{db: db, log: log}
}

type PublicNews struct {
	models.News
	ChurchName string `json:"church_name"`
	AuthorName string `json:"author_name"`
}

////////////////////////////////////////////////////////
// CHURCHES
////////////////////////////////////////////////////////

func (h *PublicHandler) ListChurches(c *gin.Context) {
	var churches []models.Church
	if err := h.db.WithContext(c.Request.Context()).
		Where("is_active = ?", true).
		Order("display_order ASC, name ASC").
		Find(&churches).Error; err != nil {
		h.log.WithError(err).Error("list churches failed")
		httperr.Internal(c, "failed_to_list_churches", "Could not load churches")
		return
	}
	if churches == nil {
		churches = []models.Church{}
	}
	httpresp.OK(c, churches)
}

func (h *PublicHandler) church(c *gin.Context) (models.Church, bool) {
	var church models.Church
	err := h.db.WithContext(c.Request.Context()).
		Where("slug = ? AND is_active = ?", c.Param("slug"), true).
		First(&church).Error
	if err != nil {
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

func (h *PublicHandler) GetChurch(c *gin.Context) {
	church, ok := h.church(c)
	if !ok {
		return
	}
	httpresp.OK(c, church)
}

////////////////////////////////////////////////////////
// CONTENT
////////////////////////////////////////////////////////

func (h *PublicHandler) ListNews(c *gin.Context) {
	church, ok := h.church(c)
	if !ok {
		return
	}

	news := []PublicNews{}
	if err := h.db.WithContext(c.Request.Context()).
		Table("church_news AS n").
		Select("n.*, c.name AS church_name, COALESCE(a.full_name, '') AS author_name").
		Joins("JOIN churches c ON c.id = n.church_id").
		Joins("LEFT JOIN church_admins a ON a.id = n.author_id").
		Where("n.church_id = ? AND n.is_published = ?", church.ID, true).
		Order("n.published_date DESC").
		Limit(10).
		Scan(&news).Error; err != nil {
		h.log.WithError(err).Error("list public news failed")
		httperr.Internal(c, "failed_to_list_news", "Could not load news")
		return
	}
	httpresp.OK(c, news)
}

func (h *PublicHandler) ListEvents(c *gin.Context) {
	church, ok := h.church(c)
	if !ok {
		return
	}

	events := []models.Event{}
	if err := h.db.WithContext(c.Request.Context()).
		Where("church_id = ? AND is_published = ? AND event_date >= ?", church.ID, true, time.Now()).
		Order("event_date ASC").
		Find(&events).Error; err != nil {
		h.log.WithError(err).Error("list public events failed")
		httperr.Internal(c, "failed_to_list_events", "Could not load events")
		return
	}
	httpresp.OK(c, events)
}

func (h *PublicHandler) ListPhotos(c *gin.Context) {
	church, ok := h.church(c)
	if !ok {
		return
	}

	photos := []models.Photo{}
	if err := h.db.WithContext(c.Request.Context()).
		Where("church_id = ? AND is_published = ?", church.ID, true).
		Order("display_order ASC, created_at DESC").
		Limit(50).
		Find(&photos).Error; err != nil {
		h.log.WithError(err).Error("list public photos failed")
		httperr.Internal(c, "failed_to_list_photos", "Could not load photos")
		return
	}
	httpresp.OK(c, photos)
}

func (h *PublicHandler) SiteSettings(c *gin.Context) {
	var rows []models.SiteSetting
	if err := h.db.WithContext(c.Request.Context()).Find(&rows).Error; err != nil {
		h.log.WithError(err).Error("load site settings failed")
		httperr.Internal(c, "failed_to_load_settings", "Could not load settings")
		return
	}

	settings := make(map[string]string, len(rows))
	for _, s := range rows {
		settings[s.SettingKey] = s.SettingValue
	}
	httpresp.OK(c, settings)
}
