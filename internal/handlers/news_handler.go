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
)

type NewsHandler struct {
	db    *gorm.DB
	audit audit.Recorder
	log   logrus.FieldLogger
}

func NewNewsHandler(db *gorm.DB, recorder audit.Recorder, log logrus.FieldLogger) *NewsHandler {
	return &NewsHandler{db: db, audit: recorder, log: log}
}

// --------- Requests ---------

type NewsRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Content     string `json:"content"`
	IsPublished bool   `json:"is_published"`
}

// --------- Handlers ---------

func (h *NewsHandler) List(c *gin.Context) {
	p := principal(c)

	news := []models.News{}
	if err := h.db.WithContext(c.Request.Context()).
		Where("church_id = ?", *p.ChurchID).
		Order("created_at DESC").
		Find(&news).Error; err != nil {
		h.log.WithError(err).Error("list news failed")
		httperr.Internal(c, "failed_to_list_news", "Could not load news")
		return
	}
	httpresp.OK(c, news)
}

func (h *NewsHandler) Create(c *gin.Context) {
	p := principal(c)

	var req NewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item := models.News{
		ChurchID:    *p.ChurchID,
		Title:       req.Title,
		Content:     req.Content,
		AuthorID:    uintPtr(p.AdminID),
		IsPublished: req.IsPublished,
	}
	if item.IsPublished {
		now := time.Now()
		item.PublishedDate = &now
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&item).Error; err != nil {
		h.log.WithError(err).Error("create news failed")
		httperr.Internal(c, "failed_to_create_news", "Could not create news")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: p.ChurchID,
		Actor:    p.Username,
		Action:   audit.ActionCreate,
		Table:    "church_news",
		RecordID: uintPtr(item.ID),
		New:      item,
		IP:       c.ClientIP(),
	})

	httpresp.Created(c, item)
}

func (h *NewsHandler) Update(c *gin.Context) {
	p := principal(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req NewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var item models.News
	if err := db.Where("id = ? AND church_id = ?", id, *p.ChurchID).First(&item).Error; err != nil {
		httperr.NotFound(c, "news_not_found", "News not found")
		return
	}
	old := item

	item.Title = req.Title
	item.Content = req.Content
	item.IsPublished = req.IsPublished
	if item.IsPublished && item.PublishedDate == nil {
		now := time.Now()
		item.PublishedDate = &now
	}

	if err := db.Save(&item).Error; err != nil {
		h.log.WithError(err).Error("update news failed")
		httperr.Internal(c, "failed_to_update_news", "Could not update news")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: p.ChurchID,
		Actor:    p.Username,
		Action:   audit.ActionUpdate,
		Table:    "church_news",
		RecordID: uintPtr(item.ID),
		Old:      old,
		New:      item,
		IP:       c.ClientIP(),
	})

	httpresp.OK(c, item)
}

func (h *NewsHandler) Delete(c *gin.Context) {
	p := principal(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var item models.News
	if err := db.Where("id = ? AND church_id = ?", id, *p.ChurchID).First(&item).Error; err != nil {
		httperr.NotFound(c, "news_not_found", "News not found")
		return
	}
	if err := db.Delete(&item).Error; err != nil {
		h.log.WithError(err).Error("delete news failed")
		httperr.Internal(c, "failed_to_delete_news", "Could not delete news")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: p.ChurchID,
		Actor:    p.Username,
		Action:   audit.ActionDelete,
		Table:    "church_news",
		RecordID: uintPtr(item.ID),
		Old:      item,
		IP:       c.ClientIP(),
	})

	httpresp.OK(c, gin.H{"message": "News deleted"})
}
