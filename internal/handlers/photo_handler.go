package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	"github.com/BruksfildServices01/church-platform/internal/httperr"
	"github.com/BruksfildServices01/church-platform/internal/httpresp"
	"github.com/BruksfildServices01/church-platform/internal/infra/storage"
	"github.com/BruksfildServices01/church-platform/internal/models"
)

type PhotoHandler struct {
	db        *gorm.DB
	uploader  *storage.Uploader
	maxUpload int64
	audit     audit.Recorder
	log       logrus.FieldLogger
}

func NewPhotoHandler(
	db *gorm.DB,
	uploader *storage.Uploader,
	maxUpload int64,
	recorder audit.Recorder,
	log logrus.FieldLogger,
) *PhotoHandler {
	return &PhotoHandler{db: db, uploader: uploader, maxUpload: maxUpload, audit: recorder, log: log}
}

type PhotoRequest struct {
	Title        string `json:"title" binding:"max=255"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url" binding:"required,url"`
	ThumbnailURL string `json:"thumbnail_url" binding:"omitempty,url"`
	DisplayOrder int    `json:"display_order"`
}

func (h *PhotoHandler) List(c *gin.Context) {
	p := principal(c)

	photos := []models.Photo{}
	if err := h.db.WithContext(c.Request.Context()).
		Where("church_id = ?", *p.ChurchID).
		Order("display_order ASC, created_at DESC").
		Find(&photos).Error; err != nil {
		h.log.WithError(err).Error("list photos failed")
		httperr.Internal(c, "failed_to_list_photos", "Could not load photos")
		return
	}
	httpresp.OK(c, photos)
}

func (h *PhotoHandler) Create(c *gin.Context) {
	p := principal(c)

	var req PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	photo := models.Photo{
		ChurchID:     *p.ChurchID,
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		ThumbnailURL: req.ThumbnailURL,
		DisplayOrder: req.DisplayOrder,
		UploadedBy:   uintPtr(p.AdminID),
		IsPublished:  true,
	}
	h.create(c, photo)
}

func (h *PhotoHandler) create(c *gin.Context, photo models.Photo) {
	p := principal(c)

	if err := h.db.WithContext(c.Request.Context()).Create(&photo).Error; err != nil {
		h.log.WithError(err).Error("create photo failed")
		httperr.Internal(c, "failed_to_create_photo", "Could not save photo")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: p.ChurchID,
		Actor:    p.Username,
		Action:   audit.ActionCreate,
		Table:    "church_photos",
		RecordID: uintPtr(photo.ID),
		New:      photo,
		IP:       c.ClientIP(),
	})

	httpresp.Created(c, photo)
}

func (h *PhotoHandler) Delete(c *gin.Context) {
	p := principal(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var photo models.Photo
	if err := db.Where("id = ? AND church_id = ?", id, *p.ChurchID).First(&photo).Error; err != nil {
		httperr.NotFound(c, "photo_not_found", "Photo not found")
		return
	}
	if err := db.Delete(&photo).Error; err != nil {
		h.log.WithError(err).Error("delete photo failed")
		httperr.Internal(c, "failed_to_delete_photo", "Could not delete photo")
		return
	}

	if err := h.uploader.Delete(c.Request.Context(), photo.StorageKey); err != nil {
		h.log.WithError(err).WithField("key", photo.StorageKey).Warn("stored photo not removed")
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: p.ChurchID,
		Actor:    p.Username,
		Action:   audit.ActionDelete,
		Table:    "church_photos",
		RecordID: uintPtr(photo.ID),
		Old:      photo,
		IP:       c.ClientIP(),
	})

	httpresp.OK(c, gin.H{"message": "Photo deleted"})
}

// --------- Uploads ---------

func (h *PhotoHandler) UploadPhoto(c *gin.Context) {
	p := principal(c)

	r, ok := readUpload(c, "photo", h.maxUpload)
	if !ok {
		return
	}

	obj, err := h.uploader.SaveImage(c.Request.Context(), fmt.Sprintf("churches/%d/photos", *p.ChurchID), r)
	if err != nil {
		h.log.WithError(err).Warn("photo upload failed")
		uploadFailed(c, err)
		return
	}

	h.create(c, models.Photo{
		ChurchID:    *p.ChurchID,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		ImageURL:    obj.URL,
		StorageKey:  obj.Key,
		UploadedBy:  uintPtr(p.AdminID),
		IsPublished: true,
	})
}

func (h *PhotoHandler) UploadLogo(c *gin.Context) {
	p := principal(c)

	r, ok := readUpload(c, "logo", h.maxUpload)
	if !ok {
		return
	}

	obj, err := h.uploader.SaveImage(c.Request.Context(), fmt.Sprintf("churches/%d/logo", *p.ChurchID), r)
	if err != nil {
		h.log.WithError(err).Warn("logo upload failed")
		uploadFailed(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.Church{}).
		Where("id = ?", *p.ChurchID).
		Update("logo_url", obj.URL).Error; err != nil {
		h.log.WithError(err).Error("store church logo failed")
		httperr.Internal(c, "failed_to_update_church", "Could not store logo")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: p.ChurchID,
		Actor:    p.Username,
		Action:   audit.ActionUpload,
		Table:    "churches",
		RecordID: p.ChurchID,
		New:      gin.H{"logo_url": obj.URL},
		IP:       c.ClientIP(),
	})

	httpresp.OK(c, gin.H{"url": obj.URL, "message": "Logo uploaded"})
}
